package schemaindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
)

// Doc is one retrieved schema document.
type Doc struct {
	TableName string  `json:"table_name"`
	Text      string  `json:"text"`
	Score     float64 `json:"score,omitempty"`
}

// search runs vector similarity when the embedder can serve the query,
// falling back to FTS5 keyword search otherwise. Results are ordered by
// descending score, at most k entries.
func search(ctx context.Context, db *sql.DB, embedder Embedder, query string, k int) ([]Doc, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 3
	}

	if embedder != nil && embedder.SupportsEmbeddings() && embedder.Available() {
		docs, err := searchVector(ctx, db, embedder, query, k)
		if err != nil {
			L_warn("schemaindex: vector search failed, falling back to keyword", "error", err)
		} else if len(docs) > 0 {
			return docs, nil
		}
	}

	return searchKeyword(db, query, k)
}

// searchVector embeds the query and ranks stored docs by cosine similarity.
func searchVector(ctx context.Context, db *sql.DB, embedder Embedder, query string, k int) ([]Doc, error) {
	queryEmbedding, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryEmbedding) == 0 {
		return nil, nil
	}

	rows, err := db.Query(`
		SELECT table_name, doc, embedding
		FROM schema_docs
		WHERE embedding IS NOT NULL AND embedding != ''
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []Doc
	for rows.Next() {
		var (
			tableName, doc string
			blob           []byte
		)
		if err := rows.Scan(&tableName, &doc, &blob); err != nil {
			continue
		}
		var embedding []float32
		if err := json.Unmarshal(blob, &embedding); err != nil {
			continue
		}
		sim := cosineSimilarity(queryEmbedding, embedding)
		if sim > 0 {
			scored = append(scored, Doc{TableName: tableName, Text: doc, Score: sim})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate docs: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}

	L_trace("schemaindex: vector search", "query", truncateForLog(query, 40), "results", len(scored))
	return scored, nil
}

// searchKeyword performs FTS5 keyword search with BM25 ranking.
func searchKeyword(db *sql.DB, query string, k int) ([]Doc, error) {
	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	// BM25 returns negative ranks (lower is better); convert to a 0-1 score
	rows, err := db.Query(`
		SELECT table_name, doc, bm25(schema_fts) AS rank
		FROM schema_fts
		WHERE schema_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Doc
	for rows.Next() {
		var (
			tableName, doc string
			rank           float64
		)
		if err := rows.Scan(&tableName, &doc, &rank); err != nil {
			continue
		}
		docs = append(docs, Doc{
			TableName: tableName,
			Text:      doc,
			Score:     1.0 / (1.0 + math.Abs(rank)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fts rows: %w", err)
	}

	L_trace("schemaindex: keyword search", "query", ftsQuery, "results", len(docs))
	return docs, nil
}

// buildFTSQuery converts a natural query to FTS5 OR-of-prefixes syntax.
// OR rather than implicit AND: a question rarely mentions every column term.
func buildFTSQuery(query string) string {
	words := strings.Fields(query)
	var parts []string
	for _, word := range words {
		word = strings.Map(func(r rune) rune {
			switch r {
			case '*', '"', '\'', '(', ')', ':', '^':
				return -1
			}
			return r
		}, word)
		word = strings.TrimSpace(word)
		if word != "" {
			parts = append(parts, word+"*")
		}
	}
	return strings.Join(parts, " OR ")
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// truncateForLog truncates text for logging purposes.
func truncateForLog(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

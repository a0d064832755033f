// Package schemaindex maintains a persisted similarity index over the data
// source's schema: one document per table, searched by embedding similarity
// when an embedding provider is configured and by FTS5 keywords otherwise.
package schemaindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
)

// Embedder generates embeddings for schema docs and queries.
// llm.Provider satisfies this.
type Embedder interface {
	Model() string
	Available() bool
	SupportsEmbeddings() bool
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Manager owns the schema index handle. It is safe for concurrent sessions:
// the index is read-shared, and rebuilds are serialized so concurrent
// sessions do not race to rebuild an empty index.
type Manager struct {
	db       *sql.DB // index store
	source   *sql.DB // live data source, used to (re)build the index
	embedder Embedder

	mu    sync.Mutex // guards rebuilds
	ready bool
}

// NewManager opens (or creates) the persisted index at indexPath.
// source is the live data source whose structural metadata seeds rebuilds.
// embedder may be nil for keyword-only operation.
func NewManager(indexPath string, source *sql.DB, embedder Embedder) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", indexPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}

	L_info("schemaindex: index opened", "path", indexPath)
	return &Manager{db: db, source: source, embedder: embedder}, nil
}

// Close releases the index handle.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Search returns the top-k schema docs most similar to query, rebuilding the
// index from the data source's metadata first when it is empty, and retrying
// the retrieval once after a rebuild.
func (m *Manager) Search(ctx context.Context, query string, k int) ([]Doc, error) {
	if err := m.ensureReady(ctx); err != nil {
		return nil, err
	}

	docs, err := search(ctx, m.db, m.embedder, query, k)
	if err != nil {
		return nil, err
	}
	if len(docs) > 0 {
		return docs, nil
	}

	// Empty retrieval can mean a stale index (tables added since the last
	// build). Rebuild and retry once.
	if err := m.Rebuild(ctx); err != nil {
		return nil, err
	}
	return search(ctx, m.db, m.embedder, query, k)
}

// ensureReady rebuilds the index once if it holds no documents.
func (m *Manager) ensureReady(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}

	n, err := countDocs(m.db)
	if err != nil {
		return err
	}
	if n == 0 {
		L_warn("schemaindex: index empty, rebuilding from data source")
		if err := m.rebuildLocked(ctx); err != nil {
			return err
		}
	}
	m.ready = true
	return nil
}

// Rebuild re-extracts schema docs from the data source and re-indexes them.
func (m *Manager) Rebuild(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuildLocked(ctx)
}

func (m *Manager) rebuildLocked(ctx context.Context) error {
	docs, err := ExtractDocs(m.source)
	if err != nil {
		return fmt.Errorf("extract schema docs: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no schema documents to index")
	}

	// Embed all docs in one batch when possible; keyword-only rows otherwise
	var embeddings [][]float32
	model := ""
	if m.embedder != nil && m.embedder.SupportsEmbeddings() && m.embedder.Available() {
		texts := make([]string, len(docs))
		for i, d := range docs {
			texts[i] = d.Text
		}
		embeddings, err = m.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			L_warn("schemaindex: embedding docs failed, indexing keyword-only", "error", err)
			embeddings = nil
		} else {
			model = m.embedder.Model()
		}
	}

	if err := clearDocs(m.db); err != nil {
		return err
	}

	now := time.Now().Unix()
	for i, d := range docs {
		var blob []byte
		if embeddings != nil && i < len(embeddings) && len(embeddings[i]) > 0 {
			blob, _ = json.Marshal(embeddings[i])
		}
		if _, err := m.db.Exec(`
			INSERT INTO schema_docs (table_name, doc, embedding, embedding_model, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, d.TableName, d.Text, blob, model, now); err != nil {
			return fmt.Errorf("index doc %s: %w", d.TableName, err)
		}
	}

	L_info("schemaindex: index rebuilt", "docs", len(docs), "embedded", embeddings != nil)
	return nil
}

// Stats returns the number of indexed docs and the embedding model in use.
func (m *Manager) Stats() (docs int, model string) {
	n, err := countDocs(m.db)
	if err != nil {
		return 0, ""
	}
	if m.embedder != nil {
		model = m.embedder.Model()
	}
	return n, model
}

package schemaindex

import (
	"database/sql"
	"fmt"
	"strings"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
)

// ExtractDocs reads the data source's structural metadata and renders one
// document per user table:
//
//	Table: orders
//	Columns:
//	id (INTEGER)
//	customer_id (INTEGER)
//	...
//
// System tables (sqlite_*) are excluded. Tables without columns are skipped.
func ExtractDocs(source *sql.DB) ([]Doc, error) {
	rows, err := source.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	var docs []Doc
	for _, table := range tables {
		cols, err := tableColumns(source, table)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			continue
		}
		docs = append(docs, Doc{
			TableName: table,
			Text:      fmt.Sprintf("Table: %s\nColumns:\n%s", table, strings.Join(cols, "\n")),
		})
	}

	L_info("schemaindex: extracted schema docs", "tables", len(docs))
	return docs, nil
}

// tableColumns returns "name (TYPE)" lines for one table.
func tableColumns(source *sql.DB, table string) ([]string, error) {
	rows, err := source.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			dfltValue  sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dfltValue, &primaryKey); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		cols = append(cols, fmt.Sprintf("%s (%s)", name, typ))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s: %w", table, err)
	}
	return cols, nil
}

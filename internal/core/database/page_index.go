package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/core/filters"
	"github.com/markdave123-py/docsearch/internal/models"
)

var (
	_ core.VectorIndex = (*DatabaseClient)(nil)
	_ core.IndexWriter = (*DatabaseClient)(nil)
)

const pageColumns = "text, page, source, link, shortname, isin, issuer_name, filename, industry, risk_type, green"

// EnsureSchema creates the page table and records its vectorization rules.
// It does nothing when the table already exists.
func (c *DatabaseClient) EnsureSchema(ctx context.Context) error {
	var exists bool
	if err := c.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, c.indexTable).Scan(&exists); err != nil {
		return fmt.Errorf("check index table: %w", err)
	}
	if exists {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	create := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          UUID PRIMARY KEY,
			text        TEXT NOT NULL,
			page        INT NOT NULL,
			source      TEXT NOT NULL,
			link        TEXT NOT NULL DEFAULT '',
			shortname   TEXT NOT NULL DEFAULT '',
			isin        TEXT NOT NULL DEFAULT '',
			issuer_name TEXT NOT NULL DEFAULT '',
			filename    TEXT NOT NULL DEFAULT '',
			industry    TEXT NOT NULL DEFAULT '',
			risk_type   TEXT NOT NULL DEFAULT '',
			green       TEXT NOT NULL DEFAULT '',
			embedding   vector(%d) NOT NULL
		)`, c.indexTable, c.embedDim)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create index table: %w", err)
	}
	hnsw := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
		indexName(c.indexClass, "embedding"), c.indexTable)
	if _, err := tx.ExecContext(ctx, hnsw); err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_properties WHERE class_name = $1`, c.indexClass); err != nil {
		return fmt.Errorf("reset index properties: %w", err)
	}
	for pos, p := range models.IndexSchema {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO index_properties (class_name, position, name, data_type, vectorized) VALUES ($1, $2, $3, $4, $5)`,
			c.indexClass, pos, p.Name, p.DataType, p.Vectorized); err != nil {
			return fmt.Errorf("insert index property %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) DropSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+c.indexTable); err != nil {
		return fmt.Errorf("drop index table: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM index_properties WHERE class_name = $1`, c.indexClass); err != nil {
		return fmt.Errorf("delete index properties: %w", err)
	}
	return nil
}

func (c *DatabaseClient) DescribeSchema(ctx context.Context) ([]models.IndexProperty, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name, data_type, vectorized FROM index_properties WHERE class_name = $1 ORDER BY position`, c.indexClass)
	if err != nil {
		return nil, fmt.Errorf("select index properties: %w", err)
	}
	defer rows.Close()

	var out []models.IndexProperty
	for rows.Next() {
		var p models.IndexProperty
		if err := rows.Scan(&p.Name, &p.DataType, &p.Vectorized); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertPages writes pages in a single transaction.
func (c *DatabaseClient) InsertPages(ctx context.Context, pages []models.DocumentPage) error {
	if len(pages) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`INSERT INTO %s (id, %s, embedding) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.indexTable, pageColumns)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range pages {
		p := &pages[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		m := p.Metadata
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Text, p.Page, p.Source,
			m.Link, m.Shortname, m.ISIN, m.IssuerName, m.Filename, m.Industry, m.RiskType, m.Green,
			pgvector.NewVector(p.Embedding),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert page %s#%d: %w", p.Source, p.Page, err)
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) CountPages(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM `+c.indexTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// SimilaritySearch orders pages by cosine distance to vec. Certainty is
// 1 - distance/2, which maps cosine distance onto [0,1].
func (c *DatabaseClient) SimilaritySearch(ctx context.Context, vec []float32, where filters.Predicate, limit int) ([]models.Passage, error) {
	cond, args, err := renderWhere(where, []any{pgvector.NewVector(vec)})
	if err != nil {
		return nil, fmt.Errorf("render filter: %w", err)
	}
	args = append(args, limit)
	q := fmt.Sprintf(`
		SELECT %s, embedding <=> $1 AS distance
		FROM %s
		WHERE %s
		ORDER BY distance
		LIMIT $%d`, pageColumns, c.indexTable, cond, len(args))

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var out []models.Passage
	for rows.Next() {
		var (
			p models.Passage
			m = &p.Metadata
		)
		if err := rows.Scan(&p.Content, &p.Page, &p.Source,
			&m.Link, &m.Shortname, &m.ISIN, &m.IssuerName, &m.Filename, &m.Industry, &m.RiskType, &m.Green,
			&p.Distance); err != nil {
			return nil, err
		}
		p.Certainty = 1 - p.Distance/2
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DistinctValues(ctx context.Context, prop models.FilterProperty) ([]string, error) {
	col, ok := metadataColumns[prop]
	if !ok {
		return nil, fmt.Errorf("unknown filter property %q", prop)
	}
	q := fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE %s <> '' ORDER BY %s`, col, c.indexTable, col, col)
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func indexName(class, suffix string) string {
	clean := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return '_'
	}, strings.ToLower(class))
	return clean + "_" + suffix + "_idx"
}

package sql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yemen-sarraf/sarraf/storage"
)

// Storage is a Postgres-backed hierarchical store. Leaf paths live in
// a single (path, value) table with jsonb values
type Storage struct {
	conn *pgx.Conn
}

func NewStorage(conn *pgx.Conn) *Storage {
	return &Storage{
		conn: conn,
	}
}

func (s *Storage) Get(ctx context.Context, path string, out any) error {
	rows, err := s.conn.Query(
		ctx,
		`SELECT path, value FROM publish_paths WHERE path = $1 OR path LIKE $1 || '/%'`,
		path,
	)
	if err != nil {
		return fmt.Errorf("unable to query paths: %w", err)
	}
	defer rows.Close()

	leaves := make(map[string]any)

	for rows.Next() {
		var (
			leafPath string
			raw      []byte
		)

		if err := rows.Scan(&leafPath, &raw); err != nil {
			return fmt.Errorf("unable to scan path row: %w", err)
		}

		leaves[leafPath] = json.RawMessage(raw)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("unable to read path rows: %w", err)
	}

	return storage.Assemble(leaves, path, out)
}

func (s *Storage) Update(ctx context.Context, updates map[string]any) error {
	flat := storage.Leaves(updates)
	if len(flat) == 0 {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("unable to begin tx: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for path, value := range flat {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("unable to encode value at %q: %w", path, err)
		}

		_, err = tx.Exec(
			ctx,
			`INSERT INTO publish_paths (path, value)
			 VALUES ($1, $2)
			 ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value`,
			path,
			raw,
		)
		if err != nil {
			return fmt.Errorf("unable to upsert %q: %w", path, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("unable to commit update: %w", err)
	}

	return nil
}

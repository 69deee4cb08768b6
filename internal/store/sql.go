package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQL stores values in the kv_store table of a PostgreSQL or SQLite database.
type SQL struct {
	db        *sqlx.DB
	namespace string
}

func NewSQL(db *sqlx.DB, namespace string) *SQL {
	return &SQL{db: db, namespace: namespace}
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	var value string
	q := s.db.Rebind(`SELECT value FROM kv_store WHERE namespace = ? AND key = ?`)
	err := s.db.GetContext(ctx, &value, q, s.namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	q := s.db.Rebind(`
INSERT INTO kv_store (namespace, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, s.namespace, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	q := s.db.Rebind(`DELETE FROM kv_store WHERE namespace = ? AND key = ?`)
	if _, err := s.db.ExecContext(ctx, q, s.namespace, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLKV stores slots in the kv_slots table created by db.Open.
type SQLKV struct {
	db *sql.DB
}

func NewSQLKV(db *sql.DB) *SQLKV {
	return &SQLKV{db: db}
}

func (s *SQLKV) Get(ctx context.Context, slot string) ([]byte, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_slots WHERE slot=$1`, slot).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (s *SQLKV) Put(ctx context.Context, slot string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO kv_slots (slot,value,updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (slot) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
		slot, string(value), time.Now().Unix())
	return err
}

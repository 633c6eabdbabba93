/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	// language=PostgreSQL
	pgStateDDL = `CREATE TABLE IF NOT EXISTS lightsup_state (
		key        TEXT PRIMARY KEY,
		payload    BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	// language=PostgreSQL
	pgUpsert = `INSERT INTO lightsup_state (key, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
)

// Postgres keeps blobs in a shared PostgreSQL database, one row per key.
type Postgres struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, pgStateDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	var b []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM lightsup_state WHERE key = $1`, key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select state: %w", err)
	}
	return b, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, pgUpsert, key, data); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

func (p *Postgres) Driver() Driver { return DriverPostgres }
func (p *Postgres) Close() error   { return p.db.Close() }

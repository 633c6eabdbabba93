/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davidroberthoare/lightsup/internal/domain"
	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the items schema. Bump it and add a step to runMigrations
// for breaking changes.
const schemaVersion = 2

const (
	// language=SQL
	ddlItems = `CREATE TABLE IF NOT EXISTS items (
		id       TEXT PRIMARY KEY,
		type     TEXT NOT NULL CHECK(type IN ('fixture','position')),
		shape    TEXT NOT NULL DEFAULT '',
		x        REAL NOT NULL DEFAULT 0,
		y        REAL NOT NULL DEFAULT 0,
		angle    REAL NOT NULL DEFAULT 0,
		scalex   REAL NOT NULL DEFAULT 1,
		scaley   REAL NOT NULL DEFAULT 1,
		position TEXT NOT NULL DEFAULT '',
		number   INTEGER NOT NULL DEFAULT 0,
		label    TEXT NOT NULL DEFAULT '',
		channel  TEXT NOT NULL DEFAULT '',
		dimmer   TEXT NOT NULL DEFAULT '',
		gel      TEXT NOT NULL DEFAULT ''
	);`
	// language=SQL
	ddlVersion = `CREATE TABLE IF NOT EXISTS version (
		id         INTEGER PRIMARY KEY CHECK(id=1),
		schema     INTEGER NOT NULL,
		app        TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	// language=SQL
	idxItemsPosition = `CREATE INDEX IF NOT EXISTS idx_items_position ON items(position, x DESC, y DESC);`

	itemColumns = `id, type, shape, x, y, angle, scalex, scaley, position, number, label, channel, dimmer, gel`
	// language=SQL
	insertItem = `INSERT INTO items (` + itemColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	// language=SQL
	updateItem = `UPDATE items SET shape=?, x=?, y=?, angle=?, scalex=?, scaley=?, position=?, number=?,
		label=?, channel=?, dimmer=?, gel=? WHERE id=?`
)

// SQLite is a Repository backed by an embedded SQLite database.
type SQLite struct {
	db   *sql.DB
	path string

	NewID func() string
}

var _ Repository = (*SQLite)(nil)

// OpenSQLite opens (or creates) the items database at path. An empty path
// opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	l := applog.WithOperation(applog.WithComponent("store"), "sqlite_open").With(slog.String("path", path))

	var dsn string
	memory := strings.TrimSpace(path) == ""
	if memory {
		// shared cache keeps the database alive across pooled connections
		dsn = fmt.Sprintf("file:lightsup-%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", domain.NewID())
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if !memory {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	s := &SQLite{db: db, path: path, NewID: domain.NewID}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("items store ready")
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	for _, q := range []string{ddlVersion, ddlItems} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh databases start at 1 and migrate forward like existing ones
		if _, err := s.db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES (1, 1, ?, ?, ?)`,
			version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := s.db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies schema steps up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{idxItemsPosition}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema recorded in the database.
func (s *SQLite) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS items`); err != nil {
		return fmt.Errorf("drop items: %w", err)
	}
	for _, q := range []string{ddlItems, idxItemsPosition} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("recreate items: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Create(ctx context.Context, it domain.Item) (string, error) {
	it.ID = s.NewID()
	if err := s.Insert(ctx, it); err != nil {
		return "", err
	}
	return it.ID, nil
}

func (s *SQLite) Insert(ctx context.Context, it domain.Item) error {
	it, err := prepare(it)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, insertItem,
		it.ID, string(it.Type), it.Shape, it.X, it.Y, it.Angle, it.ScaleX, it.ScaleY,
		it.Position, int(it.Number), it.Label, it.Channel, it.Dimmer, it.Gel)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateField(ctx context.Context, id string, f domain.Field, value string) error {
	return s.modify(ctx, id, func(it domain.Item) (domain.Item, error) { return applyField(it, f, value) })
}

func (s *SQLite) UpdateGeometry(ctx context.Context, id string, x, y, scalex, scaley, angle float64) error {
	return s.modify(ctx, id, func(it domain.Item) (domain.Item, error) {
		return applyGeometry(it, x, y, scalex, scaley, angle)
	})
}

// modify reads, transforms and writes one row inside a transaction.
func (s *SQLite) modify(ctx context.Context, id string, fn func(domain.Item) (domain.Item, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id=?`, id)
	cur, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("select item: %w", err)
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, updateItem,
		next.Shape, next.X, next.Y, next.Angle, next.ScaleX, next.ScaleY, next.Position, int(next.Number),
		next.Label, next.Channel, next.Dimmer, next.Gel, id); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLite) QueryAll(ctx context.Context) ([]domain.Item, error) {
	return s.query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY rowid`)
}

func (s *SQLite) QueryByIDs(ctx context.Context, ids []string) ([]domain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + itemColumns + ` FROM items WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	found, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Item, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	out := make([]domain.Item, 0, len(found))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *SQLite) QueryByPosition(ctx context.Context, positionID string) ([]domain.Item, error) {
	if positionID == "" {
		return nil, nil
	}
	return s.query(ctx, `SELECT `+itemColumns+` FROM items
		WHERE type='fixture' AND position=?
		ORDER BY x DESC, y DESC, id ASC`, positionID)
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanItem(r scanner) (domain.Item, error) {
	var it domain.Item
	var typ string
	var num int
	err := r.Scan(&it.ID, &typ, &it.Shape, &it.X, &it.Y, &it.Angle, &it.ScaleX, &it.ScaleY,
		&it.Position, &num, &it.Label, &it.Channel, &it.Dimmer, &it.Gel)
	it.Type = domain.ItemType(typ)
	it.Number = domain.Ordinal(num)
	return it, err
}

func isConstraint(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint")
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store holds the plot's item records. Two engines implement the
// Repository contract: an indexed in-memory map (the default) and an embedded
// SQLite database for large plots or on-disk inspection.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/davidroberthoare/lightsup/internal/domain"
)

var (
	ErrNotFound    = errors.New("item not found")
	ErrDuplicateID = errors.New("duplicate item id")
)

// Repository is the typed query surface over plot items. Every read returns
// copies that reflect the state at call time.
type Repository interface {
	// Reset drops every row and recreates the schema.
	Reset(ctx context.Context) error
	// Create assigns a fresh id to it and stores it.
	Create(ctx context.Context, it domain.Item) (string, error)
	// Insert stores it under its existing id.
	Insert(ctx context.Context, it domain.Item) error
	UpdateField(ctx context.Context, id string, f domain.Field, value string) error
	UpdateGeometry(ctx context.Context, id string, x, y, scalex, scaley, angle float64) error
	Delete(ctx context.Context, id string) error
	// QueryAll returns items in insertion order.
	QueryAll(ctx context.Context) ([]domain.Item, error)
	// QueryByIDs returns the items that exist, in the order of ids.
	QueryByIDs(ctx context.Context, ids []string) ([]domain.Item, error)
	// QueryByPosition returns the fixtures referencing positionID ordered by
	// x desc, y desc, then id.
	QueryByPosition(ctx context.Context, positionID string) ([]domain.Item, error)
	Close() error
}

// Engine selects a Repository implementation.
type Engine string

const (
	EngineMemory Engine = "memory"
	EngineSQLite Engine = "sqlite"
)

// Open returns a Repository for engine. path is only used by the sqlite engine;
// an empty path keeps the database in memory.
func Open(ctx context.Context, engine Engine, path string) (Repository, error) {
	switch Engine(strings.ToLower(string(engine))) {
	case "", EngineMemory:
		return NewMemory(), nil
	case EngineSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown store engine %q", engine)
	}
}

// SortByRank orders fixtures the way positions number them.
func SortByRank(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.X != b.X {
			return a.X > b.X
		}
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		return a.ID < b.ID
	})
}

// prepare validates a record before it is written.
func prepare(it domain.Item) (domain.Item, error) {
	it = it.Normalize()
	if err := it.Validate(); err != nil {
		return it, err
	}
	return it, nil
}

// applyField sets one field on a copy and re-validates it.
func applyField(it domain.Item, f domain.Field, value string) (domain.Item, error) {
	if err := it.Set(f, value); err != nil {
		return it, err
	}
	return prepare(it)
}

func applyGeometry(it domain.Item, x, y, scalex, scaley, angle float64) (domain.Item, error) {
	it.X, it.Y, it.ScaleX, it.ScaleY, it.Angle = x, y, scalex, scaley, angle
	return prepare(it)
}

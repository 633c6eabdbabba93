/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package kv stores named blobs durably. The plot snapshot is written here as a
// single value so a save is one atomic Set regardless of the backend.
package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Driver names a backend.
type Driver string

const (
	DriverFS       Driver = "fs"
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
)

var ErrInvalidKey = errors.New("invalid key")

// Store gets and sets named blobs. Get reports ok=false for an absent key.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
	Driver() Driver
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	// Path is the directory for fs and the database file for sqlite.
	Path string
	// DSN is the postgres connection string.
	DSN string
	// Backups is how many previous versions the fs driver keeps per key.
	Backups int
	S3      S3Config
}

// Open constructs the backend named by opts.Driver (fs when empty).
func Open(ctx context.Context, opts Options) (Store, error) {
	switch Driver(strings.ToLower(string(opts.Driver))) {
	case "", DriverFS:
		return NewFS(opts.Path, opts.Backups)
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, opts.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	default:
		return nil, fmt.Errorf("unknown kv driver %q", opts.Driver)
	}
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "github.com/davidroberthoare/lightsup/internal/log"
)

const (
	// BackupsDirName holds previous versions of each key under the store root.
	BackupsDirName = "backups"
	defaultBackups = 10
)

// FS stores each key as <root>/<key>.json. Writes go to a temp file that is
// synced and renamed over the target; the previous version is copied into
// backups/ first.
type FS struct {
	root    string
	backups int
}

// NewFS creates the store directory if needed.
func NewFS(root string, backups int) (*FS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("fs store root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if backups <= 0 {
		backups = defaultBackups
	}
	return &FS{root: root, backups: backups}, nil
}

func (s *FS) Root() string { return s.root }

func (s *FS) path(key string) string { return filepath.Join(s.root, key+".json") }

// Get returns the current value; when it is missing but backups exist the
// latest backup is returned instead.
func (s *FS) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(s.path(key))
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	latest, berr := s.latestBackup(key)
	if berr != nil || latest == "" {
		return nil, false, nil
	}
	applog.WithComponent("kv").Warn("value missing, using latest backup",
		slog.String("key", key), slog.String("backup", latest))
	b, err = os.ReadFile(latest)
	if err != nil {
		return nil, false, fmt.Errorf("read backup: %w", err)
	}
	return b, true, nil
}

func (s *FS) Set(_ context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	target := s.path(key)
	if _, err := os.Stat(target); err == nil {
		stamp := time.Now().Format("20060102-150405.000000000")
		bpath := filepath.Join(s.root, BackupsDirName, fmt.Sprintf("%s.json.%s.bak", key, stamp))
		if err := copyFile(target, bpath); err != nil {
			return fmt.Errorf("backup %s: %w", key, err)
		}
		s.prune(key)
	}

	temp := filepath.Join(s.root, fmt.Sprintf(".%s.tmp-%d-%d", key, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Rename(temp, target); err != nil {
		// Windows refuses to rename over an existing file
		_ = os.Remove(target)
		if rerr := os.Rename(temp, target); rerr != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("replace %s: %w", key, rerr)
		}
	}
	return nil
}

func (s *FS) Driver() Driver { return DriverFS }
func (s *FS) Close() error   { return nil }

// Backups lists backup files for key, oldest first.
func (s *FS) Backups(key string) ([]string, error) {
	ents, err := os.ReadDir(filepath.Join(s.root, BackupsDirName))
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := key + ".json."
	var out []string
	for _, e := range ents {
		if name := e.Name(); strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(s.root, BackupsDirName, name))
		}
	}
	sort.Strings(out) // timestamp in name sorts chronologically
	return out, nil
}

func (s *FS) latestBackup(key string) (string, error) {
	all, err := s.Backups(key)
	if err != nil || len(all) == 0 {
		return "", err
	}
	return all[len(all)-1], nil
}

func (s *FS) prune(key string) {
	all, err := s.Backups(key)
	if err != nil {
		return
	}
	for len(all) > s.backups {
		if err := os.Remove(all[0]); err != nil {
			applog.WithComponent("kv").Warn("prune backup failed", slog.String("path", all[0]), slog.Any("err", err))
		}
		all = all[1:]
	}
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = sf.Close() }()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

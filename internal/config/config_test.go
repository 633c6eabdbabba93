/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davidroberthoare/lightsup/internal/kv"
	"github.com/davidroberthoare/lightsup/internal/store"
	"github.com/zalando/go-keyring"
)

// isolate points the config file at a temp dir and mocks the keyring.
func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvStorageSecret, "")
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, secret, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Driver != "fs" || cfg.Storage.Key != "items" || cfg.StoreEngine() != store.EngineMemory {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if secret != "" {
		t.Fatalf("secret = %q, want empty", secret)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := isolate(t)
	cfg := Defaults()
	cfg.Storage.Driver = "s3"
	cfg.Storage.S3 = S3Config{Bucket: "plots", Region: "eu-central-1", PathStyle: true}
	cfg.Store.Engine = "sqlite"
	if err := Save(cfg, "s3cr3t"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(data), "s3cr3t") {
		t.Fatalf("secret leaked into config file")
	}

	got, secret, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Storage.Driver != "s3" || got.Storage.S3.Bucket != "plots" || !got.Storage.S3.PathStyle {
		t.Fatalf("storage not round-tripped: %#v", got.Storage)
	}
	if got.StoreEngine() != store.EngineSQLite {
		t.Fatalf("store engine = %q", got.StoreEngine())
	}
	if secret != "s3cr3t" {
		t.Fatalf("secret = %q, want from keyring", secret)
	}
}

func TestSecretEnvWinsOverKeyring(t *testing.T) {
	isolate(t)
	if err := Save(Defaults(), "from-keyring"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Setenv(EnvStorageSecret, "from-env")
	_, secret, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if secret != "from-env" {
		t.Fatalf("secret = %q", secret)
	}
}

func TestMalformedFileFallsBackToDefaults(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("storage: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Driver != "fs" {
		t.Fatalf("expected defaults, got %#v", cfg.Storage)
	}
}

func TestEnvOverridesStorage(t *testing.T) {
	isolate(t)
	t.Setenv(EnvStorageDriver, "Postgres")
	t.Setenv(EnvStorageDSN, "postgres://lup@db.test:5432/plots")
	t.Setenv(EnvStoreEngine, "SQLITE")
	t.Setenv(EnvSymbolsDir, "/opt/symbols")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Store.Engine != "sqlite" || cfg.General.SymbolsDir != "/opt/symbols" {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if env, ok := EnvOverrideFor("storage.dsn"); !ok || env != EnvStorageDSN {
		t.Fatalf("EnvOverrideFor(storage.dsn) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("storage.key"); ok {
		t.Fatalf("storage.key is not overridden")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/lup.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/lup.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
	lo := dst.LogOptions()
	if lo.Level != "debug" || !lo.AddSource || lo.File != "/tmp/lup.log" {
		t.Fatalf("LogOptions = %#v", lo)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/var/log/lup.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/var/log/lup.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestKVOptions(t *testing.T) {
	path := isolate(t)
	dir := filepath.Join(filepath.Dir(path), "plots")

	cases := []struct {
		name   string
		mutate func(*AppConfig)
		secret string
		check  func(t *testing.T, o kv.Options)
	}{
		{"fs defaults to data dir", func(*AppConfig) {}, "", func(t *testing.T, o kv.Options) {
			if o.Driver != kv.DriverFS || o.Path != dir || o.Backups != 3 {
				t.Fatalf("fs options = %#v", o)
			}
		}},
		{"sqlite file in data dir", func(c *AppConfig) { c.Storage.Driver = "sqlite" }, "", func(t *testing.T, o kv.Options) {
			if o.Path != filepath.Join(dir, "lightsup.db") {
				t.Fatalf("sqlite path = %q", o.Path)
			}
		}},
		{"postgres url gets password", func(c *AppConfig) {
			c.Storage.Driver = "postgres"
			c.Storage.DSN = "postgres://lup@db.test:5432/plots?sslmode=disable"
		}, "pw", func(t *testing.T, o kv.Options) {
			if o.DSN != "postgres://lup:pw@db.test:5432/plots?sslmode=disable" {
				t.Fatalf("dsn = %q", o.DSN)
			}
		}},
		{"postgres keyword dsn untouched", func(c *AppConfig) {
			c.Storage.Driver = "postgres"
			c.Storage.DSN = "host=db user=lup"
		}, "pw", func(t *testing.T, o kv.Options) {
			if o.DSN != "host=db user=lup" {
				t.Fatalf("dsn = %q", o.DSN)
			}
		}},
		{"s3 secret key", func(c *AppConfig) {
			c.Storage.Driver = "s3"
			c.Storage.S3.Bucket = "plots"
		}, "sk", func(t *testing.T, o kv.Options) {
			if o.S3.Bucket != "plots" || o.S3.SecretAccessKey != "sk" || o.Path != "" {
				t.Fatalf("s3 options = %#v", o)
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			o, err := cfg.KVOptions(tc.secret)
			if err != nil {
				t.Fatalf("KVOptions error: %v", err)
			}
			tc.check(t, o)
		})
	}
}

func TestDescribeOmitsSecrets(t *testing.T) {
	cfg := Defaults()
	for _, pair := range cfg.Describe() {
		if strings.Contains(pair[0], "secret") {
			t.Fatalf("Describe exposes %s", pair[0])
		}
	}
}

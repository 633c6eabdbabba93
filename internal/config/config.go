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
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/davidroberthoare/lightsup/internal/kv"
	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/store"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme string `yaml:"theme"` // "system" | "light" | "dark"
	// SymbolsDir holds SVG files that shadow the built-in fixture and position artwork.
	SymbolsDir string `yaml:"symbols_dir"`
}

type S3Config struct {
	Bucket      string `yaml:"bucket"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	Prefix      string `yaml:"prefix"`
	AccessKeyID string `yaml:"access_key_id"`
	PathStyle   bool   `yaml:"path_style"`
	// The secret key is not stored on disk; it lives in the OS keychain.
}

// StorageConfig selects where the plot snapshot is saved.
type StorageConfig struct {
	Driver  string   `yaml:"driver"` // fs | memory | sqlite | postgres | s3
	Path    string   `yaml:"path"`
	DSN     string   `yaml:"dsn"`
	Key     string   `yaml:"key"`
	Backups int      `yaml:"backups"`
	S3      S3Config `yaml:"s3"`
}

// StoreConfig selects the engine behind the live item store.
type StoreConfig struct {
	Engine string `yaml:"engine"` // memory | sqlite
	Path   string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Storage       StorageConfig `yaml:"storage"`
	Store         StoreConfig   `yaml:"store"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Storage:       StorageConfig{Driver: string(kv.DriverFS), Key: "items", Backups: 3},
		Store:         StoreConfig{Engine: string(store.EngineMemory)},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath    = "LUP_CONFIG"
	EnvStorageDriver = "LUP_STORAGE_DRIVER"
	EnvStoragePath   = "LUP_STORAGE_PATH"
	EnvStorageDSN    = "LUP_STORAGE_DSN"
	EnvStorageKey    = "LUP_STORAGE_KEY"
	EnvStorageSecret = "LUP_STORAGE_SECRET"
	EnvS3Bucket      = "LUP_S3_BUCKET"
	EnvS3Region      = "LUP_S3_REGION"
	EnvS3Endpoint    = "LUP_S3_ENDPOINT"
	EnvS3AccessKeyID = "LUP_S3_ACCESS_KEY_ID"
	EnvStoreEngine   = "LUP_STORE_ENGINE"
	EnvStorePath     = "LUP_STORE_PATH"
	EnvSymbolsDir    = "LUP_SYMBOLS_DIR"
	EnvLogLevel      = "LUP_LOG_LEVEL"
	EnvLogFormat     = "LUP_LOG_FORMAT"
	EnvLogSource     = "LUP_LOG_SOURCE"
	EnvLogFile       = "LUP_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "lightsup"
	keyringSecret  = "storage_secret"
)

// ConfigPath returns the per-user config file path. LUP_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "lightsup")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "lightsup")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "lightsup")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DataDir is where file-backed storage lives when no path is configured.
func DataDir() (string, error) {
	p, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), "plots"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also returns the storage secret from the keyring (or LUP_STORAGE_SECRET); the secret is
// never kept inside the struct.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applog.WithComponent("config").Warn("ignoring malformed config file",
				slog.String("path", path), slog.Any("err", err))
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	if v := os.Getenv(EnvStorageSecret); v != "" {
		return cfg, v, nil
	}
	secret, err := keyring.Get(keyringService, keyringSecret)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		applog.WithComponent("config").Debug("keyring unavailable", slog.Any("err", err))
	}
	return cfg, secret, nil
}

// Save writes the user config YAML and persists the secret into the OS keyring (if non-empty).
func Save(cfg AppConfig, secret string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if secret != "" {
		if err := keyring.Set(keyringService, keyringSecret, secret); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	if v := strings.TrimSpace(src.General.SymbolsDir); v != "" {
		dst.General.SymbolsDir = v
	}
	// storage
	if v := strings.TrimSpace(src.Storage.Driver); v != "" {
		dst.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Storage.Path); v != "" {
		dst.Storage.Path = v
	}
	if v := strings.TrimSpace(src.Storage.DSN); v != "" {
		dst.Storage.DSN = v
	}
	if v := strings.TrimSpace(src.Storage.Key); v != "" {
		dst.Storage.Key = v
	}
	if src.Storage.Backups != 0 {
		dst.Storage.Backups = src.Storage.Backups
	}
	s3 := src.Storage.S3
	if s3.Bucket != "" {
		dst.Storage.S3.Bucket = s3.Bucket
	}
	if s3.Region != "" {
		dst.Storage.S3.Region = s3.Region
	}
	if s3.Endpoint != "" {
		dst.Storage.S3.Endpoint = s3.Endpoint
	}
	if s3.Prefix != "" {
		dst.Storage.S3.Prefix = s3.Prefix
	}
	if s3.AccessKeyID != "" {
		dst.Storage.S3.AccessKeyID = s3.AccessKeyID
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Storage.S3.PathStyle = s3.PathStyle
	// item store
	if v := strings.TrimSpace(src.Store.Engine); v != "" {
		dst.Store.Engine = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Store.Path); v != "" {
		dst.Store.Path = v
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	str := func(env string, dst *string, lower bool) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			if lower {
				v = strings.ToLower(v)
			}
			*dst = v
		}
	}
	str(EnvStorageDriver, &cfg.Storage.Driver, true)
	str(EnvStoragePath, &cfg.Storage.Path, false)
	str(EnvStorageDSN, &cfg.Storage.DSN, false)
	str(EnvStorageKey, &cfg.Storage.Key, false)
	str(EnvS3Bucket, &cfg.Storage.S3.Bucket, false)
	str(EnvS3Region, &cfg.Storage.S3.Region, false)
	str(EnvS3Endpoint, &cfg.Storage.S3.Endpoint, false)
	str(EnvS3AccessKeyID, &cfg.Storage.S3.AccessKeyID, false)
	str(EnvStoreEngine, &cfg.Store.Engine, true)
	str(EnvStorePath, &cfg.Store.Path, false)
	str(EnvSymbolsDir, &cfg.General.SymbolsDir, false)
	// logging overrides
	str(EnvLogLevel, &cfg.Logging.Level, true)
	str(EnvLogFormat, &cfg.Logging.Format, true)
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	str(EnvLogFile, &cfg.Logging.File, false)
}

var overrides = map[string]string{
	"general.symbols_dir":      EnvSymbolsDir,
	"storage.driver":           EnvStorageDriver,
	"storage.path":             EnvStoragePath,
	"storage.dsn":              EnvStorageDSN,
	"storage.key":              EnvStorageKey,
	"storage.s3.bucket":        EnvS3Bucket,
	"storage.s3.region":        EnvS3Region,
	"storage.s3.endpoint":      EnvS3Endpoint,
	"storage.s3.access_key_id": EnvS3AccessKeyID,
	"store.engine":             EnvStoreEngine,
	"store.path":               EnvStorePath,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := overrides[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// KVOptions maps the storage section onto kv.Options. The secret becomes the
// S3 secret key, or the password of a URL-style postgres DSN.
func (c AppConfig) KVOptions(secret string) (kv.Options, error) {
	s := c.Storage
	opts := kv.Options{
		Driver:  kv.Driver(s.Driver),
		Path:    s.Path,
		DSN:     s.DSN,
		Backups: s.Backups,
		S3: kv.S3Config{
			Bucket:          s.S3.Bucket,
			Region:          s.S3.Region,
			Endpoint:        s.S3.Endpoint,
			Prefix:          s.S3.Prefix,
			AccessKeyID:     s.S3.AccessKeyID,
			SecretAccessKey: secret,
			PathStyle:       s.S3.PathStyle,
		},
	}
	if opts.Path == "" {
		dir, err := DataDir()
		if err != nil {
			return opts, err
		}
		switch opts.Driver {
		case kv.DriverSQLite:
			opts.Path = filepath.Join(dir, "lightsup.db")
		case "", kv.DriverFS:
			opts.Path = dir
		}
	}
	if opts.Driver == kv.DriverPostgres && secret != "" {
		opts.DSN = withPassword(opts.DSN, secret)
	}
	return opts, nil
}

// withPassword sets the password of a postgres:// DSN; key=value DSNs are
// returned unchanged.
func withPassword(dsn, secret string) string {
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return dsn
	}
	user := ""
	if u.User != nil {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, secret)
	return u.String()
}

// LogOptions maps the logging section onto the logger options.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

// StoreEngine is the configured item store engine.
func (c AppConfig) StoreEngine() store.Engine { return store.Engine(c.Store.Engine) }

// Describe lists the effective settings as key/value lines, for diagnostics.
// Secrets are never included.
func (c AppConfig) Describe() [][2]string {
	return [][2]string{
		{"config_version", strconv.Itoa(c.ConfigVersion)},
		{"general.theme", c.General.Theme},
		{"general.symbols_dir", c.General.SymbolsDir},
		{"storage.driver", c.Storage.Driver},
		{"storage.path", c.Storage.Path},
		{"storage.key", c.Storage.Key},
		{"storage.backups", strconv.Itoa(c.Storage.Backups)},
		{"storage.s3.bucket", c.Storage.S3.Bucket},
		{"storage.s3.region", c.Storage.S3.Region},
		{"storage.s3.endpoint", c.Storage.S3.Endpoint},
		{"store.engine", c.Store.Engine},
		{"store.path", c.Store.Path},
		{"logging.level", c.Logging.Level},
		{"logging.format", c.Logging.Format},
		{"logging.source", strconv.FormatBool(c.Logging.Source)},
		{"logging.file", c.Logging.File},
	}
}

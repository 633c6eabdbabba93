/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session opens the configured backends and holds everything one
// open plot needs: the blob store, the live item store, the show records and
// the bridge between them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/davidroberthoare/lightsup/internal/artwork"
	"github.com/davidroberthoare/lightsup/internal/config"
	"github.com/davidroberthoare/lightsup/internal/editor"
	"github.com/davidroberthoare/lightsup/internal/kv"
	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/metrics"
	"github.com/davidroberthoare/lightsup/internal/persist"
	"github.com/davidroberthoare/lightsup/internal/report"
	"github.com/davidroberthoare/lightsup/internal/store"
)

// Session is an open plot.
type Session struct {
	Config  config.AppConfig
	KV      kv.Store
	Items   store.Repository
	Shows   *store.Shows
	Bridge  *persist.Bridge
	Metrics *metrics.Metrics
	Library *artwork.Library
}

// Option adjusts how a session is opened.
type Option func(*openOptions)

type openOptions struct {
	kv       kv.Store
	notifier persist.Notifier
}

// WithKV uses an already open blob store instead of the configured driver.
func WithKV(s kv.Store) Option { return func(o *openOptions) { o.kv = s } }

// WithNotifier reports successful saves to the user.
func WithNotifier(n persist.Notifier) Option { return func(o *openOptions) { o.notifier = n } }

// Open connects the backends named by cfg and loads the stored plot. A stored
// plot that cannot be decoded is logged and the session starts empty.
func Open(ctx context.Context, cfg config.AppConfig, secret string, opts ...Option) (*Session, error) {
	var o openOptions
	for _, fn := range opts {
		fn(&o)
	}
	l := applog.WithOperation(applog.WithComponent("session"), "open")

	blobs := o.kv
	if blobs == nil {
		kvOpts, err := cfg.KVOptions(secret)
		if err != nil {
			return nil, err
		}
		if blobs, err = kv.Open(ctx, kvOpts); err != nil {
			return nil, fmt.Errorf("open %s storage: %w", kvOpts.Driver, err)
		}
	}
	items, err := store.Open(ctx, cfg.StoreEngine(), cfg.Store.Path)
	if err != nil {
		_ = blobs.Close()
		return nil, fmt.Errorf("open item store: %w", err)
	}

	s := &Session{
		Config:  cfg,
		KV:      blobs,
		Items:   items,
		Shows:   store.NewShows(),
		Metrics: metrics.New(),
		Library: artwork.NewLibrary(cfg.General.SymbolsDir),
	}
	bopts := []persist.Option{persist.WithMetrics(s.Metrics)}
	if cfg.Storage.Key != "" {
		bopts = append(bopts, persist.WithKey(cfg.Storage.Key))
	}
	if o.notifier != nil {
		bopts = append(bopts, persist.WithNotifier(o.notifier))
	}
	s.Bridge = persist.New(blobs, items, s.Shows, bopts...)

	if err := s.Bridge.Load(ctx); err != nil {
		if !errors.Is(err, persist.ErrInvalidSnapshot) {
			_ = s.Close()
			return nil, err
		}
		l.Warn("stored plot ignored", slog.String("key", s.Bridge.Key()), slog.Any("err", err))
	}
	l.Info("session open",
		slog.String("driver", string(blobs.Driver())),
		slog.String("engine", string(cfg.StoreEngine())),
		slog.String("key", s.Bridge.Key()))
	return s, nil
}

// Editor builds an editor over the session's stores. Callers add the UI
// collaborators through opts.
func (s *Session) Editor(engine editor.Engine, opts ...editor.Option) *editor.Editor {
	base := []editor.Option{
		editor.WithArtwork(s.Library),
		editor.WithSaver(s.Bridge),
		editor.WithShows(s.Shows),
		editor.WithMetrics(s.Metrics),
	}
	return editor.New(s.Items, engine, append(base, opts...)...)
}

// Report builds the fixture schedule for the current contents.
func (s *Session) Report(ctx context.Context) (report.Report, error) {
	items, err := s.Items.QueryAll(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(items), nil
}

// Close releases both stores.
func (s *Session) Close() error {
	return errors.Join(s.Items.Close(), s.KV.Close())
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package persist moves the whole item store to and from one key-value blob.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/kv"
	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/metrics"
	"github.com/davidroberthoare/lightsup/internal/store"
)

// DefaultKey is the blob name holding the plot.
const DefaultKey = "items"

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(msg string)
}

// NotifyFunc adapts a plain function to Notifier.
type NotifyFunc func(msg string)

func (f NotifyFunc) Notify(msg string) { f(msg) }

// Bridge serializes the item store and show records into a single blob.
// Load and Save exclude each other.
type Bridge struct {
	mu      sync.Mutex
	kv      kv.Store
	items   store.Repository
	shows   *store.Shows
	key     string
	notify  Notifier
	metrics *metrics.Metrics
}

type Option func(*Bridge)

func WithKey(key string) Option { return func(b *Bridge) { b.key = key } }

func WithNotifier(n Notifier) Option { return func(b *Bridge) { b.notify = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(b *Bridge) { b.metrics = m } }

func New(kvs kv.Store, items store.Repository, shows *store.Shows, opts ...Option) *Bridge {
	b := &Bridge{kv: kvs, items: items, shows: shows, key: DefaultKey}
	for _, o := range opts {
		o(b)
	}
	if b.shows == nil {
		b.shows = store.NewShows()
	}
	return b
}

func (b *Bridge) Key() string { return b.key }

// Load replaces the store contents with the persisted snapshot. An absent
// blob leaves the store empty. A blob that fails to decode or to insert
// leaves the store as it was.
func (b *Bridge) Load(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := time.Now()
	l := applog.WithOperation(applog.WithComponent("persist"), "load").With(
		slog.String("driver", string(b.kv.Driver())),
		slog.String("key", b.key),
	)

	data, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		l.Error("read snapshot failed", slog.Any("err", err))
		return fmt.Errorf("read snapshot: %w", err)
	}
	if !ok {
		if err := b.items.Reset(ctx); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
		b.shows.Replace(nil, "")
		l.Info("no snapshot found; starting empty")
		return nil
	}

	snap, err := Decode(data)
	if err != nil {
		l.Error("decode snapshot failed", slog.Any("err", err))
		return err
	}
	prev, err := b.items.QueryAll(ctx)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	if err := b.replaceItems(ctx, snap.Items); err != nil {
		l.Error("insert items failed; restoring previous contents", slog.Any("err", err))
		if rerr := b.replaceItems(ctx, prev); rerr != nil {
			l.Error("restore failed", slog.Any("err", rerr))
		}
		return err
	}
	b.shows.Replace(snap.Shows, snap.CurrentShow)
	b.metrics.Loaded(start)
	l.Info("snapshot loaded", slog.Int("items", len(snap.Items)), slog.Int("shows", len(snap.Shows)))
	return nil
}

// replaceItems resets the store and inserts items in order.
func (b *Bridge) replaceItems(ctx context.Context, items []domain.Item) error {
	if err := b.items.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	for _, it := range items {
		if err := b.items.Insert(ctx, it); err != nil {
			return fmt.Errorf("insert %s: %w", it.ID, err)
		}
	}
	return nil
}

// Save writes the whole store under the bridge key and notifies on success.
func (b *Bridge) Save(ctx context.Context) error {
	n, err := b.write(ctx, b.key)
	if err != nil {
		return err
	}
	if b.notify != nil {
		b.notify.Notify(fmt.Sprintf("Saved %d items", n))
	}
	return nil
}

// SaveAs writes the whole store under another key without notifying.
func (b *Bridge) SaveAs(ctx context.Context, key string) error {
	_, err := b.write(ctx, key)
	return err
}

// Snapshot captures the current store contents.
func (b *Bridge) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot(ctx)
}

func (b *Bridge) snapshot(ctx context.Context) (domain.Snapshot, error) {
	items, err := b.items.QueryAll(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query items: %w", err)
	}
	return domain.Snapshot{
		Version:     domain.SnapshotVersion,
		Items:       items,
		Shows:       b.shows.All(),
		CurrentShow: b.shows.Selected(),
	}, nil
}

func (b *Bridge) write(ctx context.Context, key string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := time.Now()
	l := applog.WithOperation(applog.WithComponent("persist"), "save").With(
		slog.String("driver", string(b.kv.Driver())),
		slog.String("key", key),
	)
	snap, err := b.snapshot(ctx)
	if err != nil {
		l.Error("snapshot failed", slog.Any("err", err))
		return 0, err
	}
	data, err := Encode(snap)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := b.kv.Set(ctx, key, data); err != nil {
		l.Error("write snapshot failed", slog.Any("err", err))
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	b.metrics.Saved(start)
	l.Info("snapshot saved", slog.Int("items", len(snap.Items)), slog.Int("bytes", len(data)))
	return len(snap.Items), nil
}

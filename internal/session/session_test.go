/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"testing"

	"github.com/davidroberthoare/lightsup/internal/config"
	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/kv"
	"github.com/davidroberthoare/lightsup/internal/persist"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

func TestOpenSaveReopenFS(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Storage.Path = t.TempDir()

	s, err := Open(ctx, cfg, "")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	pos := domain.NewItem(domain.TypePosition, "pipe", 0, 0)
	pos.Label = "FOH"
	posID, err := s.Items.Create(ctx, pos)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	fx := domain.NewItem(domain.TypeFixture, "par", 10, 0)
	fx.Position = posID
	if _, err := s.Items.Create(ctx, fx); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := s.Bridge.Save(ctx); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	again, err := Open(ctx, cfg, "")
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() { _ = again.Close() }()
	all, err := again.Items.QueryAll(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("reloaded %d items, err %v", len(all), err)
	}
	r, err := again.Report(ctx)
	if err != nil {
		t.Fatalf("Report error: %v", err)
	}
	if len(r.Groups) != 1 || r.Groups[0].Label != "FOH" || r.Total != 1 {
		t.Fatalf("unexpected report: %#v", r)
	}
}

func TestOpenIgnoresInvalidSnapshot(t *testing.T) {
	ctx := context.Background()
	blobs := kv.NewMemory()
	if err := blobs.Set(ctx, persist.DefaultKey, []byte(`{"items": 7}`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	s, err := Open(ctx, config.Defaults(), "", WithKV(blobs))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	all, _ := s.Items.QueryAll(ctx)
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d items", len(all))
	}
}

func TestOpenUnknownEngine(t *testing.T) {
	cfg := config.Defaults()
	cfg.Store.Engine = "oracle"
	if _, err := Open(context.Background(), cfg, "", WithKV(kv.NewMemory())); err == nil {
		t.Fatalf("expected error for unknown store engine")
	}
}

func TestEditorIsWiredToSession(t *testing.T) {
	ctx := context.Background()
	var saved []string
	s, err := Open(ctx, config.Defaults(), "", WithKV(kv.NewMemory()),
		WithNotifier(persist.NotifyFunc(func(msg string) { saved = append(saved, msg) })))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	ed := s.Editor(vector.NewScene())
	if _, ok := ed.Insert(ctx, domain.TypeFixture, "par", vector.Pt{X: 5, Y: 5}); !ok {
		t.Fatalf("Insert failed")
	}
	ed.Settle()
	ed.Save(ctx)
	if len(saved) != 1 || saved[0] != "Saved 1 items" {
		t.Fatalf("notifications = %v", saved)
	}
	if _, ok, _ := s.KV.Get(ctx, persist.DefaultKey); !ok {
		t.Fatalf("snapshot not written through the editor")
	}
}

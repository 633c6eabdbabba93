/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package persist

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/kv"
	"github.com/davidroberthoare/lightsup/internal/metrics"
	"github.com/davidroberthoare/lightsup/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func seed(t *testing.T, repo store.Repository) {
	t.Helper()
	ctx := context.Background()
	pos := domain.NewItem(domain.TypePosition, "", 0, 0)
	pos.ID, pos.Label = "pos000000001", "1st Electric"
	fx := domain.NewItem(domain.TypeFixture, "ers", 10, 5)
	fx.ID, fx.Position, fx.Number, fx.Channel, fx.Gel = "fix000000001", pos.ID, 1, "12", "R02"
	for _, it := range []domain.Item{pos, fx} {
		if err := repo.Insert(ctx, it); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}
}

func sortedIDs(items []domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	sort.Strings(out)
	return out
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs := kv.NewMemory()
	repo := store.NewMemory()
	seed(t, repo)
	shows := store.NewShows()
	if err := shows.Update(domain.ShowVenue, "Globe"); err != nil {
		t.Fatalf("Update show error: %v", err)
	}

	var notes []string
	m := metrics.New()
	b := New(blobs, repo, shows, WithNotifier(NotifyFunc(func(s string) { notes = append(notes, s) })), WithMetrics(m))
	if err := b.Save(ctx); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if len(notes) != 1 || notes[0] != "Saved 2 items" {
		t.Fatalf("unexpected notifications: %v", notes)
	}
	if got := testutil.ToFloat64(m.SnapshotSaves); got != 1 {
		t.Fatalf("saves metric = %v", got)
	}

	repo2 := store.NewMemory()
	shows2 := store.NewShows()
	b2 := New(blobs, repo2, shows2)
	if err := b2.Load(ctx); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	before, _ := repo.QueryAll(ctx)
	after, _ := repo2.QueryAll(ctx)
	if len(before) != len(after) {
		t.Fatalf("item count mismatch: %d vs %d", len(before), len(after))
	}
	byID := map[string]domain.Item{}
	for _, it := range before {
		byID[it.ID] = it
	}
	for _, it := range after {
		if byID[it.ID] != it {
			t.Fatalf("item %s changed across round trip: %+v vs %+v", it.ID, byID[it.ID], it)
		}
	}
	if shows2.Current().Venue != "Globe" || shows2.CurrentID() != shows.CurrentID() {
		t.Fatalf("show not restored: %+v", shows2.Current())
	}
}

func TestLoadAbsentLeavesEmptyStore(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	seed(t, repo)
	b := New(kv.NewMemory(), repo, nil)
	if err := b.Load(ctx); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	items, _ := repo.QueryAll(ctx)
	if len(items) != 0 {
		t.Fatalf("expected empty store, got %d items", len(items))
	}
}

func TestLoadCorruptSnapshotKeepsStore(t *testing.T) {
	ctx := context.Background()
	blobs := kv.NewMemory()
	repo := store.NewMemory()
	seed(t, repo)
	b := New(blobs, repo, nil)

	cases := map[string]string{
		"garbage":    `{not json`,
		"wrong type": `{"items":[{"id":"a","type":"lamp"}]}`,
		"duplicate":  `[{"id":"a","type":"fixture"},{"id":"a","type":"fixture"}]`,
		"future":     `{"version":99,"items":[]}`,
	}
	for name, payload := range cases {
		if err := blobs.Set(ctx, DefaultKey, []byte(payload)); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		err := b.Load(ctx)
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Fatalf("%s: expected ErrInvalidSnapshot, got %v", name, err)
		}
		items, _ := repo.QueryAll(ctx)
		if len(items) != 2 {
			t.Fatalf("%s: store changed after failed load: %d items", name, len(items))
		}
	}
}

// failingInsert refuses to insert one id.
type failingInsert struct {
	store.Repository
	id string
}

func (f failingInsert) Insert(ctx context.Context, it domain.Item) error {
	if it.ID == f.id {
		return errors.New("disk full")
	}
	return f.Repository.Insert(ctx, it)
}

func TestLoadInsertFailureRestoresStore(t *testing.T) {
	ctx := context.Background()
	blobs := kv.NewMemory()

	other := store.NewMemory()
	for _, id := range []string{"fix000000002", "fix000000003"} {
		it := domain.NewItem(domain.TypeFixture, "par", 0, 0)
		it.ID = id
		if err := other.Insert(ctx, it); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}
	if err := New(blobs, other, nil).Save(ctx); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	repo := store.NewMemory()
	seed(t, repo)
	b := New(blobs, failingInsert{Repository: repo, id: "fix000000003"}, nil)
	if err := b.Load(ctx); err == nil {
		t.Fatalf("expected load to fail")
	}
	items, err := repo.QueryAll(ctx)
	if err != nil {
		t.Fatalf("QueryAll error: %v", err)
	}
	if got := sortedIDs(items); len(got) != 2 || got[0] != "fix000000001" || got[1] != "pos000000001" {
		t.Fatalf("store should hold the previous items, got %v", got)
	}
}

func TestLoadLegacyArray(t *testing.T) {
	ctx := context.Background()
	blobs := kv.NewMemory()
	legacy := `[
	  {"id":"p1","type":"position","shape":"pipe","x":0,"y":0,"angle":0,"scalex":1,"scaley":1,"label":"FOH"},
	  {"id":"f1","type":"fixture","shape":"par","x":20,"y":2,"angle":400,"scalex":0,"scaley":1,"position":"p1","number":"2","channel":null}
	]`
	if err := blobs.Set(ctx, DefaultKey, []byte(legacy)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	repo := store.NewMemory()
	if err := New(blobs, repo, nil).Load(ctx); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	items, _ := repo.QueryByIDs(ctx, []string{"f1"})
	if len(items) != 1 {
		t.Fatalf("fixture missing after legacy load")
	}
	f := items[0]
	if f.Number != 2 || f.Angle != 40 || f.ScaleX != 1 || f.Channel != "" {
		t.Fatalf("legacy fixture not normalized: %+v", f)
	}
	all, _ := repo.QueryAll(ctx)
	if ids := sortedIDs(all); len(ids) != 2 || ids[0] != "f1" || ids[1] != "p1" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestSingleShowRecordAccepted(t *testing.T) {
	snap, err := Decode([]byte(`{"version":1,"items":[],"shows":{"id":"s1","name":"Hamlet"}}`))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(snap.Shows) != 1 || snap.Shows[0].Name != "Hamlet" {
		t.Fatalf("unexpected shows %+v", snap.Shows)
	}
}

func TestSaveAsUsesOtherKey(t *testing.T) {
	ctx := context.Background()
	blobs := kv.NewMemory()
	repo := store.NewMemory()
	seed(t, repo)
	called := false
	b := New(blobs, repo, nil, WithNotifier(NotifyFunc(func(string) { called = true })))
	if err := b.SaveAs(ctx, "crash"); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if called {
		t.Fatalf("SaveAs should not notify")
	}
	if _, ok, _ := blobs.Get(ctx, DefaultKey); ok {
		t.Fatalf("SaveAs wrote the default key")
	}
	data, ok, _ := blobs.Get(ctx, "crash")
	if !ok {
		t.Fatalf("crash snapshot missing")
	}
	if err := Validate(data); err != nil {
		t.Fatalf("saved snapshot fails its own schema: %v", err)
	}
}

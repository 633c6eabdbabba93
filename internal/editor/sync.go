/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"log/slog"

	"github.com/davidroberthoare/lightsup/internal/artwork"
	"github.com/davidroberthoare/lightsup/internal/domain"
	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

// artworkResult is what a batch of symbol loads produced.
type artworkResult struct {
	syms map[string]artwork.Symbol
	errs map[string]error
}

// failed returns the first ref it needs that could not be loaded.
func (r artworkResult) failed(it domain.Item) (string, error) {
	for _, ref := range refsFor(it) {
		if err, bad := r.errs[ref]; bad {
			return ref, err
		}
	}
	return "", nil
}

func (r artworkResult) covers(it domain.Item) bool {
	for _, ref := range refsFor(it) {
		if _, ok := r.syms[ref]; !ok {
			return false
		}
	}
	return true
}

// withArtwork resolves refs and calls done on the owning goroutine. When the
// resolver can answer everything from its cache, done runs before
// withArtwork returns; otherwise the loads run in the background and done is
// posted to the loop.
func (e *Editor) withArtwork(ctx context.Context, refs []string, done func(artworkResult)) {
	res := artworkResult{syms: map[string]artwork.Symbol{}, errs: map[string]error{}}
	if c, ok := e.art.(interface {
		Cached(ref string) (artwork.Symbol, bool)
	}); ok {
		all := true
		for _, ref := range refs {
			s, hit := c.Cached(ref)
			if !hit {
				all = false
				break
			}
			res.syms[ref] = s
		}
		if all {
			done(res)
			return
		}
	}

	ctx = context.WithoutCancel(ctx)
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		for _, ref := range refs {
			s, err := e.art.Resolve(ctx, ref)
			if err != nil {
				res.errs[ref] = err
				continue
			}
			res.syms[ref] = s
		}
		e.loop.Post(func() { done(res) })
	}()
}

// RebuildScene clears the scene, draws the grid and then one node per stored
// item, in store order. Nodes appear once their artwork has resolved.
func (e *Editor) RebuildScene(ctx context.Context) {
	l := applog.WithOperation(e.log, "rebuild")
	e.gen++
	gen := e.gen
	clear(e.pending)
	e.drag = nil
	e.state.Selection = nil
	e.engine.SetScalingEnabled(true)
	e.inspector.Clear()
	e.engine.Clear()
	e.engine.Add(gridNode())
	e.metrics.Rebuilt()

	items, err := e.store.QueryAll(ctx)
	if err != nil {
		l.Error("query items failed", slog.Any("err", err))
		return
	}
	seen := map[string]bool{}
	var refs []string
	for _, it := range items {
		for _, ref := range refsFor(it) {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	e.withArtwork(ctx, refs, func(res artworkResult) {
		if e.gen != gen {
			e.metrics.Orphaned()
			l.Debug("discarding artwork for superseded rebuild")
			return
		}
		// re-read so edits made while loading are drawn
		items, err := e.store.QueryAll(ctx)
		if err != nil {
			l.Error("query items failed", slog.Any("err", err))
			return
		}
		for _, it := range items {
			if _, exists := e.engine.Node(it.ID); exists {
				continue
			}
			if !res.covers(it) {
				if ref, err := res.failed(it); err != nil {
					e.metrics.ArtworkFailed()
					applog.WithItem(l, it.ID).Warn("artwork failed; node skipped", slog.String("ref", ref), slog.Any("err", err))
					continue
				}
				// created after the rebuild started
				e.drawItem(ctx, it)
				continue
			}
			e.engine.Add(buildNode(it, res.syms))
		}
		e.associateFresh(ctx)
		l.Debug("scene rebuilt", slog.Int("items", len(items)))
	})
}

// RedrawItem replaces the node for id with one built from the current record,
// leaving every other node alone.
func (e *Editor) RedrawItem(ctx context.Context, id string) {
	it, ok := e.item(ctx, "redraw", id)
	if !ok {
		return
	}
	e.drawItem(ctx, it)
}

// drawItem builds one node. Only the newest draw of an id within the current
// rebuild generation may land; the record is re-read when artwork arrives.
func (e *Editor) drawItem(ctx context.Context, it domain.Item) {
	e.seq++
	token, gen, id := e.seq, e.gen, it.ID
	e.pending[id] = token
	l := applog.WithItem(applog.WithOperation(e.log, "draw"), id)

	e.withArtwork(ctx, refsFor(it), func(res artworkResult) {
		if e.gen != gen || e.pending[id] != token {
			e.metrics.Orphaned()
			l.Debug("discarding superseded artwork")
			return
		}
		delete(e.pending, id)
		cur, ok := e.item(ctx, "draw", id)
		if !ok {
			e.metrics.Orphaned()
			l.Debug("item deleted while artwork loaded")
			return
		}
		if ref, err := res.failed(cur); err != nil {
			e.metrics.ArtworkFailed()
			l.Warn("artwork failed; node skipped", slog.String("ref", ref), slog.Any("err", err))
			e.engine.Remove(id)
			return
		}
		if !res.covers(cur) {
			// shape changed while loading; start over with the new artwork
			e.drawItem(ctx, cur)
			return
		}
		e.engine.Swap(buildNode(cur, res.syms))
		e.associateFresh(ctx)
	})
}

// RedrawItemField updates the text showing one field in place.
func (e *Editor) RedrawItemField(id string, f domain.Field, value string) {
	l := applog.WithItem(applog.WithOperation(e.log, "redraw_field"), id)
	g, ok := e.engine.Node(id)
	if !ok {
		l.Debug("lookup miss", slog.String("field", string(f)))
		return
	}
	t := domain.TypeFixture
	if g.Tag == TagPosition {
		t = domain.TypePosition
	}
	part, ok := fieldPart(t, f)
	if !ok {
		return
	}
	n, ok := g.Find(part).(*vector.TextNode)
	if !ok {
		l.Debug("no text element", slog.String("part", part))
		return
	}
	n.Text = value
	e.engine.Touch()
}

// Rotating re-evaluates text flipping while a fixture is being turned.
func (e *Editor) Rotating(id string, angle float64) {
	g, ok := e.engine.Node(id)
	if !ok || g.Tag != TagFixture {
		return
	}
	setFlip(g, angle)
	e.engine.Touch()
}

// dragState tracks fixtures carried along by a position drag.
type dragState struct {
	id      string
	origin  vector.Pose
	coupled map[string]vector.Pose
	order   []string
}

// DragStart records which fixtures ride along when a position is dragged.
func (e *Editor) DragStart(ctx context.Context, id string) {
	e.drag = nil
	g, ok := e.engine.Node(id)
	if !ok || g.Tag != TagPosition {
		return
	}
	it, ok := e.item(ctx, "drag_start", id)
	if !ok {
		return
	}
	d := &dragState{id: id, origin: pose(it), coupled: map[string]vector.Pose{}}
	for _, fx := range e.engine.Intersecting(g, TagFixture) {
		rec, ok := e.item(ctx, "drag_start", fx.ID)
		if !ok {
			continue
		}
		d.coupled[fx.ID] = pose(rec)
		d.order = append(d.order, fx.ID)
	}
	e.drag = d
}

// DragMove moves the dragged node to p and translates coupled fixtures by
// the same delta.
func (e *Editor) DragMove(id string, p vector.Pose) {
	if g, ok := e.engine.Node(id); ok {
		g.SetTransform(p.Affine())
	}
	if d := e.drag; d != nil && d.id == id {
		dx, dy := p.X-d.origin.X, p.Y-d.origin.Y
		for _, fid := range d.order {
			if g, ok := e.engine.Node(fid); ok {
				fp := d.coupled[fid]
				fp.X += dx
				fp.Y += dy
				g.SetTransform(fp.Affine())
			}
		}
	}
	e.engine.Touch()
}

// Modified commits a finished gesture on id. A position drag also commits
// every coupled fixture through the same path as a direct fixture move. A
// position gesture then reassociates the fixtures it held or now touches.
func (e *Editor) Modified(ctx context.Context, id string, p vector.Pose) {
	d := e.drag
	e.drag = nil
	e.commitGeometry(ctx, id, p)
	if d != nil && d.id == id {
		dx, dy := p.X-d.origin.X, p.Y-d.origin.Y
		for _, fid := range d.order {
			fp := d.coupled[fid]
			fp.X += dx
			fp.Y += dy
			e.commitGeometry(ctx, fid, fp)
		}
	}
	e.reassociateAround(ctx, id)
}

// commitGeometry writes a pose to the store, mirrors it on the node and
// reassociates fixtures.
func (e *Editor) commitGeometry(ctx context.Context, id string, p vector.Pose) {
	it, ok := e.item(ctx, "commit", id)
	if !ok {
		return
	}
	if p.ScaleX <= 0 {
		p.ScaleX = 1
	}
	if p.ScaleY <= 0 {
		p.ScaleY = 1
	}
	if err := e.store.UpdateGeometry(ctx, id, p.X, p.Y, p.ScaleX, p.ScaleY, p.Angle); err != nil {
		e.storeFailed("update_geometry", id, err)
		return
	}
	if g, ok := e.engine.Node(id); ok {
		g.SetTransform(p.Affine())
		if it.IsPosition() {
			placeBarLabel(g, p.ScaleX, p.ScaleY)
		} else {
			setFlip(g, p.Angle)
		}
		e.engine.Touch()
	}
	if it.IsFixture() {
		e.Reassociate(ctx, id)
	}
}

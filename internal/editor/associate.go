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
	"slices"

	"github.com/davidroberthoare/lightsup/internal/domain"
	applog "github.com/davidroberthoare/lightsup/internal/log"
)

// Reassociate recomputes which position the fixture id hangs on. The first
// position in scene paint order whose bounds touch the fixture's wins. The
// new position is always renumbered; the one it left is renumbered too when
// it still exists.
func (e *Editor) Reassociate(ctx context.Context, id string) {
	l := applog.WithItem(applog.WithOperation(e.log, "reassociate"), id)
	node, ok := e.engine.Node(id)
	if !ok {
		l.Debug("lookup miss: no node")
		return
	}
	fx, ok := e.item(ctx, "reassociate", id)
	if !ok || !fx.IsFixture() {
		return
	}

	next := ""
	if hits := e.engine.Intersecting(node, TagPosition); len(hits) > 0 {
		next = hits[0].ID
	}
	prev := fx.Position
	if next != prev {
		if err := e.store.UpdateField(ctx, id, domain.FieldPosition, next); err != nil {
			e.storeFailed("associate", id, err)
			return
		}
		e.metrics.AssociationChanged()
		l.Debug("association changed", slog.String("from", prev), slog.String("to", next))
	}

	if next != "" {
		e.Renumber(ctx, next)
	} else {
		if fx.Number != 0 {
			if err := e.store.UpdateField(ctx, id, domain.FieldNumber, ""); err != nil {
				e.storeFailed("associate", id, err)
				return
			}
		}
		e.RedrawItemField(id, domain.FieldNumber, "")
	}

	if prev != "" && prev != next {
		if p, ok := e.item(ctx, "reassociate", prev); ok && p.IsPosition() {
			e.Renumber(ctx, prev)
		} else {
			l.Debug("previous position gone", slog.String("position", prev))
		}
	}
}

// Renumber ranks the fixtures on positionID by x desc, y desc and writes
// number = rank+1 wherever it differs. Each node is updated after its write.
func (e *Editor) Renumber(ctx context.Context, positionID string) {
	l := applog.WithOperation(e.log, "renumber").With(slog.String("position", positionID))
	fixtures, err := e.store.QueryByPosition(ctx, positionID)
	if err != nil {
		l.Error("query fixtures failed", slog.Any("err", err))
		return
	}
	for i, fx := range fixtures {
		want := domain.Ordinal(i + 1)
		if fx.Number != want {
			if err := e.store.UpdateField(ctx, fx.ID, domain.FieldNumber, want.String()); err != nil {
				e.storeFailed("renumber", fx.ID, err)
				continue
			}
		}
		e.RedrawItemField(fx.ID, domain.FieldNumber, want.String())
	}
	e.metrics.Renumbered()
}

// Reconcile reassociates every fixture on the scene, in store order.
func (e *Editor) Reconcile(ctx context.Context) {
	items, err := e.store.QueryAll(ctx)
	if err != nil {
		applog.WithOperation(e.log, "reconcile").Error("query items failed", slog.Any("err", err))
		return
	}
	for _, it := range items {
		if it.IsFixture() {
			e.Reassociate(ctx, it.ID)
		}
	}
}

// reassociateAround reassociates the fixtures a position holds and the ones
// its node now touches, after the position itself moved, grew or appeared.
func (e *Editor) reassociateAround(ctx context.Context, id string) {
	g, ok := e.engine.Node(id)
	if !ok || g.Tag != TagPosition {
		return
	}
	var ids []string
	held, err := e.store.QueryByPosition(ctx, id)
	if err != nil {
		applog.WithOperation(e.log, "reassociate").Error("query fixtures failed", slog.String("position", id), slog.Any("err", err))
	}
	for _, fx := range held {
		ids = append(ids, fx.ID)
	}
	for _, n := range e.engine.Intersecting(g, TagFixture) {
		if !slices.Contains(ids, n.ID) {
			ids = append(ids, n.ID)
		}
	}
	for _, fid := range ids {
		e.Reassociate(ctx, fid)
	}
}

// associateFresh reassociates around newly inserted items whose nodes now
// exist: a fixture finds its position, a position collects its fixtures.
func (e *Editor) associateFresh(ctx context.Context) {
	for id := range e.fresh {
		g, ok := e.engine.Node(id)
		if !ok {
			continue
		}
		delete(e.fresh, id)
		if g.Tag == TagPosition {
			e.reassociateAround(ctx, id)
		} else {
			e.Reassociate(ctx, id)
		}
	}
}

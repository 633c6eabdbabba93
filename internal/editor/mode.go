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
	"math"
	"slices"

	"github.com/davidroberthoare/lightsup/internal/domain"
	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

type ModeKind uint8

const (
	ModeDefault ModeKind = iota
	ModeInsert
)

func (k ModeKind) String() string {
	if k == ModeInsert {
		return "insert"
	}
	return "default"
}

// Mode is the active tool. Type and Shape are only set in insert mode.
type Mode struct {
	Kind  ModeKind
	Type  domain.ItemType
	Shape string
}

func (e *Editor) setMode(m Mode) {
	e.state.Mode = m
	applog.WithOperation(e.log, "mode").Debug("mode changed",
		slog.String("mode", m.Kind.String()), slog.String("type", string(m.Type)), slog.String("shape", m.Shape))
	if e.affording != nil {
		e.affording.ModeChanged(m)
	}
}

// BeginInsert arms insert mode; the next primary release creates the item.
func (e *Editor) BeginInsert(t domain.ItemType, shape string) {
	if !t.Valid() {
		return
	}
	if t == domain.TypePosition && shape == "" {
		shape = domain.DefaultPositionShape
	}
	e.setMode(Mode{Kind: ModeInsert, Type: t, Shape: shape})
}

// Escape returns to the default mode from any state.
func (e *Editor) Escape() {
	e.panning = false
	e.setMode(Mode{Kind: ModeDefault})
}

func (e *Editor) PointerDown(ev PointerEvent) {
	if ev.Button == ButtonMiddle {
		e.panning = true
		e.panFrom = ev.Screen
	}
}

func (e *Editor) PointerMove(ev PointerEvent) {
	if !e.panning {
		return
	}
	v := e.engine.Viewport()
	v.RelativePan(vector.Pt{X: ev.Screen.X - e.panFrom.X, Y: ev.Screen.Y - e.panFrom.Y})
	e.engine.SetViewport(v)
	e.panFrom = ev.Screen
}

// PointerUp ends a pan, or in insert mode creates the armed item at the
// release point.
func (e *Editor) PointerUp(ctx context.Context, ev PointerEvent) {
	if ev.Button == ButtonMiddle {
		e.panning = false
		return
	}
	if ev.Button != ButtonPrimary || e.state.Mode.Kind != ModeInsert {
		return
	}
	m := e.state.Mode
	at := e.engine.Viewport().ToScene(ev.Screen)
	e.Insert(ctx, m.Type, m.Shape, at)
	e.setMode(Mode{Kind: ModeDefault})
}

// Insert creates an item at scene point at and rebuilds the scene. A failed
// write is logged and leaves the store unchanged.
func (e *Editor) Insert(ctx context.Context, t domain.ItemType, shape string, at vector.Pt) (string, bool) {
	id, err := e.store.Create(ctx, domain.NewItem(t, shape, at.X, at.Y))
	if err != nil {
		e.storeFailed("create", "", err)
		return "", false
	}
	e.metrics.Created(string(t))
	applog.WithItem(applog.WithOperation(e.log, "create"), id).Info("item created",
		slog.String("type", string(t)), slog.String("shape", shape),
		slog.Float64("x", at.X), slog.Float64("y", at.Y))
	e.fresh[id] = true
	e.RebuildScene(ctx)
	return id, true
}

// Wheel zooms about the pointer with ctrl held and pans otherwise.
func (e *Editor) Wheel(ev WheelEvent) {
	v := e.engine.Viewport()
	if ev.Mods.Has(ModCtrl) {
		z := v.Zoom * math.Pow(ZoomStep, -ev.DY)
		v.ZoomToPoint(ev.Screen, min(max(z, ZoomMin), ZoomMax))
	} else {
		v.RelativePan(vector.Pt{X: -ev.DX, Y: -ev.DY})
	}
	e.engine.SetViewport(v)
}

// KeyDown handles the editor shortcuts.
func (e *Editor) KeyDown(ctx context.Context, ev KeyEvent) {
	switch {
	case ev.Key == KeyEscape:
		e.Escape()
	case ev.Key == KeyS && ev.Mods.Has(ModCtrl):
		e.Save(ctx)
	case ev.Key == KeyDelete || ev.Key == KeyBackspace:
		if e.inspector.Focused() {
			return
		}
		e.DeleteSelected(ctx)
	}
}

// Save persists through the configured Saver; failures are logged.
func (e *Editor) Save(ctx context.Context) {
	if e.saver == nil {
		return
	}
	if err := e.saver.Save(ctx); err != nil {
		applog.WithOperation(e.log, "save").Error("save failed", slog.Any("err", err))
	}
}

// DeleteSelected removes the selection after the user confirms, renumbers
// the surviving positions that lost fixtures, then rebuilds. Fixtures on a
// deleted position keep their stale reference until their next geometry
// change.
func (e *Editor) DeleteSelected(ctx context.Context) {
	ids := e.state.Selection
	if len(ids) == 0 {
		return
	}
	if !e.confirm.Confirm(DeleteConfirmation) {
		return
	}
	l := applog.WithOperation(e.log, "delete")
	var held []string
	if items, err := e.store.QueryByIDs(ctx, ids); err != nil {
		l.Error("query selection failed", slog.Any("err", err))
	} else {
		for _, it := range items {
			if it.IsFixture() && it.Position != "" && !slices.Contains(ids, it.Position) && !slices.Contains(held, it.Position) {
				held = append(held, it.Position)
			}
		}
	}
	for _, id := range ids {
		if err := e.store.Delete(ctx, id); err != nil {
			e.storeFailed("delete", id, err)
			continue
		}
		e.metrics.Deleted()
		applog.WithItem(l, id).Info("item deleted")
	}
	for _, pid := range held {
		if p, ok := e.item(ctx, "delete", pid); ok && p.IsPosition() {
			e.Renumber(ctx, pid)
		}
	}
	e.RebuildScene(ctx)
}

// ResetView restores the initial zoom with the page origin at the top-left.
func (e *Editor) ResetView() {
	e.engine.SetViewport(vector.Viewport{Zoom: InitialZoom})
}

//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
//
// Ensure you have the Fyne dependencies installed and a working OS driver.
package ui

import (
	"context"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/editor"
	"github.com/davidroberthoare/lightsup/internal/store"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

func newPlot(t *testing.T) (*PlotCanvas, *editor.Editor, string) {
	t.Helper()
	test.NewApp()
	ctx := context.Background()
	scene := vector.NewScene()
	ed := editor.New(store.NewMemory(), scene)
	ed.ResetView()
	id, ok := ed.Insert(ctx, domain.TypeFixture, "ers", vector.Pt{X: 100, Y: 100})
	if !ok {
		t.Fatalf("Insert failed")
	}
	ed.Settle()
	return NewPlotCanvas(ctx, ed, scene), ed, id
}

func TestPlotCanvas_Defaults(t *testing.T) {
	p, _, _ := newPlot(t)
	sz := p.MinSize()
	if sz.Width != 400 || sz.Height != 300 {
		t.Fatalf("unexpected MinSize: %v", sz)
	}
}

func TestPlotCanvas_RendersSelectionOverlay(t *testing.T) {
	p, ed, id := newPlot(t)
	r, ok := p.CreateRenderer().(*plotRenderer)
	if !ok {
		t.Fatalf("expected plotRenderer, got %T", p.CreateRenderer())
	}
	r.Layout(fyne.NewSize(800, 600))
	plain := len(r.Objects())
	if plain <= 1 {
		t.Fatalf("expected scene objects besides the background, got %d", plain)
	}

	ed.SelectionChanged(context.Background(), []string{id})
	r.Refresh()
	// outline, scale handle and rotation handle
	if got := len(r.Objects()); got != plain+3 {
		t.Fatalf("expected %d objects with selection, got %d", plain+3, got)
	}

	ed.SelectionChanged(context.Background(), []string{id, id})
	r.Refresh()
	// no scale handle when scaling is locked for a multi-select
	if got := len(r.Objects()); got != plain+2 {
		t.Fatalf("expected outlines only for a multi-select, got %d objects", got-plain)
	}
}

func TestPlotCanvas_ClickSelectsAndClears(t *testing.T) {
	p, ed, id := newPlot(t)
	// scene (100,120) is inside the symbol; initial zoom maps it to (150,180)
	on := fyne.NewPos(150, 180)
	click := func(pos fyne.Position, mod fyne.KeyModifier) {
		ev := &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: pos}, Button: desktop.MouseButtonPrimary, Modifier: mod}
		p.MouseDown(ev)
		p.MouseUp(ev)
	}

	click(on, 0)
	if sel := ed.State().Selection; len(sel) != 1 || sel[0] != id {
		t.Fatalf("selection after click = %v", sel)
	}
	click(on, fyne.KeyModifierShift)
	if sel := ed.State().Selection; len(sel) != 0 {
		t.Fatalf("shift-click should toggle the item off, got %v", sel)
	}
	click(on, 0)
	click(fyne.NewPos(700, 500), 0)
	if sel := ed.State().Selection; len(sel) != 0 {
		t.Fatalf("click on empty paper should clear, got %v", sel)
	}
}

func TestPlotCanvas_InsertOnRelease(t *testing.T) {
	p, ed, _ := newPlot(t)
	ed.BeginInsert(domain.TypePosition, "")
	if p.Cursor() != desktop.CrosshairCursor {
		t.Fatalf("expected crosshair cursor in insert mode")
	}
	ev := &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(300, 300)}, Button: desktop.MouseButtonPrimary}
	p.MouseDown(ev)
	p.MouseUp(ev)
	ed.Settle()
	items, err := ed.Store().QueryAll(context.Background())
	if err != nil || len(items) != 2 {
		t.Fatalf("expected a new position, got %d items (err %v)", len(items), err)
	}
	if items[1].Type != domain.TypePosition || items[1].X != 200 || items[1].Y != 200 {
		t.Fatalf("unexpected inserted item: %#v", items[1])
	}
	if ed.State().Mode.Kind != editor.ModeDefault {
		t.Fatalf("mode should return to default after placing")
	}
}

func TestPlotCanvas_DragMovesSelection(t *testing.T) {
	p, ed, id := newPlot(t)
	start := fyne.NewPos(150, 180)
	p.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: start}, Button: desktop.MouseButtonPrimary})
	p.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(180, 210)}, Dragged: fyne.NewDelta(30, 30)})
	p.DragEnd()

	items, _ := ed.Store().QueryByIDs(context.Background(), []string{id})
	if len(items) != 1 || items[0].X != 120 || items[0].Y != 120 {
		t.Fatalf("expected item moved by (20,20) in scene units, got %#v", items)
	}
	if sel := ed.State().Selection; len(sel) != 1 || sel[0] != id {
		t.Fatalf("dragging an unselected item should select it, got %v", sel)
	}
}

func TestDeferredConfirmIsOneShot(t *testing.T) {
	c := &deferredConfirm{}
	if c.Confirm(editor.DeleteConfirmation) {
		t.Fatalf("confirm without a grant must decline")
	}
	c.grant()
	if !c.Confirm(editor.DeleteConfirmation) || c.Confirm(editor.DeleteConfirmation) {
		t.Fatalf("a grant should be used exactly once")
	}
}

func TestEditorMods(t *testing.T) {
	m := editorMods(fyne.KeyModifierControl | fyne.KeyModifierShift)
	if !m.Has(editor.ModCtrl) || !m.Has(editor.ModShift) || m.Has(editor.ModAlt) {
		t.Fatalf("unexpected modifiers: %v", m)
	}
	if editorButton(desktop.MouseButtonTertiary) != editor.ButtonMiddle {
		t.Fatalf("middle button not mapped")
	}
}

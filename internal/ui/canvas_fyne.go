//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"image/color"
	"math"
	"slices"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/editor"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

// clickSlop is how far the pointer may travel between press and release and
// still count as a click.
const clickSlop = 3

const handleSize = 10

var (
	selectionColor = color.NRGBA{R: 30, G: 120, B: 220, A: 255}
	paperColor     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// PlotCanvas draws the editor's scene and turns pointer and key input into
// editor calls. It keeps no plot state of its own: the selection and the
// viewport live in the editor and the scene.
type PlotCanvas struct {
	widget.BaseWidget

	ed    *editor.Editor
	scene *vector.Scene
	ctx   context.Context

	// OnFocusChanged reports keyboard focus so the inspector can tell whether
	// Delete belongs to the plot.
	OnFocusChanged func(focused bool)
	// OnDelete asks for confirmation before DeleteSelected runs.
	OnDelete func()

	pressAt fyne.Position
	button  desktop.MouseButton
	mods    fyne.KeyModifier
	ctrl    bool

	drag *canvasDrag
}

// dragMode represents the current gesture on the selection.
type dragMode int

const (
	dragMove dragMode = iota
	dragScale
	dragRotate
)

type canvasDrag struct {
	mode    dragMode
	grabbed string
	order   []string
	start   map[string]vector.Pose
	from    vector.Pt // scene point where the gesture began
	current map[string]vector.Pose
}

func NewPlotCanvas(ctx context.Context, ed *editor.Editor, scene *vector.Scene) *PlotCanvas {
	p := &PlotCanvas{ed: ed, scene: scene, ctx: ctx}
	p.ExtendBaseWidget(p)
	return p
}

func (p *PlotCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &plotRenderer{pc: p, bg: canvas.NewRectangle(paperColor), symbols: map[string]fyne.Resource{}}
	r.objects = []fyne.CanvasObject{r.bg}
	return r
}

func (p *PlotCanvas) MinSize() fyne.Size { return fyne.NewSize(400, 300) }

func toPt(pos fyne.Position) vector.Pt { return vector.Pt{X: float64(pos.X), Y: float64(pos.Y)} }

func editorMods(m fyne.KeyModifier) editor.Modifiers {
	var out editor.Modifiers
	if m&fyne.KeyModifierShift != 0 {
		out |= editor.ModShift
	}
	if m&fyne.KeyModifierControl != 0 {
		out |= editor.ModCtrl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= editor.ModAlt
	}
	if m&fyne.KeyModifierSuper != 0 {
		out |= editor.ModSuper
	}
	return out
}

func editorButton(b desktop.MouseButton) editor.Button {
	switch b {
	case desktop.MouseButtonTertiary:
		return editor.ButtonMiddle
	case desktop.MouseButtonSecondary:
		return editor.ButtonSecondary
	default:
		return editor.ButtonPrimary
	}
}

func (p *PlotCanvas) pointer(pos fyne.Position, b desktop.MouseButton, m fyne.KeyModifier) editor.PointerEvent {
	return editor.PointerEvent{Screen: toPt(pos), Button: editorButton(b), Mods: editorMods(m)}
}

func (p *PlotCanvas) focus() {
	if c := fyne.CurrentApp().Driver().CanvasForObject(p); c != nil {
		c.Focus(p)
	}
}

// MouseDown forwards the press and remembers it for click detection.
func (p *PlotCanvas) MouseDown(e *desktop.MouseEvent) {
	p.focus()
	p.pressAt, p.button, p.mods = e.Position, e.Button, e.Modifier
	p.ed.PointerDown(p.pointer(e.Position, e.Button, e.Modifier))
}

// MouseUp ends a pan, places an armed item, or selects on a plain click.
func (p *PlotCanvas) MouseUp(e *desktop.MouseEvent) {
	defer p.Refresh()
	p.button = 0
	inserting := p.ed.State().Mode.Kind == editor.ModeInsert
	p.ed.PointerUp(p.ctx, p.pointer(e.Position, e.Button, e.Modifier))
	if e.Button != desktop.MouseButtonPrimary || inserting {
		return
	}
	if d := toPt(e.Position); math.Hypot(d.X-float64(p.pressAt.X), d.Y-float64(p.pressAt.Y)) > clickSlop {
		return
	}
	p.click(e.Position, e.Modifier&fyne.KeyModifierShift != 0)
}

// click selects the top-most item under pos; shift toggles it in the
// current selection. A click on empty paper clears the selection.
func (p *PlotCanvas) click(pos fyne.Position, extend bool) {
	at := p.scene.Viewport().ToScene(toPt(pos))
	g, ok := p.scene.HitTest(at)
	if !ok {
		if !extend {
			p.ed.SelectionCleared()
		}
		return
	}
	sel := p.ed.State().Selection
	switch {
	case !extend:
		sel = []string{g.ID}
	case slices.Contains(sel, g.ID):
		sel = slices.DeleteFunc(sel, func(id string) bool { return id == g.ID })
	default:
		sel = append(sel, g.ID)
	}
	if len(sel) == 0 {
		p.ed.SelectionCleared()
		return
	}
	p.ed.SelectionChanged(p.ctx, sel)
}

func (p *PlotCanvas) MouseIn(*desktop.MouseEvent) {}
func (p *PlotCanvas) MouseOut()                   {}

// MouseMoved keeps a middle-button pan going.
func (p *PlotCanvas) MouseMoved(e *desktop.MouseEvent) {
	p.ed.PointerMove(p.pointer(e.Position, e.Button, e.Modifier))
	if p.button == desktop.MouseButtonTertiary {
		p.Refresh()
	}
}

// Dragged moves, scales or rotates the selection with the primary button.
func (p *PlotCanvas) Dragged(e *fyne.DragEvent) {
	if p.button == desktop.MouseButtonTertiary {
		p.ed.PointerMove(p.pointer(e.Position, p.button, p.mods))
		p.Refresh()
		return
	}
	if p.button != desktop.MouseButtonPrimary || p.ed.State().Mode.Kind == editor.ModeInsert {
		return
	}
	if p.drag == nil && !p.beginDrag() {
		return
	}
	p.updateDrag(p.scene.Viewport().ToScene(toPt(e.Position)))
	p.Refresh()
}

// DragEnd commits the gesture; the grabbed item goes first so a position
// carries its fixtures.
func (p *PlotCanvas) DragEnd() {
	d := p.drag
	p.drag = nil
	if d == nil {
		return
	}
	for _, id := range d.order {
		if pose, ok := d.current[id]; ok {
			p.ed.Modified(p.ctx, id, pose)
		}
	}
	p.Refresh()
}

func (p *PlotCanvas) beginDrag() bool {
	from := p.scene.Viewport().ToScene(toPt(p.pressAt))
	sel := p.ed.State().Selection
	mode := dragMove
	grabbed := ""
	if len(sel) == 1 {
		if _, se, rot, ok := p.handles(); ok {
			switch {
			case rot.Contains(toPt(p.pressAt)):
				mode, grabbed = dragRotate, sel[0]
			case se.Contains(toPt(p.pressAt)) && p.scene.ScalingEnabled():
				mode, grabbed = dragScale, sel[0]
			}
		}
	}
	if grabbed == "" {
		g, ok := p.scene.HitTest(from)
		if !ok {
			return false
		}
		grabbed = g.ID
		if !slices.Contains(sel, grabbed) {
			sel = []string{grabbed}
			p.ed.SelectionChanged(p.ctx, sel)
		}
	}

	order := []string{grabbed}
	if mode == dragMove {
		for _, id := range sel {
			if id != grabbed {
				order = append(order, id)
			}
		}
	}
	items, err := p.ed.Store().QueryByIDs(p.ctx, order)
	if err != nil || len(items) == 0 {
		return false
	}
	d := &canvasDrag{mode: mode, grabbed: grabbed, from: from, start: map[string]vector.Pose{}, current: map[string]vector.Pose{}}
	for _, it := range items {
		d.order = append(d.order, it.ID)
		d.start[it.ID] = itemPose(it)
	}
	if d.order[0] != grabbed {
		return false
	}
	if mode == dragMove {
		p.ed.DragStart(p.ctx, grabbed)
	}
	p.drag = d
	return true
}

func itemPose(it domain.Item) vector.Pose {
	return vector.Pose{X: it.X, Y: it.Y, Angle: it.Angle, ScaleX: it.ScaleX, ScaleY: it.ScaleY}
}

func (p *PlotCanvas) updateDrag(at vector.Pt) {
	d := p.drag
	switch d.mode {
	case dragMove:
		dx, dy := at.X-d.from.X, at.Y-d.from.Y
		for _, id := range d.order {
			pose := d.start[id]
			pose.X += dx
			pose.Y += dy
			d.current[id] = pose
			p.ed.DragMove(id, pose)
		}
	case dragRotate:
		pose := d.start[d.grabbed]
		a0 := math.Atan2(d.from.Y-pose.Y, d.from.X-pose.X)
		a1 := math.Atan2(at.Y-pose.Y, at.X-pose.X)
		pose.Angle = math.Mod(pose.Angle+(a1-a0)*180/math.Pi+360, 360)
		d.current[d.grabbed] = pose
		p.ed.Rotating(d.grabbed, pose.Angle)
		p.ed.DragMove(d.grabbed, pose)
	case dragScale:
		pose := d.start[d.grabbed]
		unrotate := vector.RotateDeg(-pose.Angle)
		l0 := unrotate.Apply(vector.Pt{X: d.from.X - pose.X, Y: d.from.Y - pose.Y})
		l1 := unrotate.Apply(vector.Pt{X: at.X - pose.X, Y: at.Y - pose.Y})
		if math.Abs(l0.X) > 1 {
			pose.ScaleX = max(pose.ScaleX*l1.X/l0.X, 0.05)
		}
		if math.Abs(l0.Y) > 1 {
			pose.ScaleY = max(pose.ScaleY*l1.Y/l0.Y, 0.05)
		}
		d.current[d.grabbed] = pose
		p.ed.DragMove(d.grabbed, pose)
	}
}

// handles returns the selection box and its scale and rotation handles in
// screen coordinates, for a single selection only.
func (p *PlotCanvas) handles() (box, se, rot vector.Rect, ok bool) {
	sel := p.ed.State().Selection
	if len(sel) != 1 {
		return box, se, rot, false
	}
	boxes := vector.Outline(p.scene, sel)
	if len(boxes) == 0 {
		return box, se, rot, false
	}
	box = boxes[0]
	se = vector.R(box.X+box.W-handleSize/2, box.Y+box.H-handleSize/2, handleSize, handleSize)
	rot = vector.R(box.X+box.W/2-handleSize/2, box.Y-3*handleSize, handleSize, handleSize)
	return box, se, rot, true
}

// Scrolled zooms with ctrl held and pans otherwise. Fyne reports upward
// wheel motion as positive DY.
func (p *PlotCanvas) Scrolled(e *fyne.ScrollEvent) {
	mods := p.mods
	if d, ok := fyne.CurrentApp().Driver().(desktop.Driver); ok {
		mods = d.CurrentKeyModifiers()
	}
	ev := editor.WheelEvent{Screen: toPt(e.Position), DX: -float64(e.Scrolled.DX), DY: -float64(e.Scrolled.DY), Mods: editorMods(mods)}
	if p.ctrl {
		ev.Mods |= editor.ModCtrl
	}
	p.ed.Wheel(ev)
	p.Refresh()
}

func (p *PlotCanvas) FocusGained() {
	if p.OnFocusChanged != nil {
		p.OnFocusChanged(true)
	}
}

func (p *PlotCanvas) FocusLost() {
	p.ctrl = false
	if p.OnFocusChanged != nil {
		p.OnFocusChanged(false)
	}
}

func (p *PlotCanvas) TypedRune(rune) {}

// TypedKey handles Escape and the delete keys; ctrl+S is a window shortcut.
func (p *PlotCanvas) TypedKey(e *fyne.KeyEvent) {
	switch e.Name {
	case fyne.KeyEscape:
		p.ed.KeyDown(p.ctx, editor.KeyEvent{Key: editor.KeyEscape})
	case fyne.KeyDelete, fyne.KeyBackspace:
		if len(p.ed.State().Selection) > 0 && p.OnDelete != nil {
			p.OnDelete()
			return
		}
		p.ed.KeyDown(p.ctx, editor.KeyEvent{Key: editor.KeyDelete})
	default:
		return
	}
	p.Refresh()
}

// KeyDown and KeyUp track ctrl for wheel zoom.
func (p *PlotCanvas) KeyDown(e *fyne.KeyEvent) {
	if e.Name == desktop.KeyControlLeft || e.Name == desktop.KeyControlRight {
		p.ctrl = true
	}
}

func (p *PlotCanvas) KeyUp(e *fyne.KeyEvent) {
	if e.Name == desktop.KeyControlLeft || e.Name == desktop.KeyControlRight {
		p.ctrl = false
	}
}

// Cursor shows a crosshair while an insert is armed.
func (p *PlotCanvas) Cursor() desktop.Cursor {
	if p.ed.State().Mode.Kind == editor.ModeInsert {
		return desktop.CrosshairCursor
	}
	return desktop.DefaultCursor
}

// plotRenderer rebuilds its objects from the flattened scene whenever the
// scene revision, the selection or the widget size changes.
type plotRenderer struct {
	pc      *PlotCanvas
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
	size    fyne.Size

	revision  uint64
	selection string
	built     bool

	symbols map[string]fyne.Resource
}

func (r *plotRenderer) Destroy()                     {}
func (r *plotRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *plotRenderer) MinSize() fyne.Size           { return r.pc.MinSize() }

func (r *plotRenderer) Layout(size fyne.Size) {
	if size != r.size {
		r.size = size
		r.built = false
	}
	r.rebuild()
}

func (r *plotRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.pc)
}

func (r *plotRenderer) rebuild() {
	sel := strings.Join(r.pc.ed.State().Selection, ",")
	rev := r.pc.scene.Revision()
	if r.built && rev == r.revision && sel == r.selection {
		return
	}
	r.built, r.revision, r.selection = true, rev, sel

	r.bg.Resize(r.size)
	objs := []fyne.CanvasObject{r.bg}
	for _, prim := range vector.Flatten(r.pc.scene, r.pc.scene.Viewport().Affine()) {
		if o := r.object(prim); o != nil {
			objs = append(objs, o)
		}
	}
	for _, b := range vector.Outline(r.pc.scene, r.pc.ed.State().Selection) {
		box := canvas.NewRectangle(color.Transparent)
		box.StrokeColor = selectionColor
		box.StrokeWidth = 1
		place(box, b)
		objs = append(objs, box)
	}
	if _, se, rot, ok := r.pc.handles(); ok {
		if r.pc.scene.ScalingEnabled() {
			h := canvas.NewRectangle(paperColor)
			h.StrokeColor = selectionColor
			h.StrokeWidth = 1
			place(h, se)
			objs = append(objs, h)
		}
		c := canvas.NewCircle(paperColor)
		c.StrokeColor = selectionColor
		c.StrokeWidth = 1
		place(c, rot)
		objs = append(objs, c)
	}
	r.objects = objs
}

func place(o fyne.CanvasObject, b vector.Rect) {
	o.Move(fyne.NewPos(float32(b.X), float32(b.Y)))
	o.Resize(fyne.NewSize(float32(b.W), float32(b.H)))
}

func toColor(c vector.Color) color.Color { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

func fillOf(f vector.Fill) color.Color {
	if !f.Enabled {
		return color.Transparent
	}
	return toColor(f.Color)
}

func (r *plotRenderer) object(p vector.Prim) fyne.CanvasObject {
	switch p.Kind {
	case vector.PrimRect:
		o := canvas.NewRectangle(fillOf(p.Fill))
		if p.Stroke.Enabled {
			o.StrokeColor, o.StrokeWidth = toColor(p.Stroke.Color), float32(p.Stroke.Width)
		}
		place(o, p.Box)
		return o
	case vector.PrimEllipse:
		o := canvas.NewCircle(fillOf(p.Fill))
		if p.Stroke.Enabled {
			o.StrokeColor, o.StrokeWidth = toColor(p.Stroke.Color), float32(p.Stroke.Width)
		}
		place(o, p.Box)
		return o
	case vector.PrimLine:
		o := canvas.NewLine(toColor(p.Stroke.Color))
		o.StrokeWidth = float32(max(p.Stroke.Width, 0.5))
		o.Position1 = fyne.NewPos(float32(p.From.X), float32(p.From.Y))
		o.Position2 = fyne.NewPos(float32(p.To.X), float32(p.To.Y))
		return o
	case vector.PrimText:
		o := canvas.NewText(p.Text, fillOf(p.Fill))
		o.TextSize = float32(p.Size)
		o.Alignment = fyne.TextAlignCenter
		place(o, p.Box)
		return o
	case vector.PrimSymbol:
		res, ok := r.symbols[p.Ref]
		if !ok {
			res = fyne.NewStaticResource(strings.ReplaceAll(p.Ref, "/", "_")+".svg", p.Data)
			r.symbols[p.Ref] = res
		}
		o := canvas.NewImageFromResource(res)
		o.FillMode = canvas.ImageFillStretch
		place(o, p.Box)
		return o
	}
	return nil
}

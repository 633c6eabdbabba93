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
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/davidroberthoare/lightsup/internal/artwork"
	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/editor"
	applog "github.com/davidroberthoare/lightsup/internal/log"
)

var fieldCaptions = map[domain.Field]string{
	domain.FieldID:       "ID",
	domain.FieldType:     "Type",
	domain.FieldShape:    "Shape",
	domain.FieldX:        "X",
	domain.FieldY:        "Y",
	domain.FieldAngle:    "Angle",
	domain.FieldScaleX:   "Scale X",
	domain.FieldScaleY:   "Scale Y",
	domain.FieldPosition: "Position",
	domain.FieldNumber:   "Number",
	domain.FieldLabel:    "Label",
	domain.FieldChannel:  "Channel",
	domain.FieldDimmer:   "Dimmer",
	domain.FieldGel:      "Gel",
}

var showCaptions = map[domain.ShowField]string{
	domain.ShowName:     "Show",
	domain.ShowCompany:  "Company",
	domain.ShowVenue:    "Venue",
	domain.ShowDesigner: "Designer",
	domain.ShowDate:     "Date",
}

// formInspector is the property panel. Structural fields are read-only
// labels; text fields commit on Enter and the shape commits on selection.
type formInspector struct {
	ed  *editor.Editor
	ctx context.Context
	lib *artwork.Library
	win fyne.Window

	labels  map[domain.Field]*widget.Label
	entries map[domain.Field]*widget.Entry
	shape   *widget.Select
	empty   *widget.Label
	form    *widget.Form
	loading bool

	show map[domain.ShowField]*widget.Entry
}

func newFormInspector(ctx context.Context, lib *artwork.Library, win fyne.Window) *formInspector {
	f := &formInspector{
		ctx:     ctx,
		lib:     lib,
		win:     win,
		labels:  map[domain.Field]*widget.Label{},
		entries: map[domain.Field]*widget.Entry{},
		show:    map[domain.ShowField]*widget.Entry{},
		empty:   widget.NewLabel("Nothing selected"),
		form:    widget.NewForm(),
	}
	f.shape = widget.NewSelect(nil, func(v string) {
		if f.loading || f.ed == nil || v == "" {
			return
		}
		f.commit(domain.FieldShape, v)
	})
	for _, fld := range domain.Fields {
		caption := fieldCaptions[fld]
		switch {
		case fld == domain.FieldShape:
			f.form.Append(caption, f.shape)
		case fld.Editable():
			e := widget.NewEntry()
			e.OnSubmitted = func(v string) { f.commit(fld, v) }
			f.entries[fld] = e
			f.form.Append(caption, e)
		default:
			l := widget.NewLabel("")
			f.labels[fld] = l
			f.form.Append(caption, l)
		}
	}
	f.form.Hide()
	return f
}

func (f *formInspector) commit(fld domain.Field, v string) {
	if f.ed == nil {
		return
	}
	if err := f.ed.InspectorCommit(f.ctx, fld, v); err != nil {
		applog.WithOperation(applog.WithComponent("ui"), "inspector_commit").Warn("commit rejected",
			slog.String("field", string(fld)), slog.Any("err", err))
	}
}

// Show fills the form from the projection. Mixed values read as the marker
// and are left alone unless the user types over them.
func (f *formInspector) Show(p editor.Projection) {
	f.loading = true
	defer func() { f.loading = false }()
	for fld, l := range f.labels {
		l.SetText(p.Value(fld))
	}
	for fld, e := range f.entries {
		e.SetText(p.Value(fld))
	}
	switch domain.ItemType(p.Value(domain.FieldType)) {
	case domain.TypeFixture:
		f.shape.Options = f.lib.FixtureShapes()
		f.shape.Enable()
	case domain.TypePosition:
		f.shape.Options = f.lib.PositionShapes()
		f.shape.Enable()
	default:
		f.shape.Options = nil
		f.shape.Disable()
	}
	f.shape.SetSelected(p.Value(domain.FieldShape))
	f.empty.Hide()
	f.form.Show()
}

func (f *formInspector) Clear() {
	f.loading = true
	defer func() { f.loading = false }()
	for _, e := range f.entries {
		e.SetText("")
	}
	f.shape.ClearSelected()
	f.form.Hide()
	f.empty.Show()
}

// Focused reports whether one of the item entries holds keyboard focus.
func (f *formInspector) Focused() bool {
	if f.win == nil {
		return false
	}
	cur := f.win.Canvas().Focused()
	if cur == nil {
		return false
	}
	for _, e := range f.entries {
		if cur == fyne.Focusable(e) {
			return true
		}
	}
	for _, e := range f.show {
		if cur == fyne.Focusable(e) {
			return true
		}
	}
	return false
}

// showForm edits the current show record; each entry commits on Enter.
func (f *formInspector) showForm() fyne.CanvasObject {
	form := widget.NewForm()
	for _, sf := range domain.ShowFields {
		e := widget.NewEntry()
		e.OnSubmitted = func(v string) {
			if f.ed == nil {
				return
			}
			if err := f.ed.ShowCommit(sf, v); err != nil {
				applog.WithOperation(applog.WithComponent("ui"), "show_commit").Warn("show update rejected", slog.Any("err", err))
			}
		}
		f.show[sf] = e
		form.Append(showCaptions[sf], e)
	}
	return form
}

// reloadShow copies the current show record into the show form.
func (f *formInspector) reloadShow() {
	if f.ed == nil {
		return
	}
	cur := f.ed.Shows().Current()
	for sf, e := range f.show {
		e.SetText(cur.Get(sf))
	}
}

func (f *formInspector) content() fyne.CanvasObject {
	return container.NewVScroll(container.NewVBox(
		widget.NewLabelWithStyle("Selection", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		f.empty,
		f.form,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Show", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		f.showForm(),
	))
}

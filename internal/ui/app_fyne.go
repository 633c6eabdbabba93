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
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/davidroberthoare/lightsup/internal/crash"
	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/editor"
	"github.com/davidroberthoare/lightsup/internal/export"
	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/persist"
	"github.com/davidroberthoare/lightsup/internal/report"
	"github.com/davidroberthoare/lightsup/internal/session"
	"github.com/davidroberthoare/lightsup/internal/vector"
	"github.com/davidroberthoare/lightsup/internal/version"
)

// deferredConfirm answers the editor's synchronous question with a grant the
// UI obtained beforehand from an asynchronous dialog. A grant is used once.
type deferredConfirm struct{ granted bool }

func (c *deferredConfirm) grant() { c.granted = true }

func (c *deferredConfirm) Confirm(string) bool {
	ok := c.granted
	c.granted = false
	return ok
}

// modeStatus mirrors the interaction mode in the status bar.
type modeStatus struct{ status *widget.Label }

func (m modeStatus) ModeChanged(md editor.Mode) {
	if md.Kind == editor.ModeInsert {
		m.status.SetText(fmt.Sprintf("Click on the plot to place a %s (%s). Esc cancels.", md.Type, md.Shape))
		return
	}
	m.status.SetText("Ready")
}

func applyTheme(a fyne.App, name string) {
	switch strings.ToLower(name) {
	case "dark":
		a.Settings().SetTheme(theme.DarkTheme())
	case "light":
		a.Settings().SetTheme(theme.LightTheme())
	}
}

// Run opens the configured plot and starts the Fyne desktop editor.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	ctx := context.Background()

	fyneApp := app.NewWithID("io.lightsup")
	applyTheme(fyneApp, opts.Config.General.Theme)
	w := fyneApp.NewWindow("lightsup")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1200), 800)
	winH := max(prefs.IntWithFallback("window.height", 800), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	notify := persist.NotifyFunc(func(msg string) { fyne.Do(func() { status.SetText(msg) }) })

	s, err := session.Open(ctx, opts.Config, opts.Secret, session.WithNotifier(notify))
	if err != nil {
		l.Error("open session failed", slog.Any("err", err))
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			l.Error("close session failed", slog.Any("err", err))
		}
	}()
	defer crash.Recover(s.Bridge, opts.CrashDir)

	scene := vector.NewScene()
	insp := newFormInspector(ctx, s.Library, w)
	confirm := &deferredConfirm{}
	var plot *PlotCanvas
	loop := editor.LoopFunc(func(fn func()) {
		fyne.Do(func() {
			fn()
			if plot != nil {
				plot.Refresh()
			}
		})
	})
	ed := s.Editor(scene,
		editor.WithLoop(loop),
		editor.WithInspector(insp),
		editor.WithConfirmer(confirm),
		editor.WithAffordance(modeStatus{status: status}),
	)
	insp.ed = ed
	plot = NewPlotCanvas(ctx, ed, scene)

	deleteSelected := func() {
		if len(ed.State().Selection) == 0 {
			return
		}
		dialog.ShowConfirm("Delete", editor.DeleteConfirmation, func(ok bool) {
			if !ok {
				return
			}
			confirm.grant()
			ed.DeleteSelected(ctx)
			plot.Refresh()
		}, w)
	}
	plot.OnDelete = func() {
		if insp.Focused() {
			return
		}
		deleteSelected()
	}

	save := func() {
		ed.KeyDown(ctx, editor.KeyEvent{Key: editor.KeyS, Mods: editor.ModCtrl})
	}
	reload := func() {
		if err := s.Bridge.Load(ctx); err != nil {
			l.Error("reload failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		ed.RebuildScene(ctx)
		insp.reloadShow()
		status.SetText("Reloaded")
		plot.Refresh()
	}

	// Menus
	saveItem := fyne.NewMenuItem("Save", save)
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { save() })
	reloadItem := fyne.NewMenuItem("Reload", reload)
	pdfItem := fyne.NewMenuItem("Export Schedule (PDF)...", func() { exportSchedule(ctx, s, w, status, "schedule.pdf") })
	textItem := fyne.NewMenuItem("Export Schedule (Text)...", func() { exportSchedule(ctx, s, w, status, "schedule.txt") })
	svgItem := fyne.NewMenuItem("Export Plot (SVG)...", func() { exportPlot(scene, w, status, "plot.svg", export.Preset(export.PresetWeb)) })
	pngItem := fyne.NewMenuItem("Export Plot (PNG)...", func() { exportPlot(scene, w, status, "plot.png", export.Preset(export.PresetPrint)) })
	fileMenu := fyne.NewMenu("File", saveItem, reloadItem, fyne.NewMenuItemSeparator(), pdfItem, textItem, svgItem, pngItem)

	deleteItem := fyne.NewMenuItem("Delete Selected", deleteSelected)
	clearItem := fyne.NewMenuItem("Select None", func() {
		ed.SelectionCleared()
		plot.Refresh()
	})
	reconcileItem := fyne.NewMenuItem("Reassociate All Fixtures", func() {
		ed.Reconcile(ctx)
		ed.RebuildScene(ctx)
		plot.Refresh()
	})
	editMenu := fyne.NewMenu("Edit", deleteItem, clearItem, fyne.NewMenuItemSeparator(), reconcileItem)

	insertItems := func(t domain.ItemType, shapes []string) *fyne.Menu {
		items := make([]*fyne.MenuItem, 0, len(shapes))
		for _, shape := range shapes {
			items = append(items, fyne.NewMenuItem(shape, func() {
				ed.BeginInsert(t, shape)
				plot.focus()
			}))
		}
		return fyne.NewMenu("", items...)
	}
	fixtureSub := fyne.NewMenuItem("Fixture", nil)
	fixtureSub.ChildMenu = insertItems(domain.TypeFixture, s.Library.FixtureShapes())
	positionSub := fyne.NewMenuItem("Position", nil)
	positionSub.ChildMenu = insertItems(domain.TypePosition, s.Library.PositionShapes())
	insertMenu := fyne.NewMenu("Insert", fixtureSub, positionSub)

	zoomBy := func(dy float64) {
		sz := plot.Size()
		ed.Wheel(editor.WheelEvent{Screen: vector.Pt{X: float64(sz.Width) / 2, Y: float64(sz.Height) / 2}, DY: dy, Mods: editor.ModCtrl})
		plot.Refresh()
	}
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { zoomBy(-50) }),
		fyne.NewMenuItem("Zoom Out", func() { zoomBy(50) }),
		fyne.NewMenuItem("Reset View", func() {
			ed.ResetView()
			plot.Refresh()
		}),
	)

	aboutItem := fyne.NewMenuItem("About", func() {
		dialog.ShowInformation("About lightsup", "lightsup "+version.String(), w)
	})
	statsItem := fyne.NewMenuItem("Statistics", func() {
		lines, err := s.Metrics.Summary()
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		var b strings.Builder
		for _, ln := range lines {
			fmt.Fprintf(&b, "%s: %s\n", ln[0], ln[1])
		}
		dialog.ShowInformation("Statistics", b.String(), w)
	})
	aboutMenu := fyne.NewMenu("About", aboutItem, statsItem)

	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, insertMenu, viewMenu, aboutMenu))

	split := container.NewHSplit(plot, insp.content())
	split.Offset = 0.75
	w.SetContent(container.NewBorder(nil, status, nil, nil, split))

	// Persist preferences on close
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	ed.ResetView()
	ed.RebuildScene(ctx)
	insp.reloadShow()

	w.ShowAndRun()
	return nil
}

// exportSchedule asks for a target file and writes the fixture schedule as
// PDF or text depending on the chosen extension.
func exportSchedule(ctx context.Context, s *session.Session, w fyne.Window, status *widget.Label, name string) {
	l := applog.WithOperation(applog.WithComponent("ui"), "export")
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if wc == nil {
			return
		}
		r, err := s.Report(ctx)
		if err != nil {
			_ = wc.Close()
			dialog.ShowError(err, w)
			return
		}
		show := s.Shows.Current()
		path := wc.URI().Path()
		if strings.EqualFold(wc.URI().Extension(), ".pdf") {
			_ = wc.Close()
			err = report.WritePDF(path, show, r)
		} else {
			err = report.WriteText(wc, show, r)
			if cerr := wc.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			l.Error("export failed", slog.String("path", path), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		l.Info("schedule exported", slog.String("path", path), slog.Int("fixtures", r.Total))
		status.SetText("Exported " + path)
	}, w)
	d.SetFileName(name)
	d.Show()
}

// exportPlot writes the live scene to the chosen file. The writer Fyne hands
// back is closed first; export creates the file itself.
func exportPlot(scene *vector.Scene, w fyne.Window, status *widget.Label, name string, opt export.Options) {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if wc == nil {
			return
		}
		path := wc.URI().Path()
		_ = wc.Close()
		if err := export.WriteFile(path, scene, opt); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Exported " + path)
	}, w)
	d.SetFileName(name)
	d.Show()
}

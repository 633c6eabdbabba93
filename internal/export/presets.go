/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes a drawn plot to image files. Both writers consume
// the flattened display list of a scene, framed around its items.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

var (
	ErrEmptyPlot     = errors.New("plot has no items")
	ErrUnknownFormat = errors.New("unknown export format")
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// Options controls plot export.
//   - Scale: output pixels per scene unit, 1 when zero
//   - Margin: scene units kept around the items, 50 when zero
//   - IncludeGrid: paint the background grid under the items
type Options struct {
	Scale       float64
	Margin      float64
	IncludeGrid bool
}

// Preset returns the options of a named preset. Unknown names fall back to web.
func Preset(p PresetName) Options {
	switch p {
	case PresetPrint:
		return Options{Scale: 4, Margin: 50, IncludeGrid: true}
	default:
		return Options{Scale: 1, Margin: 50}
	}
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Margin <= 0 {
		o.Margin = 50
	}
	return o
}

// frame is the output raster: the scene-to-output transform and the pixel size.
type frame struct {
	view vector.Affine2D
	w, h int
}

func frameFor(s *vector.Scene, opt Options) (frame, error) {
	ext, ok := vector.Extent(s)
	if !ok {
		return frame{}, ErrEmptyPlot
	}
	ext = ext.Inset(-opt.Margin, -opt.Margin)
	view := vector.Scale(opt.Scale, opt.Scale).Mul(vector.Translate(-ext.X, -ext.Y))
	return frame{
		view: view,
		w:    max(1, int(math.Ceil(ext.W*opt.Scale))),
		h:    max(1, int(math.Ceil(ext.H*opt.Scale))),
	}, nil
}

// prims flattens the scene through the frame. Anonymous groups (the grid)
// are dropped unless requested.
func (f frame) prims(s *vector.Scene, grid bool) []vector.Prim {
	all := vector.Flatten(s, f.view)
	out := all[:0]
	for _, p := range all {
		if p.Item == "" && !grid {
			continue
		}
		out = append(out, p)
	}
	return out
}

// WriteFile exports the scene to path, picking the format from the extension.
func WriteFile(path string, s *vector.Scene, opt Options) error {
	l := applog.WithOperation(applog.WithComponent("export"), "write_file").With(slog.String("path", path))
	var write func(*os.File) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		write = func(f *os.File) error { return WriteSVG(f, s, opt) }
	case ".png":
		write = func(f *os.File) error { return WritePNG(f, s, opt) }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
	if _, err := frameFor(s, opt.withDefaults()); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure out dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		l.Error("export failed", slog.Any("err", err))
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	l.Info("plot exported")
	return nil
}

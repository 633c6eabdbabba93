/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

// WritePNG rasterizes the plot and writes it as PNG.
func WritePNG(w io.Writer, s *vector.Scene, opt Options) error {
	opt = opt.withDefaults()
	fr, err := frameFor(s, opt)
	if err != nil {
		return err
	}
	img, err := rasterize(fr, fr.prims(s, opt.IncludeGrid))
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// painter draws display-list primitives onto an RGBA image.
type painter struct {
	img     *image.RGBA
	filler  *rasterx.Filler
	dasher  *rasterx.Dasher
	font    *opentype.Font
	faces   map[float64]font.Face
	symbols map[string]*oksvg.SvgIcon
}

func rasterize(fr frame, prims []vector.Prim) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, fr.w, fr.h))
	// Background white
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	sc := rasterx.NewScannerGV(fr.w, fr.h, img, img.Bounds())
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	p := &painter{
		img:     img,
		filler:  rasterx.NewFiller(fr.w, fr.h, sc),
		dasher:  rasterx.NewDasher(fr.w, fr.h, sc),
		font:    fnt,
		faces:   map[float64]font.Face{},
		symbols: map[string]*oksvg.SvgIcon{},
	}
	defer p.close()
	for _, prim := range prims {
		p.draw(prim)
	}
	return img, nil
}

func (p *painter) close() {
	for _, f := range p.faces {
		_ = f.Close()
	}
}

func rgba(c vector.Color) color.Color { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

func (p *painter) draw(prim vector.Prim) {
	b := prim.Box
	switch prim.Kind {
	case vector.PrimRect:
		p.shape(prim, func(a rasterx.Adder) { rasterx.AddRect(b.X, b.Y, b.X+b.W, b.Y+b.H, 0, a) })
	case vector.PrimEllipse:
		c := b.Center()
		p.shape(prim, func(a rasterx.Adder) { rasterx.AddEllipse(c.X, c.Y, b.W/2, b.H/2, 0, a) })
	case vector.PrimLine:
		if !prim.Stroke.Enabled {
			return
		}
		p.stroke(prim.Stroke, func(a rasterx.Adder) {
			a.Start(rasterx.ToFixedP(prim.From.X, prim.From.Y))
			a.Line(rasterx.ToFixedP(prim.To.X, prim.To.Y))
			a.Stop(false)
		})
	case vector.PrimText:
		p.text(prim)
	case vector.PrimSymbol:
		p.symbol(prim)
	}
}

func (p *painter) shape(prim vector.Prim, path func(rasterx.Adder)) {
	if prim.Fill.Enabled {
		p.filler.SetColor(rgba(prim.Fill.Color))
		path(p.filler)
		p.filler.Draw()
		p.filler.Clear()
	}
	if prim.Stroke.Enabled {
		p.stroke(prim.Stroke, path)
	}
}

func (p *painter) stroke(st vector.Stroke, path func(rasterx.Adder)) {
	width := max(st.Width, 0.5)
	p.dasher.SetStroke(fixed.Int26_6(width*64), 4*64, rasterx.ButtCap, nil, rasterx.FlatGap, rasterx.MiterClip, nil, 0)
	p.dasher.SetColor(rgba(st.Color))
	path(p.dasher)
	p.dasher.Draw()
	p.dasher.Clear()
}

func (p *painter) face(size float64) (font.Face, error) {
	if f, ok := p.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(p.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, err
	}
	p.faces[size] = f
	return f, nil
}

// text centres the string on the primitive box.
func (p *painter) text(prim vector.Prim) {
	if prim.Size <= 0 {
		return
	}
	face, err := p.face(prim.Size)
	if err != nil {
		applog.WithComponent("export").Warn("text face failed", slog.Float64("size", prim.Size), slog.Any("err", err))
		return
	}
	d := &font.Drawer{Dst: p.img, Src: image.NewUniform(rgba(prim.Fill.Color)), Face: face}
	m := face.Metrics()
	c := prim.Box.Center()
	adv := d.MeasureString(prim.Text)
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(c.X*64) - adv/2,
		Y: fixed.Int26_6(c.Y*64) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(prim.Text)
}

func (p *painter) symbol(prim vector.Prim) {
	icon, ok := p.symbols[prim.Ref]
	if !ok {
		var err error
		icon, err = oksvg.ReadIconStream(bytes.NewReader(prim.Data), oksvg.IgnoreErrorMode)
		if err != nil {
			applog.WithComponent("export").Warn("symbol parse failed", slog.String("ref", prim.Ref), slog.Any("err", err))
			p.symbols[prim.Ref] = nil
			return
		}
		p.symbols[prim.Ref] = icon
	}
	if icon == nil {
		return
	}
	b := prim.Box
	icon.SetTarget(b.X, b.Y, b.W, b.H)
	icon.Draw(p.dasher, 1)
	p.dasher.Clear()
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/davidroberthoare/lightsup/internal/vector"
)

// WriteSVG writes the plot as a standalone SVG document. Symbols are
// embedded as data URIs so the file has no external references.
func WriteSVG(w io.Writer, s *vector.Scene, opt Options) error {
	opt = opt.withDefaults()
	fr, err := frameFor(s, opt)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bw, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"0 0 %d %d\">\n", fr.w, fr.h, fr.w, fr.h)
	// Background white
	wf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"#ffffff\"/>\n", fr.w, fr.h)

	for _, p := range fr.prims(s, opt.IncludeGrid) {
		b := p.Box
		switch p.Kind {
		case vector.PrimRect:
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\"%s/>\n", b.X, b.Y, b.W, b.H, paint(p))
		case vector.PrimEllipse:
			wf("  <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\"%s/>\n", b.X+b.W/2, b.Y+b.H/2, b.W/2, b.H/2, paint(p))
		case vector.PrimLine:
			wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\"%s/>\n", p.From.X, p.From.Y, p.To.X, p.To.Y, strokeAttrs(p.Stroke))
		case vector.PrimText:
			c := b.Center()
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" text-anchor=\"middle\" dominant-baseline=\"central\" fill=\"%s\">%s</text>\n",
				c.X, c.Y, p.Size, svgColor(p.Fill.Color), escText(p.Text))
		case vector.PrimSymbol:
			wf("  <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" preserveAspectRatio=\"none\" href=\"data:image/svg+xml;base64,%s\"/>\n",
				b.X, b.Y, b.W, b.H, base64.StdEncoding.EncodeToString(p.Data))
		}
	}

	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgColor(c vector.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func opacity(c vector.Color) string {
	if c.A == 255 {
		return ""
	}
	return fmt.Sprintf("%.3g", float64(c.A)/255)
}

func paint(p vector.Prim) string {
	var b strings.Builder
	if p.Fill.Enabled {
		fmt.Fprintf(&b, " fill=\"%s\"", svgColor(p.Fill.Color))
		if o := opacity(p.Fill.Color); o != "" {
			fmt.Fprintf(&b, " fill-opacity=\"%s\"", o)
		}
	} else {
		b.WriteString(" fill=\"none\"")
	}
	b.WriteString(strokeAttrs(p.Stroke))
	return b.String()
}

func strokeAttrs(st vector.Stroke) string {
	if !st.Enabled || st.Width <= 0 {
		return ""
	}
	out := fmt.Sprintf(" stroke=\"%s\" stroke-width=\"%g\"", svgColor(st.Color), st.Width)
	if o := opacity(st.Color); o != "" {
		out += fmt.Sprintf(" stroke-opacity=\"%s\"", o)
	}
	return out
}

func escText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

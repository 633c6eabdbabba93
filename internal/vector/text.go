/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// measureSize is the reference point size the metrics face is built at;
// other sizes scale linearly from it.
const measureSize = 100

var metrics struct {
	once sync.Once
	mu   sync.Mutex
	face font.Face
	ref  float64
}

func metricsFace() (font.Face, float64) {
	metrics.once.Do(func() {
		metrics.face, metrics.ref = basicfont.Face7x13, 13
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: measureSize, DPI: 72, Hinting: font.HintingNone})
		if err != nil {
			return
		}
		metrics.face, metrics.ref = face, measureSize
	})
	return metrics.face, metrics.ref
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// MeasureText returns the advance width and line height of s at size points.
func MeasureText(s string, size float64) Size {
	face, ref := metricsFace()
	metrics.mu.Lock()
	adv := font.MeasureString(face, s)
	m := face.Metrics()
	metrics.mu.Unlock()
	k := size / ref
	return Size{W: toFloat(adv) * k, H: toFloat(m.Ascent+m.Descent) * k}
}

// TextNode is a single line of text centred on its local origin.
type TextNode struct {
	baseNode
	Text   string
	Size   float64
	Family string
	// Flipped turns the text 180 degrees about its centre so it reads upright
	// inside a rotated parent.
	Flipped bool
}

func NewText(text string, size float64, family string, f Fill) *TextNode {
	return &TextNode{baseNode: baseNode{xf: Identity, fill: f}, Text: text, Size: size, Family: family}
}

func (n *TextNode) box() Rect {
	sz := MeasureText(n.Text, n.Size)
	return R(-sz.W/2, -sz.H/2, sz.W, sz.H)
}

// Empty reports whether there is nothing to draw.
func (n *TextNode) Empty() bool { return n.Text == "" }

// Bounds is symmetric about the origin, so flipping does not change it.
func (n *TextNode) Bounds() Rect {
	if n.Text == "" {
		return n.xf.ApplyRect(R(0, 0, 0, 0))
	}
	return n.xf.ApplyRect(n.box())
}

func (n *TextNode) Hit(p Pt) bool {
	if n.Text == "" {
		return false
	}
	return n.box().Contains(n.local(p))
}

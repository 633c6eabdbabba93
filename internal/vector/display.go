/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// PrimKind is the kind of a flattened drawing primitive.
type PrimKind uint8

const (
	PrimRect PrimKind = iota
	PrimEllipse
	PrimLine
	PrimText
	PrimSymbol
)

// Prim is one leaf node of the scene in target coordinates. Renderers map
// each one onto their own primitives.
type Prim struct {
	Kind PrimKind
	// Item is the id of the top-level group the node belongs to.
	Item   string
	Box    Rect
	From   Pt
	To     Pt
	Fill   Fill
	Stroke Stroke
	Text   string
	// Size is the text size after transformation.
	Size float64
	Ref  string
	Data []byte
}

// Flatten walks the scene in paint order and returns its leaves mapped
// through view. Rotation is reduced to the axis-aligned box of the
// transformed node.
func Flatten(s *Scene, view Affine2D) []Prim {
	var out []Prim
	for _, g := range s.Groups() {
		out = flattenGroup(out, g.ID, view.Mul(g.Transform()), g)
	}
	return out
}

func flattenGroup(out []Prim, item string, xf Affine2D, g *Group) []Prim {
	for _, c := range g.Children {
		if sub, ok := c.(*Group); ok {
			out = flattenGroup(out, item, xf.Mul(sub.Transform()), sub)
			continue
		}
		if p, ok := leaf(item, xf, c); ok {
			out = append(out, p)
		}
	}
	return out
}

func leaf(item string, xf Affine2D, n Node) (Prim, bool) {
	p := Prim{Item: item, Fill: n.Fill(), Stroke: n.Stroke()}
	switch v := n.(type) {
	case *RectNode:
		p.Kind = PrimRect
	case *EllipseNode:
		p.Kind = PrimEllipse
	case *LineNode:
		p.Kind = PrimLine
		m := xf.Mul(v.Transform())
		p.From, p.To = m.Apply(v.From), m.Apply(v.To)
		p.Stroke.Width *= scaleOf(xf)
	case *TextNode:
		if v.Empty() {
			return Prim{}, false
		}
		p.Kind = PrimText
		p.Text = v.Text
		p.Size = v.Size * scaleOf(xf.Mul(v.Transform()))
	case *SymbolNode:
		p.Kind = PrimSymbol
		p.Ref, p.Data = v.Ref, v.Data
	default:
		return Prim{}, false
	}
	p.Box = xf.ApplyRect(n.Bounds())
	if p.Kind != PrimLine {
		p.Stroke.Width *= scaleOf(xf)
	}
	return p, true
}

// scaleOf is the mean linear scale of a transform.
func scaleOf(m Affine2D) float64 {
	return math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
}

// Outline returns the screen boxes of the selected groups, in selection order.
func Outline(s *Scene, ids []string) []Rect {
	view := s.Viewport().Affine()
	var out []Rect
	for _, id := range ids {
		if g, ok := s.Node(id); ok && !g.Empty() {
			out = append(out, view.ApplyRect(g.Bounds()))
		}
	}
	return out
}

// Extent is the scene-space union of all item groups, skipping anonymous
// ones like the grid. ok is false when the scene holds no items.
func Extent(s *Scene) (r Rect, ok bool) {
	for _, g := range s.Groups() {
		if g.ID == "" || g.Empty() {
			continue
		}
		if !ok {
			r, ok = g.Bounds(), true
			continue
		}
		r = r.Union(g.Bounds())
	}
	return r, ok
}

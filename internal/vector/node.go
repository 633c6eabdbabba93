/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Node is a scene-graph item that can be rendered by different backends.
// Bounds are reported in the parent's coordinate space, i.e. after the
// node's own transform.
type Node interface {
	Name() string
	SetName(string)
	Bounds() Rect
	Transform() Affine2D
	SetTransform(Affine2D)
	Fill() Fill
	Stroke() Stroke
	SetFill(Fill)
	SetStroke(Stroke)
	Hit(p Pt) bool
}

type baseNode struct {
	name   string
	xf     Affine2D
	fill   Fill
	stroke Stroke
}

func (b *baseNode) Name() string            { return b.name }
func (b *baseNode) SetName(n string)        { b.name = n }
func (b *baseNode) Transform() Affine2D     { return b.xf }
func (b *baseNode) SetTransform(m Affine2D) { b.xf = m }
func (b *baseNode) Fill() Fill              { return b.fill }
func (b *baseNode) Stroke() Stroke          { return b.stroke }
func (b *baseNode) SetFill(f Fill)          { b.fill = f }
func (b *baseNode) SetStroke(s Stroke)      { b.stroke = s }

// local maps p from parent space into the node's own space.
func (b *baseNode) local(p Pt) Pt { return b.xf.Invert().Apply(p) }

// RectNode draws an axis-aligned rectangle before transform.
type RectNode struct {
	baseNode
	Rect Rect
}

func NewRect(r Rect, f Fill, s Stroke) *RectNode {
	return &RectNode{baseNode: baseNode{xf: Identity, fill: f, stroke: s}, Rect: r}
}

func (n *RectNode) Bounds() Rect  { return n.xf.ApplyRect(n.Rect) }
func (n *RectNode) Hit(p Pt) bool { return n.Rect.Contains(n.local(p)) }

// EllipseNode represents an ellipse inside rect.
type EllipseNode struct {
	baseNode
	Rect Rect
}

func NewEllipse(r Rect, f Fill, s Stroke) *EllipseNode {
	return &EllipseNode{baseNode: baseNode{xf: Identity, fill: f, stroke: s}, Rect: r}
}

// NewCircle centres an ellipse of radius r on c.
func NewCircle(c Pt, r float64, f Fill, s Stroke) *EllipseNode {
	return NewEllipse(R(c.X-r, c.Y-r, 2*r, 2*r), f, s)
}

func (n *EllipseNode) Bounds() Rect { return n.xf.ApplyRect(n.Rect) }

func (n *EllipseNode) Hit(p Pt) bool {
	q := n.local(p)
	// point-in-ellipse: ((x-cx)/rx)^2 + ((y-cy)/ry)^2 <= 1
	rx, ry := n.Rect.W/2, n.Rect.H/2
	if rx == 0 || ry == 0 {
		return false
	}
	c := n.Rect.Center()
	dx := (q.X - c.X) / rx
	dy := (q.Y - c.Y) / ry
	return dx*dx+dy*dy <= 1
}

// LineNode is a straight stroke between two points.
type LineNode struct {
	baseNode
	From, To Pt
}

func NewLine(from, to Pt, s Stroke) *LineNode {
	return &LineNode{baseNode: baseNode{xf: Identity, stroke: s}, From: from, To: to}
}

func (n *LineNode) Bounds() Rect {
	r := R(min(n.From.X, n.To.X), min(n.From.Y, n.To.Y), 0, 0)
	r.W = max(n.From.X, n.To.X) - r.X
	r.H = max(n.From.Y, n.To.Y) - r.Y
	return n.xf.ApplyRect(r)
}

// Hit never reports lines; they are decoration only.
func (n *LineNode) Hit(Pt) bool { return false }

// SymbolNode holds resolved vector artwork of a known size. The origin is the
// top-left corner of the artwork.
type SymbolNode struct {
	baseNode
	Ref  string
	Size Size
	// Data is the raw SVG document; renderers rasterize it.
	Data []byte
}

func NewSymbol(ref string, size Size, data []byte) *SymbolNode {
	return &SymbolNode{baseNode: baseNode{xf: Identity}, Ref: ref, Size: size, Data: data}
}

func (n *SymbolNode) Bounds() Rect  { return n.xf.ApplyRect(R(0, 0, n.Size.W, n.Size.H)) }
func (n *SymbolNode) Hit(p Pt) bool { return R(0, 0, n.Size.W, n.Size.H).Contains(n.local(p)) }

// Group is a container for child nodes with its own transform. Top-level
// groups carry the id of the record they draw and a tag naming its kind.
type Group struct {
	baseNode
	ID       string
	Tag      string
	Children []Node
}

func NewGroup(children ...Node) *Group {
	g := &Group{baseNode: baseNode{xf: Identity}}
	g.Children = append(g.Children, children...)
	return g
}

func (g *Group) Add(children ...Node) { g.Children = append(g.Children, children...) }

// Bounds is the union of the non-empty children, carried through the group
// transform.
func (g *Group) Bounds() Rect {
	var b Rect
	first := true
	for _, c := range g.Children {
		if isEmpty(c) {
			continue
		}
		cb := c.Bounds()
		if first {
			b = cb
			first = false
		} else {
			b = b.Union(cb)
		}
	}
	return g.xf.ApplyRect(b)
}

// Empty reports whether no child draws anything.
func (g *Group) Empty() bool {
	for _, c := range g.Children {
		if !isEmpty(c) {
			return false
		}
	}
	return true
}

func isEmpty(n Node) bool {
	e, ok := n.(interface{ Empty() bool })
	return ok && e.Empty()
}

func (g *Group) Hit(p Pt) bool {
	q := g.local(p)
	for i := len(g.Children) - 1; i >= 0; i-- { // top-most first
		if g.Children[i].Hit(q) {
			return true
		}
	}
	return false
}

// Find returns the first descendant with the given name, depth first.
func (g *Group) Find(name string) Node {
	for _, c := range g.Children {
		if c.Name() == name {
			return c
		}
		if sub, ok := c.(*Group); ok {
			if n := sub.Find(name); n != nil {
				return n
			}
		}
	}
	return nil
}

// Replace swaps the first direct child named name for n, appending n when no
// such child exists.
func (g *Group) Replace(name string, n Node) {
	for i, c := range g.Children {
		if c.Name() == name {
			g.Children[i] = n
			return
		}
	}
	g.Children = append(g.Children, n)
}

// Named sets the node's name and returns it, for inline construction.
func Named[N Node](name string, n N) N {
	n.SetName(name)
	return n
}

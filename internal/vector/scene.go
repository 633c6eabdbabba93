/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "slices"

// Viewport maps scene coordinates to screen pixels:
// screen = scene*Zoom + Offset.
type Viewport struct {
	Zoom   float64
	Offset Pt
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

func (v Viewport) ToScreen(p Pt) Pt {
	z := v.zoom()
	return Pt{p.X*z + v.Offset.X, p.Y*z + v.Offset.Y}
}

func (v Viewport) ToScene(p Pt) Pt {
	z := v.zoom()
	return Pt{(p.X - v.Offset.X) / z, (p.Y - v.Offset.Y) / z}
}

// Affine returns the scene-to-screen transform.
func (v Viewport) Affine() Affine2D {
	z := v.zoom()
	return Affine2D{A: z, D: z, E: v.Offset.X, F: v.Offset.Y}
}

// ZoomToPoint changes the zoom while keeping the scene point under the
// screen point s fixed.
func (v *Viewport) ZoomToPoint(s Pt, zoom float64) {
	anchor := v.ToScene(s)
	v.Zoom = zoom
	z := v.zoom()
	v.Offset = Pt{s.X - anchor.X*z, s.Y - anchor.Y*z}
}

// RelativePan shifts the view by a screen-space delta.
func (v *Viewport) RelativePan(d Pt) {
	v.Offset.X += d.X
	v.Offset.Y += d.Y
}

// Scene is a flat list of top-level groups in paint order plus the view
// state. It is not safe for concurrent use; callers confine it to the UI
// event loop.
type Scene struct {
	groups   []*Group
	scaling  bool
	view     Viewport
	revision uint64
	// OnChange, when set, runs after every mutation.
	OnChange func()
}

func NewScene() *Scene {
	return &Scene{scaling: true, view: Viewport{Zoom: 1}}
}

func (s *Scene) changed() {
	s.revision++
	if s.OnChange != nil {
		s.OnChange()
	}
}

// Revision increases on every mutation; renderers compare it to skip work.
func (s *Scene) Revision() uint64 { return s.revision }

// Clear removes every group.
func (s *Scene) Clear() {
	s.groups = nil
	s.changed()
}

// Add appends g on top of the paint order.
func (s *Scene) Add(g *Group) {
	s.groups = append(s.groups, g)
	s.changed()
}

// Remove drops the first group drawing id and reports whether one existed.
func (s *Scene) Remove(id string) bool {
	i := slices.IndexFunc(s.groups, func(g *Group) bool { return g.ID == id })
	if i < 0 {
		return false
	}
	s.groups = slices.Delete(s.groups, i, i+1)
	s.changed()
	return true
}

// Swap replaces the group drawing g.ID in place, keeping its paint order.
// It appends when there is no such group.
func (s *Scene) Swap(g *Group) {
	if i := slices.IndexFunc(s.groups, func(x *Group) bool { return x.ID == g.ID }); i >= 0 {
		s.groups[i] = g
	} else {
		s.groups = append(s.groups, g)
	}
	s.changed()
}

// Node returns the first group drawing id.
func (s *Scene) Node(id string) (*Group, bool) {
	for _, g := range s.groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// Groups returns the groups in paint order.
func (s *Scene) Groups() []*Group { return slices.Clone(s.groups) }

// Tagged returns the groups carrying tag, in paint order.
func (s *Scene) Tagged(tag string) []*Group {
	var out []*Group
	for _, g := range s.groups {
		if g.Tag == tag {
			out = append(out, g)
		}
	}
	return out
}

// Intersecting returns the groups tagged tag whose bounds overlap g's,
// excluding g itself, in paint order.
func (s *Scene) Intersecting(g *Group, tag string) []*Group {
	b := g.Bounds()
	var out []*Group
	for _, o := range s.groups {
		if o == g || o.Tag != tag {
			continue
		}
		if o.Bounds().Intersects(b) {
			out = append(out, o)
		}
	}
	return out
}

// HitTest returns the top-most group with an ID under the scene point p.
func (s *Scene) HitTest(p Pt) (*Group, bool) {
	for i := len(s.groups) - 1; i >= 0; i-- {
		g := s.groups[i]
		if g.ID != "" && g.Hit(p) {
			return g, true
		}
	}
	return nil, false
}

// Touch records an in-place change to a group's children.
func (s *Scene) Touch() { s.changed() }

// SetScalingEnabled toggles the scale handles on the active selection.
func (s *Scene) SetScalingEnabled(on bool) {
	if s.scaling != on {
		s.scaling = on
		s.changed()
	}
}

func (s *Scene) ScalingEnabled() bool { return s.scaling }

func (s *Scene) Viewport() Viewport { return s.view }

func (s *Scene) SetViewport(v Viewport) {
	s.view = v
	s.changed()
}

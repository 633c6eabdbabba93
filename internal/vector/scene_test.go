/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func box(id, tag string, r Rect) *Group {
	g := NewGroup(NewRect(r, Fill{}, Stroke{}))
	g.ID, g.Tag = id, tag
	return g
}

func TestSceneAddRemoveNode(t *testing.T) {
	s := NewScene()
	changes := 0
	s.OnChange = func() { changes++ }

	s.Add(box("a", "position", R(0, 0, 10, 10)))
	s.Add(box("b", "fixture", R(0, 0, 5, 5)))
	if _, ok := s.Node("a"); !ok {
		t.Fatalf("expected node a")
	}
	if !s.Remove("a") || s.Remove("a") {
		t.Fatalf("remove should succeed once")
	}
	if _, ok := s.Node("a"); ok {
		t.Fatalf("a still present")
	}
	s.Swap(box("b", "fixture", R(1, 1, 5, 5)))
	if len(s.Groups()) != 1 {
		t.Fatalf("swap should replace in place, got %d groups", len(s.Groups()))
	}
	s.Clear()
	if len(s.Groups()) != 0 {
		t.Fatalf("clear left groups")
	}
	if changes != 5 || s.Revision() != 5 {
		t.Fatalf("expected 5 change notifications, got %d (rev %d)", changes, s.Revision())
	}
}

func TestSceneIntersectingKeepsPaintOrder(t *testing.T) {
	s := NewScene()
	s.Add(box("p2", "position", R(0, 0, 100, 10)))
	s.Add(box("p1", "position", R(0, 5, 100, 10)))
	s.Add(box("far", "position", R(500, 500, 10, 10)))
	fx := box("f", "fixture", R(40, 0, 20, 20))
	s.Add(fx)
	s.Add(box("f2", "fixture", R(40, 0, 20, 20)))

	hits := s.Intersecting(fx, "position")
	if len(hits) != 2 || hits[0].ID != "p2" || hits[1].ID != "p1" {
		t.Fatalf("unexpected intersecting set: %v", ids(hits))
	}
	if got := s.Tagged("fixture"); len(got) != 2 {
		t.Fatalf("expected two fixtures, got %v", ids(got))
	}
}

func TestSceneHitTestTopMost(t *testing.T) {
	s := NewScene()
	s.Add(box("under", "position", R(0, 0, 100, 100)))
	s.Add(box("over", "fixture", R(10, 10, 10, 10)))
	if g, ok := s.HitTest(Pt{15, 15}); !ok || g.ID != "over" {
		t.Fatalf("expected top-most group")
	}
	if g, ok := s.HitTest(Pt{50, 50}); !ok || g.ID != "under" {
		t.Fatalf("expected underlying group")
	}
	if _, ok := s.HitTest(Pt{500, 500}); ok {
		t.Fatalf("expected miss")
	}
}

func TestViewportZoomToPoint(t *testing.T) {
	v := Viewport{Zoom: 1.5, Offset: Pt{20, 30}}
	screen := Pt{200, 100}
	before := v.ToScene(screen)
	v.ZoomToPoint(screen, 3)
	after := v.ToScene(screen)
	if !near(before.X, after.X) || !near(before.Y, after.Y) {
		t.Fatalf("anchor moved: %+v -> %+v", before, after)
	}
	v.RelativePan(Pt{10, -10})
	if p := v.ToScreen(after); !near(p.X, 210) || !near(p.Y, 90) {
		t.Fatalf("pan not applied: %+v", p)
	}
	if a := v.Affine().Apply(after); !near(a.X, 210) || !near(a.Y, 90) {
		t.Fatalf("affine disagrees with ToScreen: %+v", a)
	}
}

func TestSceneScalingToggle(t *testing.T) {
	s := NewScene()
	if !s.ScalingEnabled() {
		t.Fatalf("scaling starts enabled")
	}
	s.SetScalingEnabled(false)
	s.SetScalingEnabled(false)
	if s.ScalingEnabled() || s.Revision() != 1 {
		t.Fatalf("toggle should record one change, rev=%d", s.Revision())
	}
}

func ids(gs []*Group) []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, g.ID)
	}
	return out
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectNode_HitAndBounds(t *testing.T) {
	n := NewRect(R(0, 0, 100, 50), Solid(White), Line(Black, 1))
	n.SetTransform(Translate(10, 20))
	if !n.Hit(Pt{50 + 10, 25 + 20}) {
		t.Fatalf("expected hit after translation")
	}
	b := n.Bounds()
	if b.X != 10 || b.Y != 20 || b.W != 100 || b.H != 50 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
}

func TestEllipseNode_Hit(t *testing.T) {
	n := NewCircle(Pt{0, 0}, 10, Solid(White), Stroke{})
	if !n.Hit(Pt{0, 0}) {
		t.Fatalf("center should hit")
	}
	if n.Hit(Pt{9, 9}) {
		t.Fatalf("corner of bounding box is outside the circle")
	}
	if b := n.Bounds(); b != R(-10, -10, 20, 20) {
		t.Fatalf("unexpected bounds: %+v", b)
	}
}

func TestGroup_BoundsFollowTransform(t *testing.T) {
	g := NewGroup(NewRect(R(0, 0, 10, 10), Fill{}, Stroke{}), NewRect(R(20, 0, 10, 10), Fill{}, Stroke{}))
	if b := g.Bounds(); b != R(0, 0, 30, 10) {
		t.Fatalf("unexpected group bounds: %+v", b)
	}
	g.SetTransform(Pose{X: 100, Y: 100, ScaleX: 2, ScaleY: 1}.Affine())
	if b := g.Bounds(); b != R(100, 100, 60, 10) {
		t.Fatalf("group transform not applied: %+v", b)
	}
	if !g.Hit(Pt{145, 105}) || g.Hit(Pt{125, 105}) {
		t.Fatalf("hit test ignored the gap between children")
	}

	g.SetTransform(Rotate(math.Pi / 2))
	if !g.Hit(Pt{-5, 5}) { // former (5,5) lands at (-5,5)
		t.Fatalf("expected hit after rotation")
	}
}

func TestGroup_EmptyTextIgnored(t *testing.T) {
	bar := NewRect(R(0, 0, 100, 10), Fill{}, Stroke{})
	label := NewText("", 8, "Arial", Solid(Black))
	label.SetTransform(Translate(50, -40))
	g := NewGroup(bar, label)
	if b := g.Bounds(); b != R(0, 0, 100, 10) {
		t.Fatalf("empty label widened bounds: %+v", b)
	}
	label.Text = "FOH"
	if b := g.Bounds(); b.Y >= 0 {
		t.Fatalf("label should extend bounds upward: %+v", b)
	}
}

func TestGroup_FindAndReplace(t *testing.T) {
	inner := NewGroup(Named("dimmerText", NewText("12", 6, "Arial", Fill{})))
	inner.SetName("dimmer")
	g := NewGroup(Named("number", NewText("1", 6, "Arial", Fill{})), inner)

	n, ok := g.Find("dimmerText").(*TextNode)
	if !ok || n.Text != "12" {
		t.Fatalf("nested lookup failed: %+v", n)
	}
	g.Replace("number", Named("number", NewText("2", 6, "Arial", Fill{})))
	if got := g.Find("number").(*TextNode).Text; got != "2" || len(g.Children) != 2 {
		t.Fatalf("replace failed: %q, %d children", got, len(g.Children))
	}
	g.Replace("gel", Named("gel", NewText("R02", 6, "Arial", Fill{})))
	if len(g.Children) != 3 {
		t.Fatalf("replace of missing child should append")
	}
}

func TestMeasureTextScales(t *testing.T) {
	small := MeasureText("Hamlet", 8)
	big := MeasureText("Hamlet", 16)
	if small.W <= 0 || small.H <= 0 {
		t.Fatalf("expected positive metrics, got %+v", small)
	}
	if math.Abs(big.W-2*small.W) > 1e-6 || math.Abs(big.H-2*small.H) > 1e-6 {
		t.Fatalf("metrics should scale linearly: %+v vs %+v", small, big)
	}
	n := NewText("Hamlet", 8, "Arial", Fill{})
	b := n.Bounds()
	if math.Abs(b.X+b.W/2) > 1e-9 || math.Abs(b.Y+b.H/2) > 1e-9 {
		t.Fatalf("text should be centred on its origin: %+v", b)
	}
}

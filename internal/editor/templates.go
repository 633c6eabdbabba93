/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"github.com/davidroberthoare/lightsup/internal/artwork"
	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

// Sub-element names inside item groups.
const (
	partSymbol      = "symbol"
	partNumber      = "number"
	partLabel       = "label"
	partDimmer      = "dimmer"
	partDimmerText  = "dimmerText"
	partChannel     = "channel"
	partChannelText = "channelText"
	partGel         = "gel"
)

// fieldPart maps an item field to the text node that shows it.
func fieldPart(t domain.ItemType, f domain.Field) (string, bool) {
	if t == domain.TypePosition {
		return partLabel, f == domain.FieldLabel
	}
	switch f {
	case domain.FieldNumber:
		return partNumber, true
	case domain.FieldLabel:
		return partLabel, true
	case domain.FieldDimmer:
		return partDimmerText, true
	case domain.FieldChannel:
		return partChannelText, true
	case domain.FieldGel:
		return partGel, true
	}
	return "", false
}

// refsFor lists the artwork an item's node needs.
func refsFor(it domain.Item) []string {
	if it.IsPosition() {
		return []string{artwork.PositionRef(it.Shape)}
	}
	return []string{artwork.FixtureRef(it.Shape), artwork.DimmerRef}
}

func pose(it domain.Item) vector.Pose {
	return vector.Pose{X: it.X, Y: it.Y, Angle: it.Angle, ScaleX: it.ScaleX, ScaleY: it.ScaleY}
}

// flipped reports whether text reads upside down at angle and must be turned.
func flipped(angle float64) bool {
	a := domain.NormalizeAngle(angle)
	return a > 90 && a < 270
}

func text(name, s string, size float64) *vector.TextNode {
	return vector.Named(name, vector.NewText(s, size, Font, vector.Solid(vector.Black)))
}

func at(n vector.Node, x, y float64) vector.Node {
	n.SetTransform(vector.Translate(x, y))
	return n
}

// buildNode constructs the group for it from resolved artwork.
func buildNode(it domain.Item, syms map[string]artwork.Symbol) *vector.Group {
	var g *vector.Group
	if it.IsPosition() {
		g = buildPosition(it, syms[artwork.PositionRef(it.Shape)])
	} else {
		g = buildFixture(it, syms[artwork.FixtureRef(it.Shape)], syms[artwork.DimmerRef])
	}
	g.ID = it.ID
	g.SetTransform(pose(it).Affine())
	return g
}

// buildFixture lays out a fixture with its origin at the top centre of the
// symbol.
func buildFixture(it domain.Item, sym, dim artwork.Symbol) *vector.Group {
	w, h := sym.Size.W, sym.Size.H

	symbol := vector.Named(partSymbol, sym.Node())
	symbol.SetTransform(vector.Translate(-w/2, 0))

	dimmerArt := dim.Node()
	dimmerArt.SetTransform(vector.Translate(-dim.Size.W/2, -dim.Size.H/2))
	dimmer := vector.NewGroup(dimmerArt, text(partDimmerText, it.Dimmer, FontSize))
	dimmer.SetName(partDimmer)
	dimmer.SetTransform(vector.Translate(0, dimmerOffsetY))

	ring := vector.NewCircle(vector.Pt{}, channelRadius, vector.Fill{}, vector.Line(vector.Black, 0.5))
	channel := vector.NewGroup(ring, text(partChannelText, it.Channel, FontSize))
	channel.SetName(partChannel)
	channel.SetTransform(vector.Translate(0, channelOffsetY))

	// the gel hangs below the symbol by its top edge
	gelHalf := vector.MeasureText("Ag", FontSize).H / 2

	g := vector.NewGroup(
		symbol,
		at(text(partNumber, it.Number.String(), FontSize-2), 0, h/2),
		at(text(partLabel, it.Label, FontSize-2), 0, labelOffsetY),
		dimmer,
		channel,
		at(text(partGel, it.Gel, FontSize), 0, h+gelGap+gelHalf),
	)
	g.Tag = TagFixture
	setFlip(g, it.Angle)
	return g
}

// buildPosition stretches the bar artwork over a 100x10 box with the origin
// at its top-left corner. The label keeps a constant size whatever the scale.
func buildPosition(it domain.Item, sym artwork.Symbol) *vector.Group {
	bar := vector.Named(partSymbol, sym.Node())
	if sym.Size.W > 0 && sym.Size.H > 0 {
		bar.SetTransform(vector.Scale(barWidth/sym.Size.W, barHeight/sym.Size.H))
	}
	g := vector.NewGroup(bar, text(partLabel, it.Label, FontSize))
	g.Tag = TagPosition
	placeBarLabel(g, it.ScaleX, it.ScaleY)
	return g
}

// placeBarLabel cancels the parent scale on the label and keeps it a fixed
// distance above the bar.
func placeBarLabel(g *vector.Group, sx, sy float64) {
	if sx <= 0 {
		sx = 1
	}
	if sy <= 0 {
		sy = 1
	}
	n := g.Find(partLabel)
	if n == nil {
		return
	}
	half := vector.MeasureText("Ag", FontSize).H / 2
	n.SetTransform(vector.Translate(barWidth/2, -(barLabelGap+half)/sy).Mul(vector.Scale(1/sx, 1/sy)))
}

// setFlip turns every text element of a fixture upside down when the fixture
// itself is rotated past vertical.
func setFlip(g *vector.Group, angle float64) {
	f := flipped(angle)
	var walk func(*vector.Group)
	walk = func(grp *vector.Group) {
		for _, c := range grp.Children {
			switch n := c.(type) {
			case *vector.TextNode:
				n.Flipped = f
			case *vector.Group:
				walk(n)
			}
		}
	}
	walk(g)
}

// gridNode draws the static background grid over the page extent.
func gridNode() *vector.Group {
	g := vector.NewGroup()
	g.Tag = TagGrid
	stroke := vector.Line(GridColor, GridThickness)
	lo, hi := -PageSize, 2*PageSize
	for v := lo; v <= hi; v += GridSize {
		g.Add(
			vector.NewLine(vector.Pt{X: v, Y: lo}, vector.Pt{X: v, Y: hi}, stroke),
			vector.NewLine(vector.Pt{X: lo, Y: v}, vector.Pt{X: hi, Y: v}, stroke),
		)
	}
	return g
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the data model of a lighting plot: the drawable items
// (fixtures and the positions they hang on) and the show metadata record.
// Both serialize to the JSON snapshot that the persistence bridge stores.

import (
	"errors"
	"fmt"
	"math"
)

// ItemType discriminates all polymorphic item behaviour.
type ItemType string

const (
	TypeFixture  ItemType = "fixture"
	TypePosition ItemType = "position"
)

func (t ItemType) Valid() bool { return t == TypeFixture || t == TypePosition }

// DefaultPositionShape is the bar style used when a position is created without one.
const DefaultPositionShape = "pipe"

var (
	ErrUnknownField   = errors.New("unknown field")
	ErrImmutableField = errors.New("field is immutable")
	ErrInvalidValue   = errors.New("invalid field value")
	ErrInvalidItem    = errors.New("invalid item")
)

// Item is a single drawable record. Fixtures carry the derived Position and
// Number fields; positions leave them empty.
type Item struct {
	ID       string   `json:"id"`
	Type     ItemType `json:"type"`
	Shape    string   `json:"shape"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Angle    float64  `json:"angle"`
	ScaleX   float64  `json:"scalex"`
	ScaleY   float64  `json:"scaley"`
	Position string   `json:"position"`
	Number   Ordinal  `json:"number"`
	Label    string   `json:"label"`
	Channel  string   `json:"channel"`
	Dimmer   string   `json:"dimmer"`
	Gel      string   `json:"gel"`
}

// NewItem returns an item of type t at (x,y) with default scale and empty annotations.
func NewItem(t ItemType, shape string, x, y float64) Item {
	if t == TypePosition && shape == "" {
		shape = DefaultPositionShape
	}
	return Item{Type: t, Shape: shape, X: x, Y: y, ScaleX: 1, ScaleY: 1}
}

func (it Item) IsFixture() bool  { return it.Type == TypeFixture }
func (it Item) IsPosition() bool { return it.Type == TypePosition }

// Validate reports whether the record satisfies the item schema.
func (it Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidItem)
	}
	if !it.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidItem, it.Type)
	}
	if it.IsPosition() && (it.Position != "" || it.Number != 0) {
		return fmt.Errorf("%w: position %s carries fixture association", ErrInvalidItem, it.ID)
	}
	if it.Number < 0 {
		return fmt.Errorf("%w: negative number", ErrInvalidItem)
	}
	for _, v := range []float64{it.X, it.Y, it.Angle, it.ScaleX, it.ScaleY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite geometry", ErrInvalidItem)
		}
	}
	return nil
}

// Normalize wraps the angle into [0,360) and replaces non-positive scales with 1.
func (it Item) Normalize() Item {
	it.Angle = NormalizeAngle(it.Angle)
	if it.ScaleX <= 0 {
		it.ScaleX = 1
	}
	if it.ScaleY <= 0 {
		it.ScaleY = 1
	}
	return it
}

// NormalizeAngle maps any angle in degrees into [0,360).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// Show holds the metadata printed on the plot and its report.
type Show struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Venue    string `json:"venue"`
	Designer string `json:"designer"`
	Date     string `json:"date"`
}

// SnapshotVersion is the current snapshot layout.
const SnapshotVersion = 1

// Snapshot is the full persisted state of one plot.
type Snapshot struct {
	Version     int    `json:"version"`
	Items       []Item `json:"items"`
	Shows       []Show `json:"shows"`
	CurrentShow string `json:"current_show,omitempty"`
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field names an Item column. The string value doubles as JSON key and SQL column.
type Field string

const (
	FieldID       Field = "id"
	FieldType     Field = "type"
	FieldShape    Field = "shape"
	FieldX        Field = "x"
	FieldY        Field = "y"
	FieldAngle    Field = "angle"
	FieldScaleX   Field = "scalex"
	FieldScaleY   Field = "scaley"
	FieldPosition Field = "position"
	FieldNumber   Field = "number"
	FieldLabel    Field = "label"
	FieldChannel  Field = "channel"
	FieldDimmer   Field = "dimmer"
	FieldGel      Field = "gel"
)

// Fields lists every item field in inspector order.
var Fields = []Field{
	FieldID, FieldType, FieldShape, FieldX, FieldY, FieldAngle, FieldScaleX, FieldScaleY,
	FieldPosition, FieldNumber, FieldLabel, FieldChannel, FieldDimmer, FieldGel,
}

// ParseField resolves a field name case-insensitively.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Editable reports whether users may change the field through the inspector.
// Geometry changes go through gestures and position/number are derived.
func (f Field) Editable() bool {
	switch f {
	case FieldShape, FieldLabel, FieldChannel, FieldDimmer, FieldGel:
		return true
	}
	return false
}

// Geometric reports whether the field is part of the node transform.
func (f Field) Geometric() bool {
	switch f {
	case FieldX, FieldY, FieldAngle, FieldScaleX, FieldScaleY:
		return true
	}
	return false
}

// Get renders a field as text; an empty number renders as "".
func (it Item) Get(f Field) string {
	switch f {
	case FieldID:
		return it.ID
	case FieldType:
		return string(it.Type)
	case FieldShape:
		return it.Shape
	case FieldX:
		return formatFloat(it.X)
	case FieldY:
		return formatFloat(it.Y)
	case FieldAngle:
		return formatFloat(it.Angle)
	case FieldScaleX:
		return formatFloat(it.ScaleX)
	case FieldScaleY:
		return formatFloat(it.ScaleY)
	case FieldPosition:
		return it.Position
	case FieldNumber:
		return it.Number.String()
	case FieldLabel:
		return it.Label
	case FieldChannel:
		return it.Channel
	case FieldDimmer:
		return it.Dimmer
	case FieldGel:
		return it.Gel
	}
	return ""
}

// Set writes a field from its text form. id and type are immutable.
func (it *Item) Set(f Field, v string) error {
	switch f {
	case FieldID, FieldType:
		return fmt.Errorf("%w: %s", ErrImmutableField, f)
	case FieldShape:
		it.Shape = v
	case FieldX, FieldY, FieldAngle, FieldScaleX, FieldScaleY:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, f, v)
		}
		switch f {
		case FieldX:
			it.X = n
		case FieldY:
			it.Y = n
		case FieldAngle:
			it.Angle = NormalizeAngle(n)
		case FieldScaleX:
			it.ScaleX = n
		case FieldScaleY:
			it.ScaleY = n
		}
	case FieldPosition:
		it.Position = v
	case FieldNumber:
		n, err := ParseOrdinal(v)
		if err != nil {
			return err
		}
		it.Number = n
	case FieldLabel:
		it.Label = v
	case FieldChannel:
		it.Channel = v
	case FieldDimmer:
		it.Dimmer = v
	case FieldGel:
		it.Gel = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Ordinal is a fixture's 1-based number within its position; 0 means empty.
// It is written as null when empty and read from integers, numeric strings,
// "" or null.
type Ordinal int

func (o Ordinal) String() string {
	if o <= 0 {
		return ""
	}
	return strconv.Itoa(int(o))
}

// ParseOrdinal parses the text form used by the inspector and legacy snapshots.
func ParseOrdinal(s string) (Ordinal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: number=%q", ErrInvalidValue, s)
	}
	return Ordinal(n), nil
}

func (o Ordinal) MarshalJSON() ([]byte, error) {
	if o <= 0 {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(o))), nil
}

func (o *Ordinal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*o = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := ParseOrdinal(s)
		if err != nil {
			return err
		}
		*o = n
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("%w: number=%s", ErrInvalidValue, b)
	}
	if f < 0 {
		f = 0
	}
	*o = Ordinal(int(f))
	return nil
}

// ShowField names a Show column.
type ShowField string

const (
	ShowName     ShowField = "name"
	ShowCompany  ShowField = "company"
	ShowVenue    ShowField = "venue"
	ShowDesigner ShowField = "designer"
	ShowDate     ShowField = "date"
)

// ShowFields lists the editable show fields in form order.
var ShowFields = []ShowField{ShowName, ShowCompany, ShowVenue, ShowDesigner, ShowDate}

func (s Show) Get(f ShowField) string {
	switch f {
	case ShowName:
		return s.Name
	case ShowCompany:
		return s.Company
	case ShowVenue:
		return s.Venue
	case ShowDesigner:
		return s.Designer
	case ShowDate:
		return s.Date
	}
	return ""
}

func (s *Show) Set(f ShowField, v string) error {
	switch f {
	case ShowName:
		s.Name = v
	case ShowCompany:
		s.Company = v
	case ShowVenue:
		s.Venue = v
	case ShowDesigner:
		s.Designer = v
	case ShowDate:
		s.Date = v
	default:
		return fmt.Errorf("%w: show %q", ErrUnknownField, f)
	}
	return nil
}

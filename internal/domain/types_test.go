package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestItemJSONRoundTrip(t *testing.T) {
	it := NewItem(TypeFixture, "ers", 120.5, -30)
	it.ID = NewID()
	it.Position = "pos000000001"
	it.Number = 3
	it.Label = "FOH 1"
	it.Gel = "R02"

	b, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Item
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != it {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, it)
	}
}

func TestOrdinalJSONForms(t *testing.T) {
	cases := []struct {
		in   string
		want Ordinal
	}{
		{`null`, 0},
		{`""`, 0},
		{`"4"`, 4},
		{`7`, 7},
		{`0`, 0},
	}
	for _, c := range cases {
		var o Ordinal
		if err := json.Unmarshal([]byte(c.in), &o); err != nil {
			t.Fatalf("unmarshal %s: %v", c.in, err)
		}
		if o != c.want {
			t.Fatalf("unmarshal %s = %d, want %d", c.in, o, c.want)
		}
	}
	b, _ := json.Marshal(Ordinal(0))
	if string(b) != "null" {
		t.Fatalf("empty ordinal should marshal as null, got %s", b)
	}
}

func TestItemGetSet(t *testing.T) {
	it := NewItem(TypeFixture, "par", 0, 0)
	it.ID = "abc"
	if err := it.Set(FieldGel, "L201"); err != nil || it.Get(FieldGel) != "L201" {
		t.Fatalf("set gel: %v %q", err, it.Get(FieldGel))
	}
	if err := it.Set(FieldAngle, "-90"); err != nil || it.Angle != 270 {
		t.Fatalf("angle should wrap to 270, got %v (%v)", it.Angle, err)
	}
	if err := it.Set(FieldNumber, ""); err != nil || it.Get(FieldNumber) != "" {
		t.Fatalf("empty number: %v %q", err, it.Get(FieldNumber))
	}
	if err := it.Set(FieldID, "x"); !errors.Is(err, ErrImmutableField) {
		t.Fatalf("expected immutable error, got %v", err)
	}
	if err := it.Set(FieldX, "abc"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected invalid value, got %v", err)
	}
	if err := it.Set(Field("bogus"), "1"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected unknown field, got %v", err)
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{0: 0, 360: 0, 725: 5, -1: 359, -720: 0, 90: 90}
	for in, want := range cases {
		if got := NormalizeAngle(in); got != want {
			t.Fatalf("NormalizeAngle(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	it := NewItem(TypePosition, "", 0, 0)
	if err := it.Validate(); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("missing id must fail, got %v", err)
	}
	it.ID = "p1"
	if it.Shape != DefaultPositionShape {
		t.Fatalf("position should default its shape, got %q", it.Shape)
	}
	if err := it.Validate(); err != nil {
		t.Fatalf("valid position rejected: %v", err)
	}
	it.Position = "other"
	if err := it.Validate(); err == nil {
		t.Fatalf("position with association must fail")
	}
	bad := Item{ID: "x", Type: "light"}
	if err := bad.Validate(); err == nil {
		t.Fatalf("unknown type must fail")
	}
}

func TestNewIDShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := NewID()
		if len(id) != IDLength {
			t.Fatalf("id length %d", len(id))
		}
		if strings.Trim(id, idAlphabet) != "" {
			t.Fatalf("id %q has characters outside the alphabet", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField(" ScaleX ")
	if err != nil || f != FieldScaleX {
		t.Fatalf("ParseField: %v %q", err, f)
	}
	if !FieldGel.Editable() || FieldNumber.Editable() || FieldPosition.Editable() {
		t.Fatalf("unexpected editable flags")
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davidroberthoare/lightsup/internal/domain"
)

func plot() []domain.Item {
	pos := func(id, label string) domain.Item {
		it := domain.NewItem(domain.TypePosition, "pipe", 0, 0)
		it.ID, it.Label = id, label
		return it
	}
	fx := func(id, position string, n domain.Ordinal, gel string) domain.Item {
		it := domain.NewItem(domain.TypeFixture, "ers", 0, 0)
		it.ID, it.Position, it.Number, it.Gel = id, position, n, gel
		return it
	}
	return []domain.Item{
		pos("pos1", "1st Electric"),
		pos("pos2", "Box Boom"),
		pos("pos3", ""),
		fx("f1", "pos1", 2, "R02"),
		fx("f2", "pos1", 1, "L201"),
		fx("f3", "pos2", 1, ""),
		fx("f4", "", 0, ""),
		fx("f5", "gone", 3, ""),
		fx("f6", "pos3", 1, ""),
	}
}

func TestBuildGroupsByPositionLabel(t *testing.T) {
	r := Build(plot())
	if r.Total != 6 {
		t.Fatalf("total = %d", r.Total)
	}
	var labels []string
	for _, g := range r.Groups {
		labels = append(labels, g.Label)
	}
	if strings.Join(labels, "|") != "1st Electric|Box Boom|(none)" {
		t.Fatalf("group order = %v", labels)
	}
	first := r.Groups[0]
	if first.Rows[0].ID != "f2" || first.Rows[1].ID != "f1" {
		t.Fatalf("rows should be ordered by number: %+v", first.Rows)
	}
	none := r.Groups[2]
	if len(none.Rows) != 3 {
		t.Fatalf("(none) should collect unassociated, dangling and unlabelled: %+v", none.Rows)
	}
	if last := none.Rows[len(none.Rows)-1]; last.ID != "f4" {
		t.Fatalf("unnumbered rows sort last, got %s", last.ID)
	}
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil)
	if r.Total != 0 || len(r.Groups) != 0 {
		t.Fatalf("expected empty report, got %+v", r)
	}
}

func TestWriteText(t *testing.T) {
	show := domain.Show{Name: "Hamlet", Venue: "Globe", Designer: "J. Doe"}
	var buf bytes.Buffer
	if err := WriteText(&buf, show, Build(plot())); err != nil {
		t.Fatalf("WriteText error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Hamlet / Globe",
		"Designer: J. Doe",
		"6 fixtures",
		"1st Electric (2 items)",
		"(none) (3 items)",
		"Num  Fixture",
		"L201",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Box Boom") > strings.Index(out, "(none)") {
		t.Fatalf("(none) must come last:\n%s", out)
	}
}

func TestTitleFallback(t *testing.T) {
	if got := Title(domain.Show{}); got != "Fixture schedule" {
		t.Fatalf("Title = %q", got)
	}
}

func TestWritePDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "schedule.pdf")
	show := domain.Show{Name: "Hamlet", Company: "Players"}
	if err := WritePDF(out, show, Build(plot())); err != nil {
		t.Fatalf("WritePDF error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", data[:min(len(data), 8)])
	}
}

func TestWritePDFManyRowsPaginates(t *testing.T) {
	items := []domain.Item{}
	p := domain.NewItem(domain.TypePosition, "truss", 0, 0)
	p.ID, p.Label = "truss", "Upstage Truss"
	items = append(items, p)
	for i := 1; i <= 120; i++ {
		it := domain.NewItem(domain.TypeFixture, "led", 0, 0)
		it.ID = domain.NewID()
		it.Position, it.Number = "truss", domain.Ordinal(i)
		items = append(items, it)
	}
	out := filepath.Join(t.TempDir(), "long.pdf")
	if err := WritePDF(out, domain.Show{}, Build(items)); err != nil {
		t.Fatalf("WritePDF error: %v", err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		t.Fatalf("pdf not written: %v", err)
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/davidroberthoare/lightsup/internal/domain"
	"github.com/davidroberthoare/lightsup/internal/version"
	"github.com/jung-kurt/gofpdf"
)

// column widths in mm; they sum to the printable A4 width
var colWidths = []float64{16, 34, 50, 26, 26, 38}

const (
	margin   = 10.0
	rowH     = 6.0
	headSize = 16.0
	bodySize = 9.0
)

// WritePDF renders the schedule to an A4 portrait PDF at path, creating the
// directory when missing.
func WritePDF(path string, show domain.Show, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(Title(show), true)
	pdf.SetCreator("lightsup "+version.String(), true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", headSize)
	pdf.CellFormat(0, 9, tr(Title(show)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", bodySize)
	for _, c := range credits(show) {
		pdf.CellFormat(0, 5, tr(c), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("%d fixtures", r.Total), "", 1, "L", false, 0, "")

	for _, g := range r.Groups {
		pdf.Ln(3)
		// keep a heading together with its first rows
		_, pageH := pdf.GetPageSize()
		if pdf.GetY()+4*rowH > pageH-margin {
			pdf.AddPage()
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(pdf.GetStringWidth(tr(g.Label))+2, 7, tr(g.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", bodySize)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(0, 7, fmt.Sprintf("(%d items)", len(g.Rows)), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)

		header(pdf)
		for _, row := range g.Rows {
			if pdf.GetY()+rowH > pageH-margin {
				pdf.AddPage()
				header(pdf)
			}
			for i, cell := range row.Cells() {
				pdf.CellFormat(colWidths[i], rowH, tr(cell), "B", 0, "L", false, 0, "")
			}
			pdf.Ln(rowH)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func header(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", bodySize)
	pdf.SetFillColor(221, 221, 221)
	for i, c := range Columns {
		pdf.CellFormat(colWidths[i], rowH, c, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(rowH)
	pdf.SetFont("Helvetica", "", bodySize)
}

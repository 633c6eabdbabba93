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
	"io"
	"strings"
	"text/tabwriter"

	"github.com/davidroberthoare/lightsup/internal/domain"
)

// Title is the heading line for show.
func Title(show domain.Show) string {
	var parts []string
	for _, s := range []string{show.Name, show.Venue, show.Date} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "Fixture schedule"
	}
	return strings.Join(parts, " / ")
}

// credits lists the non-empty company and designer lines.
func credits(show domain.Show) []string {
	var out []string
	if show.Company != "" {
		out = append(out, "Company: "+show.Company)
	}
	if show.Designer != "" {
		out = append(out, "Designer: "+show.Designer)
	}
	return out
}

// groupHeading is the label followed by the row count.
func groupHeading(g Group) string {
	return fmt.Sprintf("%s (%d items)", g.Label, len(g.Rows))
}

// WriteText renders the schedule as aligned plain-text tables, one per group.
func WriteText(w io.Writer, show domain.Show, r Report) error {
	var b strings.Builder
	b.WriteString(Title(show) + "\n")
	for _, c := range credits(show) {
		b.WriteString(c + "\n")
	}
	fmt.Fprintf(&b, "%d fixtures\n", r.Total)

	for _, g := range r.Groups {
		b.WriteString("\n" + groupHeading(g) + "\n")
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(Columns, "\t"))
		for _, row := range g.Rows {
			fmt.Fprintln(tw, strings.Join(row.Cells(), "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

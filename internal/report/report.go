/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package report builds the fixture schedule: every fixture listed under the
// label of the position it hangs on.
package report

import (
	"sort"

	"github.com/davidroberthoare/lightsup/internal/domain"
)

// NoPosition heads the group of fixtures not hanging on a labelled position.
const NoPosition = "(none)"

// Columns are the schedule headings in print order.
var Columns = []string{"Num", "Fixture", "Label", "Dimmer", "Channel", "Gel"}

type Row struct {
	ID      string
	Number  domain.Ordinal
	Fixture string
	Label   string
	Dimmer  string
	Channel string
	Gel     string
}

// Cells returns the row in Columns order.
func (r Row) Cells() []string {
	return []string{r.Number.String(), r.Fixture, r.Label, r.Dimmer, r.Channel, r.Gel}
}

// Group is one position label and the fixtures hung under it. Positions
// sharing a label share a group.
type Group struct {
	Label string
	Rows  []Row
}

type Report struct {
	Groups []Group
	Total  int
}

// Build joins every fixture to its position's label. Groups are sorted by
// label with NoPosition last; rows by number with unnumbered rows last.
func Build(items []domain.Item) Report {
	labels := map[string]string{}
	for _, it := range items {
		if it.IsPosition() {
			labels[it.ID] = it.Label
		}
	}

	byLabel := map[string][]Row{}
	var r Report
	for _, it := range items {
		if !it.IsFixture() {
			continue
		}
		// a dangling reference or an unlabelled position both read as none
		label := labels[it.Position]
		if label == "" {
			label = NoPosition
		}
		byLabel[label] = append(byLabel[label], Row{
			ID: it.ID, Number: it.Number, Fixture: it.Shape, Label: it.Label,
			Dimmer: it.Dimmer, Channel: it.Channel, Gel: it.Gel,
		})
		r.Total++
	}

	for label, rows := range byLabel {
		sort.Slice(rows, func(i, j int) bool {
			a, b := rows[i], rows[j]
			if (a.Number == 0) != (b.Number == 0) {
				return b.Number == 0
			}
			if a.Number != b.Number {
				return a.Number < b.Number
			}
			return a.ID < b.ID
		})
		r.Groups = append(r.Groups, Group{Label: label, Rows: rows})
	}
	sort.Slice(r.Groups, func(i, j int) bool {
		a, b := r.Groups[i].Label, r.Groups[j].Label
		if (a == NoPosition) != (b == NoPosition) {
			return b == NoPosition
		}
		return a < b
	})
	return r
}

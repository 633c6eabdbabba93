/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// Summary gathers the registry into name/value lines for display. Counters
// show their value, histograms their sample count and total seconds.
func (m *Metrics) Summary() ([][2]string, error) {
	if m == nil {
		return nil, nil
	}
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}
	var out [][2]string
	for _, fam := range families {
		for _, mt := range fam.GetMetric() {
			name := fam.GetName()
			if labels := mt.GetLabel(); len(labels) > 0 {
				parts := make([]string, 0, len(labels))
				for _, lp := range labels {
					parts = append(parts, lp.GetName()+"="+lp.GetValue())
				}
				name += "{" + strings.Join(parts, ",") + "}"
			}
			switch {
			case mt.GetCounter() != nil:
				out = append(out, [2]string{name, strconv.FormatFloat(mt.GetCounter().GetValue(), 'f', -1, 64)})
			case mt.GetHistogram() != nil:
				h := mt.GetHistogram()
				out = append(out, [2]string{name, fmt.Sprintf("%d samples, %.3fs", h.GetSampleCount(), h.GetSampleSum())})
			}
		}
	}
	return out, nil
}

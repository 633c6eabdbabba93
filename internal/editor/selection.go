/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/davidroberthoare/lightsup/internal/domain"
	applog "github.com/davidroberthoare/lightsup/internal/log"
)

// Mixed is shown for a field on which the selected items disagree.
const Mixed = "*"

// Projection is the field-wise common value across the selection.
type Projection struct {
	IDs    []string
	Values map[domain.Field]string
}

// Value returns the projected text for f.
func (p Projection) Value(f domain.Field) string { return p.Values[f] }

// IsMixed reports whether the selected items disagree on f.
func (p Projection) IsMixed(f domain.Field) bool { return p.Values[f] == Mixed }

// Project computes the projection of items over every field.
func Project(items []domain.Item) Projection {
	p := Projection{Values: make(map[domain.Field]string, len(domain.Fields))}
	for _, it := range items {
		p.IDs = append(p.IDs, it.ID)
	}
	for _, f := range domain.Fields {
		for i, it := range items {
			v := it.Get(f)
			if i == 0 {
				p.Values[f] = v
			} else if p.Values[f] != v {
				p.Values[f] = Mixed
				break
			}
		}
	}
	return p
}

// SelectionChanged records the selection, locks scaling for multi-selects
// and pushes the projection to the inspector.
func (e *Editor) SelectionChanged(ctx context.Context, ids []string) {
	e.state.Selection = append([]string(nil), ids...)
	e.engine.SetScalingEnabled(len(ids) <= 1)
	if len(ids) == 0 {
		e.inspector.Clear()
		return
	}
	items, err := e.store.QueryByIDs(ctx, ids)
	if err != nil {
		applog.WithOperation(e.log, "select").Error("query selection failed", slog.Any("err", err))
		return
	}
	e.inspector.Show(Project(items))
}

// SelectionCleared empties the selection and the inspector.
func (e *Editor) SelectionCleared() {
	e.state.Selection = nil
	e.engine.SetScalingEnabled(true)
	e.inspector.Clear()
}

// InspectorCommit writes value into field f of every selected item and
// updates the nodes. A shape change rebuilds the node; other fields update
// text in place. The mixed marker is never written.
func (e *Editor) InspectorCommit(ctx context.Context, f domain.Field, value string) error {
	if !f.Editable() {
		return fmt.Errorf("%w: %s", domain.ErrImmutableField, f)
	}
	if value == Mixed {
		return nil
	}
	for _, id := range e.state.Selection {
		if err := e.store.UpdateField(ctx, id, f, value); err != nil {
			e.storeFailed("inspector_commit", id, err)
			continue
		}
		if f == domain.FieldShape {
			e.RedrawItem(ctx, id)
		} else {
			e.RedrawItemField(id, f, value)
		}
	}
	return nil
}

// ShowCommit edits one field of the current show record.
func (e *Editor) ShowCommit(f domain.ShowField, value string) error {
	if err := e.shows.Update(f, value); err != nil {
		return err
	}
	applog.WithOperation(e.log, "show_commit").Debug("show updated", slog.String("field", string(f)))
	return nil
}

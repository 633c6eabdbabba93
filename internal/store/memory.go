/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/davidroberthoare/lightsup/internal/domain"
)

// Memory is an indexed in-memory Repository: items by id, insertion order,
// and fixture ids by position.
type Memory struct {
	mu    sync.RWMutex
	items map[string]domain.Item
	order []string
	byPos map[string]map[string]struct{}

	// NewID generates ids for Create; tests replace it to force collisions.
	NewID func() string
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	m := &Memory{NewID: domain.NewID}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.items = make(map[string]domain.Item)
	m.order = nil
	m.byPos = make(map[string]map[string]struct{})
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

func (m *Memory) Create(ctx context.Context, it domain.Item) (string, error) {
	it.ID = m.NewID()
	if err := m.Insert(ctx, it); err != nil {
		return "", err
	}
	return it.ID, nil
}

func (m *Memory) Insert(_ context.Context, it domain.Item) error {
	it, err := prepare(it)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
	}
	m.items[it.ID] = it
	m.order = append(m.order, it.ID)
	m.index(it)
	return nil
}

func (m *Memory) UpdateField(_ context.Context, id string, f domain.Field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next, err := applyField(cur, f, value)
	if err != nil {
		return err
	}
	m.replace(cur, next)
	return nil
}

func (m *Memory) UpdateGeometry(_ context.Context, id string, x, y, scalex, scaley, angle float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next, err := applyGeometry(cur, x, y, scalex, scaley, angle)
	if err != nil {
		return err
	}
	m.replace(cur, next)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.unindex(cur)
	delete(m.items, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

func (m *Memory) QueryAll(_ context.Context) ([]domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Item, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out, nil
}

func (m *Memory) QueryByIDs(_ context.Context, ids []string) ([]domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *Memory) QueryByPosition(_ context.Context, positionID string) ([]domain.Item, error) {
	if positionID == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.byPos[positionID]
	out := make([]domain.Item, 0, len(set))
	for id := range set {
		out = append(out, m.items[id])
	}
	SortByRank(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) replace(prev, next domain.Item) {
	m.unindex(prev)
	m.items[next.ID] = next
	m.index(next)
}

func (m *Memory) index(it domain.Item) {
	if !it.IsFixture() || it.Position == "" {
		return
	}
	set, ok := m.byPos[it.Position]
	if !ok {
		set = make(map[string]struct{})
		m.byPos[it.Position] = set
	}
	set[it.ID] = struct{}{}
}

func (m *Memory) unindex(it domain.Item) {
	if set, ok := m.byPos[it.Position]; ok {
		delete(set, it.ID)
		if len(set) == 0 {
			delete(m.byPos, it.Position)
		}
	}
}

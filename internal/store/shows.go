/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/davidroberthoare/lightsup/internal/domain"
)

// DefaultShowName names the show record created on first access.
const DefaultShowName = "Untitled Show"

// Shows keeps the show metadata records and the id of the active one.
type Shows struct {
	mu        sync.Mutex
	shows     []domain.Show
	currentID string
}

func NewShows() *Shows { return &Shows{} }

// Current returns the active show, creating it when absent.
func (s *Shows) Current() domain.Show {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows[s.ensureCurrent()]
}

// CurrentID returns the id of the active show, creating the show when absent.
func (s *Shows) CurrentID() string { return s.Current().ID }

func (s *Shows) ensureCurrent() int {
	if s.currentID == "" && len(s.shows) > 0 {
		s.currentID = s.shows[0].ID
	}
	if i := s.indexOf(s.currentID); i >= 0 {
		return i
	}
	id := s.currentID
	if id == "" {
		id = uuid.NewString()
	}
	s.shows = append(s.shows, domain.Show{ID: id, Name: DefaultShowName})
	s.currentID = id
	return len(s.shows) - 1
}

func (s *Shows) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.shows, func(sh domain.Show) bool { return sh.ID == id })
}

// SetCurrent switches the active show.
func (s *Shows) SetCurrent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: show %s", ErrNotFound, id)
	}
	s.currentID = id
	return nil
}

// Update writes one field of the active show.
func (s *Shows) Update(f domain.ShowField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ensureCurrent()
	sh := s.shows[i]
	if err := sh.Set(f, value); err != nil {
		return err
	}
	s.shows[i] = sh
	return nil
}

// All returns a copy of every show record.
func (s *Shows) All() []domain.Show {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.shows)
}

// Selected returns the active show id without creating a record.
func (s *Shows) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Replace swaps in a loaded set of shows and the active id.
func (s *Shows) Replace(shows []domain.Show, currentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows = slices.Clone(shows)
	s.currentID = currentID
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor keeps the scene graph in step with the item store. It owns
// the draw protocol, fixture-to-position association and numbering, the
// interaction mode, and the selection/inspector binding.
//
// All methods must be called from one goroutine (the UI event loop). Symbol
// artwork is the only asynchronous step; its results come back through Loop.
package editor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/davidroberthoare/lightsup/internal/artwork"
	"github.com/davidroberthoare/lightsup/internal/domain"
	applog "github.com/davidroberthoare/lightsup/internal/log"
	"github.com/davidroberthoare/lightsup/internal/metrics"
	"github.com/davidroberthoare/lightsup/internal/store"
	"github.com/davidroberthoare/lightsup/internal/vector"
)

// Engine is the scene graph the editor draws into. *vector.Scene implements it.
type Engine interface {
	Clear()
	Add(g *vector.Group)
	Swap(g *vector.Group)
	Remove(id string) bool
	Node(id string) (*vector.Group, bool)
	Tagged(tag string) []*vector.Group
	Intersecting(g *vector.Group, tag string) []*vector.Group
	Touch()
	SetScalingEnabled(on bool)
	Viewport() vector.Viewport
	SetViewport(v vector.Viewport)
}

// Inspector is the property form bound to the selection.
type Inspector interface {
	Show(p Projection)
	Clear()
	// Focused reports whether a form field has keyboard focus.
	Focused() bool
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(msg string) bool
}

// Affordance reflects the interaction mode in the UI (cursor, menu state).
type Affordance interface {
	ModeChanged(m Mode)
}

// Saver persists the store; *persist.Bridge implements it.
type Saver interface {
	Save(ctx context.Context) error
}

// State is the interaction state threaded through input handling.
type State struct {
	Mode      Mode
	Selection []string
}

type Editor struct {
	store     store.Repository
	shows     *store.Shows
	engine    Engine
	art       artwork.Resolver
	loop      Loop
	inspector Inspector
	confirm   Confirmer
	affording Affordance
	saver     Saver
	metrics   *metrics.Metrics
	log       *slog.Logger

	state State

	// gen increases on every rebuild; draws started under an older gen are stale.
	gen uint64
	// pending maps an item id to the token of its newest single-item draw.
	pending map[string]uint64
	seq     uint64
	// fresh holds items created by an insert that still need associating
	// once their node exists.
	fresh    map[string]bool
	inflight sync.WaitGroup

	drag    *dragState
	panning bool
	panFrom vector.Pt
}

type Option func(*Editor)

func WithArtwork(r artwork.Resolver) Option { return func(e *Editor) { e.art = r } }
func WithLoop(l Loop) Option                { return func(e *Editor) { e.loop = l } }
func WithInspector(i Inspector) Option      { return func(e *Editor) { e.inspector = i } }
func WithConfirmer(c Confirmer) Option      { return func(e *Editor) { e.confirm = c } }
func WithAffordance(a Affordance) Option    { return func(e *Editor) { e.affording = a } }
func WithSaver(s Saver) Option              { return func(e *Editor) { e.saver = s } }
func WithShows(s *store.Shows) Option       { return func(e *Editor) { e.shows = s } }
func WithMetrics(m *metrics.Metrics) Option { return func(e *Editor) { e.metrics = m } }

// New wires an editor over repo and engine. Missing collaborators get inert
// defaults: the built-in artwork library, a Queue loop, a hidden inspector
// and a confirmer that always declines.
func New(repo store.Repository, engine Engine, opts ...Option) *Editor {
	e := &Editor{
		store:   repo,
		engine:  engine,
		pending: map[string]uint64{},
		fresh:   map[string]bool{},
		log:     applog.WithComponent("editor"),
	}
	for _, o := range opts {
		o(e)
	}
	if e.art == nil {
		e.art = artwork.NewLibrary("")
	}
	if e.loop == nil {
		e.loop = &Queue{}
	}
	if e.inspector == nil {
		e.inspector = nopInspector{}
	}
	if e.confirm == nil {
		e.confirm = declineAll{}
	}
	if e.shows == nil {
		e.shows = store.NewShows()
	}
	return e
}

// State returns a copy of the current interaction state.
func (e *Editor) State() State {
	s := e.state
	s.Selection = append([]string(nil), e.state.Selection...)
	return s
}

func (e *Editor) Engine() Engine           { return e.engine }
func (e *Editor) Store() store.Repository  { return e.store }
func (e *Editor) Shows() *store.Shows      { return e.shows }
func (e *Editor) Artwork() artwork.Resolver { return e.art }

// Settle blocks until no artwork load is in flight and every posted callback
// has run. It only drains a *Queue loop; with another loop it just waits for
// the loads to post.
func (e *Editor) Settle() {
	for {
		e.inflight.Wait()
		q, ok := e.loop.(*Queue)
		if !ok || q.Drain() == 0 {
			return
		}
	}
}

// item fetches one record; a miss is logged and reported as ok=false.
func (e *Editor) item(ctx context.Context, op, id string) (domain.Item, bool) {
	items, err := e.store.QueryByIDs(ctx, []string{id})
	if err != nil {
		applog.WithItem(applog.WithOperation(e.log, op), id).Error("query failed", slog.Any("err", err))
		return domain.Item{}, false
	}
	if len(items) == 0 {
		applog.WithItem(applog.WithOperation(e.log, op), id).Debug("lookup miss")
		return domain.Item{}, false
	}
	return items[0], true
}

// storeFailed logs and counts a dropped store write.
func (e *Editor) storeFailed(op, id string, err error) {
	e.metrics.StoreError(op)
	applog.WithItem(applog.WithOperation(e.log, op), id).Error("store write dropped", slog.Any("err", err))
}

type nopInspector struct{}

func (nopInspector) Show(Projection) {}
func (nopInspector) Clear()          {}
func (nopInspector) Focused() bool   { return false }

type declineAll struct{}

func (declineAll) Confirm(string) bool { return false }

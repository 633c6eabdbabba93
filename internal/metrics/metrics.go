/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package metrics counts editor activity with Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the editor's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	ItemsCreated     *prometheus.CounterVec
	ItemsDeleted     prometheus.Counter
	StoreErrors      *prometheus.CounterVec
	Renumbers        prometheus.Counter
	AssocChanges     prometheus.Counter
	SceneRebuilds    prometheus.Counter
	ArtworkFailures  prometheus.Counter
	OrphanedNodes    prometheus.Counter
	SnapshotSaves    prometheus.Counter
	SnapshotLoads    prometheus.Counter
	SnapshotDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ItemsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "items_created_total", Help: "Items created, by type.",
		}, []string{"type"}),
		ItemsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "items_deleted_total", Help: "Items deleted.",
		}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "store_errors_total", Help: "Dropped item store writes, by operation.",
		}, []string{"op"}),
		Renumbers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "renumbers_total", Help: "Position renumbering passes.",
		}),
		AssocChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "association_changes_total", Help: "Fixture association changes.",
		}),
		SceneRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "scene_rebuilds_total", Help: "Full scene rebuilds.",
		}),
		ArtworkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "artwork_failures_total", Help: "Symbol artwork that failed to resolve.",
		}),
		OrphanedNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "orphaned_nodes_total", Help: "Late artwork results discarded.",
		}),
		SnapshotSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "snapshot_saves_total", Help: "Snapshots written.",
		}),
		SnapshotLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lightsup", Name: "snapshot_loads_total", Help: "Snapshots loaded.",
		}),
		SnapshotDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lightsup", Name: "snapshot_duration_seconds", Help: "Snapshot save/load latency.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"op"}),
	}
	m.Registry.MustRegister(
		m.ItemsCreated, m.ItemsDeleted, m.StoreErrors, m.Renumbers, m.AssocChanges,
		m.SceneRebuilds, m.ArtworkFailures, m.OrphanedNodes,
		m.SnapshotSaves, m.SnapshotLoads, m.SnapshotDuration,
	)
	return m
}

func (m *Metrics) Created(itemType string) {
	if m != nil {
		m.ItemsCreated.WithLabelValues(itemType).Inc()
	}
}

func (m *Metrics) Deleted() {
	if m != nil {
		m.ItemsDeleted.Inc()
	}
}

func (m *Metrics) StoreError(op string) {
	if m != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) Renumbered() {
	if m != nil {
		m.Renumbers.Inc()
	}
}

func (m *Metrics) AssociationChanged() {
	if m != nil {
		m.AssocChanges.Inc()
	}
}

func (m *Metrics) Rebuilt() {
	if m != nil {
		m.SceneRebuilds.Inc()
	}
}

func (m *Metrics) ArtworkFailed() {
	if m != nil {
		m.ArtworkFailures.Inc()
	}
}

func (m *Metrics) Orphaned() {
	if m != nil {
		m.OrphanedNodes.Inc()
	}
}

// Saved records a snapshot write that started at start.
func (m *Metrics) Saved(start time.Time) {
	if m != nil {
		m.SnapshotSaves.Inc()
		m.SnapshotDuration.WithLabelValues("save").Observe(time.Since(start).Seconds())
	}
}

// Loaded records a snapshot load that started at start.
func (m *Metrics) Loaded(start time.Time) {
	if m != nil {
		m.SnapshotLoads.Inc()
		m.SnapshotDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	}
}

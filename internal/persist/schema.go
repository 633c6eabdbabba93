/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package persist

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/davidroberthoare/lightsup/internal/domain"
)

//go:embed snapshot.schema.json
var schemaBytes []byte

// ErrInvalidSnapshot wraps every decode and validation failure.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

var schemaLoader = gojsonschema.NewBytesLoader(schemaBytes)

// SchemaJSON returns the embedded snapshot schema.
func SchemaJSON() []byte { return bytes.Clone(schemaBytes) }

// Validate checks a raw snapshot against the schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(msgs, "; "))
	}
	return nil
}

// wireSnapshot accepts shows as an array or as a single record.
type wireSnapshot struct {
	Version     int             `json:"version"`
	Items       []domain.Item   `json:"items"`
	Shows       json.RawMessage `json:"shows"`
	CurrentShow string          `json:"current_show"`
}

// Decode validates and parses a snapshot. Both the versioned object layout
// and a bare array of item records are accepted. Items come back normalized
// and checked for duplicate ids.
func Decode(data []byte) (domain.Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: empty document", ErrInvalidSnapshot)
	}
	if err := Validate(data); err != nil {
		return domain.Snapshot{}, err
	}

	snap := domain.Snapshot{Version: domain.SnapshotVersion}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &snap.Items); err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	} else {
		var w wireSnapshot
		if err := json.Unmarshal(data, &w); err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		if w.Version > domain.SnapshotVersion {
			return domain.Snapshot{}, fmt.Errorf("%w: version %d is newer than %d", ErrInvalidSnapshot, w.Version, domain.SnapshotVersion)
		}
		shows, err := decodeShows(w.Shows)
		if err != nil {
			return domain.Snapshot{}, err
		}
		snap.Items, snap.Shows, snap.CurrentShow = w.Items, shows, w.CurrentShow
	}

	seen := make(map[string]struct{}, len(snap.Items))
	for i, it := range snap.Items {
		it = it.Normalize()
		if err := it.Validate(); err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		if _, dup := seen[it.ID]; dup {
			return domain.Snapshot{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidSnapshot, it.ID)
		}
		seen[it.ID] = struct{}{}
		snap.Items[i] = it
	}
	if snap.Items == nil {
		snap.Items = []domain.Item{}
	}
	return snap, nil
}

func decodeShows(raw json.RawMessage) ([]domain.Show, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '{' {
		var one domain.Show
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("%w: show: %v", ErrInvalidSnapshot, err)
		}
		return []domain.Show{one}, nil
	}
	var many []domain.Show
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("%w: shows: %v", ErrInvalidSnapshot, err)
	}
	return many, nil
}

// Encode renders a snapshot in the versioned object layout.
func Encode(snap domain.Snapshot) ([]byte, error) {
	if snap.Items == nil {
		snap.Items = []domain.Item{}
	}
	if snap.Shows == nil {
		snap.Shows = []domain.Show{}
	}
	snap.Version = domain.SnapshotVersion
	return json.MarshalIndent(snap, "", "  ")
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "github.com/davidroberthoare/lightsup/internal/vector"

// Static drawing and viewport settings.
const (
	ZoomMin     = 0.2
	ZoomMax     = 20.0
	InitialZoom = 1.5
	// ZoomStep is the per-wheel-unit zoom factor.
	ZoomStep = 1.01

	FontSize = 8.0
	Font     = "Arial"

	GridSize      = 50.0
	GridThickness = 1.0
	PageSize      = 1000.0
)

var GridColor = vector.MustHex("#dddddd")

// Scene tags for top-level groups.
const (
	TagGrid     = "grid"
	TagFixture  = "fixture"
	TagPosition = "position"
)

// Fixture template offsets, in symbol-local units.
const (
	labelOffsetY   = -45.0
	dimmerOffsetY  = -10.0
	channelOffsetY = -30.0
	channelRadius  = 10.0
	gelGap         = 5.0

	// positions draw their bar in a fixed 100x10 box stretched by the item scale
	barWidth    = 100.0
	barHeight   = 10.0
	barLabelGap = 6.0
)

// DeleteConfirmation is the prompt shown before removing the selection.
const DeleteConfirmation = "Delete selected items?"

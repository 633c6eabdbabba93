/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "github.com/davidroberthoare/lightsup/internal/vector"

type Button uint8

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

func (m Modifiers) Has(o Modifiers) bool { return m&o != 0 }

// PointerEvent carries a screen-space pointer position.
type PointerEvent struct {
	Screen vector.Pt
	Button Button
	Mods   Modifiers
}

// WheelEvent carries scroll deltas in screen units; positive DY scrolls down.
type WheelEvent struct {
	Screen vector.Pt
	DX, DY float64
	Mods   Modifiers
}

type Key string

const (
	KeyEscape    Key = "Escape"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "BackSpace"
	KeyS         Key = "S"
)

type KeyEvent struct {
	Key  Key
	Mods Modifiers
}

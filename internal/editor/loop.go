/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "sync"

// Loop runs callbacks on the thread that owns the editor. Post may be called
// from any goroutine.
type Loop interface {
	Post(fn func())
}

// LoopFunc adapts a function such as fyne.Do to Loop.
type LoopFunc func(fn func())

func (f LoopFunc) Post(fn func()) { f(fn) }

// Queue buffers posted callbacks until the owner drains them. Headless
// callers (the CLI and tests) use it in place of a UI event loop.
type Queue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
}

// Drain runs everything queued so far, including callbacks queued while
// draining, and returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		fns := q.fns
		q.fns = nil
		q.mu.Unlock()
		if len(fns) == 0 {
			return n
		}
		for _, fn := range fns {
			fn()
			n++
		}
	}
}

// Len reports how many callbacks are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}

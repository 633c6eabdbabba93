/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"crypto/rand"
	"math/big"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// IDLength is the length of generated item ids.
	IDLength = 12
)

// NewID returns a random 12-character alphanumeric item id.
func NewID() string {
	limit := big.NewInt(int64(len(idAlphabet)))
	b := make([]byte, IDLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is unavailable
			panic(err)
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return string(b)
}

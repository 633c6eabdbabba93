/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package version exposes build metadata. Values are overridden at link time:
//
//	go build -ldflags "-X github.com/davidroberthoare/lightsup/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String renders the version with optional commit and build date.
func String() string {
	s := Version
	if Commit != "" {
		short := Commit
		if len(short) > 7 {
			short = short[:7]
		}
		s = fmt.Sprintf("%s (%s)", s, short)
	}
	if Date != "" {
		s = fmt.Sprintf("%s built %s", s, Date)
	}
	return s
}

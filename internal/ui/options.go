/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import "github.com/davidroberthoare/lightsup/internal/config"

// Options carries what the desktop front end needs to open a plot.
type Options struct {
	Config config.AppConfig
	// Secret is the storage password or S3 secret key.
	Secret string
	// CrashDir receives crash reports; the temp dir when empty.
	CrashDir string
}

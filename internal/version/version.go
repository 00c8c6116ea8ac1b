/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package version holds the build version of ReCap.
package version

// Version is overridden at build time with -ldflags "-X recap/internal/version.Version=...".
var Version = "1.0.0"

// Commit is the VCS revision, set via ldflags by release builds.
var Commit = ""

// Name is the product name shown in window titles and reports.
const Name = "ReCap"

// String returns "v<version>" with the short commit appended when known.
func String() string {
	s := "v" + Version
	if Commit != "" {
		c := Commit
		if len(c) > 7 {
			c = c[:7]
		}
		s += " (" + c + ")"
	}
	return s
}

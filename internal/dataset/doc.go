/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package dataset discovers the images of a captioning dataset and holds the
// editing session over them.
// Scan walks a folder for .png/.jpg/.jpeg files (case-insensitive), sorted by path unless told otherwise.
// Session is the editor state machine: cursor, caption buffer, and the save-on-leave rule
// shared by Next, Previous and the gallery. It has no UI dependency so it can be tested headless.
package dataset

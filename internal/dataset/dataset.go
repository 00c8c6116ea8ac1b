/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	applog "recap/internal/log"
)

// ErrNotDirectory is returned by Scan when the root is not a directory.
var ErrNotDirectory = errors.New("dataset root is not a directory")

// imageExts are the recognized image extensions, compared lower-cased.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsImage reports whether path has a recognized image extension (case-insensitive).
func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// Dataset is the folder being captioned and the images discovered in it.
// Images is fixed once scanned.
type Dataset struct {
	Root   string
	Images []string
}

// ScanOptions controls traversal.
type ScanOptions struct {
	// Sort orders Images lexicographically by path. Without it the order is
	// whatever the directory walk yields.
	Sort bool
	// SkipHidden skips directories whose name starts with a dot (.git, .cache, ...).
	SkipHidden bool
}

// DefaultScanOptions sorts results and walks every directory, hidden ones included.
func DefaultScanOptions() ScanOptions { return ScanOptions{Sort: true} }

// Scan walks root recursively and collects every .png/.jpg/.jpeg file.
// An empty result is not an error. Unreadable subdirectories are logged and skipped.
func Scan(root string, opts ScanOptions) (*Dataset, error) {
	l := applog.WithOperation(applog.WithComponent("dataset"), "scan")
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset root: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat dataset root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	images := []string{}
	werr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			l.Warn("skip unreadable entry", slog.String("path", path), slog.Any("err", err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != abs && opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsImage(path) {
			return nil
		}
		images = append(images, path)
		return nil
	})
	if werr != nil {
		return nil, fmt.Errorf("walk dataset: %w", werr)
	}
	if opts.Sort {
		sort.Strings(images)
	}
	l.Info("dataset scanned", slog.String("root", abs), slog.Int("images", len(images)))
	return &Dataset{Root: abs, Images: images}, nil
}

// Len returns the number of images; a nil Dataset has none.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Images)
}

// At returns the image path at i, or "" when out of range.
func (d *Dataset) At(i int) string {
	if i < 0 || i >= d.Len() {
		return ""
	}
	return d.Images[i]
}

// IndexOf returns the position of path in Images or -1.
func (d *Dataset) IndexOf(path string) int {
	for i := 0; i < d.Len(); i++ {
		if d.Images[i] == path {
			return i
		}
	}
	return -1
}

// Rel returns the image path at i relative to Root, for display.
func (d *Dataset) Rel(i int) string {
	p := d.At(i)
	if p == "" {
		return ""
	}
	if rel, err := filepath.Rel(d.Root, p); err == nil {
		return rel
	}
	return p
}

// Count returns how many images satisfy pred, e.g. caption.Exists.
func (d *Dataset) Count(pred func(imagePath string) bool) int {
	n := 0
	for i := 0; i < d.Len(); i++ {
		if pred(d.Images[i]) {
			n++
		}
	}
	return n
}

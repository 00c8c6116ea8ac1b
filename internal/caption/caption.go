/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package caption reads and writes the sidecar caption files that sit next to
// each dataset image: for X.png the caption lives in X.txt, UTF-8, no header,
// one caption per file, rewritten as a whole on every save.
package caption

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	applog "recap/internal/log"
)

// Ext is the caption file extension.
const Ext = ".txt"

// Store loads and saves the caption belonging to an image.
type Store interface {
	Load(imagePath string) (string, error)
	Save(imagePath, text string) error
}

// FileStore is the filesystem Store.
type FileStore struct{}

// NewFileStore returns a Store backed by sidecar .txt files.
func NewFileStore() *FileStore { return &FileStore{} }

func (FileStore) Load(imagePath string) (string, error) { return Load(imagePath) }

func (FileStore) Save(imagePath, text string) error { return Save(imagePath, text) }

// Path returns the caption path for imagePath: same directory and basename, .txt extension.
func Path(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + Ext
}

// Exists reports whether a caption file is present for imagePath.
func Exists(imagePath string) bool {
	st, err := os.Stat(Path(imagePath))
	return err == nil && st.Mode().IsRegular()
}

// Load returns the caption text for imagePath. A missing caption file yields
// an empty string and no error; nothing is created on disk.
func Load(imagePath string) (string, error) {
	b, err := os.ReadFile(Path(imagePath))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read caption: %w", err)
	}
	return string(b), nil
}

// Save writes text with surrounding whitespace stripped as the entire content
// of the caption file, creating it when absent. The write goes to a temp file
// in the same directory that is then renamed over the caption. An existing
// caption keeps its permission bits, and a symlinked caption stays a symlink:
// its target is the file that gets replaced.
func Save(imagePath, text string) error {
	path := Path(imagePath)
	data := []byte(strings.TrimSpace(text))

	if target, err := filepath.EvalSymlinks(path); err == nil {
		path = target
	}
	mode := fs.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}

	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data, mode); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write caption: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		// Windows cannot rename over an existing file
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(path)
			err = os.Rename(temp, path)
		}
		if err != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("replace caption: %w", err)
		}
	}
	applog.WithComponent("caption").Debug("caption saved", slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}

// writeFileSync writes data to a file with the given permissions and ensures it is flushed to disk.
func writeFileSync(path string, data []byte, mode fs.FileMode) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	// umask may have narrowed the mode on create
	if err := f.Chmod(mode); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

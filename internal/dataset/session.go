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
	"log/slog"
	"path/filepath"

	"recap/internal/caption"
	applog "recap/internal/log"
)

// ErrIndexOutOfRange is returned by Select for an index outside the dataset.
var ErrIndexOutOfRange = errors.New("image index out of range")

// State of the editor.
type State int

const (
	StateNoDataset State = iota
	StateDatasetLoaded
)

func (s State) String() string {
	switch s {
	case StateNoDataset:
		return "no-dataset"
	case StateDatasetLoaded:
		return "dataset-loaded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// View is what the editor shows for the active image.
// The zero View means there is nothing to show.
type View struct {
	Index   int
	Total   int
	Path    string
	Label   string // basename of Path
	Caption string
}

// Empty reports whether the view has no active image.
func (v View) Empty() bool { return v.Path == "" }

// Session is the state shared by the editor and the gallery: the loaded
// dataset, the cursor into its images and the caption buffer of the active
// image. The caption is saved every time the user leaves an image, whether
// or not it was edited.
//
// A Session is not safe for concurrent use; the UI drives it from its event loop.
type Session struct {
	store caption.Store
	opts  ScanOptions
	log   *slog.Logger

	state  State
	ds     *Dataset
	index  int
	buffer string
	// loadFailed marks a caption that could not be read; it is not written
	// back until the user edits the buffer.
	loadFailed bool
}

// NewSession returns a session in StateNoDataset.
func NewSession(store caption.Store, opts ScanOptions) *Session {
	if store == nil {
		store = caption.NewFileStore()
	}
	return &Session{store: store, opts: opts, log: applog.WithComponent("session")}
}

// Open scans root and makes it the active dataset with the cursor on the
// first image. On error the session is left unchanged.
func (s *Session) Open(root string) error {
	ds, err := Scan(root, s.opts)
	if err != nil {
		return err
	}
	s.Load(ds)
	return nil
}

// Load installs an already scanned dataset.
func (s *Session) Load(ds *Dataset) {
	s.ds = ds
	s.state = StateDatasetLoaded
	s.index = 0
	s.buffer = ""
	s.loadFailed = false
	if ds != nil {
		s.log = applog.WithDataset(applog.WithComponent("session"), ds.Root)
	}
}

func (s *Session) State() State { return s.state }

// Dataset returns the loaded dataset or nil.
func (s *Session) Dataset() *Dataset { return s.ds }

// Index returns the cursor.
func (s *Session) Index() int { return s.index }

// Len returns the number of images in the loaded dataset.
func (s *Session) Len() int { return s.ds.Len() }

// Current returns the active image path or "" when there is none.
func (s *Session) Current() string {
	if !s.active() {
		return ""
	}
	return s.ds.Images[s.index]
}

// Buffer returns the editable caption text.
func (s *Session) Buffer() string { return s.buffer }

// SetBuffer replaces the editable caption text.
func (s *Session) SetBuffer(text string) {
	s.buffer = text
	s.loadFailed = false
}

func (s *Session) active() bool {
	return s.state == StateDatasetLoaded && s.ds.Len() > 0
}

func (s *Session) view() View {
	if !s.active() {
		return View{}
	}
	p := s.ds.Images[s.index]
	return View{
		Index:   s.index,
		Total:   s.ds.Len(),
		Path:    p,
		Label:   filepath.Base(p),
		Caption: s.buffer,
	}
}

// Render loads the caption of the active image into the buffer, replacing
// its previous contents. With nothing to show it returns the zero View.
// A caption read error yields an empty buffer together with the error.
func (s *Session) Render() (View, error) {
	if !s.active() {
		return View{}, nil
	}
	p := s.ds.Images[s.index]
	text, err := s.store.Load(p)
	if err != nil {
		s.buffer = ""
		s.loadFailed = true
		s.log.Error("load caption failed", slog.String("image", p), slog.Any("err", err))
		return s.view(), err
	}
	s.buffer = text
	s.loadFailed = false
	return s.view(), nil
}

// save writes the buffer for the active image.
func (s *Session) save() error {
	if !s.active() {
		return nil
	}
	p := s.ds.Images[s.index]
	if s.loadFailed {
		s.log.Warn("skip saving unreadable caption", slog.String("image", p))
		return nil
	}
	if err := s.store.Save(p, s.buffer); err != nil {
		s.log.Error("save caption failed", slog.String("image", p), slog.Any("err", err))
		return fmt.Errorf("save caption for %s: %w", filepath.Base(p), err)
	}
	return nil
}

// move saves the active caption, then shifts the cursor by delta clamped to
// the dataset bounds and renders when it moved. A failed save leaves the
// cursor and the buffer untouched.
func (s *Session) move(delta int) (View, error) {
	if !s.active() {
		return View{}, nil
	}
	if err := s.save(); err != nil {
		return s.view(), err
	}
	next := s.index + delta
	if next < 0 {
		next = 0
	}
	if last := s.ds.Len() - 1; next > last {
		next = last
	}
	if next == s.index {
		return s.view(), nil
	}
	s.index = next
	s.log.Debug("cursor moved", slog.Int("index", s.index))
	return s.Render()
}

// Next saves the caption and advances to the next image; at the last image
// only the save happens.
func (s *Session) Next() (View, error) { return s.move(1) }

// Previous saves the caption and goes back one image; at the first image
// only the save happens.
func (s *Session) Previous() (View, error) { return s.move(-1) }

// OpenGallery saves the caption and returns the images to show as thumbnails.
// The returned slice is a copy.
func (s *Session) OpenGallery() ([]string, error) {
	if !s.active() {
		return nil, nil
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return append([]string(nil), s.ds.Images...), nil
}

// Select moves the cursor to i and renders it. It does not save: the caption
// was saved when the gallery opened.
func (s *Session) Select(i int) (View, error) {
	if !s.active() {
		return View{}, nil
	}
	if i < 0 || i >= s.ds.Len() {
		return s.view(), fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	s.index = i
	s.log.Debug("gallery selection", slog.Int("index", i))
	return s.Render()
}

// Flush saves the caption buffer of the active image, if any.
func (s *Session) Flush() error { return s.save() }

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
	"os"
	"path/filepath"
	"testing"

	"recap/internal/caption"
)

// memStore is an in-memory caption.Store that records saves and can fail on demand.
type memStore struct {
	captions map[string]string
	saves    []string
	failSave error
	failLoad error
}

func newMemStore() *memStore { return &memStore{captions: map[string]string{}} }

func (m *memStore) Load(p string) (string, error) {
	if m.failLoad != nil {
		return "", m.failLoad
	}
	return m.captions[p], nil
}

func (m *memStore) Save(p, text string) error {
	if m.failSave != nil {
		return m.failSave
	}
	m.saves = append(m.saves, p)
	m.captions[p] = text
	return nil
}

func loadedSession(store caption.Store, n int) *Session {
	s := NewSession(store, DefaultScanOptions())
	images := make([]string, n)
	for i := range images {
		images[i] = filepath.Join("/data", string(rune('a'+i))+".png")
	}
	s.Load(&Dataset{Root: "/data", Images: images})
	return s
}

func TestSessionScenarioOnDisk(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "b.png"))
	if err := os.WriteFile(filepath.Join(root, "c.txt"), []byte("orphan"), 0o644); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	s := NewSession(caption.NewFileStore(), DefaultScanOptions())
	if s.State() != StateNoDataset {
		t.Fatalf("initial state = %v", s.State())
	}
	if err := s.Open(root); err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if s.State() != StateDatasetLoaded || s.Len() != 2 {
		t.Fatalf("unexpected state after open: %v / %d", s.State(), s.Len())
	}

	v, err := s.Render()
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if v.Label != "a.jpg" || v.Caption != "" || v.Index != 0 || v.Total != 2 {
		t.Fatalf("unexpected first view: %#v", v)
	}
	if _, err := os.Stat(filepath.Join(root, "a.txt")); !os.IsNotExist(err) {
		t.Fatalf("render must not create a caption file")
	}

	s.SetBuffer("hello")
	v, err = s.Next()
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(root, "a.txt"))
	if err != nil || string(b) != "hello" {
		t.Fatalf("a.txt = %q, %v", string(b), err)
	}
	if s.Index() != 1 || v.Label != "b.png" || v.Caption != "" {
		t.Fatalf("unexpected view after Next: %#v", v)
	}

	v, err = s.Next()
	if err != nil {
		t.Fatalf("second Next error: %v", err)
	}
	if s.Index() != 1 || v.Label != "b.png" {
		t.Fatalf("cursor should stay on the last image: %#v", v)
	}
	if _, err := os.Stat(filepath.Join(root, "b.txt")); err != nil {
		t.Fatalf("caption for b should have been saved at the boundary: %v", err)
	}
	if b, _ := os.ReadFile(filepath.Join(root, "c.txt")); string(b) != "orphan" {
		t.Fatalf("orphan caption must be untouched, got %q", string(b))
	}
}

func TestSessionNextPreviousRoundTrip(t *testing.T) {
	store := newMemStore()
	s := loadedSession(store, 4)
	for i := 1; i < 3; i++ {
		if _, err := s.Select(i); err != nil {
			t.Fatalf("Select(%d): %v", i, err)
		}
		if _, err := s.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
		if _, err := s.Previous(); err != nil {
			t.Fatalf("Previous: %v", err)
		}
		if s.Index() != i {
			t.Fatalf("Next then Previous from %d ended at %d", i, s.Index())
		}
		if _, err := s.Previous(); err != nil {
			t.Fatalf("Previous: %v", err)
		}
		if _, err := s.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
		if s.Index() != i {
			t.Fatalf("Previous then Next from %d ended at %d", i, s.Index())
		}
	}
}

func TestSessionBoundariesAreIdempotentButSave(t *testing.T) {
	store := newMemStore()
	s := loadedSession(store, 3)
	if _, err := s.Previous(); err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if s.Index() != 0 {
		t.Fatalf("Previous at 0 moved to %d", s.Index())
	}
	if len(store.saves) != 1 || store.saves[0] != s.Dataset().Images[0] {
		t.Fatalf("Previous at the first image must still save: %v", store.saves)
	}

	if _, err := s.Select(2); err != nil {
		t.Fatalf("Select: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if s.Index() != 2 {
		t.Fatalf("Next at last moved to %d", s.Index())
	}
	if len(store.saves) != 4 {
		t.Fatalf("expected one save per navigation, got %d", len(store.saves))
	}
}

func TestSessionSaveFailureKeepsCursorAndBuffer(t *testing.T) {
	store := newMemStore()
	s := loadedSession(store, 2)
	s.SetBuffer("precious")
	store.failSave = errors.New("disk full")

	if _, err := s.Next(); err == nil {
		t.Fatalf("expected save error")
	}
	if s.Index() != 0 || s.Buffer() != "precious" {
		t.Fatalf("failed save moved cursor or lost buffer: %d %q", s.Index(), s.Buffer())
	}
	if _, err := s.OpenGallery(); err == nil {
		t.Fatalf("expected save error from OpenGallery")
	}

	store.failSave = nil
	if _, err := s.Next(); err != nil {
		t.Fatalf("retry Next: %v", err)
	}
	if store.captions[s.Dataset().Images[0]] != "precious" {
		t.Fatalf("buffer not saved on retry")
	}
}

func TestSessionUnreadableCaptionIsNotOverwritten(t *testing.T) {
	store := newMemStore()
	s := loadedSession(store, 2)
	store.failLoad = errors.New("permission denied")
	if _, err := s.Render(); err == nil {
		t.Fatalf("expected load error")
	}
	store.failLoad = nil
	if _, err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(store.saves) != 0 {
		t.Fatalf("unreadable caption must not be overwritten with an empty buffer")
	}
	if s.Index() != 1 {
		t.Fatalf("navigation should continue, index = %d", s.Index())
	}

	store.failLoad = errors.New("permission denied")
	_, _ = s.Previous()
	s.SetBuffer("typed by user")
	store.failLoad = nil
	if _, err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if store.captions[s.Dataset().Images[0]] != "typed by user" {
		t.Fatalf("edited buffer should be saved after a failed load")
	}
}

func TestSessionGallerySelection(t *testing.T) {
	store := newMemStore()
	s := loadedSession(store, 5)
	store.captions[s.Dataset().Images[3]] = "fourth"
	s.SetBuffer("first")

	images, err := s.OpenGallery()
	if err != nil {
		t.Fatalf("OpenGallery: %v", err)
	}
	if len(images) != 5 || store.captions[images[0]] != "first" {
		t.Fatalf("gallery open should save and list all images")
	}
	saves := len(store.saves)

	v, err := s.Select(3)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.Current() != images[3] || v.Caption != "fourth" || s.Buffer() != "fourth" {
		t.Fatalf("selection did not render image 3: %#v", v)
	}
	if len(store.saves) != saves {
		t.Fatalf("Select must not save")
	}
	if _, err := s.Select(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if s.Index() != 3 {
		t.Fatalf("invalid selection moved the cursor")
	}

	images[0] = "mutated"
	if s.Dataset().Images[0] == "mutated" {
		t.Fatalf("OpenGallery must return a copy")
	}
}

func TestSessionEmptyAndUnloadedAreNoOps(t *testing.T) {
	store := newMemStore()
	unloaded := NewSession(store, DefaultScanOptions())
	empty := NewSession(store, DefaultScanOptions())
	if err := empty.Open(t.TempDir()); err != nil {
		t.Fatalf("Open empty: %v", err)
	}
	if empty.State() != StateDatasetLoaded {
		t.Fatalf("empty folder should still load, state = %v", empty.State())
	}
	for _, s := range []*Session{unloaded, empty} {
		if v, err := s.Render(); err != nil || !v.Empty() {
			t.Fatalf("Render: %#v %v", v, err)
		}
		if v, err := s.Next(); err != nil || !v.Empty() {
			t.Fatalf("Next: %#v %v", v, err)
		}
		if v, err := s.Previous(); err != nil || !v.Empty() {
			t.Fatalf("Previous: %#v %v", v, err)
		}
		if imgs, err := s.OpenGallery(); err != nil || len(imgs) != 0 {
			t.Fatalf("OpenGallery: %v %v", imgs, err)
		}
		if _, err := s.Select(0); err != nil {
			t.Fatalf("Select: %v", err)
		}
		if err := s.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		if s.Current() != "" || s.Index() != 0 {
			t.Fatalf("unexpected cursor on empty session")
		}
	}
	if len(store.saves) != 0 {
		t.Fatalf("no saves expected, got %v", store.saves)
	}
}

func TestSessionOpenFailureKeepsState(t *testing.T) {
	s := NewSession(newMemStore(), DefaultScanOptions())
	if err := s.Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error")
	}
	if s.State() != StateNoDataset {
		t.Fatalf("failed open changed state to %v", s.State())
	}
}

func TestStateString(t *testing.T) {
	if StateNoDataset.String() != "no-dataset" || StateDatasetLoaded.String() != "dataset-loaded" {
		t.Fatalf("unexpected state names")
	}
}

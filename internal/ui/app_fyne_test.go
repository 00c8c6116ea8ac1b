//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based screens. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
//
// Ensure you have the Fyne dependencies installed and a working OS driver.
package ui

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"

	"recap/internal/imaging"
)

func newTestEditor(t *testing.T, files ...string) (*editor, string) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	root := t.TempDir()
	for i, f := range files {
		p := filepath.Join(root, f)
		if strings.HasSuffix(f, ".broken.png") {
			if err := os.WriteFile(p, []byte("garbage"), 0o644); err != nil {
				t.Fatal(err)
			}
			continue
		}
		writePNG(t, p, 40+i, 30)
	}
	opts := DefaultOptions()
	opts.ThumbSize = 32
	return newEditor(a, opts), root
}

func TestEditor_StartsOnStartScreen(t *testing.T) {
	e, _ := newTestEditor(t)
	if e.win.Content() != e.start {
		t.Fatalf("expected start screen before a dataset is loaded")
	}
	if e.win.Title() != WindowTitle() {
		t.Fatalf("unexpected title %q", e.win.Title())
	}
}

func TestEditor_TypeNextSavesCaption(t *testing.T) {
	e, root := newTestEditor(t, "a.png", "b.png")
	e.open(root)
	if e.win.Content() != e.main {
		t.Fatalf("expected main screen after open")
	}
	if e.name.Text != "a.png" || e.status.Text != "1 / 2" {
		t.Fatalf("unexpected first render: %q %q", e.name.Text, e.status.Text)
	}

	test.Type(e.entry, "hello")
	e.next()
	b, err := os.ReadFile(filepath.Join(root, "a.txt"))
	if err != nil || string(b) != "hello" {
		t.Fatalf("a.txt = %q, %v", b, err)
	}
	if e.name.Text != "b.png" || e.entry.Text != "" || e.status.Text != "2 / 2" {
		t.Fatalf("unexpected view after next: %q %q %q", e.name.Text, e.entry.Text, e.status.Text)
	}

	e.previous()
	if e.entry.Text != "hello" {
		t.Fatalf("caption should reload on previous, got %q", e.entry.Text)
	}
}

func TestEditor_EmptyDataset(t *testing.T) {
	e, root := newTestEditor(t)
	e.open(root)
	if e.status.Text != "No images found" {
		t.Fatalf("status = %q", e.status.Text)
	}
	e.next()
	e.previous()
	e.openGallery()
	if e.gallery != nil {
		t.Fatalf("gallery should not open for an empty dataset")
	}
}

func TestEditor_UndecodableImageShowsPlaceholder(t *testing.T) {
	e, root := newTestEditor(t, "a.broken.png", "b.png")
	e.open(root)
	if !strings.Contains(e.status.Text, "cannot display image") {
		t.Fatalf("status should report the decode error, got %q", e.status.Text)
	}
	if e.preview.Image == nil {
		t.Fatalf("placeholder expected")
	}
	e.next()
	if e.name.Text != "b.png" {
		t.Fatalf("navigation should continue past a broken image")
	}
}

func TestGallery_SelectJumpsAndCloses(t *testing.T) {
	e, root := newTestEditor(t, "a.png", "b.png", "c.png")
	e.open(root)
	test.Type(e.entry, "first")

	e.openGallery()
	if e.gallery == nil || len(e.tiles) != 3 {
		t.Fatalf("gallery should show one tile per image")
	}
	if b, _ := os.ReadFile(filepath.Join(root, "a.txt")); string(b) != "first" {
		t.Fatalf("opening the gallery should save the caption, got %q", b)
	}

	test.Tap(e.tiles[2])
	if e.gallery != nil {
		t.Fatalf("gallery should close after a selection")
	}
	if e.name.Text != "c.png" || e.session.Index() != 2 {
		t.Fatalf("selection did not jump: %q %d", e.name.Text, e.session.Index())
	}
	if _, err := os.Stat(filepath.Join(root, "c.txt")); !os.IsNotExist(err) {
		t.Fatalf("selection must not save")
	}
}

func TestEditor_RequestCloseFlushes(t *testing.T) {
	e, root := newTestEditor(t, "a.png")
	e.open(root)
	test.Type(e.entry, "last words")
	e.requestClose()
	if b, _ := os.ReadFile(filepath.Join(root, "a.txt")); string(b) != "last words" {
		t.Fatalf("close should flush the caption, got %q", b)
	}
}

func TestEditor_OpenRelativeDirectory(t *testing.T) {
	e, root := newTestEditor(t, "a.png")
	t.Chdir(root)
	e.open(".")
	if e.win.Content() != e.main {
		t.Fatalf("expected main screen after opening a relative path")
	}
	if got := e.session.Dataset().Root; !filepath.IsAbs(got) || e.name.Text != "a.png" {
		t.Fatalf("root = %q, name = %q", got, e.name.Text)
	}
}

func TestEditor_PreviewKeepsSmallImageSize(t *testing.T) {
	// a.png is 40×30, far below the preview box
	e, root := newTestEditor(t, "a.png")
	e.win.Resize(fyne.NewSize(1000, 800))
	e.open(root)
	got := e.preview.Size()
	if got.Width > 40 || got.Height > 30 {
		t.Fatalf("preview stretched to %v, bitmap is 40x30", got)
	}
	if got.Width == 0 || got.Height == 0 {
		t.Fatalf("preview not laid out: %v", got)
	}
	if m := e.preview.MinSize(); m != fyne.NewSize(40, 30) {
		t.Fatalf("preview min size = %v", m)
	}
}

func TestThumbTile_KeepsThumbnailSize(t *testing.T) {
	data, err := imaging.EncodePNG(image.NewRGBA(image.Rect(0, 0, 20, 10)))
	if err != nil {
		t.Fatal(err)
	}
	tile := newThumbTile(fyne.NewStaticResource("small.png", data), "small.png", 200, nil)
	r := test.WidgetRenderer(tile)
	r.Layout(fyne.NewSize(200, 260))
	if got := tile.img.Size(); got.Width > 20 || got.Height > 10 {
		t.Fatalf("thumbnail stretched to %v, bitmap is 20x10", got)
	}
	if m := tile.MinSize(); m.Width < 200 || m.Height < 200 {
		t.Fatalf("tile should reserve the full cell, min size %v", m)
	}
}

func TestGallery_MarksCurrentImage(t *testing.T) {
	e, root := newTestEditor(t, "a.png", "b.png", "c.png")
	e.open(root)
	e.next()
	e.openGallery()
	if len(e.tiles) != 3 {
		t.Fatalf("expected 3 tiles, got %d", len(e.tiles))
	}
	for i, tile := range e.tiles {
		marked := tile.label.Importance == widget.HighImportance
		if marked != (i == 1) {
			t.Fatalf("tile %d marked = %v, current image is index 1", i, marked)
		}
	}
}

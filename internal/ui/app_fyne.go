//go:build fyne && cgo

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

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"recap/internal/caption"
	"recap/internal/crash"
	"recap/internal/dataset"
	"recap/internal/imaging"
	applog "recap/internal/log"
	"recap/internal/version"
)

// Run starts the Fyne desktop UI. A non-empty dir is opened right away,
// otherwise the start screen asks for a dataset folder.
func Run(dir string, opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	fyneApp := app.NewWithID("recap")
	e := newEditor(fyneApp, opts)
	defer crash.Recover(e.session)

	if dir != "" {
		e.open(dir)
	}
	e.win.ShowAndRun()
	l.Info("UI closed")
	return nil
}

// editor is the main window: a start screen until a dataset is loaded, then
// the image preview, caption entry and navigation buttons.
type editor struct {
	app     fyne.App
	win     fyne.Window
	session *dataset.Session
	opts    Options
	log     *slog.Logger

	start fyne.CanvasObject
	main  fyne.CanvasObject

	name       *widget.Label
	preview    *canvas.Image
	previewBox *fyne.Container
	entry      *widget.Entry
	status     *widget.Label
	// shown is the image currently decoded into preview.
	shown   string
	syncing bool

	gallery fyne.Window
	tiles   []*thumbTile
}

func newEditor(a fyne.App, opts Options) *editor {
	opts = opts.normalized()
	e := &editor{
		app:     a,
		opts:    opts,
		session: dataset.NewSession(caption.NewFileStore(), opts.Scan),
		log:     applog.WithComponent("ui"),
	}
	e.win = a.NewWindow(WindowTitle())
	e.win.SetMaster()
	e.win.Resize(fyne.NewSize(1000, 800))

	e.start = container.NewCenter(widget.NewButton("Load Dataset", e.chooseFolder))
	e.main = e.buildMain()
	e.win.SetContent(e.start)

	c := e.win.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyLeft, Modifier: fyne.KeyModifierAlt}, func(fyne.Shortcut) { e.previous() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyRight, Modifier: fyne.KeyModifierAlt}, func(fyne.Shortcut) { e.next() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyG, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { e.openGallery() })

	e.win.SetCloseIntercept(e.requestClose)
	return e
}

func (e *editor) buildMain() fyne.CanvasObject {
	e.name = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	// The bitmap is already fitted; the canvas image keeps its pixel size
	// and the center layout never stretches it.
	e.preview = canvas.NewImageFromImage(nil)
	e.preview.FillMode = canvas.ImageFillContain
	e.previewBox = container.NewCenter(e.preview)

	e.entry = widget.NewMultiLineEntry()
	e.entry.Wrapping = fyne.TextWrapWord
	e.entry.SetMinRowsVisible(4)
	e.entry.SetPlaceHolder("Caption")
	e.entry.OnChanged = func(s string) {
		if e.syncing || s == e.session.Buffer() {
			return
		}
		e.session.SetBuffer(s)
	}

	e.status = widget.NewLabel("")
	prev := widget.NewButtonWithIcon("Previous", theme.NavigateBackIcon(), e.previous)
	gal := widget.NewButtonWithIcon("Gallery", theme.GridIcon(), e.openGallery)
	next := widget.NewButtonWithIcon("Next", theme.NavigateNextIcon(), e.next)
	nav := container.NewHBox(layout.NewSpacer(), prev, gal, next, layout.NewSpacer())

	bottom := container.NewVBox(e.entry, nav, e.status)
	return container.NewBorder(e.name, bottom, nil, nil, e.previewBox)
}

func (e *editor) chooseFolder() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			e.log.Error("folder dialog error", slog.Any("err", err))
			dialog.ShowError(err, e.win)
			return
		}
		if uri == nil {
			e.log.Info("dataset selection canceled")
			return
		}
		e.open(uri.Path())
	}, e.win)
	fd.Show()
}

// open loads dir and switches to the main screen. On failure the start
// screen stays up.
func (e *editor) open(dir string) {
	if err := e.session.Open(dir); err != nil {
		e.log.Error("open dataset failed", slog.String("dir", dir), slog.Any("err", err))
		dialog.ShowError(err, e.win)
		return
	}
	e.log.Info("dataset opened", slog.String("root", e.session.Dataset().Root), slog.Int("images", e.session.Len()))
	e.win.SetContent(e.main)
	e.show(e.session.Render())
}

// show puts v on screen. The preview is decoded only when the image changed;
// err, if any, is reported in a dialog after the view is updated.
func (e *editor) show(v dataset.View, err error) {
	if e.entry.Text != v.Caption {
		e.syncing = true
		e.entry.SetText(v.Caption)
		e.syncing = false
	}
	e.name.SetText(v.Label)

	status := StatusText(v)
	switch {
	case v.Empty():
		e.setPreview(nil)
		e.shown = ""
	case v.Path != e.shown:
		img, derr := imaging.Load(v.Path, e.opts.Preview)
		if derr != nil {
			e.log.Warn("decode image failed", slog.String("image", v.Path), slog.Any("err", derr))
			img = imaging.Placeholder(e.opts.ThumbSize)
			status += " (cannot display image: " + derr.Error() + ")"
		}
		e.setPreview(img)
		e.shown = v.Path
	default:
		status = e.status.Text
	}
	e.status.SetText(status)

	if err != nil {
		dialog.ShowError(err, e.win)
	}
}

// setPreview replaces the preview bitmap and sizes the canvas image to it.
func (e *editor) setPreview(img image.Image) {
	e.preview.Image = img
	e.preview.SetMinSize(bitmapSize(img))
	e.previewBox.Refresh()
}

func (e *editor) next()     { e.show(e.session.Next()) }
func (e *editor) previous() { e.show(e.session.Previous()) }

func (e *editor) openGallery() {
	images, err := e.session.OpenGallery()
	if err != nil {
		dialog.ShowError(err, e.win)
		return
	}
	if len(images) == 0 {
		return
	}
	if e.gallery != nil {
		e.gallery.Close()
	}
	e.gallery = e.buildGallery(images)
	e.gallery.Show()
}

func (e *editor) buildGallery(images []string) fyne.Window {
	w := e.app.NewWindow("Gallery")
	side := e.opts.ThumbSize
	ctx := context.Background()

	active := e.session.Dataset().IndexOf(e.session.Current())
	e.tiles = make([]*thumbTile, len(images))
	objs := make([]fyne.CanvasObject, len(images))
	for i, p := range images {
		data, _ := Thumbnail(ctx, e.opts.Cache, p, side)
		name := filepath.Base(p)
		idx := i
		t := newThumbTile(fyne.NewStaticResource(name+".png", data), name, float32(side), func() { e.selectImage(idx) })
		if i == active {
			t.label.Importance = widget.HighImportance
			t.label.TextStyle = fyne.TextStyle{Bold: true}
		}
		e.tiles[i] = t
		objs[i] = t
	}
	grid := container.NewGridWithColumns(e.opts.Columns, objs...)
	w.SetContent(container.NewVScroll(grid))

	width := float32(e.opts.Columns*(side+8)) + theme.Padding()*2
	if width > 1600 {
		width = 1600
	}
	w.Resize(fyne.NewSize(width, 900))
	w.SetOnClosed(func() {
		// drop the thumbnails with the window
		grid.Objects = nil
		if e.gallery == w {
			e.gallery = nil
			e.tiles = nil
		}
	})
	e.log.Debug("gallery built", slog.Int("thumbnails", len(images)))
	return w
}

// selectImage is the gallery click handler. The caption was saved when the
// gallery opened, so nothing is saved here.
func (e *editor) selectImage(i int) {
	v, err := e.session.Select(i)
	if e.gallery != nil {
		e.gallery.Close()
	}
	e.show(v, err)
}

// requestClose flushes the caption before the window goes away. If the save
// fails the user decides whether to close anyway.
func (e *editor) requestClose() {
	if err := e.session.Flush(); err != nil {
		e.log.Error("flush on close failed", slog.Any("err", err))
		dialog.ShowConfirm("Caption not saved", err.Error()+"\n\nClose anyway?", func(ok bool) {
			if ok {
				e.win.Close()
			}
		}, e.win)
		return
	}
	e.win.Close()
}

// thumbTile is a tappable gallery thumbnail with the image basename below it.
// Every tile reserves a side×side cell; the thumbnail is drawn at its own
// pixel size in the middle of it.
type thumbTile struct {
	widget.BaseWidget
	img   *canvas.Image
	cell  *canvas.Rectangle
	label *widget.Label
	onTap func()
}

func newThumbTile(res fyne.Resource, name string, side float32, onTap func()) *thumbTile {
	img := canvas.NewImageFromResource(res)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(resourceSize(res))
	cell := canvas.NewRectangle(color.Transparent)
	cell.SetMinSize(fyne.NewSize(side, side))
	label := widget.NewLabel(name)
	label.Alignment = fyne.TextAlignCenter
	label.Truncation = fyne.TextTruncateEllipsis
	t := &thumbTile{img: img, cell: cell, label: label, onTap: onTap}
	t.ExtendBaseWidget(t)
	return t
}

func (t *thumbTile) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewBorder(nil, t.label, nil, nil, container.NewStack(t.cell, container.NewCenter(t.img))))
}

// Tapped implements fyne.Tappable.
func (t *thumbTile) Tapped(*fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap()
	}
}

// bitmapSize is the size of img in canvas units, one unit per pixel.
func bitmapSize(img image.Image) fyne.Size {
	if img == nil {
		return fyne.NewSize(0, 0)
	}
	b := img.Bounds()
	return fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
}

// resourceSize reads the pixel size of an encoded image resource.
func resourceSize(res fyne.Resource) fyne.Size {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(res.Content()))
	if err != nil {
		return fyne.NewSize(0, 0)
	}
	return fyne.NewSize(float32(cfg.Width), float32(cfg.Height))
}

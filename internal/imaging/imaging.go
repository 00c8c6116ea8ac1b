/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imaging decodes dataset images and scales them into display bitmaps.
// Scaling only ever shrinks: an image smaller than the bounding box is returned
// at its own resolution.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	_ "image/jpeg" // JPEG decoder registration
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// Box is a maximum bounding box in pixels.
type Box struct {
	W, H int
}

// Decode opens and decodes the image at path.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// FitSize returns the size of a w×h image shrunk to fit box with its aspect
// ratio preserved. Sizes already inside the box are returned unchanged.
func FitSize(w, h int, box Box) (int, int) {
	if w <= 0 || h <= 0 || box.W <= 0 || box.H <= 0 {
		return w, h
	}
	if w <= box.W && h <= box.H {
		return w, h
	}
	ratio := float64(w) / float64(h)
	if float64(box.W)/float64(box.H) > ratio {
		// height is the limiting factor
		nw := int(float64(box.H) * ratio)
		if nw < 1 {
			nw = 1
		}
		return nw, box.H
	}
	nh := int(float64(box.W) / ratio)
	if nh < 1 {
		nh = 1
	}
	return box.W, nh
}

// Fit shrinks img to fit box. The source is returned as-is when it already fits.
func Fit(img image.Image, box Box) image.Image {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), box)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Load decodes path and fits it into box.
func Load(path string, box Box) (image.Image, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return Fit(img, box), nil
}

// Placeholder returns a light grey square of the given side with a red cross,
// shown in place of an image that could not be decoded.
func Placeholder(side int) image.Image {
	if side < 8 {
		side = 8
	}
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	stddraw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 220, G: 220, B: 220, A: 255}}, image.Point{}, stddraw.Src)
	mark := color.RGBA{R: 200, G: 0, B: 0, A: 255}
	strokeRect(img, 0, 0, side-1, side-1, mark)
	for i := 0; i < side; i++ {
		for t := -1; t <= 1; t++ {
			if j := i + t; j >= 0 && j < side {
				img.SetRGBA(i, j, mark)
				img.SetRGBA(side-1-i, j, mark)
			}
		}
	}
	return img
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

// Thumbnail decodes path, fits it into a side×side box and returns PNG bytes.
// Undecodable images yield an error; callers decide whether to show Placeholder.
func Thumbnail(path string, side int) ([]byte, error) {
	img, err := Load(path, Box{W: side, H: side})
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

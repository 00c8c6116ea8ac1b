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
	"context"
	"fmt"
	"log/slog"

	"recap/internal/dataset"
	"recap/internal/imaging"
	applog "recap/internal/log"
	"recap/internal/storage"
	"recap/internal/version"
)

// Options configures the editor and gallery windows.
type Options struct {
	Preview   imaging.Box
	ThumbSize int
	Columns   int
	Scan      dataset.ScanOptions
	// Cache memoizes gallery thumbnails; nil renders every thumbnail from disk.
	Cache *storage.ThumbCache
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		Preview:   imaging.Box{W: 1600, H: 1000},
		ThumbSize: 375,
		Columns:   5,
		Scan:      dataset.DefaultScanOptions(),
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Preview.W <= 0 || o.Preview.H <= 0 {
		o.Preview = d.Preview
	}
	if o.ThumbSize <= 0 {
		o.ThumbSize = d.ThumbSize
	}
	if o.Columns <= 0 {
		o.Columns = d.Columns
	}
	return o
}

// WindowTitle is the editor window title, e.g. "ReCap v1.0.0".
func WindowTitle() string {
	return fmt.Sprintf("%s v%s", version.Name, version.Version)
}

// GridPosition returns the gallery cell of thumbnail i in a grid with cols columns.
func GridPosition(i, cols int) (row, col int) {
	if cols <= 0 {
		cols = 1
	}
	return i / cols, i % cols
}

// StatusText is the editor status line for v: the 1-based position, or a
// notice when there is no image to show.
func StatusText(v dataset.View) string {
	if v.Empty() {
		return "No images found"
	}
	return fmt.Sprintf("%d / %d", v.Index+1, v.Total)
}

// Thumbnail returns PNG bytes of path fitted into a side×side box. The cache is
// consulted first when present; cache failures fall back to decoding directly.
// When the image cannot be decoded the placeholder is returned along with the error,
// so the result is always displayable.
func Thumbnail(ctx context.Context, cache *storage.ThumbCache, path string, side int) ([]byte, error) {
	var genErr error
	gen := func(context.Context) ([]byte, error) {
		b, err := imaging.Thumbnail(path, side)
		genErr = err
		return b, err
	}
	var (
		data []byte
		err  error
	)
	if cache != nil {
		key, kerr := storage.KeyFor(path, side)
		if kerr == nil {
			data, err = cache.GetOrCreate(ctx, key, gen)
		}
		if kerr != nil || (err != nil && genErr == nil) {
			// cache unusable for this image; render directly
			data, err = gen(ctx)
		}
	} else {
		data, err = gen(ctx)
	}
	if err == nil {
		return data, nil
	}
	applog.WithComponent("gallery").Warn("thumbnail failed", slog.String("image", path), slog.Any("err", err))
	ph, perr := imaging.EncodePNG(imaging.Placeholder(side))
	if perr != nil {
		return nil, perr
	}
	return ph, err
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"recap/internal/config"
	"recap/internal/dataset"
	"recap/internal/imaging"
	applog "recap/internal/log"
	"recap/internal/storage"
	"recap/internal/ui"
)

// env carries the effective configuration from PersistentPreRunE to the commands.
type env struct {
	cfg config.AppConfig
}

func newRootCmd() *cobra.Command {
	e := &env{cfg: config.Defaults()}

	cmd := &cobra.Command{
		Use:   "recap [dataset-dir]",
		Short: "Caption image datasets one picture at a time",
		Long: `ReCap shows the images of a dataset folder one by one next to an editable
caption. Each caption is stored as a .txt file beside its image and is saved
whenever you move to another image.

Without a subcommand the desktop UI is launched.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			e.load()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runUI(cmd.Context(), firstArg(args))
		},
	}

	cmd.AddCommand(newUICmd(e), newScanCmd(e), newCacheCmd(e), newConfigCmd(e))
	return cmd
}

func newUICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [dataset-dir]",
		Short: "Launch the desktop UI",
		Example: `  # Start on the "Load Dataset" screen
  recap ui

  # Open a dataset right away
  recap ui ./photos`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runUI(cmd.Context(), firstArg(args))
		},
	}
}

// load resolves the configuration and initializes logging from it.
func (e *env) load() {
	cfg, warnings, err := config.Load()
	e.cfg = cfg
	applog.Init(logOptions(cfg.Logging))
	l := applog.WithComponent("cli")
	if err != nil {
		l.Warn("config unavailable, using defaults", slog.Any("err", err))
	}
	for _, w := range warnings {
		l.Warn("config ignored", slog.String("reason", w))
	}
}

func (e *env) scanOptions() dataset.ScanOptions {
	return dataset.ScanOptions{Sort: e.cfg.Dataset.Sort, SkipHidden: e.cfg.Dataset.SkipHidden}
}

func (e *env) runUI(ctx context.Context, dir string) error {
	l := applog.WithComponent("cli")
	opts := ui.Options{
		Preview:   imaging.Box{W: e.cfg.Editor.PreviewWidth, H: e.cfg.Editor.PreviewHeight},
		ThumbSize: e.cfg.Gallery.ThumbSize,
		Columns:   e.cfg.Gallery.Columns,
		Scan:      e.scanOptions(),
	}
	if e.cfg.Cache.Enabled {
		if cache, err := e.openCache(ctx); err != nil {
			l.Warn("thumbnail cache disabled", slog.Any("err", err))
		} else {
			defer cache.Close()
			opts.Cache = cache
		}
	}
	return ui.Run(dir, opts)
}

func (e *env) openCache(ctx context.Context) (*storage.ThumbCache, error) {
	dir, err := e.cfg.Cache.CacheDir()
	if err != nil {
		return nil, err
	}
	return storage.OpenThumbCache(ctx, dir, e.cfg.Cache.MaxBytes)
}

func logOptions(c config.LoggingConfig) applog.Options {
	return applog.Options{Level: c.Level, Format: c.Format, AddSource: c.Source, File: c.File}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

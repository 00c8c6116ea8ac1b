/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type EditorConfig struct {
	PreviewWidth  int `yaml:"preview_width"`
	PreviewHeight int `yaml:"preview_height"`
}

type GalleryConfig struct {
	ThumbSize int `yaml:"thumb_size"`
	Columns   int `yaml:"columns"`
}

type DatasetConfig struct {
	Sort       bool `yaml:"sort"` // lexicographic order instead of raw walk order
	SkipHidden bool `yaml:"skip_hidden"`
}

type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	MaxBytes int64  `yaml:"max_bytes"`
	Dir      string `yaml:"dir"` // empty: <user cache dir>/recap
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Gallery       GalleryConfig `yaml:"gallery"`
	Dataset       DatasetConfig `yaml:"dataset"`
	Cache         CacheConfig   `yaml:"cache"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{PreviewWidth: 1600, PreviewHeight: 1000},
		Gallery:       GalleryConfig{ThumbSize: 375, Columns: 5},
		Dataset:       DatasetConfig{Sort: true, SkipHidden: false},
		Cache:         CacheConfig{Enabled: true, MaxBytes: 256 * 1024 * 1024},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath    = "RECAP_CONFIG"
	EnvCacheEnabled  = "RECAP_CACHE_ENABLED"
	EnvCacheMaxBytes = "RECAP_CACHE_MAX_BYTES"
	EnvCacheDir      = "RECAP_CACHE_DIR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "RECAP_LOG_LEVEL"
	EnvLogFormat = "RECAP_LOG_FORMAT"
	EnvLogSource = "RECAP_LOG_SOURCE"
	EnvLogFile   = "RECAP_LOG_FILE"
)

// ConfigPath returns the per-user config file path, or RECAP_CONFIG when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ReCap")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ReCap")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "recap")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "recap")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// CacheDir resolves the thumbnail cache directory.
func (c CacheConfig) CacheDir() (string, error) {
	if strings.TrimSpace(c.Dir) != "" {
		return c.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "recap"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A file that fails schema validation is ignored; the returned warnings describe why.
func Load() (AppConfig, []string, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, nil, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (AppConfig, []string, error) {
	cfg := Defaults()
	var warnings []string
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if problems, verr := Validate(data); verr != nil {
			warnings = append(warnings, fmt.Sprintf("config %s: %v", path, verr))
		} else if len(problems) > 0 {
			for _, p := range problems {
				warnings = append(warnings, fmt.Sprintf("config %s: %s", path, p))
			}
		} else {
			var fileCfg AppConfig
			if uerr := yaml.Unmarshal(data, &fileCfg); uerr != nil {
				warnings = append(warnings, fmt.Sprintf("config %s: %v", path, uerr))
			} else {
				mergeInto(&cfg, &fileCfg, presentKeys(data))
			}
		}
	case !errors.Is(err, os.ErrNotExist):
		warnings = append(warnings, fmt.Sprintf("config %s: %v", path, err))
	}
	applyEnvOverrides(&cfg)
	return cfg, warnings, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path, creating parent directories.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// presentKeys returns "section.key" for every key set in the YAML document so
// explicit false/zero values in the file are distinguishable from absent ones.
func presentKeys(data []byte) map[string]bool {
	var raw map[string]map[string]any
	keys := map[string]bool{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return keys
	}
	for section, m := range raw {
		for k := range m {
			keys[section+"."+k] = true
		}
	}
	return keys
}

func mergeInto(dst *AppConfig, src *AppConfig, present map[string]bool) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Editor.PreviewWidth > 0 {
		dst.Editor.PreviewWidth = src.Editor.PreviewWidth
	}
	if src.Editor.PreviewHeight > 0 {
		dst.Editor.PreviewHeight = src.Editor.PreviewHeight
	}
	if src.Gallery.ThumbSize > 0 {
		dst.Gallery.ThumbSize = src.Gallery.ThumbSize
	}
	if src.Gallery.Columns > 0 {
		dst.Gallery.Columns = src.Gallery.Columns
	}
	// booleans only when the file spells them out
	if present["dataset.sort"] {
		dst.Dataset.Sort = src.Dataset.Sort
	}
	if present["dataset.skip_hidden"] {
		dst.Dataset.SkipHidden = src.Dataset.SkipHidden
	}
	if present["cache.enabled"] {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.MaxBytes > 0 {
		dst.Cache.MaxBytes = src.Cache.MaxBytes
	}
	if strings.TrimSpace(src.Cache.Dir) != "" {
		dst.Cache.Dir = strings.TrimSpace(src.Cache.Dir)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvCacheEnabled)); v != "" {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheMaxBytes)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Cache.MaxBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheDir)); v != "" {
		cfg.Cache.Dir = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"cache.enabled":   EnvCacheEnabled,
		"cache.max_bytes": EnvCacheMaxBytes,
		"cache.dir":       EnvCacheDir,
		"logging.level":   EnvLogLevel,
		"logging.format":  EnvLogFormat,
		"logging.source":  EnvLogSource,
		"logging.file":    EnvLogFile,
	}
	env, ok := names[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

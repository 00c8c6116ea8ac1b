/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	applog "recap/internal/log"
)

// ThumbKey identifies a thumbnail: the source image, the revision of that
// file it was rendered from, and the square box it was fitted into.
type ThumbKey struct {
	Path    string
	Size    int64
	ModTime int64 // unix nanoseconds
	Side    int
}

// KeyFor stats path and builds its ThumbKey for the given box side.
func KeyFor(path string, side int) (ThumbKey, error) {
	st, err := os.Stat(path)
	if err != nil {
		return ThumbKey{}, fmt.Errorf("stat image: %w", err)
	}
	return ThumbKey{Path: path, Size: st.Size(), ModTime: st.ModTime().UnixNano(), Side: side}, nil
}

// ThumbCache memoizes rendered gallery thumbnails in a SQLite database that
// lives outside the dataset folder. Everything in it can be regenerated from
// the images; a corrupt database is discarded and recreated.
type ThumbCache struct {
	db       *sql.DB
	dir      string
	maxBytes int64
	log      *slog.Logger
}

// OpenThumbCache opens (or creates) the cache in dir. maxBytes <= 0 disables the size cap.
func OpenThumbCache(ctx context.Context, dir string, maxBytes int64) (*ThumbCache, error) {
	l := applog.WithComponent("storage")
	db, err := openDB(ctx, dir)
	if err == nil && !healthy(ctx, db) {
		_ = db.Close()
		err = errors.New("cache failed quick_check")
	}
	if err != nil {
		// disposable: drop the file and start over once
		l.Warn("recreating thumbnail cache", slog.String("dir", dir), slog.Any("err", err))
		if rerr := RemoveCache(dir); rerr != nil {
			return nil, fmt.Errorf("reset cache: %w (open err: %v)", rerr, err)
		}
		if db, err = openDB(ctx, dir); err != nil {
			return nil, err
		}
	}
	return &ThumbCache{db: db, dir: dir, maxBytes: maxBytes, log: l}, nil
}

// Close releases the database handle.
func (c *ThumbCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Dir returns the directory holding the cache file.
func (c *ThumbCache) Dir() string { return c.dir }

// Get returns the cached blob for key, or nil when absent or rendered from an
// older revision of the file. A hit refreshes the entry's access time.
func (c *ThumbCache) Get(ctx context.Context, key ThumbKey) ([]byte, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT blob FROM thumbs WHERE path=? AND side=? AND file_size=? AND mod_time=?`,
		key.Path, key.Side, key.Size, key.ModTime).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query thumb: %w", err)
	}
	// touch
	_, _ = c.db.ExecContext(ctx, `UPDATE thumbs SET last_access=? WHERE path=? AND side=?`, time.Now().UnixNano(), key.Path, key.Side)
	return blob, nil
}

// Put upserts the blob for key, replacing any older revision of the same
// image and box, then enforces the size cap via LRU eviction.
func (c *ThumbCache) Put(ctx context.Context, key ThumbKey, blob []byte) error {
	if len(blob) == 0 {
		return errors.New("empty thumbnail blob")
	}
	now := time.Now()
	_, err := c.db.ExecContext(ctx, `INSERT INTO thumbs(path,side,file_size,mod_time,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(path,side) DO UPDATE SET file_size=excluded.file_size, mod_time=excluded.mod_time,
			blob=excluded.blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		key.Path, key.Side, key.Size, key.ModTime, blob, len(blob), now.UTC().Format(time.RFC3339), now.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert thumb: %w", err)
	}
	if c.maxBytes > 0 {
		if err := c.EvictToFit(ctx, c.maxBytes); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreate fetches a thumbnail or generates and stores it using gen.
func (c *ThumbCache) GetOrCreate(ctx context.Context, key ThumbKey, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := c.Get(ctx, key); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, key, data); err != nil {
		// the thumbnail itself is fine; caching is best-effort
		c.log.Warn("cache put failed", slog.String("path", key.Path), slog.Any("err", err))
	}
	return data, nil
}

// EvictToFit deletes least-recently-used rows until total size <= capBytes.
func (c *ThumbCache) EvictToFit(ctx context.Context, capBytes int64) error {
	total, err := c.TotalBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT id, size FROM thumbs ORDER BY last_access ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	toDelete := make([]any, 0, 32)
	cur := total
	for rows.Next() {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		toDelete = append(toDelete, id)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// Important: close the rows cursor before attempting to write
	if err := rows.Close(); err != nil {
		return err
	}
	if len(toDelete) == 0 {
		return nil
	}
	q := `DELETE FROM thumbs WHERE id IN (` + strings.TrimSuffix(strings.Repeat("?,", len(toDelete)), ",") + `)`
	if _, err := c.db.ExecContext(ctx, q, toDelete...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	c.log.Debug("thumbnails evicted", slog.Int("count", len(toDelete)), slog.Int64("bytes", total-cur))
	return nil
}

// TotalBytes returns total blob bytes held by the cache.
func (c *ThumbCache) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := c.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM thumbs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum thumbs size: %w", err)
	}
	return total, nil
}

// Count returns the number of cached thumbnails.
func (c *ThumbCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM thumbs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count thumbs: %w", err)
	}
	return n, nil
}

// Clear deletes every cached thumbnail.
func (c *ThumbCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM thumbs`); err != nil {
		return fmt.Errorf("clear thumbs: %w", err)
	}
	return nil
}

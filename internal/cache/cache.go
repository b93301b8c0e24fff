// Package cache stores finished outlines keyed by content hash, so the same
// document is analyzed once per TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgraph-io/badger/v4"
)

// ErrMiss is returned by Get when no outline is stored for a key.
var ErrMiss = errors.New("cache miss")

// Config controls where and how long outlines are kept.
type Config struct {
	Dir      string
	InMemory bool
	TTL      time.Duration
	Logger   *slog.Logger
}

// Cache is a badger-backed outline store. Safe for concurrent use.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens the cache at cfg.Dir, or in memory when cfg.InMemory is set.
func Open(cfg Config) (*Cache, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("cache dir is required unless in memory")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{log: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Cache{db: db, ttl: cfg.TTL}, nil
}

func key(hash string) []byte {
	return []byte("outline/" + hash)
}

// Get returns the stored outline for hash, or ErrMiss.
func (c *Cache) Get(ctx context.Context, hash string) (*doctree.DocTree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(hash))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read outline %s: %w", hash, err)
	}

	var tree doctree.DocTree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode outline %s: %w", hash, err)
	}
	return &tree, nil
}

// Put stores tree under hash. The nested view is not stored; callers rebuild
// it with Nest when they need it.
func (c *Cache) Put(ctx context.Context, hash string, tree *doctree.DocTree) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	flat := doctree.DocTree{Title: tree.Title, Segments: tree.Segments, Entries: tree.Entries}
	data, err := json.Marshal(flat)
	if err != nil {
		return fmt.Errorf("encode outline: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(hash), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Delete removes the outline stored under hash, if any.
func (c *Cache) Delete(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(hash))
	})
}

// RunGC reclaims value log space. Returns nil when there was nothing to do.
func (c *Cache) RunGC() error {
	err := c.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// badgerLogger routes badger's logging into slog.
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

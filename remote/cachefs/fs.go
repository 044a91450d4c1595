// Package cachefs wraps a remote connection with a small LRU cache of
// Stat results. Directory searches and attribute operations issue many
// repeated stats for the same paths; caching them saves a network round
// trip each. All mutating calls invalidate the affected entries.
package cachefs

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yunkya2/smbfs-x68k/remote"
)

type Options func(c *conn)

func WithLogger(l *slog.Logger) Options {
	return func(c *conn) { c.logger = l }
}

func WithMaxStatCache(n int) Options {
	return func(c *conn) { c.maxStat = n }
}

// WithTTL bounds how long a cached stat may be served.
func WithTTL(d time.Duration) Options {
	return func(c *conn) { c.ttl = d }
}

type statEntry struct {
	info fs.FileInfo
	at   time.Time
}

type conn struct {
	underlying remote.Conn
	stats      *lru.Cache[string, statEntry]
	logger     *slog.Logger
	maxStat    int
	ttl        time.Duration
}

var _ remote.Conn = (*conn)(nil)

func New(slow remote.Conn, opts ...Options) remote.Conn {
	c := &conn{
		underlying: slow,
		maxStat:    1024,
		ttl:        2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	stats, err := lru.New[string, statEntry](c.maxStat)
	if err != nil {
		panic(err)
	}
	c.stats = stats
	return c
}

func (c *conn) invalidate(paths ...string) {
	for _, p := range paths {
		c.stats.Remove(p)
	}
}

func (c *conn) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if e, ok := c.stats.Get(path); ok && time.Since(e.at) < c.ttl {
		if c.logger != nil {
			c.logger.Debug("cachefs.Stat.hit", "path", path)
		}
		return e.info, nil
	}
	info, err := c.underlying.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	c.stats.Add(path, statEntry{info: info, at: time.Now()})
	return info, nil
}

func (c *conn) Open(ctx context.Context, path string, flag int) (remote.File, error) {
	c.invalidate(path)
	return c.underlying.Open(ctx, path, flag)
}

func (c *conn) Create(ctx context.Context, path string, excl bool) (remote.File, error) {
	c.invalidate(path)
	return c.underlying.Create(ctx, path, excl)
}

func (c *conn) OpenDir(ctx context.Context, path string) (remote.Dir, error) {
	return c.underlying.OpenDir(ctx, path)
}

func (c *conn) Mkdir(ctx context.Context, path string) error {
	c.invalidate(path)
	return c.underlying.Mkdir(ctx, path)
}

func (c *conn) Rmdir(ctx context.Context, path string) error {
	c.invalidate(path)
	return c.underlying.Rmdir(ctx, path)
}

func (c *conn) Remove(ctx context.Context, path string) error {
	c.invalidate(path)
	return c.underlying.Remove(ctx, path)
}

func (c *conn) Rename(ctx context.Context, oldpath, newpath string) error {
	c.invalidate(oldpath, newpath)
	return c.underlying.Rename(ctx, oldpath, newpath)
}

func (c *conn) Chmod(ctx context.Context, path string, mode fs.FileMode) error {
	c.invalidate(path)
	return c.underlying.Chmod(ctx, path, mode)
}

func (c *conn) Chtimes(ctx context.Context, path string, mtime time.Time) error {
	c.invalidate(path)
	return c.underlying.Chtimes(ctx, path, mtime)
}

func (c *conn) Statfs(ctx context.Context, path string) (total, free uint64, err error) {
	return c.underlying.Statfs(ctx, path)
}

func (c *conn) Ping(ctx context.Context) error { return c.underlying.Ping(ctx) }

func (c *conn) Close() error {
	c.stats.Purge()
	return c.underlying.Close()
}

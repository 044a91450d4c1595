// Package billyfs adapts a billy.Filesystem to the remote client contract.
// With memfs it doubles as the in-memory share used by the driver tests.
package billyfs

import (
	"context"
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/yunkya2/smbfs-x68k/remote"
)

type conn struct {
	fs billy.Filesystem
}

var _ remote.Conn = (*conn)(nil)

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem) remote.Conn {
	return &conn{fs: bfs}
}

func (c *conn) Open(ctx context.Context, path string, flag int) (remote.File, error) {
	h, err := c.fs.OpenFile(path, flag, 0666)
	if err != nil {
		return nil, err
	}
	return &file{fs: c.fs, h: h, path: path}, nil
}

func (c *conn) Create(ctx context.Context, path string, excl bool) (remote.File, error) {
	if excl {
		if _, err := c.fs.Stat(path); err == nil {
			return nil, syscall.EEXIST
		}
	}
	h, err := c.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, err
	}
	return &file{fs: c.fs, h: h, path: path}, nil
}

func (c *conn) OpenDir(ctx context.Context, path string) (remote.Dir, error) {
	if path != "" && path != "/" {
		info, err := c.fs.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, syscall.ENOTDIR
		}
	}
	infos, err := c.fs.ReadDir(path)
	if err != nil {
		return nil, err
	}
	return remote.NewInfoDir(infos), nil
}

func (c *conn) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	return c.fs.Stat(path)
}

func (c *conn) Mkdir(ctx context.Context, path string) error {
	if _, err := c.fs.Stat(path); err == nil {
		return syscall.EEXIST
	}
	return c.fs.MkdirAll(path, 0777)
}

func (c *conn) Rmdir(ctx context.Context, path string) error {
	info, err := c.fs.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return syscall.ENOTDIR
	}
	if infos, err := c.fs.ReadDir(path); err == nil && len(infos) > 0 {
		return syscall.ENOTEMPTY
	}
	return c.fs.Remove(path)
}

func (c *conn) Remove(ctx context.Context, path string) error {
	info, err := c.fs.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return syscall.EISDIR
	}
	return c.fs.Remove(path)
}

func (c *conn) Rename(ctx context.Context, oldpath, newpath string) error {
	return c.fs.Rename(oldpath, newpath)
}

func (c *conn) Chmod(ctx context.Context, path string, mode fs.FileMode) error {
	if ch, ok := c.fs.(billy.Change); ok {
		return ch.Chmod(path, mode)
	}
	return nil
}

func (c *conn) Chtimes(ctx context.Context, path string, mtime time.Time) error {
	if ch, ok := c.fs.(billy.Change); ok {
		return ch.Chtimes(path, mtime, mtime)
	}
	return nil
}

func (c *conn) Statfs(ctx context.Context, path string) (total, free uint64, err error) {
	// billy has no quota concept; report a fixed-size volume
	return 1 << 31, 1 << 30, nil
}

func (c *conn) Ping(ctx context.Context) error { return nil }

func (c *conn) Close() error { return nil }

type file struct {
	fs   billy.Filesystem
	h    billy.File
	path string
}

func (f *file) Read(p []byte) (int, error)                { return f.h.Read(p) }
func (f *file) Write(p []byte) (int, error)               { return f.h.Write(p) }
func (f *file) Seek(off int64, whence int) (int64, error) { return f.h.Seek(off, whence) }
func (f *file) Truncate(size int64) error                 { return f.h.Truncate(size) }
func (f *file) Stat() (fs.FileInfo, error)                { return f.fs.Stat(f.path) }
func (f *file) Close() error                              { return f.h.Close() }

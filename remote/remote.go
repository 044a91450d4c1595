// Package remote defines the client contract for the stateful remote
// filesystem protocols the driver mounts. Backends translate their
// protocol errors into syscall errnos (or the io/fs sentinels) so the
// driver's error translator can map them to the host error space.
package remote

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// Conn is one connection to a remote share. Connections are not safe for
// concurrent use; the driver serializes all access behind its own lock.
type Conn interface {
	// Open opens an existing file. flag is an os.O_* access mode.
	Open(ctx context.Context, path string, flag int) (File, error)
	// Create opens a file for read/write, creating it. If excl is set the
	// call fails when the file already exists, otherwise it truncates.
	Create(ctx context.Context, path string, excl bool) (File, error)
	// OpenDir starts a directory enumeration.
	OpenDir(ctx context.Context, path string) (Dir, error)

	Stat(ctx context.Context, path string) (fs.FileInfo, error)
	Mkdir(ctx context.Context, path string) error
	Rmdir(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
	Rename(ctx context.Context, oldpath, newpath string) error
	Chmod(ctx context.Context, path string, mode fs.FileMode) error
	Chtimes(ctx context.Context, path string, mtime time.Time) error

	// Statfs reports total and free bytes on the share holding path.
	Statfs(ctx context.Context, path string) (total, free uint64, err error)

	// Ping issues a lightweight liveness request on the connection.
	Ping(ctx context.Context) error

	Close() error
}

// File is an open remote file. The handle carries a server-side file
// pointer: Read and Write advance it, Seek repositions it. Callers that
// cache the pointer can skip redundant Seek round trips.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	Truncate(size int64) error
	Stat() (fs.FileInfo, error)
	Close() error
}

// Dir is an in-progress directory enumeration. Next returns io.EOF when
// the stream is exhausted.
type Dir interface {
	Next() (fs.FileInfo, error)
	Close() error
}

// Dialer connects to the share named by a URL using resolved credentials.
type Dialer func(ctx context.Context, u *URL, user, password string) (Conn, error)

// InfoDir adapts a fully materialized listing to the Dir stream interface,
// for backends whose protocol returns the whole directory at once.
type InfoDir struct {
	infos []fs.FileInfo
	pos   int
}

func NewInfoDir(infos []fs.FileInfo) *InfoDir { return &InfoDir{infos: infos} }

func (d *InfoDir) Next() (fs.FileInfo, error) {
	if d.pos >= len(d.infos) {
		return nil, io.EOF
	}
	info := d.infos[d.pos]
	d.pos++
	return info, nil
}

func (d *InfoDir) Close() error { return nil }

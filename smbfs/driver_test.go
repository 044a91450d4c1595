package smbfs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/yunkya2/smbfs-x68k/human"
	"github.com/yunkya2/smbfs-x68k/remote"
	"github.com/yunkya2/smbfs-x68k/remote/billyfs"
)

// counters tracks handle traffic through a test connection so tests can
// assert on leaked handles and redundant seeks.
type counters struct {
	fileOpens  int
	fileCloses int
	seeks      int
	dirOpens   int
	dirCloses  int
}

type countingConn struct {
	remote.Conn
	c *counters
}

func (cc *countingConn) Open(ctx context.Context, path string, flag int) (remote.File, error) {
	f, err := cc.Conn.Open(ctx, path, flag)
	if err != nil {
		return nil, err
	}
	cc.c.fileOpens++
	return &countingFile{File: f, c: cc.c}, nil
}

func (cc *countingConn) Create(ctx context.Context, path string, excl bool) (remote.File, error) {
	f, err := cc.Conn.Create(ctx, path, excl)
	if err != nil {
		return nil, err
	}
	cc.c.fileOpens++
	return &countingFile{File: f, c: cc.c}, nil
}

func (cc *countingConn) OpenDir(ctx context.Context, path string) (remote.Dir, error) {
	dir, err := cc.Conn.OpenDir(ctx, path)
	if err != nil {
		return nil, err
	}
	cc.c.dirOpens++
	return &countingDir{Dir: dir, c: cc.c}, nil
}

type countingFile struct {
	remote.File
	c *counters
}

func (f *countingFile) Seek(off int64, whence int) (int64, error) {
	f.c.seeks++
	return f.File.Seek(off, whence)
}

func (f *countingFile) Close() error {
	f.c.fileCloses++
	return f.File.Close()
}

type countingDir struct {
	remote.Dir
	c *counters
}

func (d *countingDir) Close() error {
	d.c.dirCloses++
	return d.Dir.Close()
}

// newTestDriver builds a driver over an in-memory share populated with the
// given files and mounts it on unit 0.
func newTestDriver(t *testing.T, files map[string]string, opts ...Option) (*Driver, *counters, billy.Filesystem) {
	t.Helper()
	mem := memfs.New()
	for path, content := range files {
		if content == "<dir>" {
			if err := mem.MkdirAll(path, 0777); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := util.WriteFile(mem, path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	c := &counters{}
	dial := func(ctx context.Context, u *remote.URL, user, password string) (remote.Conn, error) {
		return &countingConn{Conn: billyfs.New(mem), c: c}, nil
	}
	opts = append([]Option{
		WithKeepAliveInterval(0),
		WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)
	d := New(dial, opts...)
	t.Cleanup(func() { d.Close() })

	err := d.Mount(context.Background(), 0, MountSpec{
		URL:      "smb://server/share",
		Username: "alice",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	return d, c, mem
}

// nameRecord builds the fixed-field record for the final path component
// name.ext under the given directory components.
func nameRecord(name, ext string, dirs ...string) human.Namebuf {
	var nb human.Namebuf
	nb.SetPath(dirs...)
	nb.SetName(name, ext)
	return nb
}

func dispatch(t *testing.T, d *Driver, req *Request) int32 {
	t.Helper()
	status, err := d.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("dispatch %s: %v", req.Op, err)
	}
	return status
}

func wantStatus(t *testing.T, d *Driver, req *Request, want human.Error) {
	t.Helper()
	if got := dispatch(t, d, req); got != int32(want) {
		t.Errorf("%s => %d, expected %d (%v)", req.Op, got, int32(want), want)
	}
}

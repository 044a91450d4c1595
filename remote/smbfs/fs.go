// Package smbfs implements the remote client contract over SMB2.
package smbfs

import (
	"context"
	"io/fs"
	"net"
	"os"
	gopath "path"
	"strings"
	"time"

	smb2 "github.com/hirochachacha/go-smb2"

	"github.com/yunkya2/smbfs-x68k/remote"
)

type conn struct {
	netConn net.Conn
	session *smb2.Session
	share   *smb2.Share
}

var _ remote.Conn = (*conn)(nil)

// Dial connects to the SMB server named by u and mounts its share.
// Paths given to the connection are relative to the share root; the URL
// sub-path is the caller's mount root and is not prefixed here.
func Dial(ctx context.Context, u *remote.URL, user, password string) (remote.Conn, error) {
	netConn, err := net.DialTimeout("tcp", u.Addr("445"), 30*time.Second)
	if err != nil {
		return nil, err
	}
	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     user,
			Password: password,
			Domain:   u.Domain,
		},
	}
	session, err := d.DialContext(ctx, netConn)
	if err != nil {
		netConn.Close()
		return nil, err
	}
	share, err := session.Mount(u.Share)
	if err != nil {
		session.Logoff()
		netConn.Close()
		return nil, err
	}
	return &conn{netConn: netConn, session: session, share: share}, nil
}

// ListShares enumerates the share names offered by the server, for the
// client shell's -L option.
func ListShares(ctx context.Context, u *remote.URL, user, password string) ([]string, error) {
	netConn, err := net.DialTimeout("tcp", u.Addr("445"), 30*time.Second)
	if err != nil {
		return nil, err
	}
	defer netConn.Close()
	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     user,
			Password: password,
			Domain:   u.Domain,
		},
	}
	session, err := d.DialContext(ctx, netConn)
	if err != nil {
		return nil, err
	}
	defer session.Logoff()
	return session.ListSharenames()
}

// join maps a slash path to the backslash wire form used by the share.
func (c *conn) join(path string) string {
	p := gopath.Clean("/" + path)
	if p == "/" {
		return "."
	}
	return strings.ReplaceAll(strings.TrimPrefix(p, "/"), "/", `\`)
}

func (c *conn) Open(ctx context.Context, path string, flag int) (remote.File, error) {
	return c.share.OpenFile(c.join(path), flag, 0666)
}

func (c *conn) Create(ctx context.Context, path string, excl bool) (remote.File, error) {
	flag := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if excl {
		flag = os.O_RDWR | os.O_CREATE | os.O_EXCL
	}
	return c.share.OpenFile(c.join(path), flag, 0666)
}

func (c *conn) OpenDir(ctx context.Context, path string) (remote.Dir, error) {
	infos, err := c.share.ReadDir(c.join(path))
	if err != nil {
		return nil, err
	}
	return remote.NewInfoDir(infos), nil
}

func (c *conn) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	return c.share.Stat(c.join(path))
}

func (c *conn) Mkdir(ctx context.Context, path string) error {
	return c.share.Mkdir(c.join(path), 0777)
}

func (c *conn) Rmdir(ctx context.Context, path string) error {
	return c.share.Remove(c.join(path))
}

func (c *conn) Remove(ctx context.Context, path string) error {
	return c.share.Remove(c.join(path))
}

func (c *conn) Rename(ctx context.Context, oldpath, newpath string) error {
	return c.share.Rename(c.join(oldpath), c.join(newpath))
}

func (c *conn) Chmod(ctx context.Context, path string, mode fs.FileMode) error {
	return c.share.Chmod(c.join(path), mode)
}

func (c *conn) Chtimes(ctx context.Context, path string, mtime time.Time) error {
	return c.share.Chtimes(c.join(path), mtime, mtime)
}

func (c *conn) Statfs(ctx context.Context, path string) (total, free uint64, err error) {
	info, err := c.share.Statfs(c.join(path))
	if err != nil {
		return 0, 0, err
	}
	bs := info.BlockSize()
	return info.TotalBlockCount() * bs, info.AvailableBlockCount() * bs, nil
}

func (c *conn) Ping(ctx context.Context) error {
	_, err := c.share.Stat(".")
	return err
}

func (c *conn) Close() error {
	err := c.share.Umount()
	if lerr := c.session.Logoff(); err == nil {
		err = lerr
	}
	if cerr := c.netConn.Close(); err == nil {
		err = cerr
	}
	return err
}

// Package sftpfs implements the remote client contract over SFTP.
package sftpfs

import (
	"context"
	"io/fs"
	"os"
	gopath "path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/yunkya2/smbfs-x68k/remote"
)

type conn struct {
	client *ssh.Client
	sftp   *sftp.Client
	prefix string
}

var _ remote.Conn = (*conn)(nil)

// Dial connects to u.Host over SSH and opens an SFTP session. The share
// name becomes the path prefix of the connection; the URL sub-path is the
// caller's mount root and stays out of the prefix.
func Dial(ctx context.Context, u *remote.URL, user, password string) (remote.Conn, error) {
	cfg := &ssh.ClientConfig{
		User: user,
		Auth: removeNils([]ssh.AuthMethod{
			passwordAuth(password),
			sshAgent(),
			publicKeyFile("~/.ssh/id_ed25519"),
			publicKeyFile("~/.ssh/id_rsa"),
		}),
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}
	client, err := ssh.Dial("tcp", u.Addr("22"), cfg)
	if err != nil {
		return nil, err
	}
	sftpConn, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &conn{client: client, sftp: sftpConn, prefix: "/" + u.Share}, nil
}

func (c *conn) join(path string) string {
	return gopath.Join(c.prefix, path)
}

func (c *conn) Open(ctx context.Context, path string, flag int) (remote.File, error) {
	h, err := c.sftp.OpenFile(c.join(path), flag)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (c *conn) Create(ctx context.Context, path string, excl bool) (remote.File, error) {
	flag := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if excl {
		flag = os.O_RDWR | os.O_CREATE | os.O_EXCL
	}
	h, err := c.sftp.OpenFile(c.join(path), flag)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (c *conn) OpenDir(ctx context.Context, path string) (remote.Dir, error) {
	infos, err := c.sftp.ReadDir(c.join(path))
	if err != nil {
		return nil, err
	}
	return remote.NewInfoDir(infos), nil
}

func (c *conn) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	return c.sftp.Stat(c.join(path))
}

func (c *conn) Mkdir(ctx context.Context, path string) error {
	return c.sftp.Mkdir(c.join(path))
}

func (c *conn) Rmdir(ctx context.Context, path string) error {
	return c.sftp.RemoveDirectory(c.join(path))
}

func (c *conn) Remove(ctx context.Context, path string) error {
	return c.sftp.Remove(c.join(path))
}

func (c *conn) Rename(ctx context.Context, oldpath, newpath string) error {
	return c.sftp.Rename(c.join(oldpath), c.join(newpath))
}

func (c *conn) Chmod(ctx context.Context, path string, mode fs.FileMode) error {
	return c.sftp.Chmod(c.join(path), mode)
}

func (c *conn) Chtimes(ctx context.Context, path string, mtime time.Time) error {
	return c.sftp.Chtimes(c.join(path), mtime, mtime)
}

func (c *conn) Statfs(ctx context.Context, path string) (total, free uint64, err error) {
	st, err := c.sftp.StatVFS(c.join(path))
	if err != nil {
		return 0, 0, err
	}
	return st.Frsize * st.Blocks, st.Frsize * st.Bavail, nil
}

func (c *conn) Ping(ctx context.Context) error {
	_, err := c.sftp.Getwd()
	return err
}

func (c *conn) Close() error {
	err := c.sftp.Close()
	if cerr := c.client.Close(); err == nil {
		err = cerr
	}
	return err
}

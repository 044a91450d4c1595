package server

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/yunkya2/smbfs-x68k/proto"
	"github.com/yunkya2/smbfs-x68k/smbfs"
)

// Client drives the control channel of a running daemon, on behalf of the
// mount utility.
type Client struct {
	conn net.Conn
}

// DialControl connects to a daemon's control channel and verifies its
// signature.
func DialControl(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn}
	name, err := c.GetName()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("control handshake: %w", err)
	}
	if name != smbfs.Signature {
		conn.Close()
		return nil, fmt.Errorf("not a filesystem daemon at %s (signature %q)", addr, name)
	}
	return c, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) call(req *proto.Request) (*proto.Response, error) {
	c.conn.SetDeadline(time.Now().Add(30 * time.Second))
	defer c.conn.SetDeadline(time.Time{})

	if err := proto.WriteFrame(c.conn, req.Encode()); err != nil {
		return nil, err
	}
	body, err := proto.ReadFrame(c.conn)
	if err != nil {
		return nil, err
	}
	var resp proto.Response
	if err := resp.Decode(body); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) control(unit int, cmd int, data []byte) (*proto.Response, error) {
	req := &proto.Request{
		Op:     byte(smbfs.OpIoctl),
		Unit:   byte(unit),
		Status: uint32(int32(cmd)),
		Data:   data,
	}
	return c.call(req)
}

// GetName fetches the daemon signature.
func (c *Client) GetName() (string, error) {
	resp, err := c.control(0, smbfs.CmdGetName, nil)
	if err != nil {
		return "", err
	}
	if resp.Status < 0 {
		return "", controlError(resp.Status)
	}
	return string(resp.Data), nil
}

// Mount mounts a share on a drive unit. A NeedPasswordError result
// carries the username the daemon resolved, so the caller can prompt and
// retry.
func (c *Client) Mount(unit int, spec smbfs.MountSpec) error {
	data, err := proto.EncodeMountArgs(spec)
	if err != nil {
		return err
	}
	resp, err := c.control(unit, smbfs.CmdMount, data)
	if err != nil {
		return err
	}
	if resp.Status == -int32(syscall.EAGAIN) {
		user, _ := proto.NewDecoder(resp.Data).ReadString(256)
		return &smbfs.NeedPasswordError{Username: user}
	}
	if resp.Status < 0 {
		return controlError(resp.Status)
	}
	return nil
}

// Unmount unmounts one drive unit.
func (c *Client) Unmount(unit int) error {
	resp, err := c.control(unit, smbfs.CmdUnmount, nil)
	if err != nil {
		return err
	}
	if resp.Status < 0 {
		return controlError(resp.Status)
	}
	return nil
}

// UnmountAll unmounts every drive unit, or none if any is busy.
func (c *Client) UnmountAll() error {
	resp, err := c.control(0, smbfs.CmdUnmountAll, nil)
	if err != nil {
		return err
	}
	if resp.Status < 0 {
		return controlError(resp.Status)
	}
	return nil
}

// GetMount describes the mount on a drive unit.
func (c *Client) GetMount(unit int) (smbfs.MountInfo, error) {
	resp, err := c.control(unit, smbfs.CmdGetMount, nil)
	if err != nil {
		return smbfs.MountInfo{}, err
	}
	if resp.Status < 0 {
		return smbfs.MountInfo{}, controlError(resp.Status)
	}
	return proto.DecodeMountInfo(resp.Data)
}

// GetMemInfo reports the daemon's memory usage.
func (c *Client) GetMemInfo() (smbfs.MemInfo, error) {
	resp, err := c.control(0, smbfs.CmdGetMemInfo, nil)
	if err != nil {
		return smbfs.MemInfo{}, err
	}
	if resp.Status < 0 {
		return smbfs.MemInfo{}, controlError(resp.Status)
	}
	return proto.DecodeMemInfo(resp.Data)
}

// controlError turns a negative control status back into the driver's
// sentinel errors where they exist.
func controlError(status int32) error {
	switch syscall.Errno(-status) {
	case syscall.EEXIST:
		return smbfs.ErrAlreadyMounted
	case syscall.ENOENT:
		return smbfs.ErrNotMounted
	case syscall.EBUSY:
		return smbfs.ErrBusy
	default:
		return syscall.Errno(-status)
	}
}

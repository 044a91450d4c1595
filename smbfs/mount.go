package smbfs

import (
	"context"
	"fmt"
	"runtime"
	"syscall"

	"github.com/yunkya2/smbfs-x68k/cred"
	"github.com/yunkya2/smbfs-x68k/remote"
)

// Signature identifies the driver on the control channel, 8 bytes.
const Signature = "SMBFSv1 "

// Control command codes carried in the ioctl status word.
const (
	CmdGetName    = -1
	CmdNop        = 0
	CmdMount      = 1
	CmdUnmount    = 2
	CmdUnmountAll = 3
	CmdGetMount   = 4
	CmdGetMemInfo = 5
)

// MountSpec is a mount request from the control channel. Username and
// Password override whatever the URL carries; Env is the environment of
// the mounting process, consulted for a credential file.
type MountSpec struct {
	URL      string
	Username string
	Password string
	Env      []string
}

// MountInfo describes an active mount.
type MountInfo struct {
	Server   string
	Share    string
	RootPath string
	Username string
}

// MemInfo reports driver memory usage.
type MemInfo struct {
	Total uint32
	Used  uint32
}

// NeedPasswordError reports that no password could be resolved for a
// mount. Username carries the resolved user so the client can prompt and
// retry with an explicit password.
type NeedPasswordError struct {
	Username string
}

func (e *NeedPasswordError) Error() string {
	return fmt.Sprintf("password required for user %q", e.Username)
}

// Mount connects a drive unit to the share named by spec.URL. Credentials
// resolve in order: explicit spec fields, the URL, then the credential
// file named by NTLM_USER_FILE in spec.Env. Without a password the mount
// fails with NeedPasswordError and leaves the unit untouched.
func (d *Driver) Mount(ctx context.Context, unit int, spec MountSpec) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, err := d.slot(unit)
	if err != nil {
		return err
	}
	if slot.conn != nil {
		return ErrAlreadyMounted
	}

	u, err := remote.Parse(spec.URL)
	if err != nil {
		return fmt.Errorf("parse mount url: %w", err)
	}

	user := u.User
	if spec.Username != "" {
		user = spec.Username
	}
	password := spec.Password
	if password == "" {
		password = u.Password
	}
	if password == "" {
		if c, ok := cred.Lookup(spec.Env, user); ok {
			if user == "" {
				user = c.User
			}
			password = c.Password
			if u.Domain == "" {
				u.Domain = c.Domain
			}
		}
	}
	if password == "" {
		return &NeedPasswordError{Username: user}
	}

	conn, err := d.dial(ctx, u, user, password)
	if err != nil {
		return fmt.Errorf("connect %s: %w", u.Host, err)
	}

	if u.Path != "" {
		info, err := conn.Stat(ctx, u.Path)
		if err != nil || !info.IsDir() {
			conn.Close()
			return fmt.Errorf("mount path %q: %w", u.Path, syscall.ENOTDIR)
		}
	}

	slot.conn = conn
	slot.root = u.Path
	slot.url = u
	slot.user = user
	d.log.Info("mounted", "unit", unit, "server", u.Host, "share", u.Share, "path", u.Path, "user", user)
	return nil
}

// Unmount disconnects a drive unit. It fails with ErrBusy while the busy
// predicate holds; on success every open file and search on the unit is
// released.
func (d *Driver) Unmount(unit int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, err := d.slot(unit)
	if err != nil {
		return err
	}
	if slot.conn == nil {
		return ErrNotMounted
	}
	if d.busy(unit) {
		return ErrBusy
	}
	d.unmountLocked(unit)
	return nil
}

// UnmountAll disconnects every mounted unit, or none if any is busy.
func (d *Driver) UnmountAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for unit := 0; unit < d.units; unit++ {
		if d.slots[unit].conn != nil && d.busy(unit) {
			return ErrBusy
		}
	}
	for unit := 0; unit < d.units; unit++ {
		if d.slots[unit].conn != nil {
			d.unmountLocked(unit)
		}
	}
	return nil
}

func (d *Driver) unmountLocked(unit int) {
	d.freeFiles(unit)
	d.freeSearches(unit)
	slot := &d.slots[unit]
	if err := slot.conn.Close(); err != nil {
		d.log.Warn("close connection", "unit", unit, "error", err)
	}
	*slot = mountSlot{}
	d.log.Info("unmounted", "unit", unit)
}

// Describe reports the active mount of a unit.
func (d *Driver) Describe(unit int) (MountInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, err := d.slot(unit)
	if err != nil {
		return MountInfo{}, err
	}
	if slot.conn == nil {
		return MountInfo{}, ErrNotMounted
	}
	return MountInfo{
		Server:   slot.url.Host,
		Share:    slot.url.Share,
		RootPath: slot.root,
		Username: slot.user,
	}, nil
}

// MemUsage reports process memory usage for the control channel.
func (d *Driver) MemUsage() MemInfo {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	total := ms.Sys
	used := ms.HeapAlloc
	if total > 0xffffffff {
		total = 0xffffffff
	}
	if used > 0xffffffff {
		used = 0xffffffff
	}
	return MemInfo{Total: uint32(total), Used: uint32(used)}
}

package smbfs

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/yunkya2/smbfs-x68k/human"
	"github.com/yunkya2/smbfs-x68k/remote"
)

func (d *Driver) opCreate(ctx context.Context, req *Request) int32 {
	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return int32(derr)
	}
	path, err := d.hostPath(slot, &req.Name, true)
	if err != nil {
		return int32(human.ErrNoDir)
	}
	if _, ok := d.files[req.Token]; !ok && len(d.files) >= d.maxFiles {
		return int32(human.ErrNoMemory)
	}

	excl := req.Status == 0
	f, err := slot.conn.Create(ctx, path, excl)
	if err != nil {
		if dosError(err) == human.ErrDiskFull {
			return int32(human.ErrDirFull)
		}
		return int32(dosError(err))
	}

	d.insertFile(req.Unit, req.Token, f, path)
	req.FCB.Size = 0
	return 0
}

func (d *Driver) opOpen(ctx context.Context, req *Request) int32 {
	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return int32(derr)
	}
	path, err := d.hostPath(slot, &req.Name, true)
	if err != nil {
		return int32(human.ErrNoDir)
	}

	var flag int
	switch req.FCB.Mode {
	case 0:
		flag = os.O_RDONLY
	case 1:
		flag = os.O_WRONLY
	case 2:
		flag = os.O_RDWR
	default:
		return int32(human.ErrBadArg)
	}
	if _, ok := d.files[req.Token]; !ok && len(d.files) >= d.maxFiles {
		return int32(human.ErrNoMemory)
	}

	f, err := slot.conn.Open(ctx, path, flag)
	if err != nil {
		if dosError(err) == human.ErrBadParam {
			return int32(human.ErrBadArg)
		}
		return int32(dosError(err))
	}

	d.insertFile(req.Unit, req.Token, f, path)
	size, err := f.Seek(0, io.SeekEnd)
	if err == nil {
		req.FCB.Size = uint32(size)
		f.Seek(0, io.SeekStart)
	}
	return 0
}

// insertFile binds an open remote file to a host FCB token. A token still
// bound to an earlier file closes that file first, so a reused FCB cannot
// leak its remote handle.
func (d *Driver) insertFile(unit int, token uint32, f remote.File, path string) {
	if old, ok := d.files[token]; ok {
		old.f.Close()
	}
	d.files[token] = &openFile{unit: unit, f: f, pos: 0, path: path}
}

func (d *Driver) opClose(_ context.Context, req *Request) int32 {
	fi, ok := d.files[req.Token]
	if !ok {
		return int32(human.ErrBadHandle)
	}
	err := fi.f.Close()
	delete(d.files, req.Token)
	if err != nil {
		return int32(dosError(err))
	}
	return 0
}

func (d *Driver) opRead(_ context.Context, req *Request) int32 {
	fi, ok := d.files[req.Token]
	if !ok {
		return int32(human.ErrBadHandle)
	}

	pp := &req.FCB.Pos
	if fi.pos != *pp {
		if _, err := fi.f.Seek(int64(*pp), io.SeekStart); err != nil {
			return int32(dosError(err))
		}
		fi.pos = *pp
	}

	n := 0
	for n < len(req.Data) {
		m, err := fi.f.Read(req.Data[n:])
		n += m
		if errors.Is(err, io.EOF) || (err == nil && m == 0) {
			break
		}
		if err != nil {
			return int32(dosError(err))
		}
	}

	fi.pos += uint32(n)
	*pp = fi.pos
	return int32(n)
}

func (d *Driver) opWrite(_ context.Context, req *Request) int32 {
	fi, ok := d.files[req.Token]
	if !ok {
		return int32(human.ErrBadHandle)
	}

	pp := &req.FCB.Pos
	sp := &req.FCB.Size
	if len(req.Data) == 0 {
		// A zero-length write truncates the file at the current pointer.
		if err := fi.f.Truncate(int64(*pp)); err != nil {
			return int32(dosError(err))
		}
		*sp = *pp
		return 0
	}

	if fi.pos != *pp {
		if _, err := fi.f.Seek(int64(*pp), io.SeekStart); err != nil {
			return int32(dosError(err))
		}
		fi.pos = *pp
	}
	n, err := fi.f.Write(req.Data)
	if err != nil {
		return int32(dosError(err))
	}

	fi.pos += uint32(n)
	*pp = fi.pos
	if *pp > *sp {
		*sp = *pp
	}
	return int32(n)
}

// opSeek is a pure FCB computation: the remote pointer moves lazily the
// next time the file is read or written.
func (d *Driver) opSeek(req *Request) int32 {
	offset := int32(req.Status)
	pos := req.FCB.Pos
	size := req.FCB.Size

	var base uint32
	switch req.Attr {
	case 0:
		base = 0
	case 1:
		base = pos
	default:
		base = size
	}
	npos := base + uint32(offset)
	if npos > size {
		return int32(human.ErrCantSeek)
	}
	req.FCB.Pos = npos
	return int32(npos)
}

func (d *Driver) opFiledate(ctx context.Context, req *Request) int32 {
	fi, ok := d.files[req.Token]
	if !ok {
		return int32(human.ErrBadHandle)
	}

	if req.Status == 0 {
		info, err := fi.f.Stat()
		if err != nil {
			return int32(dosError(err))
		}
		date, tod := human.DOSDateTime(info.ModTime())
		return int32(uint32(date)<<16 | uint32(tod))
	}

	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return int32(derr)
	}
	t := human.FromDOSDateTime(uint16(req.Status>>16), uint16(req.Status))
	if err := slot.conn.Chtimes(ctx, fi.path, t); err != nil {
		return int32(dosError(err))
	}
	return 0
}

func (d *Driver) freeFiles(unit int) {
	for token, fi := range d.files {
		if fi.unit == unit {
			fi.f.Close()
			delete(d.files, token)
		}
	}
}

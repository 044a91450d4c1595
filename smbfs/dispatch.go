package smbfs

import (
	"context"
	"encoding/binary"
	"errors"
	"io/fs"

	"github.com/yunkya2/smbfs-x68k/human"
)

// Op is a Human68k block-device driver command code.
type Op byte

const (
	OpInit       Op = 0x40
	OpChdir      Op = 0x41
	OpMkdir      Op = 0x42
	OpRmdir      Op = 0x43
	OpRename     Op = 0x44
	OpDelete     Op = 0x45
	OpChmod      Op = 0x46
	OpFiles      Op = 0x47
	OpNfiles     Op = 0x48
	OpCreate     Op = 0x49
	OpOpen       Op = 0x4a
	OpClose      Op = 0x4b
	OpRead       Op = 0x4c
	OpWrite      Op = 0x4d
	OpSeek       Op = 0x4e
	OpFiledate   Op = 0x4f
	OpDiskFree   Op = 0x50
	OpDriveCtrl  Op = 0x51
	OpGetDPB     Op = 0x52
	OpDiskRead   Op = 0x53
	OpDiskWrite  Op = 0x54
	OpIoctl      Op = 0x55
	OpAbort      Op = 0x56
	OpMediaCheck Op = 0x57
	OpLock       Op = 0x58
)

var opNames = map[Op]string{
	OpInit: "init", OpChdir: "chdir", OpMkdir: "mkdir", OpRmdir: "rmdir",
	OpRename: "rename", OpDelete: "delete", OpChmod: "chmod",
	OpFiles: "files", OpNfiles: "nfiles", OpCreate: "create",
	OpOpen: "open", OpClose: "close", OpRead: "read", OpWrite: "write",
	OpSeek: "seek", OpFiledate: "filedate", OpDiskFree: "dskfre",
	OpDriveCtrl: "drvctrl", OpGetDPB: "getdpb", OpDiskRead: "diskread",
	OpDiskWrite: "diskwrite", OpIoctl: "ioctl", OpAbort: "abort",
	OpMediaCheck: "mediacheck", OpLock: "lock",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "unknown"
}

// Driver-level failures reported outside the DOS status word.
var (
	// ErrUnsupportedOp reports a command code the driver does not dispatch.
	ErrUnsupportedOp = errors.New("unsupported driver command")
	// ErrNotInstallable reports the init command, which is always rejected:
	// units are attached through the control interface, not CONFIG.SYS.
	ErrNotInstallable = errors.New("driver cannot be installed at init")
)

// DiskFree is the response record of the DSKFRE operation.
type DiskFree struct {
	FreeClusters      uint16
	TotalClusters     uint16
	SectorsPerCluster uint16
	SectorSize        uint16
}

// Request carries one decoded driver call. Which fields are meaningful
// depends on Op; unused fields are zero. Handlers write results back into
// the FCB, Info, Free and Data fields the host passed in.
type Request struct {
	Op   Op
	Unit int

	Attr   byte          // attribute mask / seek whence / drvctrl result
	Name   human.Namebuf // primary name record
	Name2  human.Namebuf // rename destination
	Token  uint32        // host-side FCB or file buffer identity
	Status uint32        // length, packed datetime or mode flag
	Data   []byte        // read/write buffer, length is the requested count

	FCB  *human.FCB       // file-op state owned by the host
	Info *human.FilesInfo // out: files/nfiles entry
	Free *DiskFree        // out: dskfre record
}

// Dispatch runs one request to completion and returns the DOS status word
// (negative on failure). A non-nil error reports a driver-level failure
// that has no DOS code: an unknown command or the init command.
func (d *Driver) Dispatch(ctx context.Context, req *Request) (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var res int32
	switch req.Op {
	case OpInit:
		return 0, ErrNotInstallable
	case OpChdir:
		res = d.opChdir(ctx, req)
	case OpMkdir:
		res = d.opMkdir(ctx, req)
	case OpRmdir:
		res = d.opRmdir(ctx, req)
	case OpRename:
		res = d.opRename(ctx, req)
	case OpDelete:
		res = d.opDelete(ctx, req)
	case OpChmod:
		res = d.opChmod(ctx, req)
	case OpFiles:
		res = d.opFiles(ctx, req)
	case OpNfiles:
		res = d.opNfiles(ctx, req)
	case OpCreate:
		res = d.opCreate(ctx, req)
	case OpOpen:
		res = d.opOpen(ctx, req)
	case OpClose:
		res = d.opClose(ctx, req)
	case OpRead:
		res = d.opRead(ctx, req)
	case OpWrite:
		res = d.opWrite(ctx, req)
	case OpSeek:
		res = d.opSeek(req)
	case OpFiledate:
		res = d.opFiledate(ctx, req)
	case OpDiskFree:
		res = d.opDiskFree(ctx, req)
	case OpDriveCtrl:
		// Report the unit present and ready.
		req.Attr = 0x02
	case OpGetDPB:
		res = d.opGetDPB(req)
	case OpDiskRead, OpDiskWrite, OpAbort, OpMediaCheck, OpLock:
		// Sector-level and media commands do not apply to a network drive.
	case OpIoctl:
		// Control traffic is routed to the typed control methods before
		// dispatch; a raw ioctl reaching this point is unsupported.
		res = int32(human.ErrCantIoctl)
	default:
		return 0, ErrUnsupportedOp
	}

	d.log.Debug("dispatch", "op", req.Op.String(), "unit", req.Unit, "status", res)
	return res, nil
}

func (d *Driver) opChdir(ctx context.Context, req *Request) int32 {
	// Changing to the root directory always succeeds.
	if req.Name.IsRoot() {
		return 0
	}
	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return int32(derr)
	}
	path, err := d.hostPath(slot, &req.Name, false)
	if err != nil {
		return int32(human.ErrNoDir)
	}
	info, err := slot.conn.Stat(ctx, path)
	if err != nil || !info.IsDir() {
		return int32(human.ErrNoDir)
	}
	return 0
}

func (d *Driver) opMkdir(ctx context.Context, req *Request) int32 {
	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return int32(derr)
	}
	path, err := d.hostPath(slot, &req.Name, true)
	if err != nil {
		return int32(human.ErrNoDir)
	}
	if err := slot.conn.Mkdir(ctx, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return int32(human.ErrDirExists)
		}
		return int32(dosError(err))
	}
	return 0
}

func (d *Driver) opRmdir(ctx context.Context, req *Request) int32 {
	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return int32(derr)
	}
	path, err := d.hostPath(slot, &req.Name, true)
	if err != nil {
		return int32(human.ErrNoDir)
	}
	if err := slot.conn.Rmdir(ctx, path); err != nil {
		if dosError(err) == human.ErrBadParam {
			return int32(human.ErrIsCurDir)
		}
		return int32(dosError(err))
	}
	return 0
}

func (d *Driver) opRename(ctx context.Context, req *Request) int32 {
	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return int32(derr)
	}
	from, err := d.hostPath(slot, &req.Name, true)
	if err != nil {
		return int32(human.ErrNoDir)
	}
	to, err := d.hostPath(slot, &req.Name2, true)
	if err != nil {
		return int32(human.ErrNoDir)
	}
	if err := slot.conn.Rename(ctx, from, to); err != nil {
		if dosError(err) == human.ErrNotEmpty {
			return int32(human.ErrCantRename)
		}
		return int32(dosError(err))
	}
	return 0
}

func (d *Driver) opDelete(ctx context.Context, req *Request) int32 {
	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return int32(derr)
	}
	path, err := d.hostPath(slot, &req.Name, true)
	if err != nil {
		return int32(human.ErrNoDir)
	}
	if err := slot.conn.Remove(ctx, path); err != nil {
		return int32(dosError(err))
	}
	return 0
}

func (d *Driver) opChmod(ctx context.Context, req *Request) int32 {
	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return int32(derr)
	}
	path, err := d.hostPath(slot, &req.Name, true)
	if err != nil {
		return int32(human.ErrNoDir)
	}
	info, err := slot.conn.Stat(ctx, path)
	if err != nil {
		return int32(dosError(err))
	}
	if req.Attr == 0xff {
		return int32(fileAttr(info))
	}
	mode := info.Mode().Perm()
	if req.Attr&human.AttrReadOnly != 0 {
		mode &^= 0222
	} else {
		mode |= 0200
	}
	if err := slot.conn.Chmod(ctx, path, mode); err != nil {
		return int32(dosError(err))
	}
	return 0
}

func (d *Driver) opDiskFree(ctx context.Context, req *Request) int32 {
	if req.Free != nil {
		*req.Free = DiskFree{}
	}
	slot, err := d.slot(req.Unit)
	if err != nil || slot.conn == nil {
		return 0
	}
	total, free, serr := slot.conn.Statfs(ctx, slot.root)
	if serr != nil {
		return 0
	}
	if total > 0x7fffffff {
		total = 0x7fffffff
	}
	if free > 0x7fffffff {
		free = 0x7fffffff
	}
	if req.Free != nil {
		// Counts are in 32KiB clusters so 16-bit fields cover 2GiB.
		req.Free.FreeClusters = uint16(free / 32768)
		req.Free.TotalClusters = uint16(total / 32768)
		req.Free.SectorsPerCluster = 128
		req.Free.SectorSize = 1024
	}
	return int32(free)
}

func (d *Driver) opGetDPB(req *Request) int32 {
	if len(req.Data) < 16 {
		return 0
	}
	for i := range req.Data[:16] {
		req.Data[i] = 0
	}
	// Fake geometry: 512-byte sectors, one sector per cluster.
	binary.BigEndian.PutUint16(req.Data[0:2], 512)
	req.Data[2] = 1
	return 0
}

// fileAttr derives the Human68k attribute byte of a remote entry.
func fileAttr(info fs.FileInfo) byte {
	var a byte
	if info.IsDir() {
		a |= human.AttrDir
	} else {
		a |= human.AttrArchive
	}
	if info.Mode().Perm()&0200 == 0 {
		a |= human.AttrReadOnly
	}
	return a
}

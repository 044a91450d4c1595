package smbfs

import (
	"context"
	"errors"
	"testing"

	"github.com/yunkya2/smbfs-x68k/human"
)

func TestInitRejected(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	_, err := d.Dispatch(context.Background(), &Request{Op: OpInit})
	if !errors.Is(err, ErrNotInstallable) {
		t.Errorf("init => %v, expected ErrNotInstallable", err)
	}
}

func TestUnknownOp(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	_, err := d.Dispatch(context.Background(), &Request{Op: Op(0x7f)})
	if !errors.Is(err, ErrUnsupportedOp) {
		t.Errorf("unknown op => %v, expected ErrUnsupportedOp", err)
	}
}

func TestDriveCtrl(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	req := &Request{Op: OpDriveCtrl, Unit: 0}
	if status := dispatch(t, d, req); status != 0 {
		t.Errorf("drvctrl => %d", status)
	}
	if req.Attr != 0x02 {
		t.Errorf("drvctrl attr %#x, expected 0x02", req.Attr)
	}
}

func TestGetDPB(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	req := &Request{Op: OpGetDPB, Unit: 0, Data: make([]byte, 16)}
	if status := dispatch(t, d, req); status != 0 {
		t.Fatalf("getdpb => %d", status)
	}
	if req.Data[0] != 0x02 || req.Data[1] != 0x00 {
		t.Errorf("sector size bytes % x, expected 02 00", req.Data[0:2])
	}
	if req.Data[2] != 1 {
		t.Errorf("cluster size %d, expected 1", req.Data[2])
	}
	for i := 3; i < 16; i++ {
		if req.Data[i] != 0 {
			t.Errorf("byte %d = %#x, expected 0", i, req.Data[i])
		}
	}
}

func TestDiskFree(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	// The in-memory share reports 2GiB total, 1GiB free.
	free := &DiskFree{}
	req := &Request{Op: OpDiskFree, Unit: 0, Free: free}
	status := dispatch(t, d, req)
	if status != 1<<30 {
		t.Errorf("dskfre => %d, expected %d", status, 1<<30)
	}
	want := DiskFree{
		FreeClusters:      uint16((1 << 30) / 32768),
		TotalClusters:     uint16(0x7fffffff / 32768),
		SectorsPerCluster: 128,
		SectorSize:        1024,
	}
	if *free != want {
		t.Errorf("dskfre record %+v, expected %+v", free, want)
	}
}

func TestDiskFreeUnmounted(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	free := &DiskFree{FreeClusters: 9, TotalClusters: 9}
	req := &Request{Op: OpDiskFree, Unit: 1, Free: free}
	if status := dispatch(t, d, req); status != 0 {
		t.Errorf("dskfre of free unit => %d, expected 0", status)
	}
	if *free != (DiskFree{}) {
		t.Errorf("dskfre of free unit left record %+v", free)
	}
}

func TestMediaOpsSucceed(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	for _, op := range []Op{OpDiskRead, OpDiskWrite, OpAbort, OpMediaCheck, OpLock} {
		req := &Request{Op: op, Unit: 0}
		if status := dispatch(t, d, req); status != 0 {
			t.Errorf("%s => %d, expected 0", op, status)
		}
	}
}

func TestChdir(t *testing.T) {
	d, _, _ := newTestDriver(t, map[string]string{
		"docs":     "<dir>",
		"file.txt": "x",
	})

	nb := human.Namebuf{}
	nb.SetPath("docs")
	if status := dispatch(t, d, &Request{Op: OpChdir, Unit: 0, Name: nb}); status != 0 {
		t.Errorf("chdir docs => %d", status)
	}

	nb.SetPath("nosuch")
	wantStatus(t, d, &Request{Op: OpChdir, Unit: 0, Name: nb}, human.ErrNoDir)

	// A file is not a directory.
	nb.SetPath("file.txt")
	wantStatus(t, d, &Request{Op: OpChdir, Unit: 0, Name: nb}, human.ErrNoDir)
}

func TestMkdirRmdir(t *testing.T) {
	d, _, mem := newTestDriver(t, map[string]string{"docs": "<dir>"})

	nb := nameRecord("newdir", "")
	if status := dispatch(t, d, &Request{Op: OpMkdir, Unit: 0, Name: nb}); status != 0 {
		t.Fatalf("mkdir => %d", status)
	}
	if info, err := mem.Stat("newdir"); err != nil || !info.IsDir() {
		t.Errorf("newdir missing after mkdir: %v", err)
	}

	wantStatus(t, d, &Request{Op: OpMkdir, Unit: 0, Name: nb}, human.ErrDirExists)

	if status := dispatch(t, d, &Request{Op: OpRmdir, Unit: 0, Name: nb}); status != 0 {
		t.Errorf("rmdir => %d", status)
	}
	if _, err := mem.Stat("newdir"); err == nil {
		t.Errorf("newdir survived rmdir")
	}
}

func TestRmdirNotEmpty(t *testing.T) {
	d, _, _ := newTestDriver(t, map[string]string{
		"full":          "<dir>",
		"full/file.txt": "x",
	})

	nb := nameRecord("full", "")
	wantStatus(t, d, &Request{Op: OpRmdir, Unit: 0, Name: nb}, human.ErrNotEmpty)
}

func TestRename(t *testing.T) {
	d, _, mem := newTestDriver(t, map[string]string{"old.txt": "data"})

	req := &Request{
		Op: OpRename, Unit: 0,
		Name:  nameRecord("old", "txt"),
		Name2: nameRecord("new", "txt"),
	}
	if status := dispatch(t, d, req); status != 0 {
		t.Fatalf("rename => %d", status)
	}
	if _, err := mem.Stat("new.txt"); err != nil {
		t.Errorf("new.txt missing after rename: %v", err)
	}
	if _, err := mem.Stat("old.txt"); err == nil {
		t.Errorf("old.txt survived rename")
	}
}

func TestDelete(t *testing.T) {
	d, _, mem := newTestDriver(t, map[string]string{"doomed.txt": "x"})

	nb := nameRecord("doomed", "txt")
	if status := dispatch(t, d, &Request{Op: OpDelete, Unit: 0, Name: nb}); status != 0 {
		t.Fatalf("delete => %d", status)
	}
	if _, err := mem.Stat("doomed.txt"); err == nil {
		t.Errorf("doomed.txt survived delete")
	}

	wantStatus(t, d, &Request{Op: OpDelete, Unit: 0, Name: nb}, human.ErrNoEntry)
}

func TestChmodReadsAttr(t *testing.T) {
	d, _, _ := newTestDriver(t, map[string]string{
		"file.txt": "x",
		"docs":     "<dir>",
	})

	req := &Request{Op: OpChmod, Unit: 0, Attr: 0xff, Name: nameRecord("file", "txt")}
	if got := dispatch(t, d, req); got != int32(human.AttrArchive) {
		t.Errorf("chmod read of file => %#x, expected archive", got)
	}

	req = &Request{Op: OpChmod, Unit: 0, Attr: 0xff, Name: nameRecord("docs", "")}
	if got := dispatch(t, d, req); got != int32(human.AttrDir) {
		t.Errorf("chmod read of dir => %#x, expected dir", got)
	}

	req = &Request{Op: OpChmod, Unit: 0, Attr: 0xff, Name: nameRecord("nosuch", "")}
	wantStatus(t, d, req, human.ErrNoEntry)
}

func TestChmodSet(t *testing.T) {
	d, _, _ := newTestDriver(t, map[string]string{"file.txt": "x"})

	req := &Request{
		Op: OpChmod, Unit: 0,
		Attr: human.AttrReadOnly | human.AttrArchive,
		Name: nameRecord("file", "txt"),
	}
	if status := dispatch(t, d, req); status != 0 {
		t.Errorf("chmod set => %d", status)
	}
}

func TestIoctlOutsideControl(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	req := &Request{Op: OpIoctl, Unit: 0}
	wantStatus(t, d, req, human.ErrCantIoctl)
}

package smbfs

import (
	"bytes"
	"testing"

	"github.com/go-git/go-billy/v5/util"

	"github.com/yunkya2/smbfs-x68k/human"
)

func TestCreateWriteReadBack(t *testing.T) {
	d, _, mem := newTestDriver(t, nil)

	fcb := &human.FCB{}
	nb := nameRecord("hello", "txt")
	req := &Request{Op: OpCreate, Unit: 0, Name: nb, Token: 1, Status: 1, FCB: fcb}
	if status := dispatch(t, d, req); status != 0 {
		t.Fatalf("create => %d", status)
	}
	if fcb.Size != 0 {
		t.Errorf("created file size %d, expected 0", fcb.Size)
	}

	payload := []byte("hello, world")
	wr := &Request{Op: OpWrite, Unit: 0, Token: 1, Data: payload, FCB: fcb}
	if status := dispatch(t, d, wr); status != int32(len(payload)) {
		t.Fatalf("write => %d", status)
	}
	if fcb.Pos != uint32(len(payload)) || fcb.Size != uint32(len(payload)) {
		t.Errorf("after write pos=%d size=%d", fcb.Pos, fcb.Size)
	}

	cl := &Request{Op: OpClose, Unit: 0, Token: 1, FCB: fcb}
	if status := dispatch(t, d, cl); status != 0 {
		t.Fatalf("close => %d", status)
	}
	if len(d.files) != 0 {
		t.Errorf("%d open files after close", len(d.files))
	}

	got, err := util.ReadFile(mem, "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("file content %q, expected %q", got, payload)
	}
}

func TestCreateExclusive(t *testing.T) {
	d, _, _ := newTestDriver(t, map[string]string{"exists.txt": "old"})

	fcb := &human.FCB{}
	nb := nameRecord("exists", "txt")
	req := &Request{Op: OpCreate, Unit: 0, Name: nb, Token: 1, Status: 0, FCB: fcb}
	wantStatus(t, d, req, human.ErrFileExists)
	if len(d.files) != 0 {
		t.Errorf("failed create left %d open files", len(d.files))
	}

	// A nonzero status word permits overwriting.
	req = &Request{Op: OpCreate, Unit: 0, Name: nb, Token: 1, Status: 1, FCB: fcb}
	if status := dispatch(t, d, req); status != 0 {
		t.Errorf("overwriting create => %d", status)
	}
}

func TestOpenModesAndSize(t *testing.T) {
	d, _, _ := newTestDriver(t, map[string]string{"data.bin": "0123456789"})

	nb := nameRecord("data", "bin")
	for mode := byte(0); mode <= 2; mode++ {
		fcb := &human.FCB{Mode: mode}
		req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: uint32(mode) + 1, FCB: fcb}
		if status := dispatch(t, d, req); status != 0 {
			t.Errorf("open mode %d => %d", mode, status)
			continue
		}
		if fcb.Size != 10 {
			t.Errorf("open mode %d size %d, expected 10", mode, fcb.Size)
		}
	}

	fcb := &human.FCB{Mode: 3}
	req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: 9, FCB: fcb}
	wantStatus(t, d, req, human.ErrBadArg)
}

func TestOpenMissingFile(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	fcb := &human.FCB{}
	nb := nameRecord("nosuch", "txt")
	req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: 1, FCB: fcb}
	wantStatus(t, d, req, human.ErrNoEntry)
}

func TestReadSequentialSkipsSeek(t *testing.T) {
	d, c, _ := newTestDriver(t, map[string]string{"data.bin": "0123456789abcdef"})

	fcb := &human.FCB{}
	nb := nameRecord("data", "bin")
	req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: 1, FCB: fcb}
	if status := dispatch(t, d, req); status != 0 {
		t.Fatalf("open => %d", status)
	}
	base := c.seeks

	var got []byte
	for i := 0; i < 4; i++ {
		rd := &Request{Op: OpRead, Unit: 0, Token: 1, Data: make([]byte, 4), FCB: fcb}
		if status := dispatch(t, d, rd); status != 4 {
			t.Fatalf("read %d => %d", i, status)
		}
		got = append(got, rd.Data...)
	}
	if string(got) != "0123456789abcdef" {
		t.Errorf("sequential reads => %q", got)
	}
	if c.seeks != base {
		t.Errorf("%d seeks during sequential reads, expected 0", c.seeks-base)
	}

	// Moving the pointer through the FCB forces exactly one seek.
	fcb.Pos = 2
	rd := &Request{Op: OpRead, Unit: 0, Token: 1, Data: make([]byte, 4), FCB: fcb}
	if status := dispatch(t, d, rd); status != 4 {
		t.Fatalf("read after reposition => %d", status)
	}
	if string(rd.Data) != "2345" {
		t.Errorf("read after reposition => %q", rd.Data)
	}
	if c.seeks != base+1 {
		t.Errorf("%d seeks after reposition, expected 1", c.seeks-base)
	}
}

func TestReadAtEOF(t *testing.T) {
	d, _, _ := newTestDriver(t, map[string]string{"tiny.txt": "ab"})

	fcb := &human.FCB{}
	nb := nameRecord("tiny", "txt")
	req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: 1, FCB: fcb}
	if status := dispatch(t, d, req); status != 0 {
		t.Fatalf("open => %d", status)
	}

	rd := &Request{Op: OpRead, Unit: 0, Token: 1, Data: make([]byte, 8), FCB: fcb}
	if status := dispatch(t, d, rd); status != 2 {
		t.Errorf("short read => %d, expected 2", status)
	}
	rd = &Request{Op: OpRead, Unit: 0, Token: 1, Data: make([]byte, 8), FCB: fcb}
	if status := dispatch(t, d, rd); status != 0 {
		t.Errorf("read at EOF => %d, expected 0", status)
	}
}

func TestZeroWriteTruncates(t *testing.T) {
	d, _, mem := newTestDriver(t, map[string]string{"data.bin": "0123456789"})

	fcb := &human.FCB{Mode: 2}
	nb := nameRecord("data", "bin")
	req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: 1, FCB: fcb}
	if status := dispatch(t, d, req); status != 0 {
		t.Fatalf("open => %d", status)
	}

	fcb.Pos = 4
	wr := &Request{Op: OpWrite, Unit: 0, Token: 1, FCB: fcb}
	if status := dispatch(t, d, wr); status != 0 {
		t.Fatalf("truncating write => %d", status)
	}
	if fcb.Size != 4 {
		t.Errorf("size after truncate %d, expected 4", fcb.Size)
	}

	cl := &Request{Op: OpClose, Unit: 0, Token: 1, FCB: fcb}
	dispatch(t, d, cl)
	got, err := util.ReadFile(mem, "data.bin")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "0123" {
		t.Errorf("truncated content %q", got)
	}
}

func TestSeek(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	var tcs = []struct {
		desc   string
		whence byte
		pos    uint32
		size   uint32
		offset int32
		want   int32
	}{
		{"absolute", 0, 0, 10, 4, 4},
		{"absolute to end", 0, 0, 10, 10, 10},
		{"absolute past end", 0, 0, 10, 11, int32(human.ErrCantSeek)},
		{"absolute negative", 0, 5, 10, -1, int32(human.ErrCantSeek)},
		{"relative forward", 1, 4, 10, 3, 7},
		{"relative back", 1, 4, 10, -4, 0},
		{"relative underflow", 1, 4, 10, -5, int32(human.ErrCantSeek)},
		{"from end", 2, 0, 10, -10, 0},
		{"from end middle", 2, 0, 10, -4, 6},
		{"from end past end", 2, 0, 10, 1, int32(human.ErrCantSeek)},
	}
	for _, tc := range tcs {
		fcb := &human.FCB{Pos: tc.pos, Size: tc.size}
		req := &Request{
			Op: OpSeek, Unit: 0, Attr: tc.whence,
			Status: uint32(tc.offset), FCB: fcb,
		}
		if got := dispatch(t, d, req); got != tc.want {
			t.Errorf("%s: seek => %d, expected %d", tc.desc, got, tc.want)
		}
	}
}

func TestCloseUnknownToken(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	req := &Request{Op: OpClose, Unit: 0, Token: 42, FCB: &human.FCB{}}
	wantStatus(t, d, req, human.ErrBadHandle)
}

func TestFileTokenReuseClosesOld(t *testing.T) {
	d, c, _ := newTestDriver(t, map[string]string{"data.bin": "0123456789"})

	nb := nameRecord("data", "bin")
	for i := 0; i < 100; i++ {
		fcb := &human.FCB{}
		req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: 3, FCB: fcb}
		if status := dispatch(t, d, req); status != 0 {
			t.Fatalf("iteration %d: open => %d", i, status)
		}
	}
	if len(d.files) != 1 {
		t.Errorf("%d open files, expected 1", len(d.files))
	}
	if c.fileCloses != c.fileOpens-1 {
		t.Errorf("opens %d, closes %d: reuse leaks handles", c.fileOpens, c.fileCloses)
	}
}

func TestMaxOpenFiles(t *testing.T) {
	d, _, _ := newTestDriver(t, map[string]string{"data.bin": "x"}, WithMaxOpenFiles(2))

	nb := nameRecord("data", "bin")
	for token := uint32(1); token <= 2; token++ {
		req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: token, FCB: &human.FCB{}}
		if status := dispatch(t, d, req); status != 0 {
			t.Fatalf("open %d => %d", token, status)
		}
	}

	req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: 3, FCB: &human.FCB{}}
	wantStatus(t, d, req, human.ErrNoMemory)

	// A token already in the table is a reuse, not a new slot.
	req = &Request{Op: OpOpen, Unit: 0, Name: nb, Token: 2, FCB: &human.FCB{}}
	if status := dispatch(t, d, req); status != 0 {
		t.Errorf("reuse at capacity => %d", status)
	}
}

func TestFiledateGet(t *testing.T) {
	d, _, _ := newTestDriver(t, map[string]string{"data.bin": "x"})

	fcb := &human.FCB{}
	nb := nameRecord("data", "bin")
	req := &Request{Op: OpOpen, Unit: 0, Name: nb, Token: 1, FCB: fcb}
	if status := dispatch(t, d, req); status != 0 {
		t.Fatalf("open => %d", status)
	}

	fd := &Request{Op: OpFiledate, Unit: 0, Token: 1, Status: 0, FCB: fcb}
	got := dispatch(t, d, fd)
	if got < 0 {
		t.Fatalf("filedate => %d", got)
	}
	date := uint16(uint32(got) >> 16)
	if year := int(date>>9) + 1980; year < 2020 || year > 2100 {
		t.Errorf("filedate year %d out of range", year)
	}
}

func TestFiledateUnknownToken(t *testing.T) {
	d, _, _ := newTestDriver(t, nil)

	req := &Request{Op: OpFiledate, Unit: 0, Token: 9, FCB: &human.FCB{}}
	wantStatus(t, d, req, human.ErrBadHandle)
}

package proto

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/yunkya2/smbfs-x68k/human"
	"github.com/yunkya2/smbfs-x68k/smbfs"
)

func TestRequestRoundTrip(t *testing.T) {
	var name human.Namebuf
	name.SetPath("docs", "work")
	name.SetName("report", "txt")
	var name2 human.Namebuf
	name2.SetPath("docs")
	name2.SetName("report2", "txt")

	in := Request{
		Op:     byte(smbfs.OpRename),
		Unit:   3,
		Attr:   0x20,
		Token:  0xdeadbeef,
		Status: 0x12345678,
		FCB:    human.FCB{Mode: 2, Pos: 100, Size: 4096},
		Name:   name,
		Name2:  name2,
		Data:   []byte("payload"),
	}

	var out Request
	if err := out.Decode(in.Encode()); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in %+v\nout %+v", in, out)
	}
}

func TestRequestRoundTripEmptyData(t *testing.T) {
	in := Request{Op: byte(smbfs.OpDriveCtrl), Unit: 1}
	var out Request
	if err := out.Decode(in.Encode()); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Op != in.Op || out.Unit != in.Unit || len(out.Data) != 0 {
		t.Errorf("round trip => %+v", out)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	var info human.FilesInfo
	info.Attr = human.AttrArchive
	info.Time = 0x1234
	info.Date = 0x5678
	info.Size = 99
	info.SetName([]byte("report.txt"))

	in := Response{
		Status:  -23,
		ErrWord: ErrWordBadCommand,
		FCB:     human.FCB{Mode: 1, Pos: 7, Size: 8},
		Info:    info,
		Free: smbfs.DiskFree{
			FreeClusters:      100,
			TotalClusters:     200,
			SectorsPerCluster: 128,
			SectorSize:        1024,
		},
		Data: []byte{1, 2, 3},
	}

	var out Response
	if err := out.Decode(in.Encode()); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in %+v\nout %+v", in, out)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	body := (&Request{}).Encode()
	body[0] = 0xff
	var req Request
	if err := req.Decode(body); err == nil {
		t.Errorf("decode with bad magic succeeded")
	}
	var resp Response
	if err := resp.Decode(body); err == nil {
		t.Errorf("response decode with bad magic succeeded")
	}
}

func TestDecodeTruncated(t *testing.T) {
	body := (&Request{Data: []byte("abc")}).Encode()
	for _, n := range []int{0, 1, 5, len(body) - 1} {
		var req Request
		if err := req.Decode(body[:n]); err == nil {
			t.Errorf("decode of %d-byte prefix succeeded", n)
		}
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := []byte("frame body")
	if err := WriteFrame(&buf, body); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("ReadFrame => %q, expected %q", got, body)
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], MaxFrame+1)
	if _, err := ReadFrame(bytes.NewReader(hdr[:])); err == nil {
		t.Errorf("oversized frame accepted")
	}
}

func TestReadFrameShortBody(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(10))
	buf.WriteString("short")
	if _, err := ReadFrame(&buf); err == nil {
		t.Errorf("truncated frame accepted")
	}
}

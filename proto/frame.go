package proto

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/yunkya2/smbfs-x68k/human"
	"github.com/yunkya2/smbfs-x68k/smbfs"
)

// Magic opens every frame on the wire.
const Magic uint16 = 0x5836 // "X6"

// MaxFrame bounds a frame body; a read or write carries at most 64KiB of
// data plus the fixed header fields.
const MaxFrame = 1 << 17

// Driver error words reported outside the DOS status, as the device
// driver error register on the host side.
const (
	ErrWordNone           uint16 = 0
	ErrWordBadCommand     uint16 = 0x1003
	ErrWordNotInstallable uint16 = 0x700d
)

const (
	namebufLen   = 88
	filesInfoLen = 32
)

// Request is the wire form of one driver call.
type Request struct {
	Op     byte
	Unit   byte
	Attr   byte
	Token  uint32
	Status uint32
	FCB    human.FCB
	Name   human.Namebuf
	Name2  human.Namebuf
	Data   []byte
}

// Response is the wire form of one driver result.
type Response struct {
	Status  int32
	ErrWord uint16
	FCB     human.FCB
	Info    human.FilesInfo
	Free    smbfs.DiskFree
	Data    []byte
}

func putNamebuf(e *Encoder, nb *human.Namebuf) {
	e.WriteU8(nb.Flag)
	e.WriteU8(nb.Drive)
	e.WriteBytes(nb.Path[:])
	e.WriteBytes(nb.Name1[:])
	e.WriteBytes(nb.Ext[:])
	e.WriteBytes(nb.Name2[:])
}

func getNamebuf(d *Decoder, nb *human.Namebuf) error {
	b, err := d.ReadBytes(namebufLen)
	if err != nil {
		return err
	}
	nb.Flag = b[0]
	nb.Drive = b[1]
	copy(nb.Path[:], b[2:67])
	copy(nb.Name1[:], b[67:75])
	copy(nb.Ext[:], b[75:78])
	copy(nb.Name2[:], b[78:88])
	return nil
}

func putFCB(e *Encoder, f *human.FCB) {
	e.WriteU8(f.Mode)
	e.WriteU32(f.Pos)
	e.WriteU32(f.Size)
}

func getFCB(d *Decoder, f *human.FCB) error {
	var err error
	if f.Mode, err = d.ReadU8(); err != nil {
		return err
	}
	if f.Pos, err = d.ReadU32(); err != nil {
		return err
	}
	f.Size, err = d.ReadU32()
	return err
}

func putFilesInfo(e *Encoder, fi *human.FilesInfo) {
	e.WriteU8(fi.Attr)
	e.WriteU16(fi.Time)
	e.WriteU16(fi.Date)
	e.WriteU32(fi.Size)
	e.WriteBytes(fi.Name[:])
}

func getFilesInfo(d *Decoder, fi *human.FilesInfo) error {
	b, err := d.ReadBytes(filesInfoLen)
	if err != nil {
		return err
	}
	fi.Attr = b[0]
	fi.Time = binary.BigEndian.Uint16(b[1:3])
	fi.Date = binary.BigEndian.Uint16(b[3:5])
	fi.Size = binary.BigEndian.Uint32(b[5:9])
	copy(fi.Name[:], b[9:32])
	return nil
}

// Encode serializes the request body (without the frame length prefix).
func (r *Request) Encode() []byte {
	e := NewEncoder(256 + len(r.Data))
	e.WriteU16(Magic)
	e.WriteU8(r.Op)
	e.WriteU8(r.Unit)
	e.WriteU8(r.Attr)
	e.WriteU32(r.Token)
	e.WriteU32(r.Status)
	putFCB(e, &r.FCB)
	putNamebuf(e, &r.Name)
	putNamebuf(e, &r.Name2)
	e.WriteU32(uint32(len(r.Data)))
	e.WriteBytes(r.Data)
	return e.Bytes()
}

// Decode parses a request body.
func (r *Request) Decode(b []byte) error {
	d := NewDecoder(b)
	magic, err := d.ReadU16()
	if err != nil {
		return err
	}
	if magic != Magic {
		return fmt.Errorf("bad frame magic 0x%04x", magic)
	}
	if r.Op, err = d.ReadU8(); err != nil {
		return err
	}
	if r.Unit, err = d.ReadU8(); err != nil {
		return err
	}
	if r.Attr, err = d.ReadU8(); err != nil {
		return err
	}
	if r.Token, err = d.ReadU32(); err != nil {
		return err
	}
	if r.Status, err = d.ReadU32(); err != nil {
		return err
	}
	if err = getFCB(d, &r.FCB); err != nil {
		return err
	}
	if err = getNamebuf(d, &r.Name); err != nil {
		return err
	}
	if err = getNamebuf(d, &r.Name2); err != nil {
		return err
	}
	n, err := d.ReadU32()
	if err != nil {
		return err
	}
	data, err := d.ReadBytes(int(n))
	if err != nil {
		return err
	}
	r.Data = data
	return nil
}

// Encode serializes the response body.
func (r *Response) Encode() []byte {
	e := NewEncoder(64 + len(r.Data))
	e.WriteU16(Magic)
	e.WriteI32(r.Status)
	e.WriteU16(r.ErrWord)
	putFCB(e, &r.FCB)
	putFilesInfo(e, &r.Info)
	e.WriteU16(r.Free.FreeClusters)
	e.WriteU16(r.Free.TotalClusters)
	e.WriteU16(r.Free.SectorsPerCluster)
	e.WriteU16(r.Free.SectorSize)
	e.WriteU32(uint32(len(r.Data)))
	e.WriteBytes(r.Data)
	return e.Bytes()
}

// Decode parses a response body.
func (r *Response) Decode(b []byte) error {
	d := NewDecoder(b)
	magic, err := d.ReadU16()
	if err != nil {
		return err
	}
	if magic != Magic {
		return fmt.Errorf("bad frame magic 0x%04x", magic)
	}
	if r.Status, err = d.ReadI32(); err != nil {
		return err
	}
	if r.ErrWord, err = d.ReadU16(); err != nil {
		return err
	}
	if err = getFCB(d, &r.FCB); err != nil {
		return err
	}
	if err = getFilesInfo(d, &r.Info); err != nil {
		return err
	}
	if r.Free.FreeClusters, err = d.ReadU16(); err != nil {
		return err
	}
	if r.Free.TotalClusters, err = d.ReadU16(); err != nil {
		return err
	}
	if r.Free.SectorsPerCluster, err = d.ReadU16(); err != nil {
		return err
	}
	if r.Free.SectorSize, err = d.ReadU16(); err != nil {
		return err
	}
	n, err := d.ReadU32()
	if err != nil {
		return err
	}
	data, err := d.ReadBytes(int(n))
	if err != nil {
		return err
	}
	r.Data = data
	return nil
}

// WriteFrame writes a u32 length prefix followed by the body.
func WriteFrame(w io.Writer, body []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadFrame reads one length-prefixed frame body.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrame {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

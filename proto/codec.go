// Package proto serializes the driver request record and the control
// command payloads. All fields are big-endian, matching the 68000 byte
// order of the host side.
package proto

import (
	"encoding/binary"
	"fmt"
)

// Decoder reads big-endian primitives from a byte slice.
type Decoder struct {
	b []byte
	o int
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{b: b}
}

func (d *Decoder) Remaining() int { return len(d.b) - d.o }

func (d *Decoder) ReadU8() (byte, error) {
	if d.Remaining() < 1 {
		return 0, fmt.Errorf("need 1 byte")
	}
	v := d.b[d.o]
	d.o++
	return v, nil
}

func (d *Decoder) ReadU16() (uint16, error) {
	if d.Remaining() < 2 {
		return 0, fmt.Errorf("need 2 bytes")
	}
	v := binary.BigEndian.Uint16(d.b[d.o : d.o+2])
	d.o += 2
	return v, nil
}

func (d *Decoder) ReadU32() (uint32, error) {
	if d.Remaining() < 4 {
		return 0, fmt.Errorf("need 4 bytes")
	}
	v := binary.BigEndian.Uint32(d.b[d.o : d.o+4])
	d.o += 4
	return v, nil
}

func (d *Decoder) ReadI32() (int32, error) {
	v, err := d.ReadU32()
	return int32(v), err
}

func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative length")
	}
	if d.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes", n)
	}
	v := d.b[d.o : d.o+n]
	d.o += n
	return v, nil
}

// ReadString reads a u16 length-prefixed string bounded by maxLen.
func (d *Decoder) ReadString(maxLen uint16) (string, error) {
	ln, err := d.ReadU16()
	if err != nil {
		return "", err
	}
	if ln > maxLen {
		return "", fmt.Errorf("string length %d exceeds limit %d", ln, maxLen)
	}
	b, err := d.ReadBytes(int(ln))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Encoder builds big-endian payloads.
type Encoder struct {
	b []byte
}

func NewEncoder(capacity int) *Encoder {
	if capacity < 0 {
		capacity = 0
	}
	return &Encoder{b: make([]byte, 0, capacity)}
}

func (e *Encoder) Bytes() []byte { return e.b }

func (e *Encoder) WriteU8(v byte) {
	e.b = append(e.b, v)
}

func (e *Encoder) WriteU16(v uint16) {
	e.b = binary.BigEndian.AppendUint16(e.b, v)
}

func (e *Encoder) WriteU32(v uint32) {
	e.b = binary.BigEndian.AppendUint32(e.b, v)
}

func (e *Encoder) WriteI32(v int32) {
	e.WriteU32(uint32(v))
}

func (e *Encoder) WriteBytes(b []byte) {
	e.b = append(e.b, b...)
}

// WriteString writes a u16 length-prefixed string.
func (e *Encoder) WriteString(s string) error {
	if len(s) > 0xffff {
		return fmt.Errorf("string too long: %d", len(s))
	}
	e.WriteU16(uint16(len(s)))
	e.WriteBytes([]byte(s))
	return nil
}

// Package sjis converts between the host's Shift_JIS text and UTF-8.
package sjis

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

var ErrInvalid = errors.New("sjis: invalid byte sequence")

// IsLead reports whether b is the lead byte of a two-byte Shift_JIS
// character. The second byte of such a pair must never be case folded or
// matched as a path separator.
func IsLead(b byte) bool {
	return (b >= 0x81 && b <= 0x9f) || (b >= 0xe0 && b <= 0xef)
}

// ToUTF8 decodes Shift_JIS bytes. Invalid sequences are an error rather
// than being replaced, matching the strict conversion at the driver
// boundary.
func ToUTF8(b []byte) (string, error) {
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
	if err != nil {
		return "", ErrInvalid
	}
	s := string(out)
	if strings.ContainsRune(s, utf8.RuneError) && !strings.ContainsRune(string(b), utf8.RuneError) {
		return "", ErrInvalid
	}
	return s, nil
}

// FromUTF8 encodes a UTF-8 string as Shift_JIS. Runes outside the target
// repertoire are an error.
func FromUTF8(s string) ([]byte, error) {
	out, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, ErrInvalid
	}
	return out, nil
}

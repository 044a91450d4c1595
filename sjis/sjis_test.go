package sjis

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	var tcs = []struct {
		sjis []byte
		utf8 string
	}{
		{[]byte("hello.txt"), "hello.txt"},
		{[]byte{0x83, 0x65, 0x83, 0x58, 0x83, 0x67}, "テスト"},
		{[]byte{0x93, 0xfa, 0x96, 0x7b, 0x8c, 0xea, '.', 'd', 'o', 'c'}, "日本語.doc"},
	}
	for _, tc := range tcs {
		got, err := ToUTF8(tc.sjis)
		if err != nil {
			t.Fatalf("ToUTF8(%x): %v", tc.sjis, err)
		}
		if got != tc.utf8 {
			t.Errorf("ToUTF8(%x) => %q, expected %q", tc.sjis, got, tc.utf8)
		}
		back, err := FromUTF8(tc.utf8)
		if err != nil {
			t.Fatalf("FromUTF8(%q): %v", tc.utf8, err)
		}
		if !bytes.Equal(back, tc.sjis) {
			t.Errorf("FromUTF8(%q) => %x, expected %x", tc.utf8, back, tc.sjis)
		}
	}
}

func TestInvalid(t *testing.T) {
	if _, err := ToUTF8([]byte{0x81}); err == nil {
		t.Errorf("truncated lead byte should fail")
	}
	if _, err := FromUTF8("привет"); err == nil {
		t.Errorf("cyrillic has no SJIS encoding, should fail")
	}
}

func TestIsLead(t *testing.T) {
	var tcs = []struct {
		b    byte
		lead bool
	}{
		{'a', false},
		{0x80, false},
		{0x81, true},
		{0x9f, true},
		{0xa0, false},
		{0xdf, false},
		{0xe0, true},
		{0xef, true},
		{0xf0, false},
	}
	for _, tc := range tcs {
		if IsLead(tc.b) != tc.lead {
			t.Errorf("IsLead(%#02x) => %v, expected %v", tc.b, !tc.lead, tc.lead)
		}
	}
}

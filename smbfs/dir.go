package smbfs

import (
	"context"
	"strings"
	"syscall"

	"github.com/yunkya2/smbfs-x68k/human"
	"github.com/yunkya2/smbfs-x68k/sjis"
)

// Bytes that cannot appear in a Human68k file name outside a double-byte
// character.
const invalidNameBytes = `/\,;<=>[]|`

func (d *Driver) opFiles(ctx context.Context, req *Request) int32 {
	dl, err := d.openSearch(ctx, req)
	if err != nil {
		// Reporting NOENT for a missing directory confuses DOS callers.
		if dosError(err) == human.ErrNoEntry {
			return int32(human.ErrNoDir)
		}
		return int32(dosError(err))
	}
	if !d.nextEntry(dl, req.Token, req.Info) {
		return int32(human.ErrNoMore)
	}
	return 0
}

func (d *Driver) opNfiles(_ context.Context, req *Request) int32 {
	dl, ok := d.dirs[req.Token]
	if !ok {
		return int32(human.ErrBadArg)
	}
	if !d.nextEntry(dl, req.Token, req.Info) {
		return int32(human.ErrNoMore)
	}
	return 0
}

// openSearch starts a directory enumeration keyed by the host file buffer
// identity. Reusing a live token closes the previous stream first. Errors
// are reported as errnos so opFiles can apply the FILES overrides.
func (d *Driver) openSearch(ctx context.Context, req *Request) (*dirSearch, error) {
	if old, ok := d.dirs[req.Token]; ok {
		old.dir.Close()
		delete(d.dirs, req.Token)
	} else if len(d.dirs) >= d.maxSearch {
		return nil, syscall.ENOMEM
	}

	slot, derr := d.mountedSlot(req.Unit)
	if derr != 0 {
		return nil, syscall.ENOENT
	}
	base, err := d.hostPath(slot, &req.Name, false)
	if err != nil {
		return nil, syscall.ENOENT
	}

	dl := &dirSearch{
		unit:    req.Unit,
		base:    base,
		attr:    req.Attr,
		isRoot:  req.Name.IsRoot(),
		isFirst: true,
	}
	buildPattern(&dl.pattern, &req.Name)

	dir, err := slot.conn.OpenDir(ctx, base)
	if err != nil {
		return nil, err
	}
	dl.dir = dir
	d.dirs[req.Token] = dl
	return dl, nil
}

// buildPattern assembles the 21-byte search pattern from the fixed name
// fields: main name (18 bytes) then extension (3 bytes), trailing padding
// cleared, lowercased outside double-byte characters.
// (derived from HFS.java by Makoto Kamada)
func buildPattern(p *[21]byte, nb *human.Namebuf) {
	copy(p[0:8], nb.Name1[:])
	if nb.Name1[7] == '?' && nb.Name2[0] == 0 {
		// An 8-byte all-wildcard main name means "any length": extend the
		// wildcard through the long-name field.
		for i := 8; i < 18; i++ {
			p[i] = '?'
		}
	} else {
		copy(p[8:18], nb.Name2[:])
	}
	for i := 17; i >= 0 && (p[i] == 0 || p[i] == ' '); i-- {
		p[i] = 0
	}
	copy(p[18:21], nb.Ext[:])
	for i := 20; i >= 18 && p[i] == ' '; i-- {
		p[i] = 0
	}
	for i := 0; i < len(p); i++ {
		if sjis.IsLead(p[i]) {
			i++
			continue
		}
		if p[i] >= 'A' && p[i] <= 'Z' {
			p[i] += 'a' - 'A'
		}
	}
}

// nextEntry advances the search to the next matching entry and fills fi.
// It reports false when the stream is exhausted, in which case the entry
// is removed from the table.
func (d *Driver) nextEntry(dl *dirSearch, token uint32, fi *human.FilesInfo) bool {
	if dl.isFirst && dl.isRoot && dl.attr&human.AttrVolume != 0 &&
		dl.pattern[0] == '?' && dl.pattern[18] == '?' {
		dl.isFirst = false
		// A *.* search of the root yields the volume label first: the
		// mount root path stands in for the label.
		fi.Attr = human.AttrVolume
		fi.Time, fi.Date = 0, 0
		fi.Size = 0
		if sj, err := sjis.FromUTF8(dl.base); err == nil {
			fi.SetName(sj)
		} else {
			fi.SetName(nil)
		}
		return true
	}
	dl.isFirst = false

	for {
		info, err := dl.dir.Next()
		if err != nil {
			break
		}
		name := info.Name()
		if dl.isRoot && (name == "." || name == "..") {
			continue
		}

		sj, err := sjis.FromUTF8(name)
		if err != nil || len(sj) > len(fi.Name)-1 {
			continue
		}
		if !validName(sj) {
			continue
		}

		var cand [21]byte
		if !splitName(sj, &cand) {
			continue
		}
		if !matchName(&cand, &dl.pattern) {
			continue
		}

		if uint64(info.Size()) > 0xffffffff {
			continue
		}
		fi.Attr = fileAttr(info)
		if fi.Attr&dl.attr == 0 {
			continue
		}
		fi.Date, fi.Time = human.DOSDateTime(info.ModTime())
		fi.Size = uint32(info.Size())
		fi.SetName(sj)
		return true
	}

	dl.dir.Close()
	delete(d.dirs, token)
	return false
}

// validName reports whether a SJIS name is expressible on the Human68k
// side. Control codes, a leading '-' and the reserved punctuation bytes
// are rejected; bytes inside double-byte characters are exempt.
func validName(sj []byte) bool {
	for i := 0; i < len(sj); i++ {
		c := sj[i]
		if sjis.IsLead(c) {
			i++
			continue
		}
		if c <= 0x1f || (c == '-' && i == 0) || strings.IndexByte(invalidNameBytes, c) >= 0 {
			return false
		}
	}
	return true
}

// splitName decomposes a SJIS name into the 18+3 comparison form: main
// name at [0:18], extension at [18:21]. Only a trailing extension of one
// to three bytes is split off; anything else stays in the main name. It
// reports false when the main name does not fit.
func splitName(sj []byte, out *[21]byte) bool {
	k := len(sj)
	m := k
	switch {
	case k >= 1 && sj[k-1] == '.':
		m = k
	case k >= 3 && sj[k-2] == '.':
		m = k - 2
	case k >= 4 && sj[k-3] == '.':
		m = k - 3
	case k >= 5 && sj[k-4] == '.':
		m = k - 4
	}
	if m > 18 {
		return false
	}
	copy(out[0:m], sj[:m])
	if m < k && sj[m] == '.' {
		copy(out[18:21], sj[m+1:])
	}
	return true
}

// matchName compares a decomposed name against the pattern byte by byte.
// '?' matches anything; ASCII capitals are lowercased before comparison
// except in the second byte of a double-byte character.
func matchName(cand, pattern *[21]byte) bool {
	f := byte(0x20)
	for i := 0; i < len(cand); i++ {
		c := cand[i]
		cc := c
		if c >= 'A' && c <= 'Z' {
			cc = c | f
		}
		if p := pattern[i]; p != '?' && cc != p {
			return false
		}
		if f != 0 && sjis.IsLead(c) {
			f = 0
		} else {
			f = 0x20
		}
	}
	return true
}

func (d *Driver) freeSearches(unit int) {
	for token, dl := range d.dirs {
		if dl.unit == unit {
			dl.dir.Close()
			delete(d.dirs, token)
		}
	}
}

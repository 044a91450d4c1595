// Package human holds the Human68k-side record formats the filesystem
// driver exchanges with the host: name records, directory entries, FCB
// state and the DOS error code space.
package human

// File attribute bits as stored in directory entries and FCBs.
const (
	AttrReadOnly = 0x01
	AttrHidden   = 0x02
	AttrSystem   = 0x04
	AttrVolume   = 0x08
	AttrDir      = 0x10
	AttrArchive  = 0x20
)

// PathSep is the component separator inside Namebuf.Path.
const PathSep = 0x09

// Namebuf mirrors struct dos_namestbuf: a 0x09-separated directory path
// plus a fixed-field main-name/extension pair for the final component.
// The main name is split across Name1 (8 bytes, space padded) and Name2
// (10 bytes, NUL padded) for long-name support.
type Namebuf struct {
	Flag  byte
	Drive byte
	Path  [65]byte
	Name1 [8]byte
	Ext   [3]byte
	Name2 [10]byte
}

// IsRoot reports whether the record names the root directory of the drive
// (a path of exactly one separator byte).
func (n *Namebuf) IsRoot() bool {
	return n.Path[0] == PathSep && n.Path[1] == 0
}

// SetPath fills Path from directory components, separated and terminated
// the way Human68k builds them. An empty list yields the root path.
func (n *Namebuf) SetPath(components ...string) {
	for i := range n.Path {
		n.Path[i] = 0
	}
	k := 0
	n.Path[k] = PathSep
	k++
	for i, c := range components {
		if i > 0 {
			n.Path[k] = PathSep
			k++
		}
		k += copy(n.Path[k:], c)
	}
}

// SetName fills the Name1/Name2/Ext fields from a main name and extension,
// space padding Name1 and Ext and NUL padding Name2 as the host does.
func (n *Namebuf) SetName(name, ext string) {
	for i := range n.Name1 {
		n.Name1[i] = ' '
	}
	for i := range n.Name2 {
		n.Name2[i] = 0
	}
	for i := range n.Ext {
		n.Ext[i] = ' '
	}
	copy(n.Name1[:], name)
	if len(name) > len(n.Name1) {
		copy(n.Name2[:], name[len(n.Name1):])
	}
	copy(n.Ext[:], ext)
}

// FCB is the client-owned persistent per-file record. The host environment
// keeps it across calls; the driver reads and writes the file pointer and
// size fields but does not own the record.
type FCB struct {
	Mode byte // 0=read, 1=write, 2=read/write
	Pos  uint32
	Size uint32
}

// FilesInfo mirrors struct dos_filesinfo, the directory entry record
// returned by the FILES/NFILES operations.
type FilesInfo struct {
	Attr byte
	Time uint16
	Date uint16
	Size uint32
	Name [23]byte // SJIS, NUL terminated
}

// SetName stores a SJIS name, truncating to the field width.
func (f *FilesInfo) SetName(sjis []byte) {
	for i := range f.Name {
		f.Name[i] = 0
	}
	n := len(sjis)
	if n > len(f.Name)-1 {
		n = len(f.Name) - 1
	}
	copy(f.Name[:n], sjis[:n])
}

// NameBytes returns the stored SJIS name without trailing NULs.
func (f *FilesInfo) NameBytes() []byte {
	for i, c := range f.Name {
		if c == 0 {
			return f.Name[:i]
		}
	}
	return f.Name[:]
}

package smbfs

import (
	"github.com/yunkya2/smbfs-x68k/human"
	"github.com/yunkya2/smbfs-x68k/sjis"
)

// hostPath converts a name record to a slash path on the remote side and
// prefixes the mount root of the unit. With full set, the final component
// is appended from the fixed name/extension fields. The record is SJIS;
// conversion to UTF-8 happens last so the field surgery stays byte exact.
func (d *Driver) hostPath(slot *mountSlot, nb *human.Namebuf, full bool) (string, error) {
	b := make([]byte, 0, 96)

	i := 0
	for i < len(nb.Path) {
		for i < len(nb.Path) && nb.Path[i] == human.PathSep {
			i++
		}
		if i >= len(nb.Path) || nb.Path[i] == 0 {
			break
		}
		b = append(b, '/')
		for i < len(nb.Path) && nb.Path[i] != 0 && nb.Path[i] != human.PathSep {
			b = append(b, nb.Path[i])
			i++
		}
	}

	if full {
		b = append(b, '/')
		b = append(b, nb.Name1[:]...)
		b = append(b, nb.Name2[:]...)
		for len(b) > 0 && b[len(b)-1] == 0 {
			b = b[:len(b)-1]
		}
		for len(b) > 0 && b[len(b)-1] == ' ' {
			b = b[:len(b)-1]
		}
		b = append(b, '.')
		b = append(b, nb.Ext[:]...)
		for len(b) > 0 && b[len(b)-1] == ' ' {
			b = b[:len(b)-1]
		}
		for len(b) > 0 && b[len(b)-1] == '.' {
			b = b[:len(b)-1]
		}
	}

	root := slot.root
	switch {
	case root == "":
		// Paths are relative to the share root; drop the leading slash.
		if len(b) > 0 && b[0] == '/' {
			b = b[1:]
		}
	case root[len(root)-1] == '/' && len(b) > 0 && b[0] == '/':
		root = root[:len(root)-1]
	case root[len(root)-1] != '/' && (len(b) == 0 || b[0] != '/'):
		root += "/"
	}

	rel, err := sjis.ToUTF8(b)
	if err != nil {
		return "", err
	}
	return root + rel, nil
}

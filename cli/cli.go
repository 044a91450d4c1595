// Package cli holds the plumbing shared by the command-line front-ends:
// credential entry, drive-letter parsing and backend selection.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/yunkya2/smbfs-x68k/remote"
	"github.com/yunkya2/smbfs-x68k/remote/sftpfs"
	smbbackend "github.com/yunkya2/smbfs-x68k/remote/smbfs"
)

// SplitUserPassword splits the "user[%password]" form of the -U option.
func SplitUserPassword(arg string) (user, password string) {
	if i := strings.IndexByte(arg, '%'); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, ""
}

// PromptPassword reads a password from the terminal without echo. When
// stdin is not a terminal it falls back to reading one line.
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ParseDrive parses a "X:" drive argument into a unit number, A: being
// unit 0.
func ParseDrive(arg string) (int, bool) {
	if len(arg) != 2 || arg[1] != ':' {
		return 0, false
	}
	c := arg[0]
	switch {
	case c >= 'a' && c <= 'z':
		c -= 'a' - 'A'
	case c >= 'A' && c <= 'Z':
	default:
		return 0, false
	}
	return int(c - 'A'), true
}

// DriveName is the inverse of ParseDrive.
func DriveName(unit int) string {
	return string(rune('A'+unit)) + ":"
}

// Dial connects to the share named by u, choosing the backend from the
// URL scheme. smb is the default for a bare server/share spec.
func Dial(ctx context.Context, u *remote.URL, user, password string) (remote.Conn, error) {
	switch u.Scheme {
	case "", "smb":
		return smbbackend.Dial(ctx, u, user, password)
	case "sftp", "ssh":
		return sftpfs.Dial(ctx, u, user, password)
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

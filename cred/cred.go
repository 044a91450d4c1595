// Package cred resolves mount credentials from an NTLM user file, the
// same domain:user:password line format libsmb2 consumes. The environment
// is passed in explicitly so a mount request can carry the invoking
// utility's environment without mutating the process env.
package cred

import (
	"bufio"
	"os"
	"strings"
)

// Cred is one credential entry.
type Cred struct {
	Domain   string
	User     string
	Password string
}

// ParseLine parses one "domain:user:password" or "user:password" line.
func ParseLine(line string) (Cred, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Cred{}, false
	}
	parts := strings.SplitN(line, ":", 3)
	switch len(parts) {
	case 2:
		return Cred{User: parts[0], Password: parts[1]}, true
	case 3:
		return Cred{Domain: parts[0], User: parts[1], Password: parts[2]}, true
	}
	return Cred{}, false
}

// FileFromEnv extracts the NTLM_USER_FILE path from a KEY=VALUE list.
func FileFromEnv(env []string) string {
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "NTLM_USER_FILE="); ok {
			return v
		}
	}
	return ""
}

// Lookup resolves a credential from the user file named by env. With an
// empty user the first entry wins; otherwise the user must match. Returns
// false when no file is configured, the file is unreadable, or no entry
// matches.
func Lookup(env []string, user string) (Cred, bool) {
	path := FileFromEnv(env)
	if path == "" {
		return Cred{}, false
	}
	f, err := os.Open(path)
	if err != nil {
		return Cred{}, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		c, ok := ParseLine(sc.Text())
		if !ok {
			continue
		}
		if user == "" || c.User == user {
			return c, true
		}
	}
	return Cred{}, false
}

package remote

import (
	"fmt"
	"net/url"
	"strings"
)

// URL names a remote share: scheme://[domain;][user[:password]@]host[:port]/share[/path].
type URL struct {
	Scheme   string
	Domain   string
	User     string
	Password string
	Host     string
	Port     string
	Share    string
	Path     string // sub-path inside the share, no leading slash
}

// Normalize rewrites the loose forms the mount utility accepts into a full
// URL: "host/share", "//host/share" and "/host/share" all become
// "smb://host/share", and a bare host gains a trailing slash.
func Normalize(raw string) string {
	s := strings.TrimLeft(raw, " \t")
	if s == "" {
		return "smb://"
	}
	if !strings.Contains(s, "://") {
		switch {
		case strings.HasPrefix(s, "//"):
			s = "smb:" + s
		case strings.HasPrefix(s, "/"):
			s = "smb:/" + s
		default:
			s = "smb://" + s
		}
	}
	if rest := s[strings.Index(s, "://")+3:]; !strings.Contains(rest, "/") {
		s += "/"
	}
	return s
}

// Parse parses a normalized share URL.
func Parse(raw string) (*URL, error) {
	u, err := url.Parse(Normalize(raw))
	if err != nil {
		return nil, fmt.Errorf("remote: parse url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("remote: url %q has no host", raw)
	}
	r := &URL{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   u.Port(),
	}
	if u.User != nil {
		r.User = u.User.Username()
		r.Password, _ = u.User.Password()
		if i := strings.IndexByte(r.User, ';'); i >= 0 {
			r.Domain, r.User = r.User[:i], r.User[i+1:]
		}
	}
	p := strings.Trim(u.Path, "/")
	if p != "" {
		if i := strings.IndexByte(p, '/'); i >= 0 {
			r.Share, r.Path = p[:i], p[i+1:]
		} else {
			r.Share = p
		}
	}
	return r, nil
}

// Addr returns host:port with the given default port applied.
func (u *URL) Addr(defaultPort string) string {
	port := u.Port
	if port == "" {
		port = defaultPort
	}
	return u.Host + ":" + port
}

func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.User != "" {
		if u.Domain != "" {
			b.WriteString(u.Domain)
			b.WriteByte(';')
		}
		b.WriteString(u.User)
		b.WriteByte('@')
	}
	b.WriteString(u.Host)
	if u.Port != "" {
		b.WriteByte(':')
		b.WriteString(u.Port)
	}
	b.WriteByte('/')
	b.WriteString(u.Share)
	if u.Path != "" {
		b.WriteByte('/')
		b.WriteString(u.Path)
	}
	return b.String()
}

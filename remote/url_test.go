package remote

import "testing"

func TestNormalize(t *testing.T) {
	var tcs = []struct {
		in  string
		out string
	}{
		{"smb://server/share", "smb://server/share"},
		{"//server/share", "smb://server/share"},
		{"/server/share", "smb://server/share"},
		{"server/share", "smb://server/share"},
		{"server", "smb://server/"},
		{"  server/share", "smb://server/share"},
		{"", "smb://"},
		{"sftp://server/share", "sftp://server/share"},
	}
	for _, tc := range tcs {
		if got := Normalize(tc.in); got != tc.out {
			t.Errorf("Normalize(%q) => %q, expected %q", tc.in, got, tc.out)
		}
	}
}

func TestParse(t *testing.T) {
	var tcs = []struct {
		in   string
		want URL
	}{
		{"smb://server/share", URL{Scheme: "smb", Host: "server", Share: "share"}},
		{"server/share/sub/dir", URL{Scheme: "smb", Host: "server", Share: "share", Path: "sub/dir"}},
		{"smb://alice@server/share", URL{Scheme: "smb", Host: "server", User: "alice", Share: "share"}},
		{"smb://dom;alice:pw@server:4445/share",
			URL{Scheme: "smb", Host: "server", Port: "4445", Domain: "dom", User: "alice", Password: "pw", Share: "share"}},
		{"sftp://bob@host/export/data", URL{Scheme: "sftp", Host: "host", User: "bob", Share: "export", Path: "data"}},
	}
	for _, tc := range tcs {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if *got != tc.want {
			t.Errorf("Parse(%q) => %+v, expected %+v", tc.in, *got, tc.want)
		}
	}
	if _, err := Parse(""); err == nil {
		t.Errorf("empty url should fail")
	}
}

func TestAddr(t *testing.T) {
	u := URL{Host: "server"}
	if got := u.Addr("445"); got != "server:445" {
		t.Errorf("Addr => %q", got)
	}
	u.Port = "10445"
	if got := u.Addr("445"); got != "server:10445" {
		t.Errorf("Addr => %q", got)
	}
}

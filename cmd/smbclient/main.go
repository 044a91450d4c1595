package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yunkya2/smbfs-x68k/cli"
	"github.com/yunkya2/smbfs-x68k/cred"
	"github.com/yunkya2/smbfs-x68k/remote"
	smbbackend "github.com/yunkya2/smbfs-x68k/remote/smbfs"
)

func main() {
	var (
		userSpec   string
		listShares bool
		noColor    bool
	)

	flag.StringVar(&userSpec, "U", "", "Username and password as user[%password]")
	flag.BoolVar(&listShares, "L", false, "List the shares available on the server")
	flag.BoolVar(&noColor, "no-color", false, "Disable colored output")

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: %s [OPTIONS] <url> [-c command[;command...]]\n", os.Args[0])
		fmt.Fprintf(out, "URL format: [smb://][domain;][user@]host[:port][/share]\n")
		fmt.Fprintf(out, "The file named by NTLM_USER_FILE supplies credentials.\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cli.SupportsColor(noColor)

	args := flag.Args()
	var url string
	var commands string
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" {
			commands = strings.Join(args[i+1:], " ")
			break
		}
		if url == "" {
			url = args[i]
			continue
		}
		flag.Usage()
		os.Exit(1)
	}
	if url == "" {
		flag.Usage()
		os.Exit(1)
	}

	u, err := remote.Parse(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	user := u.User
	password := u.Password
	if userSpec != "" {
		var pw string
		user, pw = cli.SplitUserPassword(userSpec)
		if pw != "" {
			password = pw
		}
	}
	if password == "" {
		if c, ok := cred.Lookup(os.Environ(), user); ok {
			if user == "" {
				user = c.User
			}
			password = c.Password
			if u.Domain == "" {
				u.Domain = c.Domain
			}
		}
	}
	if password == "" {
		password, err = cli.PromptPassword(fmt.Sprintf("Password for user %s: ", user))
		if err != nil {
			os.Exit(1)
		}
	}

	ctx := context.Background()

	if listShares {
		names, err := smbbackend.ListShares(ctx, u, user, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: list shares on %s: %s\n", u.Host, err)
			os.Exit(1)
		}
		fmt.Println("Available shares:")
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		return
	}

	conn, err := cli.Dial(ctx, u, user, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: connect %s: %s\n", u.Host, err)
		os.Exit(1)
	}
	defer conn.Close()

	sh := newShell(conn, u.Path)
	defer sh.close()

	if commands != "" {
		if !sh.runScript(ctx, commands) {
			os.Exit(1)
		}
		return
	}
	sh.runInteractive(ctx)
}

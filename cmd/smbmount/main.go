package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/yunkya2/smbfs-x68k/cli"
	"github.com/yunkya2/smbfs-x68k/server"
	"github.com/yunkya2/smbfs-x68k/smbfs"
)

func main() {
	var (
		addr     string
		userSpec string
		unmount  bool

		exitCode int
	)

	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	flag.StringVar(&addr, "addr", server.DefaultAddr, "Daemon control address")
	flag.StringVar(&userSpec, "U", "", "Username and password as user[%password]")
	flag.BoolVar(&unmount, "D", false, "Unmount instead of mounting")

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: %s [OPTIONS] <url> [drive:]\n", os.Args[0])
		fmt.Fprintf(out, "       %s -D [drive:]\n", os.Args[0])
		fmt.Fprintf(out, "       %s              (list mounts)\n", os.Args[0])
		fmt.Fprintf(out, "URL format: [smb://][domain;][user@]host[:port][/share[/path]]\n")
		fmt.Fprintf(out, "The file named by NTLM_USER_FILE supplies credentials.\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var (
		url   string
		drive = -1
	)
	for _, arg := range flag.Args() {
		if unit, ok := cli.ParseDrive(arg); ok {
			drive = unit
			continue
		}
		if url == "" && !strings.HasPrefix(arg, "-") {
			url = arg
			continue
		}
		flag.Usage()
		exitCode = 1
		runtime.Goexit()
	}

	ctx := context.Background()
	clt, err := server.DialControl(ctx, addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		exitCode = 1
		runtime.Goexit()
	}
	defer clt.Close()

	switch {
	case unmount:
		if url != "" || userSpec != "" {
			flag.Usage()
			exitCode = 1
			runtime.Goexit()
		}
		exitCode = doUnmount(clt, drive)
	case url != "":
		exitCode = doMount(ctx, clt, drive, url, userSpec)
	default:
		exitCode = listMounts(clt)
	}
}

func doUnmount(clt *server.Client, drive int) int {
	if drive < 0 {
		if err := clt.UnmountAll(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
		fmt.Println("unmounted all drives")
		return 0
	}
	if err := clt.Unmount(drive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: unmount %s: %s\n", cli.DriveName(drive), err)
		return 1
	}
	fmt.Printf("unmounted drive %s\n", cli.DriveName(drive))
	return 0
}

func doMount(ctx context.Context, clt *server.Client, drive int, url, userSpec string) int {
	unit := drive
	if unit < 0 {
		// No drive given: take the first free unit.
		var err error
		unit, err = firstFreeUnit(clt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
	}

	user, password := "", ""
	if userSpec != "" {
		user, password = cli.SplitUserPassword(userSpec)
	}
	spec := smbfs.MountSpec{
		URL:      url,
		Username: user,
		Password: password,
		Env:      os.Environ(),
	}

	err := clt.Mount(unit, spec)
	var needPass *smbfs.NeedPasswordError
	if errors.As(err, &needPass) {
		pw, perr := cli.PromptPassword(fmt.Sprintf("Password for user %s: ", needPass.Username))
		if perr != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", perr)
			return 1
		}
		spec.Password = pw
		err = clt.Mount(unit, spec)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: mount %s on %s: %s\n", url, cli.DriveName(unit), err)
		return 1
	}
	fmt.Printf("mounted %s on drive %s\n", url, cli.DriveName(unit))
	return 0
}

func firstFreeUnit(clt *server.Client) (int, error) {
	for unit := 0; unit < smbfs.MaxUnits; unit++ {
		if _, err := clt.GetMount(unit); errors.Is(err, smbfs.ErrNotMounted) {
			return unit, nil
		}
	}
	return 0, errors.New("no free drive unit")
}

func listMounts(clt *server.Client) int {
	for unit := 0; unit < smbfs.MaxUnits; unit++ {
		info, err := clt.GetMount(unit)
		if errors.Is(err, smbfs.ErrNotMounted) {
			fmt.Printf("%s --\n", cli.DriveName(unit))
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
		path := info.Share
		if info.RootPath != "" {
			path += "/" + info.RootPath
		}
		fmt.Printf("%s //%s@%s/%s\n", cli.DriveName(unit), info.Username, info.Server, path)
	}
	return 0
}

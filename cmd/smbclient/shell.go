package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	gopath "path"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/gobwas/glob"
	"github.com/google/shlex"

	"github.com/yunkya2/smbfs-x68k/remote"
)

type shell struct {
	conn   remote.Conn
	cwd    string
	failed bool

	// mu keeps the keepalive ping off the connection while a command runs.
	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

type command struct {
	names []string
	usage string
	help  string
	fn    func(sh *shell, ctx context.Context, args []string) error
}

var commands = []command{
	{[]string{"ls", "dir", "l"}, "[path]", "list directory contents", (*shell).cmdLs},
	{[]string{"cd", "chdir"}, "[path]", "change or print the current directory", (*shell).cmdCd},
	{[]string{"mkdir", "md"}, "<path>", "create a directory", (*shell).cmdMkdir},
	{[]string{"rmdir", "rd"}, "<path>", "remove a directory", (*shell).cmdRmdir},
	{[]string{"rm", "del"}, "<path>", "remove a file", (*shell).cmdRm},
	{[]string{"rename", "ren"}, "<old> <new>", "rename a file or directory", (*shell).cmdRename},
	{[]string{"stat"}, "<path>", "show file information", (*shell).cmdStat},
	{[]string{"statvfs", "df"}, "[path]", "show filesystem usage", (*shell).cmdStatvfs},
	{[]string{"lcd"}, "[path]", "change or print the local directory", (*shell).cmdLcd},
	{[]string{"shell"}, "[command]", "run a local shell command", (*shell).cmdShell},
	{[]string{"get"}, "<remote> [local]", "download a file", (*shell).cmdGet},
	{[]string{"mget"}, "<pattern> [localdir]", "download files matching a pattern", (*shell).cmdMget},
	{[]string{"put"}, "<local> [remote]", "upload a file", (*shell).cmdPut},
	{[]string{"mput"}, "<pattern> [remotedir]", "upload files matching a pattern", (*shell).cmdMput},
	{[]string{"quit", "exit"}, "", "leave the shell", nil},
	{[]string{"help"}, "[command]", "show this help", nil},
}

func init() {
	// Assigned here rather than in the literal to break the
	// commands -> cmdHelp -> commands initialization cycle.
	commands[len(commands)-1].fn = (*shell).cmdHelp
}

func findCommand(name string) *command {
	for i := range commands {
		for _, n := range commands[i].names {
			if n == name {
				return &commands[i]
			}
		}
	}
	return nil
}

func newShell(conn remote.Conn, start string) *shell {
	sh := &shell{
		conn: conn,
		cwd:  gopath.Clean("/" + start),
		done: make(chan struct{}),
	}
	sh.wg.Add(1)
	go sh.keepalive()
	return sh
}

func (sh *shell) close() {
	close(sh.done)
	sh.wg.Wait()
}

func (sh *shell) keepalive() {
	defer sh.wg.Done()
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-sh.done:
			return
		case <-t.C:
			sh.mu.Lock()
			sh.conn.Ping(context.Background())
			sh.mu.Unlock()
		}
	}
}

func (sh *shell) runInteractive(ctx context.Context) {
	fmt.Println("Type 'help' for commands, 'quit' to exit")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("smb:%s> ", sh.cwd)
		if !sc.Scan() {
			fmt.Println()
			return
		}
		if sh.runLine(ctx, sc.Text()) {
			return
		}
	}
}

// runScript executes a ;-separated command string. It reports whether all
// commands ran without error.
func (sh *shell) runScript(ctx context.Context, script string) bool {
	for _, line := range strings.Split(script, ";") {
		if sh.runLine(ctx, line) {
			break
		}
	}
	return !sh.failed
}

// runLine executes one command line and reports whether to quit.
func (sh *shell) runLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	switch line[0] {
	case '!':
		line = "shell " + line[1:]
	case '?':
		line = "help " + line[1:]
	}

	args, err := shlex.Split(line)
	if err != nil {
		fmt.Printf("parse error: %s\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	cmd := findCommand(args[0])
	if cmd == nil {
		fmt.Printf("unknown command: %s\n", args[0])
		fmt.Println("'help' lists the available commands")
		return false
	}
	if cmd.fn == nil {
		return true
	}

	sh.mu.Lock()
	err = cmd.fn(sh, ctx, args[1:])
	sh.mu.Unlock()
	if err != nil {
		sh.failed = true
		fmt.Printf("%s: %s\n", args[0], err)
	}
	return false
}

// resolve maps a command argument to a clean absolute remote path.
func (sh *shell) resolve(p string) string {
	if p == "" {
		return sh.cwd
	}
	if strings.HasPrefix(p, "/") {
		return gopath.Clean(p)
	}
	return gopath.Clean(gopath.Join(sh.cwd, p))
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

var dirColor = color.New(color.FgCyan)

func (sh *shell) cmdLs(ctx context.Context, args []string) error {
	dir, err := sh.conn.OpenDir(ctx, sh.resolve(arg(args, 0)))
	if err != nil {
		return err
	}
	defer dir.Close()

	for {
		info, err := dir.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		name := info.Name()
		if name == "." || name == ".." {
			continue
		}
		when := info.ModTime().Format("2006-01-02 15:04")
		if info.IsDir() {
			fmt.Printf("%s  %10s  ", when, "<DIR>")
			dirColor.Println(name)
		} else {
			fmt.Printf("%s  %10d  %s\n", when, info.Size(), name)
		}
	}
}

func (sh *shell) cmdCd(ctx context.Context, args []string) error {
	if arg(args, 0) == "" {
		fmt.Println(sh.cwd)
		return nil
	}
	target := sh.resolve(args[0])
	info, err := sh.conn.Stat(ctx, target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", target)
	}
	sh.cwd = target
	return nil
}

func (sh *shell) cmdMkdir(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mkdir <path>")
	}
	return sh.conn.Mkdir(ctx, sh.resolve(args[0]))
}

func (sh *shell) cmdRmdir(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rmdir <path>")
	}
	return sh.conn.Rmdir(ctx, sh.resolve(args[0]))
}

func (sh *shell) cmdRm(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rm <path>")
	}
	return sh.conn.Remove(ctx, sh.resolve(args[0]))
}

func (sh *shell) cmdRename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: rename <old> <new>")
	}
	return sh.conn.Rename(ctx, sh.resolve(args[0]), sh.resolve(args[1]))
}

func (sh *shell) cmdStat(ctx context.Context, args []string) error {
	info, err := sh.conn.Stat(ctx, sh.resolve(arg(args, 0)))
	if err != nil {
		return err
	}
	kind := "file"
	if info.IsDir() {
		kind = "directory"
	}
	fmt.Printf("name:     %s\n", info.Name())
	fmt.Printf("type:     %s\n", kind)
	fmt.Printf("size:     %d\n", info.Size())
	fmt.Printf("mode:     %s\n", info.Mode())
	fmt.Printf("modified: %s\n", info.ModTime().Format(time.RFC3339))
	return nil
}

func (sh *shell) cmdStatvfs(ctx context.Context, args []string) error {
	total, free, err := sh.conn.Statfs(ctx, sh.resolve(arg(args, 0)))
	if err != nil {
		return err
	}
	fmt.Printf("total: %d bytes\n", total)
	fmt.Printf("free:  %d bytes\n", free)
	fmt.Printf("used:  %d bytes\n", total-free)
	return nil
}

func (sh *shell) cmdLcd(_ context.Context, args []string) error {
	if arg(args, 0) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		fmt.Println(wd)
		return nil
	}
	return os.Chdir(args[0])
}

func (sh *shell) cmdShell(ctx context.Context, args []string) error {
	line := strings.Join(args, " ")
	if line == "" {
		return fmt.Errorf("usage: shell <command>")
	}
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", line)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (sh *shell) cmdGet(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: get <remote> [local]")
	}
	local := arg(args, 1)
	if local == "" {
		local = gopath.Base(sh.resolve(args[0]))
	}
	return sh.fetch(ctx, sh.resolve(args[0]), local)
}

func (sh *shell) fetch(ctx context.Context, remotePath, localPath string) error {
	src, err := sh.conn.Open(ctx, remotePath, os.O_RDONLY)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%d bytes)\n", remotePath, localPath, n)
	return nil
}

func (sh *shell) cmdMget(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mget <pattern> [localdir]")
	}
	pattern := sh.resolve(args[0])
	localDir := arg(args, 1)
	if localDir == "" {
		localDir = "."
	}

	g, err := glob.Compile(gopath.Base(pattern))
	if err != nil {
		return fmt.Errorf("bad pattern: %w", err)
	}
	dirPath := gopath.Dir(pattern)
	dir, err := sh.conn.OpenDir(ctx, dirPath)
	if err != nil {
		return err
	}
	defer dir.Close()

	matched := 0
	for {
		info, err := dir.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if info.IsDir() || !g.Match(info.Name()) {
			continue
		}
		matched++
		local := gopath.Join(localDir, info.Name())
		if err := sh.fetch(ctx, gopath.Join(dirPath, info.Name()), local); err != nil {
			return err
		}
	}
	if matched == 0 {
		return fmt.Errorf("no files match %s", args[0])
	}
	return nil
}

func (sh *shell) cmdPut(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: put <local> [remote]")
	}
	remotePath := arg(args, 1)
	if remotePath == "" {
		remotePath = gopath.Base(args[0])
	}
	return sh.store(ctx, args[0], sh.resolve(remotePath))
}

func (sh *shell) store(ctx context.Context, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := sh.conn.Create(ctx, remotePath, false)
	if err != nil {
		return err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%d bytes)\n", localPath, remotePath, n)
	return nil
}

func (sh *shell) cmdMput(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mput <pattern> [remotedir]")
	}
	remoteDir := sh.resolve(arg(args, 1))

	g, err := glob.Compile(gopath.Base(args[0]))
	if err != nil {
		return fmt.Errorf("bad pattern: %w", err)
	}
	localDir := gopath.Dir(args[0])

	entries, err := os.ReadDir(localDir)
	if err != nil {
		return err
	}
	matched := 0
	for _, e := range entries {
		if e.IsDir() || !g.Match(e.Name()) {
			continue
		}
		matched++
		local := gopath.Join(localDir, e.Name())
		if err := sh.store(ctx, local, gopath.Join(remoteDir, e.Name())); err != nil {
			return err
		}
	}
	if matched == 0 {
		return fmt.Errorf("no files match %s", args[0])
	}
	return nil
}

func (sh *shell) cmdHelp(_ context.Context, args []string) error {
	name := arg(args, 0)
	for i := range commands {
		c := &commands[i]
		if name != "" && findCommand(name) != c {
			continue
		}
		fmt.Printf("  %-14s %-24s %s\n", strings.Join(c.names, "|"), c.usage, c.help)
	}
	return nil
}

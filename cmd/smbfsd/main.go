package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/yunkya2/smbfs-x68k/cli"
	"github.com/yunkya2/smbfs-x68k/remote"
	"github.com/yunkya2/smbfs-x68k/remote/cachefs"
	"github.com/yunkya2/smbfs-x68k/server"
	"github.com/yunkya2/smbfs-x68k/smbfs"
)

func main() {
	var (
		addr      string
		units     int
		keepalive time.Duration
		statCache bool
		verbose   bool
	)

	flag.StringVar(&addr, "addr", server.DefaultAddr, "Address to listen on")
	flag.IntVar(&units, "units", smbfs.MaxUnits, "Number of drive units to expose")
	flag.DurationVar(&keepalive, "keepalive", 30*time.Second, "Idle keepalive interval, 0 disables")
	flag.BoolVar(&statCache, "statcache", true, "Cache remote stat results")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Human68k remote filesystem daemon\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [OPTIONS]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	dial := remote.Dialer(cli.Dial)
	if statCache {
		base := dial
		dial = func(ctx context.Context, u *remote.URL, user, password string) (remote.Conn, error) {
			conn, err := base(ctx, u, user, password)
			if err != nil {
				return nil, err
			}
			return cachefs.New(conn, cachefs.WithLogger(logger)), nil
		}
	}

	drv := smbfs.New(dial,
		smbfs.WithLogger(logger),
		smbfs.WithUnits(units),
		smbfs.WithKeepAliveInterval(keepalive),
	)
	defer drv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(drv, server.WithLogger(logger))
	if err := srv.ListenAndServe(ctx, addr); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

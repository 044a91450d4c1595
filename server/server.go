// Package server exposes a driver over TCP. Each connection carries
// length-prefixed request frames which are decoded, dispatched and
// answered one at a time; the host side is single tasking, so a single
// in-flight request per connection is the norm.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/yunkya2/smbfs-x68k/human"
	"github.com/yunkya2/smbfs-x68k/proto"
	"github.com/yunkya2/smbfs-x68k/smbfs"
)

// DefaultAddr is where the daemon listens unless configured otherwise.
const DefaultAddr = "localhost:6800"

type Server struct {
	drv     *smbfs.Driver
	log     *slog.Logger
	timeout time.Duration
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRequestTimeout bounds how long one dispatched request may block on
// the remote side.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(drv *smbfs.Driver, opts ...Option) *Server {
	s := &Server{
		drv:     drv,
		log:     slog.Default(),
		timeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	s.log.Info("listening", "addr", ln.Addr().String())
	err = s.Serve(ctx, ln)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Serve accepts connections from ln until it is closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()
	s.log.Info("connected", "peer", peer)

	for {
		body, err := proto.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Warn("read frame", "peer", peer, "error", err)
			}
			s.log.Info("disconnected", "peer", peer)
			return
		}
		var req proto.Request
		if err := req.Decode(body); err != nil {
			s.log.Warn("decode frame", "peer", peer, "error", err)
			return
		}

		resp := s.handleRequest(ctx, &req)
		if err := proto.WriteFrame(conn, resp.Encode()); err != nil {
			s.log.Warn("write frame", "peer", peer, "error", err)
			return
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req *proto.Request) *proto.Response {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if smbfs.Op(req.Op) == smbfs.OpIoctl {
		return s.handleControl(ctx, req)
	}

	dr := &smbfs.Request{
		Op:     smbfs.Op(req.Op),
		Unit:   int(req.Unit),
		Attr:   req.Attr,
		Name:   req.Name,
		Name2:  req.Name2,
		Token:  req.Token,
		Status: req.Status,
		FCB:    &req.FCB,
		Info:   &human.FilesInfo{},
		Free:   &smbfs.DiskFree{},
	}
	switch smbfs.Op(req.Op) {
	case smbfs.OpRead:
		n := req.Status
		if n > proto.MaxFrame {
			n = proto.MaxFrame
		}
		dr.Data = make([]byte, n)
	case smbfs.OpWrite:
		dr.Data = req.Data
	case smbfs.OpGetDPB:
		dr.Data = make([]byte, 16)
	}

	status, err := s.drv.Dispatch(ctx, dr)
	resp := &proto.Response{
		Status: status,
		FCB:    req.FCB,
		Info:   *dr.Info,
		Free:   *dr.Free,
	}
	switch {
	case errors.Is(err, smbfs.ErrNotInstallable):
		resp.ErrWord = proto.ErrWordNotInstallable
	case err != nil:
		resp.ErrWord = proto.ErrWordBadCommand
	}
	// drvctrl reports through the attribute byte.
	if smbfs.Op(req.Op) == smbfs.OpDriveCtrl {
		resp.Status = int32(dr.Attr)
	}
	switch smbfs.Op(req.Op) {
	case smbfs.OpRead:
		if status > 0 {
			resp.Data = dr.Data[:status]
		}
	case smbfs.OpGetDPB:
		resp.Data = dr.Data
	}
	return resp
}

func (s *Server) handleControl(ctx context.Context, req *proto.Request) *proto.Response {
	resp := &proto.Response{}
	cmd := int(int32(req.Status))

	switch cmd {
	case smbfs.CmdGetName:
		resp.Data = []byte(smbfs.Signature)
	case smbfs.CmdNop:
	case smbfs.CmdMount:
		spec, err := proto.DecodeMountArgs(req.Data)
		if err != nil {
			resp.Status = -int32(syscall.EINVAL)
			return resp
		}
		err = s.drv.Mount(ctx, int(req.Unit), spec)
		var needPass *smbfs.NeedPasswordError
		switch {
		case err == nil:
		case errors.As(err, &needPass):
			resp.Status = -int32(syscall.EAGAIN)
			e := proto.NewEncoder(32)
			e.WriteString(needPass.Username)
			resp.Data = e.Bytes()
		default:
			resp.Status = -controlErrno(err)
		}
	case smbfs.CmdUnmount:
		if err := s.drv.Unmount(int(req.Unit)); err != nil {
			resp.Status = -controlErrno(err)
		}
	case smbfs.CmdUnmountAll:
		if err := s.drv.UnmountAll(); err != nil {
			resp.Status = -controlErrno(err)
		}
	case smbfs.CmdGetMount:
		info, err := s.drv.Describe(int(req.Unit))
		if err != nil {
			resp.Status = -controlErrno(err)
			return resp
		}
		b, err := proto.EncodeMountInfo(info)
		if err != nil {
			resp.Status = -int32(syscall.EINVAL)
			return resp
		}
		resp.Data = b
	case smbfs.CmdGetMemInfo:
		resp.Data = proto.EncodeMemInfo(s.drv.MemUsage())
	default:
		resp.Status = -int32(syscall.EINVAL)
	}
	return resp
}

// controlErrno maps a control-level driver error to the errno reported on
// the wire.
func controlErrno(err error) int32 {
	var errno syscall.Errno
	switch {
	case errors.Is(err, smbfs.ErrAlreadyMounted):
		return int32(syscall.EEXIST)
	case errors.Is(err, smbfs.ErrNotMounted):
		return int32(syscall.ENOENT)
	case errors.Is(err, smbfs.ErrBusy):
		return int32(syscall.EBUSY)
	case errors.Is(err, smbfs.ErrBadUnit):
		return int32(syscall.EINVAL)
	case errors.Is(err, syscall.ENOTDIR):
		return int32(syscall.ENOTDIR)
	case errors.As(err, &errno):
		return int32(errno)
	default:
		return int32(syscall.EIO)
	}
}

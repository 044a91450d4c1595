// Package smbfs implements the drive-unit driver that backs the Human68k
// remote filesystem. It owns the mount table, the open-file and directory
// search tables, and the dispatch of filesystem requests onto a remote
// connection.
package smbfs

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yunkya2/smbfs-x68k/human"
	"github.com/yunkya2/smbfs-x68k/remote"
)

// MaxUnits is the number of drive units a driver can expose.
const MaxUnits = 8

var (
	ErrAlreadyMounted = errors.New("unit already mounted")
	ErrNotMounted     = errors.New("unit not mounted")
	ErrBusy           = errors.New("unit busy")
	ErrBadUnit        = errors.New("no such unit")
)

type mountSlot struct {
	conn remote.Conn
	root string // sub-path inside the share, "" for the share root
	url  *remote.URL
	user string
}

type openFile struct {
	unit int
	f    remote.File
	pos  uint32
	path string
}

type dirSearch struct {
	unit    int
	dir     remote.Dir
	base    string // host path of the directory being searched
	pattern [21]byte
	attr    byte
	isRoot  bool
	isFirst bool
}

// Driver serializes filesystem requests for up to MaxUnits mounted drive
// units. All state is owned by the driver and guarded by a single mutex;
// the host side issues one request at a time, so there is no contention
// beyond the keepalive ticker.
type Driver struct {
	mu    sync.Mutex
	dial  remote.Dialer
	slots [MaxUnits]mountSlot
	files map[uint32]*openFile
	dirs  map[uint32]*dirSearch

	units     int
	maxFiles  int
	maxSearch int
	busy      func(unit int) bool
	log       *slog.Logger

	keepAliveEvery time.Duration
	kaUnit         int

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type Option func(*Driver)

// WithLogger sets the logger used for debug and error reporting.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithUnits limits the number of drive units, 1 to MaxUnits.
func WithUnits(n int) Option {
	return func(d *Driver) {
		if n >= 1 && n <= MaxUnits {
			d.units = n
		}
	}
}

// WithKeepAliveInterval sets the idle keepalive period. Zero disables the
// keepalive ticker.
func WithKeepAliveInterval(every time.Duration) Option {
	return func(d *Driver) { d.keepAliveEvery = every }
}

// WithBusyCheck installs a predicate consulted before unmounting a unit.
// The default reports busy while the unit has open files.
func WithBusyCheck(fn func(unit int) bool) Option {
	return func(d *Driver) {
		if fn != nil {
			d.busy = fn
		}
	}
}

// WithMaxOpenFiles caps the open-file table.
func WithMaxOpenFiles(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.maxFiles = n
		}
	}
}

// WithMaxSearches caps the directory-search table.
func WithMaxSearches(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.maxSearch = n
		}
	}
}

// New creates a driver that reaches remote shares through dial.
func New(dial remote.Dialer, opts ...Option) *Driver {
	d := &Driver{
		dial:           dial,
		files:          make(map[uint32]*openFile),
		dirs:           make(map[uint32]*dirSearch),
		units:          MaxUnits,
		maxFiles:       128,
		maxSearch:      128,
		log:            slog.Default(),
		keepAliveEvery: 30 * time.Second,
		done:           make(chan struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	if d.busy == nil {
		d.busy = d.hasOpenFiles
	}
	d.startKeepalive()
	return d
}

// Close stops the keepalive ticker and tears down every mount, ignoring
// busy state.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() { close(d.done) })
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	for unit := range d.slots {
		if d.slots[unit].conn != nil {
			d.unmountLocked(unit)
		}
	}
	return nil
}

func (d *Driver) hasOpenFiles(unit int) bool {
	for _, fi := range d.files {
		if fi.unit == unit {
			return true
		}
	}
	return false
}

func (d *Driver) slot(unit int) (*mountSlot, error) {
	if unit < 0 || unit >= d.units {
		return nil, ErrBadUnit
	}
	return &d.slots[unit], nil
}

// mountedSlot is slot plus the check that the unit actually has a
// connection. An unmounted unit fails path translation, so request
// handlers report it as a missing directory.
func (d *Driver) mountedSlot(unit int) (*mountSlot, human.Error) {
	slot, err := d.slot(unit)
	if err != nil || slot.conn == nil {
		return nil, human.ErrNoDir
	}
	return slot, 0
}

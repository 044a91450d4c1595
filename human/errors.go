package human

import "fmt"

// Error is a Human68k DOS error code. Values are negative as returned in
// the status field of a request.
type Error int32

const (
	ErrInvalidFunc Error = -1  // _DOSE_ILGFNC
	ErrNoEntry     Error = -2  // _DOSE_NOENT
	ErrNoDir       Error = -3  // _DOSE_NODIR
	ErrTooManyFile Error = -4  // _DOSE_MFILE
	ErrIsDir       Error = -5  // _DOSE_ISDIR
	ErrBadHandle   Error = -6  // _DOSE_BADF
	ErrBrokenMem   Error = -7  // _DOSE_BROKNMEM
	ErrNoMemory    Error = -8  // _DOSE_NOMEM
	ErrBadPointer  Error = -9  // _DOSE_ILGMPTR
	ErrBadEnv      Error = -10 // _DOSE_ILGENV
	ErrBadFormat   Error = -11 // _DOSE_ILGFMT
	ErrBadArg      Error = -12 // _DOSE_ILGARG
	ErrBadName     Error = -13 // _DOSE_ILGFNAME
	ErrBadParam    Error = -14 // _DOSE_ILGPARM
	ErrBadDrive    Error = -15 // _DOSE_ILGDRV
	ErrIsCurDir    Error = -16 // _DOSE_ISCURDIR
	ErrCantIoctl   Error = -17 // _DOSE_CANTIOC
	ErrNoMore      Error = -18 // _DOSE_NOMORE
	ErrReadOnly    Error = -19 // _DOSE_RDONLY
	ErrDirExists   Error = -20 // _DOSE_EXISTDIR
	ErrNotEmpty    Error = -21 // _DOSE_NOTEMPTY
	ErrCantRename  Error = -22 // _DOSE_CANTREN
	ErrDiskFull    Error = -23 // _DOSE_DISKFULL
	ErrDirFull     Error = -24 // _DOSE_DIRFULL
	ErrCantSeek    Error = -25 // _DOSE_CANTSEEK
	ErrFileExists  Error = -26 // _DOSE_EXISTFILE
)

var errNames = map[Error]string{
	ErrInvalidFunc: "invalid function",
	ErrNoEntry:     "no such file",
	ErrNoDir:       "no such directory",
	ErrTooManyFile: "too many open files",
	ErrIsDir:       "is a directory",
	ErrBadHandle:   "bad file handle",
	ErrBrokenMem:   "memory chain broken",
	ErrNoMemory:    "out of memory",
	ErrBadPointer:  "bad memory pointer",
	ErrBadEnv:      "bad environment",
	ErrBadFormat:   "bad executable format",
	ErrBadArg:      "bad argument",
	ErrBadName:     "bad file name",
	ErrBadParam:    "bad parameter",
	ErrBadDrive:    "bad drive",
	ErrIsCurDir:    "is the current directory",
	ErrCantIoctl:   "ioctl not supported",
	ErrNoMore:      "no more files",
	ErrReadOnly:    "read-only file",
	ErrDirExists:   "directory already exists",
	ErrNotEmpty:    "directory not empty",
	ErrCantRename:  "cannot rename",
	ErrDiskFull:    "disk full",
	ErrDirFull:     "directory full",
	ErrCantSeek:    "cannot seek",
	ErrFileExists:  "file already exists",
}

func (e Error) Error() string {
	if s, ok := errNames[e]; ok {
		return fmt.Sprintf("%s (%d)", s, int32(e))
	}
	return fmt.Sprintf("dos error %d", int32(e))
}

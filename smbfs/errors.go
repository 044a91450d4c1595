package smbfs

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/yunkya2/smbfs-x68k/human"
)

// dosError maps a backend error to the DOS error code space. Per-operation
// overrides (mkdir, rmdir, rename, create, open) are applied by the
// handlers before falling through to this table.
func dosError(err error) human.Error {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, syscall.ENOENT), errors.Is(err, fs.ErrNotExist):
		return human.ErrNoEntry
	case errors.Is(err, syscall.ENOTDIR):
		return human.ErrNoDir
	case errors.Is(err, syscall.EMFILE):
		return human.ErrTooManyFile
	case errors.Is(err, syscall.EISDIR):
		return human.ErrIsDir
	case errors.Is(err, syscall.EBADF):
		return human.ErrBadHandle
	case errors.Is(err, syscall.ENOMEM):
		return human.ErrNoMemory
	case errors.Is(err, syscall.EFAULT):
		return human.ErrBadPointer
	case errors.Is(err, syscall.ENOEXEC):
		return human.ErrBadFormat
	case errors.Is(err, syscall.ENAMETOOLONG):
		return human.ErrBadName
	case errors.Is(err, syscall.EXDEV):
		return human.ErrBadDrive
	case errors.Is(err, syscall.EACCES),
		errors.Is(err, syscall.EPERM),
		errors.Is(err, syscall.EROFS),
		errors.Is(err, fs.ErrPermission):
		return human.ErrReadOnly
	case errors.Is(err, syscall.ENOTEMPTY):
		return human.ErrNotEmpty
	case errors.Is(err, syscall.ENOSPC):
		return human.ErrDiskFull
	case errors.Is(err, syscall.EOVERFLOW):
		return human.ErrCantSeek
	case errors.Is(err, syscall.EEXIST), errors.Is(err, fs.ErrExist):
		return human.ErrFileExists
	default:
		return human.ErrBadParam
	}
}

package gen

import (
	"github.com/pingcap/errors"
)

var (
	ErrNodeTerminated = errors.New("node terminated")

	ErrProcessUnknown    = errors.New("unknown process")
	ErrProcessTerminated = errors.New("process terminated")

	ErrTimeout     = errors.New("timed out")
	ErrUnsupported = errors.New("not supported")
	ErrNotAllowed  = errors.New("not allowed")
	ErrIncorrect   = errors.New("incorrect value or argument")

	ErrInternal = errors.New("internal error")
)

// IsDeadTarget returns true if the error means the request was addressed to
// a process that has already terminated (or has never existed).
func IsDeadTarget(err error) bool {
	cause := errors.Cause(err)
	return cause == ErrProcessTerminated || cause == ErrProcessUnknown
}

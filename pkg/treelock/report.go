package treelock

import (
	"errors"
	"fmt"

	"github.com/encbox/encbox/pkg/envelope"
)

// ErrorKind classifies a per-file failure for reporting.
type ErrorKind string

const (
	// KindFormat means the file is not one of our containers.
	KindFormat ErrorKind = "format"
	// KindAuth means tag verification failed: wrong passphrase or
	// corrupted data, indistinguishable by design.
	KindAuth ErrorKind = "auth"
	// KindKDF means key derivation parameters were invalid.
	KindKDF ErrorKind = "kdf"
	// KindIO covers filesystem read and write failures.
	KindIO ErrorKind = "io"
)

// FileResult is the outcome of processing a single file.
type FileResult struct {
	// Source path of the input file.
	Source string

	// Dest path the output was (or would have been) written to.
	Dest string

	// Err is nil on success.
	Err error
}

// Kind classifies the failure. Only meaningful when Err is non-nil.
func (r FileResult) Kind() ErrorKind {
	switch {
	case errors.Is(r.Err, envelope.ErrAuthentication):
		return KindAuth
	case errors.Is(r.Err, envelope.ErrFormat):
		return KindFormat
	case errors.Is(r.Err, envelope.ErrBadParams):
		return KindKDF
	default:
		return KindIO
	}
}

// Report is the terminal state of a directory operation. Partial success is
// a valid outcome: failed files never abort the rest of the walk.
type Report struct {
	Succeeded []FileResult
	Failed    []FileResult
}

func (r *Report) add(res FileResult) {
	if res.Err != nil {
		r.Failed = append(r.Failed, res)
		return
	}
	r.Succeeded = append(r.Succeeded, res)
}

// Ok reports whether every file processed successfully.
func (r *Report) Ok() bool {
	return len(r.Failed) == 0
}

// Total is the number of files the operation attempted.
func (r *Report) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

func (r *Report) String() string {
	return fmt.Sprintf("%d succeeded, %d failed", len(r.Succeeded), len(r.Failed))
}

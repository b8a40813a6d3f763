package meta

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when a mirrored file has no metadata sidecar.
var ErrNotFound = errors.New("metadata not found")

// ErrNoSource is returned by Write when neither a listing nor a record is supplied.
var ErrNoSource = errors.New("write needs a listing or a record")

// MalformedError reports a sidecar whose content could not be decoded.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed sidecar %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// DirectoryError reports a directory that could not be listed or created.
// It is fatal to the operation that hit it.
type DirectoryError struct {
	Dir string
	Op  string // "list" or "create"
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("%s directory %s: %v", e.Op, e.Dir, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

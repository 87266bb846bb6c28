package workspace

import "errors"

// Sentinel errors for snapshot chain operations.
var (
	// ErrStaleSelection is returned when a drop targets a snapshot that is
	// no longer the top of the chain. The caller should refresh its
	// selection and retry; no mutation has occurred.
	ErrStaleSelection = errors.New("selected snapshot is not the top of the chain")

	// ErrUnknownSnapshot is returned by Select for a sequence number the
	// chain does not contain.
	ErrUnknownSnapshot = errors.New("no snapshot with that sequence number")

	// ErrFragmentRead wraps IO failures while reading a fragment's text.
	// The offending fragment is removed from the snapshot and processing
	// continues.
	ErrFragmentRead = errors.New("fragment could not be read")
)

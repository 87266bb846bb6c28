package clipboard

import "errors"

// Terminal classification failures. Each surfaces exactly one user-visible
// message; recoverable stage failures fall through to the next stage
// instead.
var (
	// ErrEmpty: the clipboard offered no data at all.
	ErrEmpty = errors.New("Clipboard is empty or unavailable")

	// ErrTextEmpty: a text flavor was present but blank.
	ErrTextEmpty = errors.New("Clipboard text is empty")

	// ErrUnsupportedType: no image flavor succeeded and no text flavor
	// exists.
	ErrUnsupportedType = errors.New("Unsupported clipboard content type")

	// ErrCrossBoundaryTransfer: the platform could not complete a
	// cross-boundary clipboard transfer (INCR protocol failure). Fatal and
	// not retryable; writing the image to a file and reading it instead is
	// the workaround.
	ErrCrossBoundaryTransfer = errors.New("Unable to paste image data across the display boundary. Write the image to a file and read it that way instead")
)

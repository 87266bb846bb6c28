package clipboard

// Flavor is one typed representation a clipboard payload offers. The same
// payload commonly exposes several flavors for the same content.
type Flavor interface {
	// MIME returns the flavor's MIME type, e.g. "image/png" or
	// "application/x-file-list".
	MIME() string

	// IsFileList reports whether the flavor carries a file-path list
	// (drag-and-drop from a file manager).
	IsFileList() bool

	// Contents materializes the flavor data: an image.Image, an io.Reader
	// over raw bytes, or a []string of file paths. Reading may fail; a
	// failure mentioning "INCR" signals a broken cross-boundary transfer.
	Contents() (any, error)
}

// Payload is an opaque clipboard snapshot: zero or more typed flavors plus
// an optional plain-text flavor.
type Payload interface {
	// Flavors returns the typed flavors in platform priority order.
	Flavors() []Flavor

	// Text returns the plain-text flavor, if one exists.
	Text() (string, bool)
}

// Package fragment defines the typed content units a workspace snapshot is
// built from. The variant set is closed: consumers dispatch on Kind (or a
// type switch) and must not define new implementations of Fragment.
package fragment

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Kind tags a fragment variant.
type Kind string

const (
	KindProjectPath Kind = "PROJECT_PATH"
	KindString      Kind = "STRING"
	KindPasteText   Kind = "PASTE_TEXT"
	KindPasteImage  Kind = "PASTE_IMAGE"
	KindStackTrace  Kind = "STACK_TRACE"
	KindHistory     Kind = "HISTORY"
	KindOutput      Kind = "OUTPUT"
)

// FileRef identifies a project file by its path relative to the project root.
type FileRef string

// FileName returns the base name of the referenced file.
func (f FileRef) FileName() string {
	return filepath.Base(string(f))
}

// Fragment is one unit of workspace content. Implementations are immutable
// except for the narrow description-patch path on paste fragments.
type Fragment interface {
	// ID is stable and opaque, assigned at creation.
	ID() string

	// Kind never changes after creation.
	Kind() Kind

	// Description is a short human-readable summary. For paste fragments it
	// may be a placeholder until the async summary arrives.
	Description() string

	// IsText reports whether Text returns meaningful content for token
	// counting and aggregation.
	IsText() bool

	// Text returns the fragment content. Reads backing storage lazily for
	// file-backed fragments.
	Text() (string, error)

	// Files returns the project files this fragment touches, possibly empty.
	Files() []FileRef
}

// NewID returns a fresh fragment identifier.
func NewID() string {
	return ulid.Make().String()
}

// PlaceholderDescription is shown for paste fragments whose summary has not
// arrived yet.
const PlaceholderDescription = "(Summarizing. This does not block LLM requests)"

// ImagePlaceholderDescription is the image-paste variant.
const ImagePlaceholderDescription = "(Summarizing image. This does not block LLM requests)"

// pendingDescription holds a description that starts as a placeholder and is
// patched exactly once when the summarization job completes. This is the only
// mutable state a fragment carries.
type pendingDescription struct {
	mu          sync.Mutex
	placeholder string
	done        bool
	failed      bool
	value       string
}

func (p *pendingDescription) get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		if p.placeholder != "" {
			return p.placeholder
		}
		return PlaceholderDescription
	}
	if p.failed {
		return "(Error summarizing paste)"
	}
	return "Paste of " + p.value
}

func (p *pendingDescription) set(summary string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.value = summary
}

func (p *pendingDescription) fail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.failed = true
}

// ProjectPath wraps a tracked project file. Content is read from disk on
// demand so the fragment never caches stale text.
type ProjectPath struct {
	id   string
	root string
	path FileRef
}

// NewProjectPath creates a file-backed fragment rooted at the project root.
func NewProjectPath(root string, path FileRef) *ProjectPath {
	return &ProjectPath{id: NewID(), root: root, path: path}
}

func (f *ProjectPath) ID() string   { return f.id }
func (f *ProjectPath) Kind() Kind   { return KindProjectPath }
func (f *ProjectPath) IsText() bool { return true }

func (f *ProjectPath) Description() string {
	dir := filepath.Dir(string(f.path))
	if dir == "." {
		return f.path.FileName()
	}
	return fmt.Sprintf("%s [%s]", f.path.FileName(), dir)
}

func (f *ProjectPath) Text() (string, error) {
	data, err := os.ReadFile(filepath.Join(f.root, string(f.path)))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.path, err)
	}
	return string(data), nil
}

func (f *ProjectPath) Files() []FileRef { return []FileRef{f.path} }

// Path returns the project-relative path of the backing file.
func (f *ProjectPath) Path() FileRef { return f.path }

// String holds synthesized text content: captured diffs, usage results,
// command output snippets and similar.
type String struct {
	id          string
	text        string
	description string
}

// NewString creates a fragment with fixed content and description.
func NewString(text, description string) *String {
	return &String{id: NewID(), text: text, description: description}
}

func (f *String) ID() string            { return f.id }
func (f *String) Kind() Kind            { return KindString }
func (f *String) IsText() bool          { return true }
func (f *String) Description() string   { return f.description }
func (f *String) Text() (string, error) { return f.text, nil }
func (f *String) Files() []FileRef      { return nil }

// PasteText is clipboard text (possibly fetched from a pasted URL) whose
// description is produced asynchronously.
type PasteText struct {
	id        string
	text      string
	sourceURL string
	desc      pendingDescription
}

// NewPasteText creates a paste-text fragment with a pending description.
// sourceURL is empty unless the content was fetched from a pasted URL.
func NewPasteText(text, sourceURL string) *PasteText {
	return &PasteText{id: NewID(), text: text, sourceURL: sourceURL}
}

func (f *PasteText) ID() string            { return f.id }
func (f *PasteText) Kind() Kind            { return KindPasteText }
func (f *PasteText) IsText() bool          { return true }
func (f *PasteText) Description() string   { return f.desc.get() }
func (f *PasteText) Text() (string, error) { return f.text, nil }
func (f *PasteText) Files() []FileRef      { return nil }

// SourceURL returns the URL the content was fetched from, or "".
func (f *PasteText) SourceURL() string { return f.sourceURL }

// SetSummary patches the pending description. Later calls are ignored.
func (f *PasteText) SetSummary(summary string) { f.desc.set(summary) }

// FailSummary marks the summarization as failed.
func (f *PasteText) FailSummary() { f.desc.fail() }

// PasteImage is a decoded clipboard image.
type PasteImage struct {
	id        string
	img       image.Image
	sourceURL string
	desc      pendingDescription
}

// NewPasteImage creates a paste-image fragment. sourceURL is set when the
// image was fetched from a pasted URL.
func NewPasteImage(img image.Image, sourceURL string) *PasteImage {
	f := &PasteImage{id: NewID(), img: img, sourceURL: sourceURL}
	f.desc.placeholder = ImagePlaceholderDescription
	return f
}

func (f *PasteImage) ID() string          { return f.id }
func (f *PasteImage) Kind() Kind          { return KindPasteImage }
func (f *PasteImage) IsText() bool        { return false }
func (f *PasteImage) Description() string { return f.desc.get() }
func (f *PasteImage) Files() []FileRef    { return nil }

// Text exists to support copying; images contribute no tokens.
func (f *PasteImage) Text() (string, error) {
	return "[Image content provided out of band]", nil
}

// Image returns the decoded image.
func (f *PasteImage) Image() image.Image { return f.img }

// SourceURL returns the URL the image was fetched from, or "".
func (f *PasteImage) SourceURL() string { return f.sourceURL }

// SetSummary patches the pending description. Later calls are ignored.
func (f *PasteImage) SetSummary(summary string) { f.desc.set(summary) }

// FailSummary marks the summarization as failed.
func (f *PasteImage) FailSummary() { f.desc.fail() }

// StackTrace is pasted text recognized as a structured stack trace.
type StackTrace struct {
	id        string
	original  string
	exception string
	frames    []Frame
}

// NewStackTrace wraps a parsed trace.
func NewStackTrace(original, exception string, frames []Frame) *StackTrace {
	return &StackTrace{id: NewID(), original: original, exception: exception, frames: frames}
}

func (f *StackTrace) ID() string   { return f.id }
func (f *StackTrace) Kind() Kind   { return KindStackTrace }
func (f *StackTrace) IsText() bool { return true }

func (f *StackTrace) Description() string {
	return "stacktrace of " + f.exception
}

func (f *StackTrace) Text() (string, error) {
	var sb strings.Builder
	sb.WriteString(f.original)
	sb.WriteString("\n\nStacktrace frames:\n\n")
	for _, fr := range f.frames {
		sb.WriteString(fr.Raw)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func (f *StackTrace) Files() []FileRef { return nil }

// Exception returns the exception name from the trace header.
func (f *StackTrace) Exception() string { return f.exception }

// Frames returns the parsed frames in order.
func (f *StackTrace) Frames() []Frame { return f.frames }

// Patchable is implemented by fragments whose description can be revised by
// a summarization completion.
type Patchable interface {
	Fragment
	SetSummary(summary string)
	FailSummary()
}

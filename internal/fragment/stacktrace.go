package fragment

import (
	"regexp"
	"strings"
)

// Frame is one parsed stack-trace frame.
type Frame struct {
	Raw      string
	Location string // "File.java:123" style location, may be empty
}

var (
	// Java/Kotlin style: "at com.foo.Bar.baz(Bar.java:42)". Also accepts
	// "native method" style frames without a line number.
	javaFrameRe = regexp.MustCompile(`^\s*at\s+[\w$.<>/]+\(([^)]*)\)\s*$`)

	// Python style: `File "app.py", line 12, in main`.
	pythonFrameRe = regexp.MustCompile(`^\s*File\s+"([^"]+)",\s+line\s+\d+`)
)

// minFrames is the threshold below which text is treated as prose rather
// than a trace.
const minFrames = 2

// ParseStackTrace recognizes a multi-frame stack trace in pasted text.
// It returns the exception header and frames, or ok=false when the text does
// not look like a trace.
func ParseStackTrace(text string) (exception string, frames []Frame, ok bool) {
	lines := strings.Split(text, "\n")

	var header string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := javaFrameRe.FindStringSubmatch(line); m != nil {
			frames = append(frames, Frame{Raw: trimmed, Location: m[1]})
			continue
		}
		if m := pythonFrameRe.FindStringSubmatch(line); m != nil {
			frames = append(frames, Frame{Raw: trimmed, Location: m[1]})
			continue
		}
		// First non-frame line before any frame is the candidate header.
		if len(frames) == 0 && header == "" {
			header = trimmed
		}
	}

	if len(frames) < minFrames {
		return "", nil, false
	}

	return exceptionFromHeader(header), frames, true
}

// exceptionFromHeader extracts the exception name from a trace header like
// "java.lang.IllegalStateException: boom" or "Caused by: FooError".
func exceptionFromHeader(header string) string {
	header = strings.TrimPrefix(header, "Caused by:")
	header = strings.TrimPrefix(header, "Exception in thread")
	header = strings.TrimSpace(header)
	if header == "" {
		return "unknown exception"
	}
	// Drop a leading quoted thread name left over from the Java preamble.
	if strings.HasPrefix(header, "\"") {
		if end := strings.Index(header[1:], "\""); end >= 0 {
			header = strings.TrimSpace(header[end+2:])
		}
	}
	if idx := strings.Index(header, ":"); idx > 0 {
		header = header[:idx]
	}
	return strings.TrimSpace(header)
}

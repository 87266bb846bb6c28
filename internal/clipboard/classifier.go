// Package clipboard turns raw clipboard payloads into workspace fragments.
// Classification runs a priority pipeline: image flavors first, then URL
// probing, stack-trace recognition, and finally plain pasted text.
package clipboard

import (
	"bytes"
	"context"
	"image"
	"io"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"

	// Codecs for the clipboard image suffix set.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"workbench/internal/fetch"
	"workbench/internal/fragment"
)

var (
	urlRe         = regexp.MustCompile(`^https?://\S+$`)
	imageSuffixRe = regexp.MustCompile(`(?i).*(png|jpg|jpeg|gif|bmp)$`)
)

// Result is a successful classification: exactly one fragment, one
// confirmation message, and optionally content to summarize
// asynchronously.
type Result struct {
	Fragment fragment.Fragment

	// Message is the single confirmation shown to the user.
	Message string

	// Warning carries a non-fatal error surfaced alongside success, e.g. a
	// URL fetch that fell back to the literal text.
	Warning string

	// SummarizeText, when non-empty, is submitted to the async summarizer
	// to refine the fragment's description.
	SummarizeText string
}

// Classifier implements the paste-ingestion pipeline.
type Classifier struct {
	fetcher *fetch.Client
	log     *zap.Logger
}

// NewClassifier creates a Classifier using the given network client.
func NewClassifier(fetcher *fetch.Client, log *zap.Logger) *Classifier {
	return &Classifier{fetcher: fetcher, log: log}
}

// Classify inspects the payload and constructs the appropriate fragment.
// Each pipeline stage short-circuits on success; recoverable failures fall
// through to the next stage. At most one fragment is ever produced.
func (c *Classifier) Classify(payload Payload) (*Result, error) {
	if payload == nil {
		return nil, ErrEmpty
	}
	flavors := payload.Flavors()
	text, hasText := payload.Text()
	if len(flavors) == 0 && !hasText {
		return nil, ErrEmpty
	}

	if result, err := c.classifyImageFlavors(flavors); result != nil || err != nil {
		return result, err
	}

	if !hasText {
		return nil, ErrUnsupportedType
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextEmpty
	}

	return c.classifyText(strings.TrimSpace(text))
}

// classifyImageFlavors walks the payload's flavors looking for a decodable
// image: a direct image object, a decodable byte stream, or a file-path
// list whose first entry has an image suffix. Decode failures on one flavor
// move on to the next; a cross-boundary transfer failure is fatal.
func (c *Classifier) classifyImageFlavors(flavors []Flavor) (*Result, error) {
	for _, flavor := range flavors {
		if !flavor.IsFileList() && !strings.HasPrefix(flavor.MIME(), "image/") {
			continue
		}
		img, err := c.imageFromFlavor(flavor)
		if err != nil {
			if strings.Contains(err.Error(), "INCR") {
				return nil, ErrCrossBoundaryTransfer
			}
			c.log.Debug("image flavor failed", zap.String("mime", flavor.MIME()), zap.Error(err))
			continue
		}
		if img == nil {
			continue
		}
		return &Result{
			Fragment: fragment.NewPasteImage(img, ""),
			Message:  "Pasted image added to context",
		}, nil
	}
	return nil, nil
}

func (c *Classifier) imageFromFlavor(flavor Flavor) (image.Image, error) {
	data, err := flavor.Contents()
	if err != nil {
		return nil, err
	}
	switch v := data.(type) {
	case image.Image:
		return v, nil
	case io.Reader:
		img, _, err := image.Decode(v)
		if err != nil {
			return nil, err
		}
		return img, nil
	case []byte:
		img, _, err := image.Decode(bytes.NewReader(v))
		if err != nil {
			return nil, err
		}
		return img, nil
	case []string:
		if len(v) == 0 || !imageSuffixRe.MatchString(v[0]) {
			return nil, nil
		}
		f, err := os.Open(v[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, err
		}
		return img, nil
	default:
		return nil, nil
	}
}

// classifyText handles the text stages: URL probing, stack-trace
// recognition, and the paste-text fallback.
func (c *Classifier) classifyText(text string) (*Result, error) {
	content := text
	warning := ""
	wasURL := false
	sourceURL := ""

	if urlRe.MatchString(text) {
		if result := c.tryImageURL(text); result != nil {
			return result, nil
		}

		fetched, ct, err := c.fetcher.Get(context.Background(), text)
		if err != nil {
			// Non-fatal: keep the literal clipboard text as content.
			c.log.Warn("URL fetch failed, keeping literal text", zap.String("url", text), zap.Error(err))
			warning = "Failed to fetch URL content as text: " + err.Error()
		} else {
			body := string(fetched)
			if fetch.LooksLikeHTML(ct, body) {
				body = fetch.HTMLToText(body)
			}
			content = body
			wasURL = true
			sourceURL = text
		}
	}

	if exception, frames, ok := fragment.ParseStackTrace(content); ok {
		return &Result{
			Fragment: fragment.NewStackTrace(content, exception, frames),
			Message:  "Stack trace of " + exception + " added to context",
			Warning:  warning,
		}, nil
	}

	message := "Clipboard content added as text"
	if wasURL {
		message = "URL content fetched and added"
	}
	return &Result{
		Fragment:      fragment.NewPasteText(content, sourceURL),
		Message:       message,
		Warning:       warning,
		SummarizeText: content,
	}, nil
}

// tryImageURL probes a pasted URL with HEAD; when the content type is an
// image it fetches and decodes the body. Any failure returns nil so the
// caller falls through to fetching the URL as text.
func (c *Classifier) tryImageURL(url string) *Result {
	ct, err := c.fetcher.Head(context.Background(), url)
	if err != nil {
		c.log.Debug("HEAD probe failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	if !strings.HasPrefix(ct, "image/") {
		return nil
	}

	body, _, err := c.fetcher.Get(context.Background(), url)
	if err != nil {
		c.log.Warn("image URL fetch failed, falling back to text", zap.String("url", url), zap.Error(err))
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		c.log.Warn("image URL decode failed, falling back to text", zap.String("url", url), zap.Error(err))
		return nil
	}
	return &Result{
		Fragment: fragment.NewPasteImage(img, url),
		Message:  "Pasted image from URL added to context",
	}
}

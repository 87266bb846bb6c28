package clipboard

import (
	atotto "github.com/atotto/clipboard"
)

// TextPayload is a text-only Payload, used for the system clipboard and in
// tests.
type TextPayload string

func (t TextPayload) Flavors() []Flavor { return nil }

func (t TextPayload) Text() (string, bool) {
	return string(t), t != ""
}

// WriteSystem places aggregated text on the OS clipboard.
func WriteSystem(text string) error {
	return atotto.WriteAll(text)
}

// ReadSystem snapshots the OS clipboard. Only the text flavor is visible
// through this path; image flavors come from platform-specific payloads.
func ReadSystem() (Payload, error) {
	text, err := atotto.ReadAll()
	if err != nil {
		return nil, ErrEmpty
	}
	return TextPayload(text), nil
}

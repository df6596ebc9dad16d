// Package caption suggests short photo captions using a vision model.
package caption

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxLength matches the caption field limit.
const MaxLength = 100

// Prompt is shared by every backend.
const Prompt = `This photo was taken at a university activity (seminar, workshop, talk or similar).
Write one short, formal caption for it suitable for an official activity report.
Describe what is happening without guessing names. Respond with the caption only,
on a single line, under 100 characters.`

type Suggester interface {
	Suggest(ctx context.Context, r io.Reader, mimeType string) (string, error)
}

// ParseCaption extracts the caption from a model response: the first
// non-empty line, without a "Caption:" label or wrapping quotes, cut to
// MaxLength characters.
func ParseCaption(raw string) string {
	var line string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	if i := strings.Index(line, ":"); i >= 0 && strings.EqualFold(strings.TrimSpace(line[:i]), "caption") {
		line = strings.TrimSpace(line[i+1:])
	}
	line = strings.Trim(line, "\"'*`“”")
	line = strings.TrimSpace(line)

	if utf8.RuneCountInString(line) > MaxLength {
		runes := []rune(line)
		line = strings.TrimSpace(string(runes[:MaxLength]))
	}
	return line
}

package llm

import "errors"

// ErrInvalidCredentials marks a rejected or expired API key.
var ErrInvalidCredentials = errors.New("invalid or expired model api key")

// Part is one element of a prompt: either text or inline binary data.
type Part struct {
	Text     string
	Data     []byte
	MimeType string
}

func Text(s string) Part {
	return Part{Text: s}
}

func Inline(data []byte, mimeType string) Part {
	return Part{Data: data, MimeType: mimeType}
}

func (p Part) IsInline() bool {
	return p.Data != nil
}

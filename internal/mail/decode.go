package mail

import (
	"mime"
	"strings"

	"github.com/emersion/go-message/charset"
)

// wordDecoder decodes RFC 2047 encoded-words. charset.Reader understands
// the legacy character sets (koi8-r, windows-1251, iso-8859-*) that still
// show up in mail headers.
var wordDecoder = mime.WordDecoder{CharsetReader: charset.Reader}

// DecodeHeader decodes every encoded-word in a header value into readable
// text. A segment with no declared charset is treated as UTF-8. Decoding
// never fails: a malformed or unknown-charset segment falls back to its
// raw form so one bad header cannot abort a whole fetch.
func DecodeHeader(s string) string {
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return sanitizeText(s)
	}
	return sanitizeText(decoded)
}

// sanitizeText replaces invalid UTF-8 byte sequences with the Unicode
// replacement character so downstream JSON encoding always succeeds.
func sanitizeText(s string) string {
	return strings.ToValidUTF8(s, "�")
}

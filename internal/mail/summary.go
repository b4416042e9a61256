package mail

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	gomail "github.com/emersion/go-message/mail"
)

// noSubject is substituted when a message carries no Subject header.
const noSubject = "Без темы"

// previewLimit is the maximum preview length in characters.
const previewLimit = 200

// Credentials identify the mailbox owner for one call. They are supplied
// per request and never persisted by this layer.
type Credentials struct {
	Address string
	Secret  string
}

// Empty reports whether either credential field is missing.
func (c Credentials) Empty() bool {
	return c.Address == "" || c.Secret == ""
}

// MessageSummary is the normalized, display-ready representation of one
// retrieved message.
//
// IsRead, HasAttachment and IsStarred are fixed defaults: this layer does
// not inspect attachment parts or mailbox flags, and callers must not
// rely on them reflecting real state.
type MessageSummary struct {
	ID            int    `json:"id"`
	From          string `json:"from"`
	Subject       string `json:"subject"`
	Preview       string `json:"preview"`
	Date          string `json:"date"`
	Content       string `json:"content"`
	IsRead        bool   `json:"isRead"`
	HasAttachment bool   `json:"hasAttachment"`
	IsStarred     bool   `json:"isStarred"`
}

// OutgoingMessage holds the structured fields of a message to transmit.
type OutgoingMessage struct {
	From    string
	To      string
	Subject string
	Content string
}

// Normalize decodes one raw retrieved message into a MessageSummary.
// Header decoding is best-effort and body extraction degrades to an
// empty string, so an error is returned only when the raw bytes cannot
// be read as a message at all.
func Normalize(id int, raw []byte) (MessageSummary, error) {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return MessageSummary{}, fmt.Errorf("reading message %d: %w", id, err)
	}
	defer mr.Close()

	subject := DecodeHeader(mr.Header.Get("Subject"))
	if subject == "" {
		subject = noSubject
	}
	from := DecodeHeader(mr.Header.Get("From"))
	date := mr.Header.Get("Date")

	topType, _, _ := mr.Header.ContentType()
	multipart := strings.HasPrefix(topType, "multipart/")
	content := extractBody(mr, multipart)

	return MessageSummary{
		ID:            id,
		From:          from,
		Subject:       subject,
		Preview:       truncate(content, previewLimit),
		Date:          date,
		Content:       content,
		IsRead:        true,
		HasAttachment: false,
		IsStarred:     false,
	}, nil
}

// extractBody returns the message body as text. For a multipart message
// it is the first text/plain inline part; a message without one yields
// "". A single-part message contributes its sole decoded payload
// whatever its content type. Unreadable parts degrade to "".
func extractBody(mr *gomail.Reader, multipart bool) string {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return ""
		}
		if err != nil {
			return ""
		}

		h, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}

		if multipart {
			contentType, _, _ := h.ContentType()
			if !strings.HasPrefix(contentType, "text/plain") {
				continue
			}
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return ""
		}
		return sanitizeText(string(body))
	}
}

// truncate returns the first limit characters of s.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

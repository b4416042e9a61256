package mail

import (
	"bytes"
	"fmt"
	"io"

	gomail "github.com/emersion/go-message/mail"
)

// Compose builds a wire-ready message with a single text/plain UTF-8
// body part. Sender, recipient and subject are set verbatim; address
// validation is the caller's concern.
func Compose(msg OutgoingMessage) ([]byte, error) {
	var header gomail.Header
	header.Set("From", msg.From)
	header.Set("To", msg.To)
	header.SetSubject(msg.Subject)
	header.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	if _, err := io.WriteString(w, msg.Content); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing message body: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message body: %w", err)
	}

	return buf.Bytes(), nil
}

package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// smtpSession is the slice of SMTP client behavior the sender drives.
// Tests substitute a stub that records auth, send and close calls.
type smtpSession interface {
	Auth(username, password string) error
	Send(from, to string, payload []byte) error
	Close() error
}

// Sender transmits one composed message per call over a transient SMTP
// session: connect, authenticate, send, close. The channel never
// outlives the call.
type Sender struct {
	host string
	port int

	// dial opens a secure channel to addr. Overridable in tests.
	dial func(addr, host string) (smtpSession, error)
}

// NewSender creates a Sender for the given SMTP server.
func NewSender(host string, port int) *Sender {
	return &Sender{
		host: host,
		port: port,
		dial: dialSMTP,
	}
}

// Send composes msg and hands it to the transmission server for the
// single recipient. Required fields are checked before any connection
// is attempted.
func (s *Sender) Send(
	_ context.Context,
	creds Credentials,
	msg OutgoingMessage,
) error {
	if creds.Empty() {
		return &AuthRequiredError{}
	}
	switch {
	case strings.TrimSpace(msg.To) == "":
		return &ValidationError{Field: "to"}
	case strings.TrimSpace(msg.Subject) == "":
		return &ValidationError{Field: "subject"}
	case strings.TrimSpace(msg.Content) == "":
		return &ValidationError{Field: "content"}
	}

	payload, err := Compose(msg)
	if err != nil {
		return fmt.Errorf("composing message: %w", err)
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	session, err := s.dial(addr, s.host)
	if err != nil {
		return &ConnectivityError{Addr: addr, Err: err}
	}
	defer func() { _ = session.Close() }()

	if err := session.Auth(creds.Address, creds.Secret); err != nil {
		return &AuthFailedError{Op: "smtp auth", Err: err}
	}

	if err := session.Send(msg.From, msg.To, payload); err != nil {
		return &ProtocolError{Op: "sending message", Err: err}
	}

	return nil
}

// dialSMTP opens an implicit-TLS connection to the SMTP server.
func dialSMTP(addr, host string) (smtpSession, error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return nil, err
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &smtpClientSession{client: client, host: host}, nil
}

// smtpClientSession adapts net/smtp's client to the smtpSession interface.
type smtpClientSession struct {
	client *smtp.Client
	host   string
}

func (s *smtpClientSession) Auth(username, password string) error {
	return s.client.Auth(smtp.PlainAuth("", username, password, s.host))
}

func (s *smtpClientSession) Send(from, to string, payload []byte) error {
	if err := s.client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := s.client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}

	w, err := s.client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing payload: %w", err)
	}
	return nil
}

func (s *smtpClientSession) Close() error {
	if err := s.client.Quit(); err != nil {
		return s.client.Close()
	}
	return nil
}

package mail

import (
	"errors"
	"fmt"
)

// ValidationError indicates a required request field was missing or empty.
// It is returned before any network connection is attempted.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s is required", e.Field)
}

// IsValidation reports whether err (or any error in its chain) is a ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// AuthRequiredError indicates the request carried no credential at all.
// Like ValidationError it is detected before any session is opened.
type AuthRequiredError struct{}

func (e *AuthRequiredError) Error() string {
	return "authentication required"
}

// IsAuthRequired reports whether err is an AuthRequiredError.
func IsAuthRequired(err error) bool {
	var aErr *AuthRequiredError
	return errors.As(err, &aErr)
}

// AuthFailedError indicates the remote server rejected the supplied
// credential. For fetch it also covers folder selection failures, which
// some IMAP servers report indistinguishably from a bad login.
type AuthFailedError struct {
	Op  string
	Err error
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("auth failed (%s): %v", e.Op, e.Err)
}

func (e *AuthFailedError) Unwrap() error { return e.Err }

// IsAuthFailed reports whether err is an AuthFailedError.
func IsAuthFailed(err error) bool {
	var aErr *AuthFailedError
	return errors.As(err, &aErr)
}

// ConnectivityError indicates the secure channel to the mail server could
// not be established (DNS failure, TLS failure, connection refused).
type ConnectivityError struct {
	Addr string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Addr, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is a ConnectivityError.
func IsConnectivity(err error) bool {
	var cErr *ConnectivityError
	return errors.As(err, &cErr)
}

// ProtocolError indicates the remote server returned a fault that is not
// an authentication failure (malformed response, recipient rejected,
// quota exceeded). It carries the server's diagnostic text.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsProtocol reports whether err is a ProtocolError.
func IsProtocol(err error) bool {
	var pErr *ProtocolError
	return errors.As(err, &pErr)
}

// Package api exposes the gateway's HTTP surface: mail fetch/send backed
// by the transport core, and the account directory CRUD.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pr-poehali-dev/mailgate/internal/account"
	"github.com/pr-poehali-dev/mailgate/internal/mail"
)

// Fetcher retrieves message summaries from the mailbox server.
type Fetcher interface {
	Fetch(ctx context.Context, creds mail.Credentials, folder string, limit int) (*mail.FetchResult, error)
}

// Sender transmits one outgoing message.
type Sender interface {
	Send(ctx context.Context, creds mail.Credentials, msg mail.OutgoingMessage) error
}

// Directory is the account bookkeeping collaborator.
type Directory interface {
	List(ctx context.Context) ([]account.Account, error)
	Create(ctx context.Context, email, password, fullName string, quotaMB int) (int64, error)
	Update(ctx context.Context, id int64, fullName string, quotaMB int, isActive bool) error
	Delete(ctx context.Context, id int64) error
}

// Handler serves the gateway routes.
type Handler struct {
	fetcher   Fetcher
	sender    Sender
	directory Directory
	logger    *slog.Logger
}

// NewHandler creates a Handler with its collaborators.
func NewHandler(fetcher Fetcher, sender Sender, directory Directory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		fetcher:   fetcher,
		sender:    sender,
		directory: directory,
		logger:    logger,
	}
}

// Routes returns the gateway's HTTP handler with request-ID tagging and
// logging applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mail/fetch", h.handleFetch)
	mux.HandleFunc("/mail/send", h.handleSend)
	mux.HandleFunc("/accounts", h.handleAccounts)
	return h.withRequestLog(mux)
}

// writeJSON writes a JSON response with the shared CORS header.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes the plain {"error": ...} envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure writes the {"success": false, "error": ...} envelope.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// writePreflight answers a CORS preflight with the route's capability
// description: allowed methods and required headers.
func writePreflight(w http.ResponseWriter, methods, headers string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", headers)
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusOK)
}

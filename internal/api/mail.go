package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pr-poehali-dev/mailgate/internal/mail"
)

const credentialHeaders = "Content-Type, X-User-Email, X-User-Password"

// requestCredentials reads the per-call mailbox credential headers.
func requestCredentials(r *http.Request) mail.Credentials {
	return mail.Credentials{
		Address: r.Header.Get("X-User-Email"),
		Secret:  r.Header.Get("X-User-Password"),
	}
}

// handleFetch serves GET /mail/fetch: a live retrieval session against
// the mailbox server, returning normalized summaries.
func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writePreflight(w, "GET, OPTIONS", credentialHeaders)
		return
	case http.MethodGet:
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	creds := requestCredentials(r)
	if creds.Empty() {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = "inbox"
	}
	limit := mail.DefaultFetchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	result, err := h.fetcher.Fetch(r.Context(), creds, folder, limit)
	if err != nil {
		h.logger.Warn("fetch failed",
			"request_id", requestID(r.Context()),
			"folder", folder,
			"err", err,
		)
		switch {
		case mail.IsAuthRequired(err):
			writeError(w, http.StatusUnauthorized, "Authentication required")
		case mail.IsAuthFailed(err):
			writeFailure(w, http.StatusUnauthorized, "Authentication failed or folder not found")
		default:
			writeFailure(w, http.StatusInternalServerError, "Server error: "+err.Error())
		}
		return
	}

	emails := result.Summaries
	if emails == nil {
		emails = []mail.MessageSummary{}
	}
	if result.Dropped > 0 {
		h.logger.Info("fetch dropped unreadable messages",
			"request_id", requestID(r.Context()),
			"folder", folder,
			"dropped", result.Dropped,
		)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"emails":  emails,
		"folder":  result.Folder,
		"count":   len(emails),
	})
}

// sendRequest is the POST /mail/send body.
type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// handleSend serves POST /mail/send: composes and transmits one message
// on behalf of the authenticated sender.
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writePreflight(w, "POST, OPTIONS", credentialHeaders)
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	creds := requestCredentials(r)
	if creds.Empty() {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.To == "" || req.Subject == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "To, subject and content are required")
		return
	}

	err := h.sender.Send(r.Context(), creds, mail.OutgoingMessage{
		From:    creds.Address,
		To:      req.To,
		Subject: req.Subject,
		Content: req.Content,
	})
	if err != nil {
		h.logger.Warn("send failed",
			"request_id", requestID(r.Context()),
			"to", req.To,
			"err", err,
		)
		switch {
		case mail.IsValidation(err):
			writeError(w, http.StatusBadRequest, "To, subject and content are required")
		case mail.IsAuthFailed(err):
			writeFailure(w, http.StatusUnauthorized, "Authentication failed")
		case mail.IsConnectivity(err), mail.IsProtocol(err):
			writeFailure(w, http.StatusInternalServerError, "SMTP error: "+err.Error())
		default:
			writeFailure(w, http.StatusInternalServerError, "Server error: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email sent successfully",
		"to":      req.To,
	})
}

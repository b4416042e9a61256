package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// createAccountRequest is the POST /accounts body.
type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	QuotaMB  int    `json:"quotaMb"`
}

// updateAccountRequest is the PUT /accounts body.
type updateAccountRequest struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	QuotaMB  int    `json:"quotaMb"`
	IsActive bool   `json:"isActive"`
}

// handleAccounts serves the account directory CRUD. The mail transport
// core is not involved on any of these paths.
func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writePreflight(w, "GET, POST, PUT, DELETE, OPTIONS", "Content-Type")
	case http.MethodGet:
		h.listAccounts(w, r)
	case http.MethodPost:
		h.createAccount(w, r)
	case http.MethodPut:
		h.updateAccount(w, r)
	case http.MethodDelete:
		h.deleteAccount(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.directory.List(r.Context())
	if err != nil {
		h.logger.Error("listing accounts",
			"request_id", requestID(r.Context()), "err", err)
		writeFailure(w, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"accounts": accounts,
		"total":    len(accounts),
	})
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	id, err := h.directory.Create(r.Context(), req.Email, req.Password, req.FullName, req.QuotaMB)
	if err != nil {
		h.logger.Error("creating account",
			"request_id", requestID(r.Context()), "email", req.Email, "err", err)
		writeFailure(w, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"message":    "Account created",
		"account_id": id,
	})
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == 0 {
		writeError(w, http.StatusBadRequest, "Account id required")
		return
	}

	if err := h.directory.Update(r.Context(), req.ID, req.FullName, req.QuotaMB, req.IsActive); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Account updated",
	})
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Account id required")
		return
	}

	if err := h.directory.Delete(r.Context(), id); err != nil {
		writeFailure(w, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Account deleted",
	})
}

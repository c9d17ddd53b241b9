package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/topicless/hub/internal/middleware"
	"github.com/topicless/hub/internal/services"
)

type AccountHandler struct {
	account services.AccountServiceInterface
	auth    services.AuthServiceInterface
}

func NewAccountHandler(account services.AccountServiceInterface, auth services.AuthServiceInterface) *AccountHandler {
	return &AccountHandler{account: account, auth: auth}
}

// Content lists everything the caller has posted.
func (h *AccountHandler) Content(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	content, err := h.account.Content(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error loading account content: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// Export streams a zip of the caller's data.
func (h *AccountHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	data, err := h.account.BuildExportZip(r.Context(), user.ID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error building export: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	filename := fmt.Sprintf("hub-export-%s.zip", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Delete removes the account and ends the session.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := h.account.DeleteAccount(r.Context(), user.ID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Error deleting account: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		if err := h.auth.DeleteSession(r.Context(), cookie.Value); err != nil {
			log.Printf("Error deleting session: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted"})
}

package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/topicless/hub/internal/middleware"
	"github.com/topicless/hub/internal/services"
)

const (
	oauthStateCookieName = "oauth_state"
	oauthNonceCookieName = "oauth_nonce"
	oauthCookieMaxAge    = 10 * 60
)

// ProviderAuthHandler runs the OAuth sign-in dance against the configured
// identity providers.
type ProviderAuthHandler struct {
	providerAuth services.ProviderAuthServiceInterface
	auth         services.AuthServiceInterface
	providers    map[string]services.OAuthProvider
	secure       bool
}

func NewProviderAuthHandler(providerAuth services.ProviderAuthServiceInterface, auth services.AuthServiceInterface, providers map[services.Provider]services.OAuthProvider, secure bool) *ProviderAuthHandler {
	normalized := make(map[string]services.OAuthProvider, len(providers))
	for key, provider := range providers {
		normalized[strings.ToLower(string(key))] = provider
	}
	return &ProviderAuthHandler{
		providerAuth: providerAuth,
		auth:         auth,
		providers:    normalized,
		secure:       secure,
	}
}

func (h *ProviderAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	provider := h.getProvider(r)
	if provider == nil {
		http.NotFound(w, r)
		return
	}

	state, err := generateSecureToken(32)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start sign-in")
		return
	}
	nonce, err := generateSecureToken(32)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start sign-in")
		return
	}

	h.setOAuthCookie(w, oauthStateCookieName, state)
	h.setOAuthCookie(w, oauthNonceCookieName, nonce)

	http.Redirect(w, r, provider.AuthCodeURL(state, nonce), http.StatusFound)
}

func (h *ProviderAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := h.getProvider(r)
	if provider == nil {
		http.NotFound(w, r)
		return
	}

	if providerErr := r.URL.Query().Get("error"); providerErr != "" {
		h.redirectToLoginError(w, r, "oauth_denied")
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		h.redirectToLoginError(w, r, "oauth_missing")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || !secureCompare(stateCookie.Value, state) {
		h.redirectToLoginError(w, r, "oauth_invalid")
		return
	}

	nonceCookie, err := r.Cookie(oauthNonceCookieName)
	if err != nil || nonceCookie.Value == "" {
		h.redirectToLoginError(w, r, "oauth_invalid")
		return
	}

	claims, err := provider.ExchangeAndVerify(r.Context(), code, nonceCookie.Value)
	if err != nil {
		log.Printf("Provider exchange failed: %v", err)
		h.redirectToLoginError(w, r, "oauth_exchange")
		return
	}

	h.clearOAuthCookie(w, oauthStateCookieName)
	h.clearOAuthCookie(w, oauthNonceCookieName)

	user, err := h.providerAuth.FindOrCreateUser(r.Context(), claims)
	if err != nil {
		if errors.Is(err, services.ErrProviderEmailUnverified) {
			h.redirectToLoginError(w, r, "oauth_unverified")
			return
		}
		log.Printf("Provider sign-in failed: %v", err)
		h.redirectToLoginError(w, r, "oauth_link")
		return
	}

	token, err := h.auth.CreateSession(r.Context(), user.ID)
	if err != nil {
		log.Printf("Provider session failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *ProviderAuthHandler) getProvider(r *http.Request) services.OAuthProvider {
	key := strings.ToLower(r.PathValue("provider"))
	if key == "" {
		return nil
	}
	return h.providers[key]
}

func (h *ProviderAuthHandler) setOAuthCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   oauthCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *ProviderAuthHandler) clearOAuthCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
}

func (h *ProviderAuthHandler) redirectToLoginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/#login?error="+code, http.StatusFound)
}

func generateSecureToken(size int) (string, error) {
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func secureCompare(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

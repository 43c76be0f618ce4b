package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/krishiai/internal/application"
	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 64 << 10

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// Register creates an account and starts a session for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.svc.Auth.Register(r.Context(), application.RegisterInput{
		Name:       req.Name,
		Identifier: req.Identifier,
		Password:   req.Password,
		Village:    req.Village,
		State:      req.State,
		Language:   model.ParseLanguage(req.Language),
	})
	if err != nil {
		h.writeServiceError(w, "register", err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	h.startSession(w, user, http.StatusCreated)
}

// Login verifies credentials and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.svc.Auth.Authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.writeServiceError(w, "login", err)
		return
	}

	h.startSession(w, *user, http.StatusOK)
}

// Logout clears the session cookie. Bearer tokens expire on their own.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	ClearSessionCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(*UserFromContext(r.Context())))
}

func (h *Handler) startSession(w http.ResponseWriter, user model.User, status int) {
	token, sess, err := h.svc.Sessions.Issue(user.ID)
	if err != nil {
		h.writeServiceError(w, "issue session", err)
		return
	}

	SetSessionCookie(w, token, sess.ExpiresAt, h.secureCookies)

	writeJSON(w, status, SessionResponse{
		Token:     token,
		ExpiresAt: formatTime(sess.ExpiresAt),
		User:      toUserResponse(user),
	})
}

// SetSessionCookie stores a session token in the HttpOnly session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	httphandler "github.com/ericfisherdev/krishiai/internal/adapter/driving/http"
	"github.com/ericfisherdev/krishiai/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/krishiai/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/krishiai/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/krishiai/internal/application"
	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

const recentDiagnoses = 10

// Authenticator resolves a request's session to a user, or nil when signed out.
type Authenticator interface {
	Authenticate(r *http.Request) (*model.User, error)
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	authn         Authenticator
	auth          *application.AuthService
	sessions      *application.SessionIssuer
	diagnoses     *application.DiagnosisService
	guides        *application.CropGuideService
	secureCookies bool
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	authn Authenticator,
	auth *application.AuthService,
	sessions *application.SessionIssuer,
	diagnoses *application.DiagnosisService,
	guides *application.CropGuideService,
	secureCookies bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		authn:         authn,
		auth:          auth,
		sessions:      sessions,
		diagnoses:     diagnoses,
		guides:        guides,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// Index renders the home page for a signed-in farmer.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var page vm.IndexPage

	diagnoses, err := h.diagnoses.List(r.Context(), user.ID, recentDiagnoses)
	if err != nil {
		h.renderError(w, r, user, err)
		return
	}
	for _, d := range diagnoses {
		page.Diagnoses = append(page.Diagnoses, toDiagnosisCard(d))
	}

	guides, err := h.guides.List(r.Context(), user.Language)
	if err != nil {
		h.renderError(w, r, user, err)
		return
	}
	for _, g := range guides {
		page.Guides = append(page.Guides, toGuideLink(g))
	}

	h.render(w, r, http.StatusOK, "Home", user, pages.Index(page))
}

// LoginPage renders the sign-in form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	form := vm.LoginForm{CSRFToken: csrfToken(w, r, h.secureCookies)}
	h.render(w, r, http.StatusOK, "Sign in", nil, pages.Login(form))
}

// Login verifies the submitted credentials and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid or missing CSRF token", http.StatusForbidden)
		return
	}

	identifier := r.PostFormValue("identifier")
	user, err := h.auth.Authenticate(r.Context(), identifier, r.PostFormValue("password"))
	if errors.Is(err, application.ErrInvalidCredentials) {
		form := vm.LoginForm{
			CSRFToken:  csrfToken(w, r, h.secureCookies),
			Identifier: identifier,
			Error:      "Wrong phone number, email or password.",
		}
		h.render(w, r, http.StatusUnauthorized, "Sign in", nil, pages.Login(form))
		return
	}
	if err != nil {
		h.renderError(w, r, nil, err)
		return
	}

	token, sess, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.renderError(w, r, nil, err)
		return
	}
	httphandler.SetSessionCookie(w, token, sess.ExpiresAt, h.secureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid or missing CSRF token", http.StatusForbidden)
		return
	}
	httphandler.ClearSessionCookie(w, h.secureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Diagnosis renders one of the user's diagnoses.
func (h *Handler) Diagnosis(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	d, err := h.diagnoses.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.renderError(w, r, user, err)
		return
	}

	detail := toDiagnosisDetail(*d)
	h.render(w, r, http.StatusOK, detail.CropName, user, pages.Diagnosis(detail))
}

// GuideSearch redirects the guide search form to the guide page.
func (h *Handler) GuideSearch(w http.ResponseWriter, r *http.Request) {
	crop := model.NormalizeCropName(r.URL.Query().Get("crop"))
	if crop == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/guides/"+url.PathEscape(crop), http.StatusSeeOther)
}

// Guide renders the cultivation guide for a crop, generating it on first view.
func (h *Handler) Guide(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	lang := user.Language
	if v := r.URL.Query().Get("lang"); v != "" {
		lang = model.ParseLanguage(v)
	}

	guide, err := h.guides.Get(r.Context(), r.PathValue("crop"), lang)
	if err != nil {
		h.renderError(w, r, user, err)
		return
	}

	page := toGuidePage(*guide)
	h.render(w, r, http.StatusOK, page.Title, user, pages.Guide(page))
}

// requireUser redirects signed-out visitors to the login page.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := h.authn.Authenticate(r)
	if err != nil {
		h.renderError(w, r, nil, err)
		return nil, false
	}
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	return user, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title string, user *model.User, body templ.Component) {
	var token string
	if user != nil {
		token = csrfToken(w, r, h.secureCookies)
	}
	if strings.TrimSpace(title) == "" {
		title = "KrishiAI"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Layout(title, toUserBadge(user), token, body).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, user *model.User, err error) {
	status, msg := httphandler.ErrorStatus(err)
	switch status {
	case http.StatusTooManyRequests:
		w.Header().Set("Retry-After", httphandler.RetryAfterSeconds)
	case http.StatusBadGateway, http.StatusInternalServerError:
		h.logger.Error("page failed", "path", r.URL.Path, "error", err)
	}
	h.render(w, r, status, "Error", user, templates.ErrorPage(msg))
}

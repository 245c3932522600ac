package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/traction/internal/apperror"
	"github.com/sakif/traction/internal/auth"
	"github.com/sakif/traction/internal/service"
)

// sessionCookieMaxAge matches the token lifetime, so the cookie and the
// token it carries expire together.
const sessionCookieMaxAge = int((7 * 24 * time.Hour) / time.Second)

// AuthHandler processes the login/register form submissions and session
// management. Form failures re-render the form with an inline message;
// nothing here discloses whether an account exists beyond what the user
// typed themselves.
type AuthHandler struct {
	authSvc *service.AuthService
	pages   *PageHandler
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, pages *PageHandler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		pages:   pages,
		logger:  logger,
	}
}

// HandleRegisterSubmit processes the registration form.
//
// HTTP: POST /register (form-encoded: username, password)
//
// Success redirects to the login form with a notice. A taken username or a
// rejected password re-renders the form with the message inline — a soft
// failure, not an API error.
func (h *AuthHandler) HandleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form data", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	_, err := h.authSvc.Register(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, apperror.ErrConflict):
			h.pages.render(w, "register", pageData{
				Title: "Register",
				Error: "That username is already taken.",
			})
		case errors.Is(err, apperror.ErrValidation):
			h.pages.render(w, "register", pageData{
				Title: "Register",
				Error: err.Error(),
			})
		default:
			h.logger.Error("register failed", slog.String("error", err.Error()))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

// HandleLoginSubmit processes the login form.
//
// HTTP: POST /login (form-encoded: username, password)
//
// Success sets the session cookie and redirects to the dashboard. Bad
// credentials re-render the form with one uniform message.
func (h *AuthHandler) HandleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form data", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	result, err := h.authSvc.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) || errors.Is(err, apperror.ErrValidation) {
			h.pages.render(w, "login", pageData{
				Title: "Log in",
				Error: "Invalid username or password.",
			})
			return
		}
		h.logger.Error("login failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, result.Token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleLogout clears the session cookie and sends the browser back to the
// login form. Idempotent — logging out an already-ended session is fine.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleMe returns the current user's profile.
//
// HTTP: GET /api/me (session required)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid session required"))
		return
	}

	user, err := h.authSvc.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("me: user lookup failed", slog.String("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// setSessionCookie stores the session token in an HttpOnly cookie.
// HttpOnly keeps it out of JavaScript's reach; SameSite=Lax keeps it off
// cross-site POSTs. Secure should be enabled behind HTTPS in production.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie tells the browser to delete the session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Package handler contains the HTTP handlers: server-rendered pages for the
// auth flow and dashboard, and the JSON API for records. Handlers parse
// requests and write responses; all rules live in the service layer.
package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sakif/traction/internal/auth"
	"github.com/sakif/traction/internal/service"
)

// PageHandler renders the HTML pages. Templates are parsed once at startup
// and reused; base.html defines the frame, each page fills its "content"
// block.
type PageHandler struct {
	templates *template.Template
	authSvc   *service.AuthService
	logger    *slog.Logger
}

// NewPageHandler parses the templates and returns a PageHandler.
func NewPageHandler(templateDir string, authSvc *service.AuthService, logger *slog.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, "login.html"),
		filepath.Join(templateDir, "register.html"),
		filepath.Join(templateDir, "dashboard.html"),
	)
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		templates: tmpl,
		authSvc:   authSvc,
		logger:    logger,
	}, nil
}

// pageData is what every template receives.
type pageData struct {
	Title    string
	Username string
	Error    string // inline form failure message
	Notice   string // inline success message
}

// HandleIndex redirects to the dashboard; the session gate bounces
// anonymous visitors on to the login form from there.
//
// HTTP: GET /
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleLoginPage renders the login form.
//
// HTTP: GET /login
func (h *PageHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Log in"}
	if r.URL.Query().Get("registered") == "1" {
		data.Notice = "Registration successful. Please log in."
	}
	h.render(w, "login", data)
}

// HandleRegisterPage renders the registration form.
//
// HTTP: GET /register
func (h *PageHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register", pageData{Title: "Register"})
}

// HandleDashboard renders the dashboard shell for the logged-in user. The
// section contents load from the record API.
//
// HTTP: GET /dashboard (session required)
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireSessionRedirect, but don't render a
		// broken page if the wiring ever changes.
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.authSvc.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("dashboard: user lookup failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, "dashboard", pageData{
		Title:    "Dashboard",
		Username: user.Username,
	})
}

// render executes one page template inside the base frame.
func (h *PageHandler) render(w http.ResponseWriter, page string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, page, data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("template", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"betledger/internal/core"
)

// loginPageData feeds both the login and register templates.
type loginPageData struct {
	Error    string
	Username string
}

func (s *Server) renderAccountPage(w http.ResponseWriter, r *http.Request, name string, data loginPageData) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Account template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.renderAccountPage(w, r, "login.html", loginPageData{})
	case http.MethodPost:
		if errResp := ParseFormOrFail(r); errResp != nil {
			errResp.Write(w)
			return
		}
		username := sanitizeInput(r.Form.Get("username"))
		password := r.Form.Get("password")

		user, err := s.auth.Authenticate(r.Context(), username, password)
		if err != nil {
			if errors.Is(err, core.ErrInvalidCredentials) {
				slog.WarnContext(r.Context(), "Login failed", "username", username)
				w.WriteHeader(http.StatusUnauthorized)
				s.renderAccountPage(w, r, "login.html", loginPageData{
					Error:    "Invalid username or password",
					Username: template.HTMLEscapeString(username),
				})
				return
			}
			slog.ErrorContext(r.Context(), "Login error", "error", err, "username", username)
			InternalServerError("Login failed").Write(w)
			return
		}

		token := s.sessions.create(user)
		setSessionCookie(w, token, s.sessions.ttl)
		slog.InfoContext(r.Context(), "Login", "username", string(user))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.renderAccountPage(w, r, "register.html", loginPageData{})
	case http.MethodPost:
		if errResp := ParseFormOrFail(r); errResp != nil {
			errResp.Write(w)
			return
		}
		username := sanitizeInput(r.Form.Get("username"))
		password := r.Form.Get("password")

		if err := s.auth.Register(r.Context(), username, password); err != nil {
			status := http.StatusUnprocessableEntity
			msg := "Invalid username or password"
			switch {
			case errors.Is(err, core.ErrUsernameTaken):
				status = http.StatusConflict
				msg = "That username is already taken"
			case errors.Is(err, core.ErrEmptyUsername):
				msg = "Username cannot be empty"
			case errors.Is(err, core.ErrEmptyPassword):
				msg = "Password cannot be empty"
			default:
				slog.ErrorContext(r.Context(), "Registration error", "error", err, "username", username)
				status = http.StatusInternalServerError
				msg = "Registration failed"
			}
			w.WriteHeader(status)
			s.renderAccountPage(w, r, "register.html", loginPageData{
				Error:    msg,
				Username: template.HTMLEscapeString(username),
			})
			return
		}

		// Registration doubles as first login.
		user, err := s.auth.Authenticate(r.Context(), username, password)
		if err != nil {
			slog.ErrorContext(r.Context(), "Post-registration login error", "error", err, "username", username)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		token := s.sessions.create(user)
		setSessionCookie(w, token, s.sessions.ttl)
		slog.InfoContext(r.Context(), "Account registered", "username", string(user))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.sessions.destroy(cookie.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

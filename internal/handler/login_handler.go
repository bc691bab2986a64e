package handler

import (
	"html/template"
	"net/http"
	"strings"

	"classqa/internal/middleware"
)

// LoginHandler only attaches an identity string to the session cookie.
// There is no credential check here: identities are issued and validated
// elsewhere, this service takes them as given.
type LoginHandler struct {
	auth *middleware.Auth
	tmpl *template.Template
}

func NewLoginHandler(auth *middleware.Auth) *LoginHandler {
	return &LoginHandler{
		auth: auth,
		tmpl: template.Must(template.ParseFiles("internal/templates/login.html")),
	}
}

func (h *LoginHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.tmpl.Execute(w, map[string]string{
		"Error": r.URL.Query().Get("error"),
	})
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		http.Redirect(w, r, "/login?error=empty", http.StatusSeeOther)
		return
	}

	if err := h.auth.SetIdentity(w, r, email); err != nil {
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearIdentity(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

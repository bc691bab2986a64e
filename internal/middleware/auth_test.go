package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireIdentityRedirectsAnonymous(t *testing.T) {
	auth := NewAuth([]byte("0123456789abcdef0123456789abcdef"))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("anonymous request reached the handler")
	})

	rec := httptest.NewRecorder()
	auth.RequireIdentity(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("redirect location = %q", loc)
	}
}

func TestRequireIdentityPassesPublicPaths(t *testing.T) {
	auth := NewAuth([]byte("0123456789abcdef0123456789abcdef"))
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	auth.RequireIdentity(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if !called {
		t.Fatalf("public path did not pass through")
	}
}

func TestRequireIdentityChecksPathBoundaries(t *testing.T) {
	auth := NewAuth([]byte("0123456789abcdef0123456789abcdef"))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("lookalike path %s treated as public", r.URL.Path)
	})

	// Shares the /login prefix but is not the login route.
	rec := httptest.NewRecorder()
	auth.RequireIdentity(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/loginfoo", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("redirect location = %q", loc)
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	auth := NewAuth([]byte("0123456789abcdef0123456789abcdef"))

	// Establish the session cookie.
	rec := httptest.NewRecorder()
	if err := auth.SetIdentity(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "alice@x.edu"); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no session cookie set")
	}

	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = Identity(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	auth.RequireIdentity(next).ServeHTTP(httptest.NewRecorder(), req)

	if got != "alice@x.edu" {
		t.Fatalf("identity = %q, want %q", got, "alice@x.edu")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	vetsession "github.com/MrEthical07/vetsession"
	"github.com/MrEthical07/vetsession/jwt"
	"github.com/MrEthical07/vetsession/permission"
	"github.com/MrEthical07/vetsession/session"
	"github.com/MrEthical07/vetsession/storage"
)

func newGuardEngine(t *testing.T) *vetsession.Engine {
	t.Helper()
	engine, err := vetsession.New().
		WithPrimaryStore(storage.NewMemoryKV()).
		WithCookieStore(storage.NewMemoryCookies(false)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func issue(t *testing.T, roles ...string) string {
	t.Helper()
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{TTL: time.Hour, Secret: []byte("guard-secret")})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, err := issuer.Issue("42", "Dr. Vega", jwt.Contact{}, roles...)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func expired(t *testing.T) string {
	t.Helper()
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{TTL: time.Hour, Secret: []byte("guard-secret")})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, err := issuer.IssueExpiring("42", time.Now().Add(-time.Minute), "Clinic")
	if err != nil {
		t.Fatalf("IssueExpiring: %v", err)
	}
	return token
}

func sessionEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, ok := vetsession.SessionFromContext(r.Context())
		if !ok || !state.Authenticated() {
			t.Error("handler reached without session")
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestGuardAdmitsBearerAndCookie(t *testing.T) {
	engine := newGuardEngine(t)
	h := Guard(engine)(sessionEcho(t))
	token := issue(t, "Clinic")

	req := httptest.NewRequest(http.MethodGet, "/clinic/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("bearer: expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/clinic/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.KeyToken, Value: token})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cookie: expected 204, got %d", rec.Code)
	}
}

func TestGuardFailsClosed(t *testing.T) {
	engine := newGuardEngine(t)
	h := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("rejected request reached handler")
	}))

	tests := []struct {
		name   string
		method string
		auth   string
		code   int
	}{
		{name: "missing", method: http.MethodGet, code: http.StatusSeeOther},
		{name: "malformed", method: http.MethodGet, auth: "Bearer not.a-token", code: http.StatusSeeOther},
		{name: "expired", method: http.MethodGet, auth: "Bearer " + expired(t), code: http.StatusSeeOther},
		{name: "no roles", method: http.MethodGet, auth: "Bearer " + issue(t), code: http.StatusSeeOther},
		{name: "wrong scheme", method: http.MethodGet, auth: "Basic abc", code: http.StatusSeeOther},
		{name: "post", method: http.MethodPost, auth: "Bearer " + expired(t), code: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/vet/dashboard", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if tc.code == http.StatusSeeOther && rec.Header().Get("Location") != "/login" {
				t.Fatalf("unexpected redirect %q", rec.Header().Get("Location"))
			}
		})
	}
}

func TestGuardNilEngine(t *testing.T) {
	rec := httptest.NewRecorder()
	Guard(nil)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	engine := newGuardEngine(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name  string
		roles []string
		need  []permission.Role
		code  int
	}{
		{name: "held", roles: []string{"Clinic", "Vet"}, need: []permission.Role{permission.RoleVet}, code: http.StatusNoContent},
		{name: "case insensitive", roles: []string{"admin"}, need: []permission.Role{permission.RoleAdmin}, code: http.StatusNoContent},
		{name: "missing", roles: []string{"User"}, need: []permission.Role{permission.RoleAdmin, permission.RoleStaff}, code: http.StatusForbidden},
		{name: "none listed", roles: []string{"User"}, code: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := Guard(engine)(RequireRole(tc.need...)(ok))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+issue(t, tc.roles...))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}

	rec := httptest.NewRecorder()
	RequireRole(permission.RoleUser)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without guard expected 401, got %d", rec.Code)
	}
}

func TestRequirePathRole(t *testing.T) {
	engine := newGuardEngine(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Guard(engine)(RequirePathRole()(ok))
	token := issue(t, "Clinic")

	tests := []struct {
		path string
		code int
	}{
		{path: "/clinic/pets", code: http.StatusNoContent},
		{path: "/admin/users", code: http.StatusForbidden},
		{path: "/settings", code: http.StatusNoContent},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.code, rec.Code)
		}
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/MrEthical07/vetsession/jwt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", writeConfig(t, "")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vetsession.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func mintToken(t *testing.T, roles ...string) string {
	t.Helper()
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{TTL: time.Hour, Secret: []byte("cli-secret")})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, err := issuer.Issue("7", "Ana", jwt.Contact{Email: "ana@example.test"}, roles...)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestDecodeCommand(t *testing.T) {
	out, err := run(t, "decode", mintToken(t, "Clinic", "Vet"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var got decodeOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output not json: %v\n%s", err, out)
	}
	if got.Subject != "7" || got.Name != "Ana" || got.Expired {
		t.Fatalf("unexpected output: %+v", got)
	}
	if strings.Join(got.Roles, ",") != "Clinic,Vet" {
		t.Fatalf("unexpected roles %v", got.Roles)
	}

	if _, err := run(t, "decode", "abc.def"); err == nil {
		t.Fatal("expected malformed credential error")
	}
}

func TestResolveAndMenuCommands(t *testing.T) {
	out, err := run(t, "resolve", "/clinic/dashboard", "--roles", "Clinic,Vet")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strings.TrimSpace(out) != "role=Clinic source=path held=true" {
		t.Fatalf("unexpected resolve output %q", out)
	}

	out, err = run(t, "menu", "vet")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if !strings.Contains(out, "/vet/") {
		t.Fatalf("menu output missing vet paths:\n%s", out)
	}

	if _, err := run(t, "menu", "Owner"); err == nil {
		t.Fatal("expected unknown role error")
	}
}

func TestMintCommandRoundTrip(t *testing.T) {
	out, err := run(t, "mint", "--secret", "s3cret", "--subject", "99", "--roles", "Admin")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := jwt.Decode(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("minted token did not decode: %v", err)
	}
	if claims.Subject != "99" || !claims.Roles.Contains("Admin") {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := run(t, "mint"); err == nil {
		t.Fatal("mint without secret must fail")
	}
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	t.Setenv("VETSESSION_NOTIFY_FETCH_LIMIT", "5")

	c := &cli{
		cfgFile: writeConfig(t, "login_path: /signin\nnotify:\n  awaiting_status: Requested\n  period: 10s\n"),
		v:       viper.New(),
	}
	if err := c.initViper(newRootCmd()); err != nil {
		t.Fatalf("initViper: %v", err)
	}
	cfg, err := loadConfig(c.v)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LoginPath != "/signin" || cfg.Notify.AwaitingStatus != "Requested" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Notify.Period != 10*time.Second || cfg.Notify.FetchLimit != 5 {
		t.Fatalf("unexpected notify config: %+v", cfg.Notify)
	}
	if cfg.Cookie.MaxAge != 24*time.Hour {
		t.Fatalf("defaults lost: %+v", cfg.Cookie)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	c := &cli{cfgFile: writeConfig(t, "login_path: signin\n"), v: viper.New()}
	if err := c.initViper(newRootCmd()); err != nil {
		t.Fatalf("initViper: %v", err)
	}
	if _, err := loadConfig(c.v); err == nil {
		t.Fatal("relative login path must be rejected")
	}
}

func TestPollCommandOnce(t *testing.T) {
	token := mintToken(t, "Clinic")
	var sawAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer "+token {
			sawAuth.Store(true)
		}
		switch {
		case r.URL.Path == "/appointments":
			_, _ = w.Write([]byte(`{"items":[
				{"id":1,"status":"Pending","date":"2026-01-02T10:00:00Z","userId":"u1","serviceName":"Vaccination","petName":"Rex"},
				{"id":2,"status":"Confirmed","date":"2026-01-02T11:00:00Z","userId":"u2"}
			]}`))
		case r.URL.Path == "/users/u1":
			_, _ = w.Write([]byte(`{"fullName":"Maria Lopez"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--config", writeConfig(t, "notify:\n  base_url: "+srv.URL+"\n"),
		"poll", "--token", token,
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("poll: %v", err)
	}

	if !sawAuth.Load() {
		t.Fatal("requests did not carry the bearer header")
	}
	got := out.String()
	if !strings.Contains(got, "1 actionable, 1 unread") {
		t.Fatalf("unexpected summary:\n%s", got)
	}
	if !strings.Contains(got, "New appointment Vaccination for Rex") || !strings.Contains(got, "Maria Lopez") {
		t.Fatalf("unexpected feed:\n%s", got)
	}
}

func TestPollCommandRequiresBaseURL(t *testing.T) {
	if _, err := run(t, "poll", "--token", mintToken(t, "Clinic")); err == nil {
		t.Fatal("expected missing base url error")
	}
}

package vetsession

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative login path", func(c *Config) { c.LoginPath = "login" }, "LoginPath"},
		{"short cookie", func(c *Config) { c.Cookie.MaxAge = time.Minute }, "Cookie.MaxAge"},
		{"long cookie", func(c *Config) { c.Cookie.MaxAge = 30 * 24 * time.Hour }, "Cookie.MaxAge"},
		{"bad domain", func(c *Config) { c.Cookie.Domain = "a b" }, "Cookie.Domain"},
		{"empty prefix", func(c *Config) { c.Session.RedisPrefix = " " }, "RedisPrefix"},
		{"empty extra key", func(c *Config) { c.Session.ExtraKeys = []string{""} }, "ExtraKeys"},
		{"empty database", func(c *Config) { c.Logout.Databases = []string{""} }, "Logout.Databases"},
		{"flag slower than period", func(c *Config) { c.Notify.FlagInterval = time.Hour }, "FlagInterval"},
		{"fetch limit", func(c *Config) { c.Notify.FetchLimit = 0 }, "FetchLimit"},
		{"awaiting status", func(c *Config) { c.Notify.AwaitingStatus = "" }, "AwaitingStatus"},
		{"audit buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }, "Audit.BufferSize"},
		{"audit flush timeout", func(c *Config) { c.Audit.LogoutFlushTimeout = -time.Second }, "Audit.LogoutFlushTimeout"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCloneConfigDetachesSlices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logout.Databases = []string{"a"}
	clone := cloneConfig(cfg)
	clone.Logout.Databases[0] = "b"
	if cfg.Logout.Databases[0] != "a" {
		t.Fatal("clone shares slice with original")
	}
}

package main

import (
	"github.com/spf13/viper"

	vetsession "github.com/MrEthical07/vetsession"
)

var envKeys = []string{
	"login_path",
	"log_level",
	"session.redis_prefix",
	"session.extra_keys",
	"cookie.max_age",
	"cookie.domain",
	"cookie.secure",
	"notify.base_url",
	"notify.period",
	"notify.fetch_limit",
	"notify.awaiting_status",
	"notify.placeholder_label",
	"notify.lookup_concurrency",
	"redis.addr",
	"redis.password",
	"redis.db",
	"metrics.addr",
	"mint.secret",
	"mint.ttl",
}

func bindEnvKeys(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
}

// loadConfig overlays the keys present in v onto the engine defaults.
func loadConfig(v *viper.Viper) (vetsession.Config, error) {
	cfg := vetsession.DefaultConfig()

	if v.IsSet("login_path") {
		cfg.LoginPath = v.GetString("login_path")
	}
	if v.IsSet("session.redis_prefix") {
		cfg.Session.RedisPrefix = v.GetString("session.redis_prefix")
	}
	if v.IsSet("session.extra_keys") {
		cfg.Session.ExtraKeys = v.GetStringSlice("session.extra_keys")
	}
	if v.IsSet("cookie.max_age") {
		cfg.Cookie.MaxAge = v.GetDuration("cookie.max_age")
	}
	if v.IsSet("cookie.domain") {
		cfg.Cookie.Domain = v.GetString("cookie.domain")
	}
	if v.IsSet("cookie.secure") {
		cfg.Cookie.SecureTransport = v.GetBool("cookie.secure")
	}
	if v.IsSet("notify.period") {
		cfg.Notify.Period = v.GetDuration("notify.period")
	}
	if v.IsSet("notify.fetch_limit") {
		cfg.Notify.FetchLimit = v.GetInt("notify.fetch_limit")
	}
	if v.IsSet("notify.awaiting_status") {
		cfg.Notify.AwaitingStatus = v.GetString("notify.awaiting_status")
	}
	if v.IsSet("notify.placeholder_label") {
		cfg.Notify.PlaceholderLabel = v.GetString("notify.placeholder_label")
	}
	if v.IsSet("notify.lookup_concurrency") {
		cfg.Notify.LookupConcurrency = v.GetInt("notify.lookup_concurrency")
	}

	if err := cfg.Validate(); err != nil {
		return vetsession.Config{}, err
	}
	return cfg, nil
}

package config

import (
	"strings"
	"testing"
)

func TestEnsureDSNBuildsFromLegacyVars(t *testing.T) {
	cfg := DBConfig{
		LegacyHost:     "db.internal",
		LegacyPort:     5433,
		LegacyUser:     "creb",
		LegacyPassword: "s3cret",
		LegacyName:     "crebmatch",
		LegacySSLMode:  "require",
	}

	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"postgres://", "db.internal:5433", "crebmatch", "sslmode=require"} {
		if !strings.Contains(cfg.DSN, want) {
			t.Fatalf("dsn %q missing %q", cfg.DSN, want)
		}
	}
}

func TestEnsureDSNReportsMissingLegacyVars(t *testing.T) {
	cfg := DBConfig{LegacyHost: "db.internal"}
	err := cfg.ensureDSN()
	if err == nil {
		t.Fatal("expected error when user and name are missing")
	}
	if !strings.Contains(err.Error(), "CREBMATCH_DB_USER") || !strings.Contains(err.Error(), "CREBMATCH_DB_NAME") {
		t.Fatalf("error should name missing vars, got %v", err)
	}
}

func TestEnsureDSNKeepsExplicitDSN(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://u@h/db"}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DSN != "postgres://u@h/db" {
		t.Fatalf("explicit DSN must be preserved, got %q", cfg.DSN)
	}
}

func TestAppEnvHelpers(t *testing.T) {
	if !(AppConfig{Env: "Dev"}).IsDev() {
		t.Fatal("expected dev env to be case-insensitive")
	}
	if (AppConfig{Env: "dev"}).IsProd() {
		t.Fatal("dev env must not report prod")
	}
}

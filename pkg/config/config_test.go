package config

import (
	"testing"

	"github.com/arnavshah/allocation-api-go/pkg/models"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("GIN_MODE", "")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("API_MASTER_SECRET", "master-secret")
}

func TestFromEnvDefaults(t *testing.T) {
	setSecrets(t)
	t.Setenv("PORT", "")
	t.Setenv("PLANNING_WEEK_DAYS", "")
	t.Setenv("BLOCK_ON_HIGH_SEVERITY", "")
	t.Setenv("DEFAULT_RATE_LIMIT", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8000" {
		t.Fatalf("Port: want=%q got=%q", "8000", cfg.Port)
	}
	if cfg.Week.Len() != 5 {
		t.Fatalf("Week: want=5 days got=%d", cfg.Week.Len())
	}
	if !cfg.BlockOnHighSeverity {
		t.Fatalf("BlockOnHighSeverity: want=true got=false")
	}
	if cfg.DefaultRateLimit != 10000 {
		t.Fatalf("DefaultRateLimit: want=%d got=%d", 10000, cfg.DefaultRateLimit)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	setSecrets(t)
	t.Setenv("PORT", "9090")
	t.Setenv("PLANNING_WEEK_DAYS", "7")
	t.Setenv("BLOCK_ON_HIGH_SEVERITY", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port: want=%q got=%q", "9090", cfg.Port)
	}
	if !cfg.Week.Contains(models.Sunday) {
		t.Fatalf("Week: expected sunday in a 7 day week")
	}
	if cfg.BlockOnHighSeverity {
		t.Fatalf("BlockOnHighSeverity: want=false got=true")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins: got=%v", cfg.CORSOrigins)
	}
}

func TestFromEnvRejectsOddWeek(t *testing.T) {
	setSecrets(t)
	t.Setenv("PLANNING_WEEK_DAYS", "6")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("FromEnv: expected error, got nil")
	}
}

func TestFromEnvRequiresSecrets(t *testing.T) {
	tests := []struct {
		name    string
		ginMode string
		jwt     string
		master  string
		wantErr bool
	}{
		{name: "release without secrets", wantErr: true},
		{name: "missing master secret", jwt: "j", wantErr: true},
		{name: "missing jwt secret", master: "m", wantErr: true},
		{name: "both set", jwt: "j", master: "m"},
		{name: "debug mode", ginMode: "debug"},
		{name: "test mode", ginMode: "test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GIN_MODE", tt.ginMode)
			t.Setenv("JWT_SECRET", tt.jwt)
			t.Setenv("API_MASTER_SECRET", tt.master)

			_, err := FromEnv()
			if tt.wantErr && err == nil {
				t.Fatalf("FromEnv: expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("FromEnv: %v", err)
			}
		})
	}
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-instructform/internal/config"
	"github.com/goliatone/go-instructform/pkg/attachments"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instruct.yaml")
	raw := `
server:
  addr: ":8088"
  read_timeout: 5s
store:
  path: /var/lib/instruct/db.sqlite
submit:
  endpoint: https://intake.example.co.uk
  timeout: 12s
attachments:
  max_count: 4
  max_bytes: 1048576
  allowed_types: ["application/pdf", "image/*"]
signature:
  width: 600
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":8088" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if got := cfg.ReadTimeout(); got != 5*time.Second {
		t.Errorf("read timeout = %v", got)
	}
	if got := cfg.WriteTimeout(); got != 10*time.Second {
		t.Errorf("write timeout kept default, got %v", got)
	}
	if got := cfg.SubmitTimeout(); got != 12*time.Second {
		t.Errorf("submit timeout = %v", got)
	}
	want := attachments.Policy{MaxCount: 4, MaxBytes: 1 << 20, AllowedTypes: []string{"application/pdf", "image/*"}}
	if diff := cmp.Diff(want, cfg.Attachments); diff != "" {
		t.Errorf("attachment policy mismatch (-want +got):\n%s", diff)
	}
	surface := cfg.SignatureSurface()
	if surface.Width != 600 || surface.Height != 200 {
		t.Errorf("surface = %dx%d, want 600x200", surface.Width, surface.Height)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instruct.yaml")
	if err := os.WriteFile(path, []byte("store:\n  path: from-file.db\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvStorePath, "from-env.db")
	t.Setenv(config.EnvSubmitEndpoint, "http://backend:9000")
	t.Setenv(config.EnvBodyLimit, "2048")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != "from-env.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Submit.Endpoint != "http://backend:9000" {
		t.Errorf("endpoint = %q", cfg.Submit.Endpoint)
	}
	if cfg.Server.BodyLimit != 2048 {
		t.Errorf("body limit = %d", cfg.Server.BodyLimit)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad yaml":      "server: [",
		"bad duration":  "submit:\n  timeout: soon\n",
		"bad format":    "logging:\n  format: xml\n",
		"negative":      "attachments:\n  max_count: -1\n",
		"min above max": "attachments:\n  min_count: 3\n  max_count: 2\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "instruct.yaml")
			if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, err := config.Load(path)
			if err == nil || !strings.HasPrefix(err.Error(), "config: ") {
				t.Fatalf("Load error = %v, want config error", err)
			}
		})
	}
}

func TestSave_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "instruct.yaml")
	cfg := config.Default()
	cfg.Attachments = attachments.Policy{MinCount: 1}
	cfg.Logging.Level = "warn"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(cfg, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

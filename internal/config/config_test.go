package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slipstream/releasedecider/internal/indexer/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if cfg.Server != want.Server {
		t.Errorf("Server = %+v, want %+v", cfg.Server, want.Server)
	}
	if cfg.Database != want.Database {
		t.Errorf("Database = %+v, want %+v", cfg.Database, want.Database)
	}
	if cfg.Logging != want.Logging {
		t.Errorf("Logging = %+v, want %+v", cfg.Logging, want.Logging)
	}
	if cfg.Pending != want.Pending {
		t.Errorf("Pending = %+v, want %+v", cfg.Pending, want.Pending)
	}
	if cfg.Server.Address() != "0.0.0.0:8282" {
		t.Errorf("Address() = %q", cfg.Server.Address())
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
engine:
  workers: 4
  preferred_protocol: torrent
  torrent_delay: 90m
  minimum_seeders: 3
  minimum_size: 200 MB
  maximum_size: 4 GiB
  ignored_terms: [cam, "/\\bTS\\b/"]
pending:
  cron: "*/5 * * * *"
`)
	t.Setenv("RELEASEDECIDER_SERVER_PORT", "9100")
	t.Setenv("RELEASEDECIDER_ENGINE_RETENTION_DAYS", "1500")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Pending.Cron != "*/5 * * * *" {
		t.Errorf("Pending.Cron = %q", cfg.Pending.Cron)
	}

	opts, err := cfg.Engine.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.Workers != 4 {
		t.Errorf("Workers = %d, want 4", opts.Workers)
	}
	s := opts.Settings
	if s.PreferredProtocol != types.ProtocolTorrent {
		t.Errorf("PreferredProtocol = %q", s.PreferredProtocol)
	}
	if s.TorrentDelay != 90*time.Minute {
		t.Errorf("TorrentDelay = %v, want 90m", s.TorrentDelay)
	}
	if s.RetentionDays != 1500 {
		t.Errorf("RetentionDays = %d, want 1500", s.RetentionDays)
	}
	if s.MinimumSeeders != 3 {
		t.Errorf("MinimumSeeders = %d, want 3", s.MinimumSeeders)
	}
	if s.MinimumSize != 200_000_000 {
		t.Errorf("MinimumSize = %d, want 200000000", s.MinimumSize)
	}
	if s.MaximumSize != 4<<30 {
		t.Errorf("MaximumSize = %d, want %d", s.MaximumSize, 4<<30)
	}
	if len(s.IgnoredTerms) != 2 || s.IgnoredTerms[1] != `/\bTS\b/` {
		t.Errorf("IgnoredTerms = %q", s.IgnoredTerms)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown protocol", "engine:\n  preferred_protocol: carrier-pigeon\n"},
		{"bad size", "engine:\n  minimum_size: lots\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"missing cron", "pending:\n  enabled: true\n  cron: \"\"\n"},
		{"bad duration", "engine:\n  usenet_delay: soon\n"},
		{"bad yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoggingConfig_Logger(t *testing.T) {
	c := Default().Logging
	c.Path = "/var/log/releasedecider"
	lc := c.Logger()
	if lc.Path != c.Path || lc.MaxBackups != 5 || lc.Recent != 500 || !lc.Compress {
		t.Errorf("Logger() = %+v", lc)
	}
}

func TestVersionString(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "1.2.0", ""
	if got := VersionString(); got != "1.2.0" {
		t.Errorf("VersionString() = %q", got)
	}
	Commit = "abc123"
	if got := VersionString(); got != "1.2.0 (abc123)" {
		t.Errorf("VersionString() = %q", got)
	}
}

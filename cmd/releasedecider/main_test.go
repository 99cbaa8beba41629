package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/parser"
)

const testSnapshot = `
now: 2024-06-01T12:00:00Z
profile:
  id: 1
  preset: hd-1080p
  upgradeAllowed: true
customFormats:
  - name: Preferred Group
    score: 25
    conditions:
      - kind: releaseGroup
        value: ^GRP$
series:
  - id: 1
    title: Example Title
    monitored: true
    qualityProfileId: 1
episodes:
  - id: 11
    seriesId: 1
    seasonNumber: 1
    episodeNumber: 1
    airDate: 2024-05-01T00:00:00Z
    monitored: true
blocklist:
  - title: Example.Title.S01E01.1080p.WEB-DL-BAD
    seriesId: 1
`

const testReleases = `
- guid: a
  title: Example.Title.S01E01.1080p.WEB-DL-BAD
  size: 1073741824
  publishDate: 2024-06-01T06:00:00Z
  indexer: Test Indexer
  protocol: torrent
  seeders: 10
- guid: b
  title: Example.Title.S01E01.1080p.WEB-DL-GRP
  size: 1073741824
  publishDate: 2024-06-01T06:00:00Z
  indexer: Test Indexer
  protocol: torrent
  seeders: 10
`

type cliTestEnv struct {
	dir        string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	config := "database:\n  path: " + filepath.Join(dir, "data", "test.db") + "\n" +
		"logging:\n  level: error\n"
	writeFile(t, configPath, config)

	return &cliTestEnv{dir: dir, configPath: configPath}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestParseCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "parse", "Example.Title.S01E02E03.1080p.WEB-DL-GRP")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, want := range []string{"Example Title", "2,3", "GRP"} {
		if !strings.Contains(out, want) {
			t.Errorf("parse output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run(t, "parse", "--json", "Example.Title.2024.05.01.720p.HDTV-GRP")
	if err != nil {
		t.Fatalf("parse --json: %v", err)
	}
	var parsed []parser.ParsedInfo
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(parsed) != 1 || !parsed[0].IsDaily {
		t.Errorf("parsed = %+v, want one daily release", parsed)
	}

	if _, err := env.run(t, "parse"); err == nil {
		t.Error("parse without a title should fail")
	}
}

func TestDecideCommand_SnapshotFile(t *testing.T) {
	env := setupCLITestEnv(t)
	snapshot := writeFile(t, filepath.Join(env.dir, "snapshot.yaml"), testSnapshot)
	releases := writeFile(t, filepath.Join(env.dir, "releases.yaml"), testReleases)

	out, err := env.run(t, "decide", "--snapshot", snapshot, "--releases", releases, "--json")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	var decisions []decisioning.Decision
	if err := json.Unmarshal([]byte(out), &decisions); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(decisions) != 2 {
		t.Fatalf("got %d decisions, want 2", len(decisions))
	}
	if decisions[0].Candidate.Release.GUID != "b" || decisions[0].Outcome != decisioning.OutcomeApproved {
		t.Errorf("first decision = %s %s", decisions[0].Candidate.Release.GUID, decisions[0].Outcome)
	}
	if decisions[0].CustomFormatScore != 25 {
		t.Errorf("CustomFormatScore = %d, want 25", decisions[0].CustomFormatScore)
	}
	if !decisions[1].HasReason(decisioning.ReasonBlocklisted) {
		t.Errorf("second decision rejections = %+v", decisions[1].Rejections)
	}

	out, err = env.run(t, "decide", "-s", snapshot, "-r", releases)
	if err != nil {
		t.Fatalf("decide table: %v", err)
	}
	for _, want := range []string{"approved", "rejected", "1.0 GiB", "6 hours ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("decide output missing %q:\n%s", want, out)
		}
	}
}

func TestDecideCommand_Database(t *testing.T) {
	env := setupCLITestEnv(t)
	snapshot := writeFile(t, filepath.Join(env.dir, "snapshot.yaml"), testSnapshot)
	releases := writeFile(t, filepath.Join(env.dir, "releases.json"),
		`[{"guid":"b","title":"Example.Title.S01E01.1080p.WEB-DL-GRP","size":1073741824,"protocol":"usenet"}]`)

	out, err := env.run(t, "import", snapshot)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 1 series, 1 episodes, 1 custom formats") {
		t.Errorf("import output = %q", out)
	}

	out, err = env.run(t, "decide", "--releases", releases, "--json")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	var decisions []decisioning.Decision
	if err := json.Unmarshal([]byte(out), &decisions); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(decisions) != 1 || !decisions[0].Approved() {
		t.Errorf("decisions = %+v", decisions)
	}
}

func TestMigrateCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "migrate", "up")
	if err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if !strings.HasPrefix(out, "Schema version ") || strings.Contains(out, "version 0") {
		t.Errorf("migrate up output = %q", out)
	}

	upVersion := out
	if out, err = env.run(t, "migrate", "version"); err != nil || out != upVersion {
		t.Errorf("migrate version = %q, %v; want %q", out, err, upVersion)
	}

	if out, err = env.run(t, "migrate", "down"); err != nil || out == upVersion {
		t.Errorf("migrate down = %q, %v", out, err)
	}
}

func TestDecideCommand_RequiresReleases(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "decide"); err == nil {
		t.Error("decide without --releases should fail")
	}
}

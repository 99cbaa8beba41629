package snapshotfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/indexer/types"
)

const sample = `
now: 2024-06-01T12:00:00Z
settings:
  preferredProtocol: usenet
  torrentDelay: 30m
  minimumSeeders: 3
profile:
  id: 1
  preset: hd-1080p
  upgradeAllowed: true
  minUpgradeFormatScore: 5
profiles:
  - id: 2
    name: Custom
    cutoff: 13
    upgradeAllowed: true
    items:
      - qualities: [{id: 13}]
        allowed: true
      - name: WEB 1080p
        qualities: [{id: 12}, {name: WEBRip-1080p}]
        allowed: true
customFormats:
  - name: Preferred Group
    score: 25
    conditions:
      - kind: releaseGroup
        value: ^GRP$
series:
  - id: 1
    title: Example Title
    year: 2020
    monitored: true
    qualityProfileId: 1
    aliases: [Example Show]
episodes:
  - id: 11
    seriesId: 1
    seasonNumber: 1
    episodeNumber: 1
    airDate: 2024-05-01T00:00:00Z
    monitored: true
  - id: 12
    seriesId: 1
    seasonNumber: 1
    episodeNumber: 2
    airDate: 2024-05-08T00:00:00Z
    monitored: true
    file:
      size: 1500000000
      quality:
        quality: {id: 13}
      customFormatScore: 10
queue:
  - guid: q1
    title: Example.Title.S01E01.720p.HDTV-OTHER
    seriesId: 1
    episodeIds: [11]
    quality:
      quality: {name: HDTV-720p}
blocklist:
  - title: Example.Title.S01E01.1080p.WEB-DL-BAD
    seriesId: 1
`

func TestDecode(t *testing.T) {
	file, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), file.Now.UTC())
	require.NotNil(t, file.Settings)
	assert.Equal(t, types.ProtocolUsenet, file.Settings.PreferredProtocol)
	assert.Equal(t, 30*time.Minute, file.Settings.TorrentDelay)

	assert.Equal(t, "HD-1080p", file.Profile.Name)
	assert.Equal(t, 13, file.Profile.Cutoff)
	assert.NotEmpty(t, file.Profile.Items)
	assert.Equal(t, 5, file.Profile.MinUpgradeFormatScore)
	require.NoError(t, file.Profile.Validate())

	require.Len(t, file.Profiles, 1)
	custom := file.Profiles[0]
	assert.Equal(t, "Bluray-1080p", custom.Items[0].Qualities[0].Name)
	assert.Equal(t, 11, custom.Items[1].Qualities[1].ID)
	assert.Equal(t, custom.Weight(12), custom.Weight(11))

	require.NotNil(t, file.Episodes[1].File)
	assert.Equal(t, "Bluray-1080p", file.Episodes[1].File.Quality.Quality.Name)
	assert.Equal(t, 1, file.Episodes[1].File.Quality.Revision.Version)
	assert.Equal(t, int64(12), file.Episodes[1].File.EpisodeID)
	assert.Equal(t, 6, file.Queue[0].Quality.Quality.ID)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "profile:\n  preset: any\nbogus: 1\n"},
		{"unknown preset", "profile:\n  preset: cinema\n"},
		{"unknown quality id", "profile:\n  items:\n    - qualities: [{id: 99}]\n"},
		{"unknown quality name", "queue:\n  - title: x\n    quality:\n      quality: {name: VHS}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestFile_Snapshot_Decides(t *testing.T) {
	file, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	engine := decisioning.NewEngine(decisioning.Options{Workers: 1}, zerolog.Nop())
	releases := []types.ReleaseInfo{
		{GUID: "a", Title: "Example.Show.S01E01.1080p.WEB-DL-GRP", Protocol: types.ProtocolUsenet, PublishDate: file.Now.Add(-time.Hour)},
		{GUID: "b", Title: "Example.Title.S01E01.1080p.WEB-DL-BAD", Protocol: types.ProtocolUsenet, PublishDate: file.Now.Add(-time.Hour)},
	}

	decisions, err := engine.Decide(context.Background(), releases, file.Snapshot())
	require.NoError(t, err)
	require.Len(t, decisions, 2)

	assert.Equal(t, "a", decisions[0].Candidate.Release.GUID)
	assert.True(t, decisions[0].Approved(), "rejections: %v", decisions[0].Rejections)
	assert.Equal(t, 25, decisions[0].CustomFormatScore)
	assert.True(t, decisions[1].HasReason(decisioning.ReasonBlocklisted))
}

func TestSaveLoad(t *testing.T) {
	file, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, Save(path, file))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, file.Series, loaded.Series)
	assert.Equal(t, file.Profile.Items, loaded.Profile.Items)
	assert.Equal(t, file.Formats, loaded.Formats)
}

func TestLoadReleases(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "releases.json")
	require.NoError(t, os.WriteFile(jsonPath,
		[]byte(`[{"guid":"a","title":"Example.Title.S01E01.1080p.WEB-DL-GRP","size":1000,"protocol":"torrent","seeders":12}]`), 0o600))
	yamlPath := filepath.Join(dir, "releases.yaml")
	require.NoError(t, os.WriteFile(yamlPath,
		[]byte("- guid: b\n  title: Example.Title.S01E02.720p.HDTV-GRP\n  protocol: usenet\n"), 0o600))

	fromJSON, err := LoadReleases(jsonPath)
	require.NoError(t, err)
	require.Len(t, fromJSON, 1)
	assert.Equal(t, 12, fromJSON[0].SeederCount())
	assert.Equal(t, types.ProtocolTorrent, fromJSON[0].Protocol)

	fromYAML, err := LoadReleases(yamlPath)
	require.NoError(t, err)
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "b", fromYAML[0].GUID)
	assert.Nil(t, fromYAML[0].Seeders)

	_, err = LoadReleases(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &File{}))
}

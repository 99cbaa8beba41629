// Package snapshotfile reads and writes library snapshots and release
// batches as YAML (or JSON) files for the CLI and tests.
package snapshotfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slipstream/releasedecider/internal/customformat"
	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library"
	"github.com/slipstream/releasedecider/internal/library/quality"
)

// Profile presets usable in place of an explicit item list.
const (
	PresetAny     = "any"
	PresetHD1080p = "hd-1080p"
	PresetUltraHD = "ultra-hd"
)

// ProfileEntry is a quality profile that may start from a preset. A preset
// supplies Items, and Cutoff and Name when those are empty.
type ProfileEntry struct {
	Preset          string `yaml:"preset,omitempty"`
	quality.Profile `yaml:",inline"`
}

// File is the on-disk form of a decision snapshot.
type File struct {
	Now       time.Time                   `yaml:"now,omitempty"`
	Settings  *decisioning.Settings       `yaml:"settings,omitempty"`
	Profile   ProfileEntry                `yaml:"profile"`
	Profiles  []ProfileEntry              `yaml:"profiles,omitempty"`
	Formats   []customformat.Format       `yaml:"customFormats,omitempty"`
	Series    []library.Series            `yaml:"series"`
	Episodes  []library.Episode           `yaml:"episodes"`
	Queue     []decisioning.QueueItem     `yaml:"queue,omitempty"`
	Blocklist []decisioning.BlocklistItem `yaml:"blocklist,omitempty"`
}

// Load reads and resolves a snapshot file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	file, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Decode parses a YAML snapshot and resolves presets and quality references.
// Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if err := file.Resolve(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Encode writes the snapshot as YAML.
func Encode(w io.Writer, file *File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return enc.Close()
}

// Save writes the snapshot to path.
func Save(path string, file *File) error {
	var buf bytes.Buffer
	if err := Encode(&buf, file); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// Resolve expands presets and fills quality definitions referenced by ID or name.
func (f *File) Resolve() error {
	if err := f.Profile.resolve(); err != nil {
		return err
	}
	for i := range f.Profiles {
		if err := f.Profiles[i].resolve(); err != nil {
			return err
		}
	}
	for i := range f.Episodes {
		ep := &f.Episodes[i]
		if ep.File == nil {
			continue
		}
		if err := resolveModel(&ep.File.Quality); err != nil {
			return fmt.Errorf("episode %d file: %w", ep.ID, err)
		}
		if ep.File.EpisodeID == 0 {
			ep.File.EpisodeID = ep.ID
		}
	}
	for i := range f.Queue {
		if err := resolveModel(&f.Queue[i].Quality); err != nil {
			return fmt.Errorf("queue item %q: %w", f.Queue[i].Title, err)
		}
	}
	return nil
}

func (p *ProfileEntry) resolve() error {
	if p.Preset != "" {
		var preset quality.Profile
		switch strings.ToLower(p.Preset) {
		case PresetAny:
			preset = quality.DefaultProfile()
		case PresetHD1080p:
			preset = quality.HD1080pProfile()
		case PresetUltraHD:
			preset = quality.Ultra4KProfile()
		default:
			return fmt.Errorf("unknown profile preset %q", p.Preset)
		}
		if len(p.Items) == 0 {
			p.Items = preset.Items
		}
		if p.Cutoff == 0 {
			p.Cutoff = preset.Cutoff
		}
		if p.Name == "" {
			p.Name = preset.Name
		}
	}
	for i := range p.Items {
		for j := range p.Items[i].Qualities {
			if err := resolveQuality(&p.Items[i].Qualities[j]); err != nil {
				return fmt.Errorf("profile %q: %w", p.Name, err)
			}
		}
	}
	return nil
}

func resolveModel(m *quality.Model) error {
	if m.Revision.Version == 0 {
		m.Revision.Version = 1
	}
	return resolveQuality(&m.Quality)
}

func resolveQuality(q *quality.Quality) error {
	if q.ID == 0 && q.Name != "" {
		found, ok := quality.GetQualityByName(q.Name)
		if !ok {
			return fmt.Errorf("unknown quality %q", q.Name)
		}
		*q = found
		return nil
	}
	found, ok := quality.GetQualityByID(q.ID)
	if !ok {
		return fmt.Errorf("unknown quality id %d", q.ID)
	}
	*q = found
	return nil
}

// Snapshot builds the engine input described by the file.
func (f *File) Snapshot() decisioning.Snapshot {
	profiles := make(map[int64]quality.Profile, len(f.Profiles))
	for _, p := range f.Profiles {
		profiles[p.ID] = p.Profile
	}
	return decisioning.Snapshot{
		Library:   library.NewSnapshot(f.Series, f.Episodes),
		Profile:   f.Profile.Profile,
		Profiles:  profiles,
		Formats:   f.Formats,
		Queue:     f.Queue,
		Blocklist: f.Blocklist,
		Settings:  f.Settings,
		Now:       f.Now,
	}
}

// LoadReleases reads a release batch. Files ending in .json are decoded as
// JSON, anything else as YAML. Both forms hold a list of releases.
func LoadReleases(path string) ([]types.ReleaseInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read releases: %w", err)
	}

	var releases []types.ReleaseInfo
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &releases)
	} else {
		err = yaml.Unmarshal(data, &releases)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode releases: %w", path, err)
	}
	return releases, nil
}

// Package customformat implements user-defined release matching rules that
// add to or subtract from a release's score.
package customformat

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"

	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library/quality"
	"github.com/slipstream/releasedecider/internal/parser"
)

// ErrInvalidFormat is wrapped by every validation failure.
var ErrInvalidFormat = errors.New("invalid custom format")

// Kind identifies what a condition inspects.
type Kind string

const (
	KindReleaseTitle    Kind = "releaseTitle"
	KindReleaseGroup    Kind = "releaseGroup"
	KindSource          Kind = "source"
	KindResolution      Kind = "resolution"
	KindQualityModifier Kind = "qualityModifier"
	KindLanguage        Kind = "language"
	KindSize            Kind = "size"
	KindIndexer         Kind = "indexer"
	KindProtocol        Kind = "protocol"
	KindReleaseType     Kind = "releaseType"
)

// Quality modifiers.
const (
	ModifierRemux  = "remux"
	ModifierProper = "proper"
	ModifierRepack = "repack"
	ModifierReal   = "real"
)

// Release types.
const (
	ReleaseTypeSingle     = "single"
	ReleaseTypeMulti      = "multi"
	ReleaseTypeSeasonPack = "seasonpack"
	ReleaseTypeDaily      = "daily"
)

// LanguageUnknown matches releases without language tags.
const LanguageUnknown = "unknown"

// Condition is one predicate of a format.
type Condition struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Kind  Kind   `json:"kind" yaml:"kind"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	// Min and Max bound KindSize conditions, e.g. "1.5 GB". Empty means unbounded.
	Min      string `json:"min,omitempty" yaml:"min,omitempty"`
	Max      string `json:"max,omitempty" yaml:"max,omitempty"`
	Negate   bool   `json:"negate" yaml:"negate"`
	Required bool   `json:"required" yaml:"required"`
}

// Format is a named set of conditions with a score contribution.
type Format struct {
	ID         int64       `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Score      int         `json:"score" yaml:"score"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
}

// Input is everything a format can inspect.
type Input struct {
	Release *types.ReleaseInfo
	Parsed  *parser.ParsedInfo
}

type compiledCondition struct {
	Condition
	re         *regexp.Regexp
	source     string
	resolution int
	tag        language.Tag
	min, max   uint64
}

// Compiled is a validated format ready for matching. It is immutable and
// safe for concurrent use.
type Compiled struct {
	Format
	conditions []compiledCondition
}

// Compile validates every format and prepares it for matching. Format names
// must be unique.
func Compile(formats []Format) ([]*Compiled, error) {
	compiled := make([]*Compiled, 0, len(formats))
	seen := make(map[string]bool, len(formats))

	for i := range formats {
		name := strings.ToLower(strings.TrimSpace(formats[i].Name))
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidFormat, formats[i].Name)
		}
		seen[name] = true

		c, err := compileFormat(formats[i])
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

// Validate reports whether the format is well formed.
func (f Format) Validate() error {
	_, err := compileFormat(f)
	return err
}

func compileFormat(f Format) (*Compiled, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidFormat)
	}
	if len(f.Conditions) == 0 {
		return nil, fmt.Errorf("%w: %q has no conditions", ErrInvalidFormat, f.Name)
	}

	c := &Compiled{Format: f, conditions: make([]compiledCondition, 0, len(f.Conditions))}
	c.Format.Conditions = slices.Clone(f.Conditions)
	for i, cond := range f.Conditions {
		cc, err := compileCondition(cond)
		if err != nil {
			return nil, fmt.Errorf("%w: %q condition %d: %v", ErrInvalidFormat, f.Name, i, err)
		}
		c.conditions = append(c.conditions, cc)
	}
	return c, nil
}

func compileCondition(cond Condition) (compiledCondition, error) {
	cc := compiledCondition{Condition: cond}
	value := strings.TrimSpace(cond.Value)

	switch cond.Kind {
	case KindReleaseTitle, KindReleaseGroup:
		if value == "" {
			return cc, errors.New("pattern is required")
		}
		re, err := regexp.Compile("(?i)" + value)
		if err != nil {
			return cc, fmt.Errorf("bad pattern: %w", err)
		}
		cc.re = re

	case KindSource:
		cc.source = quality.NormalizeSource(value)
		if cc.source == "" {
			return cc, fmt.Errorf("unknown source %q", value)
		}

	case KindResolution:
		switch strings.TrimSuffix(strings.ToLower(value), "p") {
		case "480":
			cc.resolution = 480
		case "720":
			cc.resolution = 720
		case "1080":
			cc.resolution = 1080
		case "2160":
			cc.resolution = 2160
		default:
			return cc, fmt.Errorf("unknown resolution %q", value)
		}

	case KindQualityModifier:
		switch strings.ToLower(value) {
		case ModifierRemux, ModifierProper, ModifierRepack, ModifierReal:
		default:
			return cc, fmt.Errorf("unknown quality modifier %q", value)
		}

	case KindLanguage:
		if strings.EqualFold(value, LanguageUnknown) {
			break
		}
		tag, err := language.Parse(value)
		if err != nil {
			return cc, fmt.Errorf("bad language %q: %w", value, err)
		}
		cc.tag = tag

	case KindSize:
		if cond.Min == "" && cond.Max == "" {
			return cc, errors.New("size needs min or max")
		}
		if cond.Min != "" {
			n, err := humanize.ParseBytes(cond.Min)
			if err != nil {
				return cc, fmt.Errorf("bad min size: %w", err)
			}
			cc.min = n
		}
		if cond.Max != "" {
			n, err := humanize.ParseBytes(cond.Max)
			if err != nil {
				return cc, fmt.Errorf("bad max size: %w", err)
			}
			cc.max = n
			if cc.max < cc.min {
				return cc, errors.New("max size below min size")
			}
		}

	case KindIndexer:
		if value == "" {
			return cc, errors.New("indexer name is required")
		}

	case KindProtocol:
		switch types.Protocol(strings.ToLower(value)) {
		case types.ProtocolTorrent, types.ProtocolUsenet:
		default:
			return cc, fmt.Errorf("unknown protocol %q", value)
		}

	case KindReleaseType:
		switch strings.ToLower(value) {
		case ReleaseTypeSingle, ReleaseTypeMulti, ReleaseTypeSeasonPack, ReleaseTypeDaily:
		default:
			return cc, fmt.Errorf("unknown release type %q", value)
		}

	default:
		return cc, fmt.Errorf("unknown kind %q", cond.Kind)
	}

	return cc, nil
}

// Matches reports whether the format applies. Every required condition must
// match, and for each kind present at least one condition of that kind must match.
func (c *Compiled) Matches(in Input) bool {
	kinds := make(map[Kind]bool, len(c.conditions))
	for i := range c.conditions {
		cond := &c.conditions[i]
		ok := cond.matches(in)
		if cond.Required && !ok {
			return false
		}
		kinds[cond.Kind] = kinds[cond.Kind] || ok
	}
	for _, matched := range kinds {
		if !matched {
			return false
		}
	}
	return true
}

func (c *compiledCondition) matches(in Input) bool {
	result := c.evaluate(in)
	if c.Negate {
		return !result
	}
	return result
}

func (c *compiledCondition) evaluate(in Input) bool {
	release, parsed := in.Release, in.Parsed

	switch c.Kind {
	case KindReleaseTitle:
		return release != nil && c.re.MatchString(release.Title)
	case KindReleaseGroup:
		return parsed != nil && parsed.ReleaseGroup != "" && c.re.MatchString(parsed.ReleaseGroup)
	case KindSource:
		return parsed != nil && parsed.Quality.Quality.Source == c.source
	case KindResolution:
		return parsed != nil && parsed.Quality.Quality.Resolution == c.resolution
	case KindQualityModifier:
		if parsed == nil {
			return false
		}
		switch strings.ToLower(c.Value) {
		case ModifierRemux:
			return parsed.Quality.Quality.Source == quality.SourceRemux
		case ModifierProper:
			return parsed.Quality.Revision.Version > 1 && !parsed.Quality.Revision.IsRepack
		case ModifierRepack:
			return parsed.Quality.Revision.IsRepack
		case ModifierReal:
			return parsed.Quality.Revision.Real > 0
		}
	case KindLanguage:
		if parsed == nil {
			return false
		}
		if strings.EqualFold(c.Value, LanguageUnknown) {
			return len(parsed.Languages) == 0
		}
		want, _ := c.tag.Base()
		for _, tag := range parsed.Languages {
			if base, _ := tag.Base(); base == want {
				return true
			}
		}
	case KindSize:
		if release == nil || release.Size <= 0 {
			return false
		}
		size := uint64(release.Size)
		if size < c.min {
			return false
		}
		return c.max == 0 || size <= c.max
	case KindIndexer:
		return release != nil && strings.EqualFold(release.IndexerName, strings.TrimSpace(c.Value))
	case KindProtocol:
		return release != nil && strings.EqualFold(string(release.Protocol), c.Value)
	case KindReleaseType:
		return parsed != nil && releaseType(parsed) == strings.ToLower(c.Value)
	}
	return false
}

func releaseType(p *parser.ParsedInfo) string {
	switch {
	case p.IsSeasonPack:
		return ReleaseTypeSeasonPack
	case p.IsDaily:
		return ReleaseTypeDaily
	case p.IsMultiEpisode:
		return ReleaseTypeMulti
	default:
		return ReleaseTypeSingle
	}
}

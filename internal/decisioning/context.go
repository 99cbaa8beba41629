package decisioning

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library/quality"
)

// Settings are the operator-configured thresholds used by the specifications.
// Zero values disable the corresponding check.
type Settings struct {
	PreferredProtocol types.Protocol `json:"preferredProtocol" yaml:"preferredProtocol"`

	UsenetDelay  time.Duration `json:"usenetDelay" yaml:"usenetDelay"`
	TorrentDelay time.Duration `json:"torrentDelay" yaml:"torrentDelay"`

	RetentionDays  int `json:"retentionDays" yaml:"retentionDays"`
	MinimumSeeders int `json:"minimumSeeders" yaml:"minimumSeeders"`

	// MinimumSize and MaximumSize are per-episode limits in bytes.
	MinimumSize int64 `json:"minimumSize" yaml:"minimumSize"`
	MaximumSize int64 `json:"maximumSize" yaml:"maximumSize"`

	// RequiredTerms must have at least one match in the title; IgnoredTerms
	// must have none. A term wrapped in slashes is a regular expression.
	RequiredTerms []string `json:"requiredTerms,omitempty" yaml:"requiredTerms,omitempty"`
	IgnoredTerms  []string `json:"ignoredTerms,omitempty" yaml:"ignoredTerms,omitempty"`
}

// QueueItem is a release currently in the download queue.
type QueueItem struct {
	GUID              string         `json:"guid" yaml:"guid"`
	Title             string         `json:"title" yaml:"title"`
	SeriesID          int64          `json:"seriesId" yaml:"seriesId"`
	EpisodeIDs        []int64        `json:"episodeIds" yaml:"episodeIds"`
	Quality           quality.Model  `json:"quality" yaml:"quality"`
	CustomFormatScore int            `json:"customFormatScore" yaml:"customFormatScore"`
	Protocol          types.Protocol `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

// BlocklistItem is a release that failed before and must not be grabbed again.
type BlocklistItem struct {
	GUID        string         `json:"guid,omitempty" yaml:"guid,omitempty"`
	Title       string         `json:"title" yaml:"title"`
	SeriesID    int64          `json:"seriesId" yaml:"seriesId"`
	InfoHash    string         `json:"infoHash,omitempty" yaml:"infoHash,omitempty"`
	Indexer     string         `json:"indexer,omitempty" yaml:"indexer,omitempty"`
	Protocol    types.Protocol `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	PublishDate time.Time      `json:"publishDate,omitempty" yaml:"publishDate,omitempty"`
	Reason      string         `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// EvaluationContext is the read-only, per-run state shared by every
// specification.
type EvaluationContext struct {
	Now       time.Time
	Settings  Settings
	Queue     []QueueItem
	Blocklist []BlocklistItem

	required []term
	ignored  []term
}

type term struct {
	raw string
	re  *regexp.Regexp
}

func (t term) matches(title string) bool {
	if t.re != nil {
		return t.re.MatchString(title)
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(t.raw))
}

// NewEvaluationContext validates the settings and prepares them for use.
func NewEvaluationContext(now time.Time, settings Settings, queue []QueueItem, blocklist []BlocklistItem) (*EvaluationContext, error) {
	if settings.MinimumSize < 0 || settings.MaximumSize < 0 {
		return nil, fmt.Errorf("%w: size limits must not be negative", ErrConfigInvalid)
	}
	if settings.MaximumSize > 0 && settings.MaximumSize < settings.MinimumSize {
		return nil, fmt.Errorf("%w: maximum size is below minimum size", ErrConfigInvalid)
	}
	if settings.RetentionDays < 0 || settings.MinimumSeeders < 0 || settings.UsenetDelay < 0 || settings.TorrentDelay < 0 {
		return nil, fmt.Errorf("%w: thresholds must not be negative", ErrConfigInvalid)
	}
	switch settings.PreferredProtocol {
	case types.ProtocolUnknown, types.ProtocolTorrent, types.ProtocolUsenet:
	default:
		return nil, fmt.Errorf("%w: unknown preferred protocol %q", ErrConfigInvalid, settings.PreferredProtocol)
	}

	required, err := compileTerms(settings.RequiredTerms)
	if err != nil {
		return nil, err
	}
	ignored, err := compileTerms(settings.IgnoredTerms)
	if err != nil {
		return nil, err
	}

	return &EvaluationContext{
		Now:       now,
		Settings:  settings,
		Queue:     queue,
		Blocklist: blocklist,
		required:  required,
		ignored:   ignored,
	}, nil
}

func compileTerms(raw []string) ([]term, error) {
	terms := make([]term, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		t := term{raw: r}
		if len(r) > 2 && strings.HasPrefix(r, "/") && strings.HasSuffix(r, "/") {
			re, err := regexp.Compile("(?i)" + r[1:len(r)-1])
			if err != nil {
				return nil, fmt.Errorf("%w: bad term %q: %v", ErrConfigInvalid, r, err)
			}
			t.re = re
		}
		terms = append(terms, t)
	}
	return terms, nil
}

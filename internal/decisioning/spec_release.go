package decisioning

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library/quality"
	"github.com/slipstream/releasedecider/internal/matcher"
)

// DefaultSpecifications returns every built-in specification in evaluation order.
func DefaultSpecifications() []Specification {
	return []Specification{
		MatchSpec{},
		QualityAllowedSpec{},
		LanguageSpec{},
		RequiredTermsSpec{},
		IgnoredTermsSpec{},
		SizeSpec{},
		RetentionSpec{},
		SeedersSpec{},
		MinimumAgeSpec{},
		QueueSpec{},
		MonitoredSpec{},
		SeasonAiredSpec{},
		BlocklistSpec{},
		FormatScoreSpec{},
		UpgradeAllowedSpec{},
		UpgradableSpec{},
		CutoffSpec{},
		UpgradeFormatScoreSpec{},
	}
}

// MatchSpec rejects releases that did not resolve to a series and episodes.
type MatchSpec struct{}

func (MatchSpec) Name() string { return "match" }

func (MatchSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, _ *EvaluationContext) (*Rejection, error) {
	switch c.Status {
	case matcher.StatusMatched:
		return nil, nil
	case matcher.StatusUnknownSeries:
		return permanent(ReasonUnknownSeries, fmt.Sprintf("Unknown series %q", c.Parsed.SeriesTitle)), nil
	case matcher.StatusAmbiguousSeries:
		return permanent(ReasonAmbiguousSeries,
			fmt.Sprintf("%q matches %d series equally well", c.Parsed.SeriesTitle, len(c.Ambiguous))), nil
	case matcher.StatusUnnumbered:
		return permanent(ReasonUnparsableNumbering, "Unable to parse episode numbering from title"), nil
	case matcher.StatusUnknownEpisode:
		return permanent(ReasonUnknownEpisode, "Episode not found in series"), nil
	default:
		return nil, fmt.Errorf("unexpected match status %d", c.Status)
	}
}

// QualityAllowedSpec rejects qualities the profile does not want.
type QualityAllowedSpec struct{}

func (QualityAllowedSpec) Name() string { return "quality_allowed" }

func (QualityAllowedSpec) Evaluate(c *ScoredCandidate, profile *quality.Profile, _ *EvaluationContext) (*Rejection, error) {
	q := c.Parsed.Quality.Quality
	if profile.IsAcceptable(q.ID) {
		return nil, nil
	}
	return permanent(ReasonQualityNotAllowed,
		fmt.Sprintf("Quality %s is not wanted in profile %s", q.Name, profile.Name)), nil
}

// LanguageSpec rejects releases tagged only with languages outside the
// profile's allow-list. Untagged and multi-language releases pass.
type LanguageSpec struct{}

func (LanguageSpec) Name() string { return "language" }

func (LanguageSpec) Evaluate(c *ScoredCandidate, profile *quality.Profile, _ *EvaluationContext) (*Rejection, error) {
	if len(profile.Languages) == 0 || len(c.Parsed.Languages) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(c.Parsed.Languages))
	for _, tag := range c.Parsed.Languages {
		if tag.String() == "mul" || profile.AllowsLanguage(tag) {
			return nil, nil
		}
		names = append(names, tag.String())
	}
	return permanent(ReasonLanguageNotAllowed,
		fmt.Sprintf("Language %s is not wanted in profile %s", strings.Join(names, ", "), profile.Name)), nil
}

// RequiredTermsSpec rejects releases that contain none of the required terms.
type RequiredTermsSpec struct{}

func (RequiredTermsSpec) Name() string { return "required_terms" }

func (RequiredTermsSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, ec *EvaluationContext) (*Rejection, error) {
	if len(ec.required) == 0 {
		return nil, nil
	}
	for _, t := range ec.required {
		if t.matches(c.Release.Title) {
			return nil, nil
		}
	}
	raws := make([]string, len(ec.required))
	for i, t := range ec.required {
		raws[i] = t.raw
	}
	return permanent(ReasonRequiredTermMissing,
		fmt.Sprintf("Does not contain one of the required terms: %s", strings.Join(raws, ", "))), nil
}

// IgnoredTermsSpec rejects releases that contain an ignored term.
type IgnoredTermsSpec struct{}

func (IgnoredTermsSpec) Name() string { return "ignored_terms" }

func (IgnoredTermsSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, ec *EvaluationContext) (*Rejection, error) {
	var hits []string
	for _, t := range ec.ignored {
		if t.matches(c.Release.Title) {
			hits = append(hits, t.raw)
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return permanent(ReasonIgnoredTermPresent,
		fmt.Sprintf("Contains ignored terms: %s", strings.Join(hits, ", "))), nil
}

// SizeSpec enforces the per-episode size limits. Releases of unknown size pass.
type SizeSpec struct{}

func (SizeSpec) Name() string { return "size" }

func (SizeSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, ec *EvaluationContext) (*Rejection, error) {
	if c.Release.Size <= 0 {
		return nil, nil
	}
	episodes := int64(len(c.Episodes))
	if episodes < 1 {
		episodes = 1
	}
	perEpisode := c.Release.Size / episodes

	minimum, maximum := ec.Settings.MinimumSize, ec.Settings.MaximumSize
	if minimum > 0 && perEpisode < minimum {
		return permanent(ReasonSizeBelowMinimum, fmt.Sprintf("%s per episode is smaller than minimum allowed %s",
			humanize.IBytes(uint64(perEpisode)), humanize.IBytes(uint64(minimum)))), nil
	}
	if maximum > 0 && perEpisode > maximum {
		return permanent(ReasonSizeAboveMaximum, fmt.Sprintf("%s per episode is larger than maximum allowed %s",
			humanize.IBytes(uint64(perEpisode)), humanize.IBytes(uint64(maximum)))), nil
	}
	return nil, nil
}

// RetentionSpec rejects usenet posts older than the provider's retention.
type RetentionSpec struct{}

func (RetentionSpec) Name() string { return "retention" }

func (RetentionSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, ec *EvaluationContext) (*Rejection, error) {
	retention := ec.Settings.RetentionDays
	if c.Release.Protocol != types.ProtocolUsenet || retention <= 0 || c.Release.PublishDate.IsZero() {
		return nil, nil
	}
	if age := c.Release.AgeDays(ec.Now); age > retention {
		return permanent(ReasonOutsideRetention,
			fmt.Sprintf("Older than configured retention: %d days > %d days", age, retention)), nil
	}
	return nil, nil
}

// SeedersSpec rejects torrents with too few seeders. Unknown counts pass.
type SeedersSpec struct{}

func (SeedersSpec) Name() string { return "seeders" }

func (SeedersSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, ec *EvaluationContext) (*Rejection, error) {
	minimum := ec.Settings.MinimumSeeders
	if c.Release.Protocol != types.ProtocolTorrent || minimum <= 0 || c.Release.Seeders == nil {
		return nil, nil
	}
	if seeders := *c.Release.Seeders; seeders < minimum {
		return permanent(ReasonInsufficientSeeders,
			fmt.Sprintf("Not enough seeders: %d, minimum %d", seeders, minimum)), nil
	}
	return nil, nil
}

// MinimumAgeSpec holds back releases younger than the protocol delay.
type MinimumAgeSpec struct{}

func (MinimumAgeSpec) Name() string { return "minimum_age" }

func (MinimumAgeSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, ec *EvaluationContext) (*Rejection, error) {
	var delay time.Duration
	switch c.Release.Protocol {
	case types.ProtocolUsenet:
		delay = ec.Settings.UsenetDelay
	case types.ProtocolTorrent:
		delay = ec.Settings.TorrentDelay
	}
	if delay <= 0 || c.Release.PublishDate.IsZero() {
		return nil, nil
	}
	if age := c.Release.Age(ec.Now); age < delay {
		return temporary(ReasonBelowMinimumAge, fmt.Sprintf("Release is %s old, delay is %s",
			age.Round(time.Minute), delay)), nil
	}
	return nil, nil
}

// BlocklistSpec rejects releases that failed before.
type BlocklistSpec struct{}

func (BlocklistSpec) Name() string { return "blocklist" }

func (BlocklistSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, ec *EvaluationContext) (*Rejection, error) {
	for i := range ec.Blocklist {
		if blocklisted(&ec.Blocklist[i], c) {
			return permanent(ReasonBlocklisted, "Release is blocklisted"), nil
		}
	}
	return nil, nil
}

func blocklisted(item *BlocklistItem, c *ScoredCandidate) bool {
	release := &c.Release
	if item.GUID != "" && item.GUID == release.GUID {
		return true
	}
	if item.InfoHash != "" && strings.EqualFold(item.InfoHash, release.InfoHash) {
		return true
	}
	if !strings.EqualFold(item.Title, release.Title) {
		return false
	}
	if item.SeriesID != 0 && c.Series != nil && item.SeriesID != c.Series.ID {
		return false
	}
	// Usenet entries also have to agree on publish date.
	if item.Protocol == types.ProtocolUsenet && !item.PublishDate.IsZero() && !release.PublishDate.IsZero() {
		return item.PublishDate.Sub(release.PublishDate).Abs() < 2*time.Minute
	}
	return true
}

package scoring

import (
	"github.com/slipstream/releasedecider/internal/customformat"
	"github.com/slipstream/releasedecider/internal/library/quality"
	"github.com/slipstream/releasedecider/internal/matcher"
)

// Scorer calculates quality weights and custom format scores. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	config ScoringConfig
}

// NewScorer creates a new scorer with the given config.
func NewScorer(config ScoringConfig) *Scorer {
	return &Scorer{config: config}
}

// NewDefaultScorer creates a scorer with default configuration.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultConfig())
}

// Score scores a candidate against a profile and a set of compiled formats.
// Formats are evaluated independently, so their order only affects the order
// of Score.Formats.
func (s *Scorer) Score(candidate *matcher.Candidate, profile *quality.Profile, formats []*customformat.Compiled) Score {
	result := Score{
		QualityWeight: s.QualityWeight(candidate.Parsed.Quality.Quality, profile),
	}

	in := customformat.Input{Release: &candidate.Release, Parsed: &candidate.Parsed}
	total := 0
	for _, f := range formats {
		if f.Matches(in) {
			total += f.Score
			result.Formats = append(result.Formats, f.Name)
		}
	}
	result.CustomFormatScore = s.config.clamp(total)

	return result
}

// QualityWeight returns the rank of q in profile.
func (s *Scorer) QualityWeight(q quality.Quality, profile *quality.Profile) int {
	if profile == nil {
		return 0
	}
	return profile.Weight(q.ID)
}

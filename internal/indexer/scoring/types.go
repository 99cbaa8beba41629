// Package scoring computes the quality weight and custom format score of
// matched release candidates.
package scoring

// Score is the result of scoring one candidate.
type Score struct {
	// QualityWeight is the rank of the candidate's quality in the profile.
	// Lower is more preferred; qualities missing from the profile rank last.
	QualityWeight int `json:"qualityWeight"`
	// CustomFormatScore is the sum of every matching format's score.
	CustomFormatScore int `json:"customFormatScore"`
	// Formats names the matching formats in configuration order.
	Formats []string `json:"customFormats,omitempty"`
}

// ScoringConfig holds optional limits applied while scoring.
type ScoringConfig struct {
	// FormatScoreCeiling and FormatScoreFloor clamp the summed custom
	// format score. Zero disables the bound.
	FormatScoreCeiling int
	FormatScoreFloor   int
}

// DefaultConfig returns a config with no clamping.
func DefaultConfig() ScoringConfig {
	return ScoringConfig{}
}

func (c ScoringConfig) clamp(score int) int {
	if c.FormatScoreCeiling != 0 && score > c.FormatScoreCeiling {
		return c.FormatScoreCeiling
	}
	if c.FormatScoreFloor != 0 && score < c.FormatScoreFloor {
		return c.FormatScoreFloor
	}
	return score
}

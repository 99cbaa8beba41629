package decisioning

import (
	"fmt"

	"github.com/slipstream/releasedecider/internal/library"
	"github.com/slipstream/releasedecider/internal/library/quality"
)

// FormatScoreSpec rejects releases scoring below the profile minimum.
type FormatScoreSpec struct{}

func (FormatScoreSpec) Name() string { return "format_score" }

func (FormatScoreSpec) Evaluate(c *ScoredCandidate, profile *quality.Profile, _ *EvaluationContext) (*Rejection, error) {
	if c.CustomFormatScore >= profile.MinFormatScore {
		return nil, nil
	}
	return permanent(ReasonFormatScoreTooLow, fmt.Sprintf("Custom format score %d is below the minimum %d",
		c.CustomFormatScore, profile.MinFormatScore)), nil
}

// UpgradeAllowedSpec rejects replacing existing files when the profile
// disables upgrades.
type UpgradeAllowedSpec struct{}

func (UpgradeAllowedSpec) Name() string { return "upgrade_allowed" }

func (UpgradeAllowedSpec) Evaluate(c *ScoredCandidate, profile *quality.Profile, _ *EvaluationContext) (*Rejection, error) {
	if profile.UpgradeAllowed {
		return nil, nil
	}
	if f := firstFile(c, func(*library.EpisodeFile) bool { return true }); f != nil {
		return permanent(ReasonUpgradesNotAllowed,
			fmt.Sprintf("Existing file %s and profile %s does not allow upgrades", f.Quality, profile.Name)), nil
	}
	return nil, nil
}

// UpgradableSpec requires a quality upgrade over existing files that are
// still below the cutoff.
type UpgradableSpec struct{}

func (UpgradableSpec) Name() string { return "upgradable" }

func (UpgradableSpec) Evaluate(c *ScoredCandidate, profile *quality.Profile, _ *EvaluationContext) (*Rejection, error) {
	f := firstFile(c, func(f *library.EpisodeFile) bool {
		return !profile.MeetsCutoff(f.Quality.Quality.ID) &&
			!isUpgrade(profile, c.Parsed.Quality, c.CustomFormatScore, f.Quality, f.CustomFormatScore)
	})
	if f == nil {
		return nil, nil
	}
	return permanent(ReasonNotQualityUpgrade,
		fmt.Sprintf("Existing file %s is not worse than %s", f.Quality, c.Parsed.Quality)), nil
}

// CutoffSpec rejects lower qualities once an existing file meets the cutoff.
type CutoffSpec struct{}

func (CutoffSpec) Name() string { return "cutoff" }

func (CutoffSpec) Evaluate(c *ScoredCandidate, profile *quality.Profile, _ *EvaluationContext) (*Rejection, error) {
	f := firstFile(c, func(f *library.EpisodeFile) bool {
		return profile.MeetsCutoff(f.Quality.Quality.ID) &&
			profile.CompareQuality(c.Parsed.Quality, f.Quality) < 0
	})
	if f == nil {
		return nil, nil
	}
	return permanent(ReasonCutoffMet,
		fmt.Sprintf("Existing file %s meets the cutoff and is better than %s", f.Quality, c.Parsed.Quality)), nil
}

// UpgradeFormatScoreSpec requires a release replacing a file that meets the
// cutoff to add at least MinUpgradeFormatScore to the file's score. The
// release must always score higher than the file, so a zero minimum does not
// let an identical release through.
type UpgradeFormatScoreSpec struct{}

func (UpgradeFormatScoreSpec) Name() string { return "upgrade_format_score" }

func (UpgradeFormatScoreSpec) Evaluate(c *ScoredCandidate, profile *quality.Profile, _ *EvaluationContext) (*Rejection, error) {
	required := max(profile.MinUpgradeFormatScore, 1)
	f := firstFile(c, func(f *library.EpisodeFile) bool {
		return profile.MeetsCutoff(f.Quality.Quality.ID) &&
			c.CustomFormatScore < f.CustomFormatScore+required
	})
	if f == nil {
		return nil, nil
	}
	return permanent(ReasonUpgradeInsufficient,
		fmt.Sprintf("Existing file meets the cutoff with score %d, release score %d does not add the required %d",
			f.CustomFormatScore, c.CustomFormatScore, required)), nil
}

// firstFile returns the first existing episode file for which match is true.
func firstFile(c *ScoredCandidate, match func(*library.EpisodeFile) bool) *library.EpisodeFile {
	for i := range c.Episodes {
		if f := c.Episodes[i].File; f != nil && match(f) {
			return f
		}
	}
	return nil
}

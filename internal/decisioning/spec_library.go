package decisioning

import (
	"fmt"

	"github.com/slipstream/releasedecider/internal/library/quality"
)

// QueueSpec holds back releases for episodes that are already downloading,
// unless the release would upgrade what is in the queue.
type QueueSpec struct{}

func (QueueSpec) Name() string { return "queue" }

func (QueueSpec) Evaluate(c *ScoredCandidate, profile *quality.Profile, ec *EvaluationContext) (*Rejection, error) {
	for i := range ec.Queue {
		item := &ec.Queue[i]
		if item.GUID != "" && item.GUID == c.Release.GUID {
			return temporary(ReasonAlreadyQueued, "Release is already in the download queue"), nil
		}
		if c.Series == nil || item.SeriesID != c.Series.ID || !sharesEpisode(item.EpisodeIDs, c) {
			continue
		}
		if isUpgrade(profile, c.Parsed.Quality, c.CustomFormatScore, item.Quality, item.CustomFormatScore) {
			continue
		}
		return temporary(ReasonAlreadyQueued,
			fmt.Sprintf("Episode is already queued with %s: %s", item.Quality, item.Title)), nil
	}
	return nil, nil
}

func sharesEpisode(ids []int64, c *ScoredCandidate) bool {
	for _, id := range ids {
		for i := range c.Episodes {
			if c.Episodes[i].ID == id {
				return true
			}
		}
	}
	return false
}

// isUpgrade reports whether the candidate quality and score beat the other
// ones: a better quality wins, and an equal quality needs a higher score.
func isUpgrade(profile *quality.Profile, candidate quality.Model, candidateScore int, other quality.Model, otherScore int) bool {
	cmp := profile.CompareQuality(candidate, other)
	if cmp != 0 {
		return cmp > 0
	}
	return candidateScore > otherScore
}

// MonitoredSpec rejects releases for unmonitored series or episodes.
type MonitoredSpec struct{}

func (MonitoredSpec) Name() string { return "monitored" }

func (MonitoredSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, _ *EvaluationContext) (*Rejection, error) {
	if c.Series == nil {
		return nil, nil
	}
	if !c.Series.Monitored {
		return permanent(ReasonSeriesNotMonitored, fmt.Sprintf("Series %s is not monitored", c.Series.Title)), nil
	}
	for i := range c.Episodes {
		ep := &c.Episodes[i]
		if !ep.Monitored {
			return permanent(ReasonEpisodeNotMonitored,
				fmt.Sprintf("Episode S%02dE%02d is not monitored", ep.SeasonNumber, ep.EpisodeNumber)), nil
		}
	}
	return nil, nil
}

// SeasonAiredSpec rejects season packs for seasons that are still airing.
type SeasonAiredSpec struct{}

func (SeasonAiredSpec) Name() string { return "season_aired" }

func (SeasonAiredSpec) Evaluate(c *ScoredCandidate, _ *quality.Profile, ec *EvaluationContext) (*Rejection, error) {
	if !c.Parsed.IsSeasonPack || len(c.Episodes) == 0 {
		return nil, nil
	}
	for i := range c.Episodes {
		ep := &c.Episodes[i]
		if !ep.HasAired(ec.Now) {
			return permanent(ReasonSeasonNotFullyAired,
				fmt.Sprintf("Season %d has not fully aired, S%02dE%02d is still upcoming",
					ep.SeasonNumber, ep.SeasonNumber, ep.EpisodeNumber)), nil
		}
	}
	return nil, nil
}

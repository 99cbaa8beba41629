// Package matcher resolves parsed releases against the tracked library.
package matcher

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library"
	"github.com/slipstream/releasedecider/internal/parser"
)

// FuzzyThreshold is the minimum title similarity accepted by the fuzzy pass.
const FuzzyThreshold = 0.75

// Status describes how far a release got through matching.
type Status int

const (
	StatusMatched Status = iota
	StatusUnknownSeries
	StatusAmbiguousSeries
	StatusUnknownEpisode
	StatusUnnumbered
)

func (s Status) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusUnknownSeries:
		return "unknown_series"
	case StatusAmbiguousSeries:
		return "ambiguous_series"
	case StatusUnknownEpisode:
		return "unknown_episode"
	case StatusUnnumbered:
		return "unnumbered"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for _, status := range []Status{StatusMatched, StatusUnknownSeries, StatusAmbiguousSeries, StatusUnknownEpisode, StatusUnnumbered} {
		if status.String() == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown match status %q", text)
}

// Match methods record which key resolved the series.
const (
	MatchedByTvdbID = "tvdb"
	MatchedByTitle  = "title"
	MatchedByFuzzy  = "fuzzy"
)

// Candidate is a release together with what it resolved to in the library.
// Series and Episodes are copies owned by the candidate.
type Candidate struct {
	Release   types.ReleaseInfo `json:"release"`
	Parsed    parser.ParsedInfo `json:"parsed"`
	Series    *library.Series   `json:"series,omitempty"`
	Episodes  []library.Episode `json:"episodes,omitempty"`
	Status    Status            `json:"status"`
	MatchedBy string            `json:"matchedBy,omitempty"`
	// Ambiguous lists the series IDs that tied when Status is StatusAmbiguousSeries.
	Ambiguous []int64 `json:"ambiguous,omitempty"`
}

// HasSeries reports whether a series was resolved.
func (c *Candidate) HasSeries() bool {
	return c.Series != nil
}

// Match resolves a parsed release to at most one series and to the episodes
// it names. It only reads from lookup.
func Match(release types.ReleaseInfo, parsed parser.ParsedInfo, lookup library.Lookup) Candidate {
	candidate := Candidate{Release: release, Parsed: parsed}

	series, by, tied := resolveSeries(release, parsed, lookup)
	switch {
	case len(tied) > 1:
		candidate.Status = StatusAmbiguousSeries
		candidate.Ambiguous = tied
		return candidate
	case series == nil:
		candidate.Status = StatusUnknownSeries
		return candidate
	}
	candidate.Series = series
	candidate.MatchedBy = by

	if parsed.IsUnnumbered() {
		candidate.Status = StatusUnnumbered
		return candidate
	}

	episodes, complete := resolveEpisodes(series, parsed, lookup)
	candidate.Episodes = episodes
	if !complete || len(episodes) == 0 {
		candidate.Status = StatusUnknownEpisode
		return candidate
	}
	candidate.Status = StatusMatched
	return candidate
}

// resolveSeries looks up by TVDB ID, then exact cleaned title, then fuzzy
// similarity. It returns the tied IDs when more than one series is equally likely.
func resolveSeries(release types.ReleaseInfo, parsed parser.ParsedInfo, lookup library.Lookup) (*library.Series, string, []int64) {
	if release.TvdbID != 0 {
		if s, ok := lookup.SeriesByTvdbID(release.TvdbID); ok {
			return &s, MatchedByTvdbID, nil
		}
	}

	if parsed.SeriesTitle == "" {
		return nil, "", nil
	}

	if parsed.Year > 0 {
		withYear := lookup.SeriesByTitle(parsed.SeriesTitle + " " + strconv.Itoa(parsed.Year))
		if len(withYear) == 1 {
			return &withYear[0], MatchedByTitle, nil
		}
	}

	exact := lookup.SeriesByTitle(parsed.SeriesTitle)
	if parsed.Year > 0 && len(exact) > 1 {
		if byYear := filterByYear(exact, parsed.Year); len(byYear) > 0 {
			exact = byYear
		}
	}
	switch len(exact) {
	case 0:
	case 1:
		return &exact[0], MatchedByTitle, nil
	default:
		return nil, "", seriesIDs(exact)
	}

	return fuzzySeries(parsed, lookup)
}

func fuzzySeries(parsed parser.ParsedInfo, lookup library.Lookup) (*library.Series, string, []int64) {
	type scored struct {
		series     library.Series
		similarity float64
	}

	var best []scored
	for _, s := range lookup.AllSeries() {
		sim := library.TitleSimilarity(parsed.SeriesTitle, s.Title)
		for _, alias := range s.Aliases {
			if aliasSim := library.TitleSimilarity(parsed.SeriesTitle, alias); aliasSim > sim {
				sim = aliasSim
			}
		}
		if sim < FuzzyThreshold {
			continue
		}
		switch {
		case len(best) == 0 || sim > best[0].similarity:
			best = []scored{{s, sim}}
		case sim == best[0].similarity:
			best = append(best, scored{s, sim})
		}
	}

	switch len(best) {
	case 0:
		return nil, "", nil
	case 1:
		return &best[0].series, MatchedByFuzzy, nil
	default:
		tied := make([]library.Series, len(best))
		for i := range best {
			tied[i] = best[i].series
		}
		if parsed.Year > 0 {
			if byYear := filterByYear(tied, parsed.Year); len(byYear) == 1 {
				return &byYear[0], MatchedByFuzzy, nil
			}
		}
		return nil, "", seriesIDs(tied)
	}
}

// resolveEpisodes returns the episodes named by parsed and whether every
// named episode was found.
func resolveEpisodes(series *library.Series, parsed parser.ParsedInfo, lookup library.Lookup) ([]library.Episode, bool) {
	switch {
	case parsed.IsDaily:
		eps := lookup.EpisodesByAirDate(series.ID, parsed.AirDate)
		return eps, len(eps) > 0

	case parsed.Mode == parser.NumberingAbsolute:
		var eps []library.Episode
		for _, abs := range parsed.AbsoluteEpisodeNumbers {
			found := lookup.EpisodesByAbsolute(series.ID, abs)
			if len(found) == 0 {
				return eps, false
			}
			eps = append(eps, found...)
		}
		return eps, true

	case parsed.IsSeasonPack:
		last := parsed.SeasonNumber
		if parsed.IsMultiSeason {
			last = parsed.EndSeasonNumber
		}
		var eps []library.Episode
		for season := parsed.SeasonNumber; season <= last; season++ {
			found := lookup.EpisodesForSeason(series.ID, season)
			if len(found) == 0 {
				return eps, false
			}
			eps = append(eps, found...)
		}
		return eps, true

	default:
		var eps []library.Episode
		for _, number := range parsed.EpisodeNumbers {
			ep, ok := lookup.EpisodeFor(series.ID, parsed.SeasonNumber, number)
			if !ok {
				return eps, false
			}
			eps = append(eps, ep)
		}
		return eps, true
	}
}

func filterByYear(series []library.Series, year int) []library.Series {
	var result []library.Series
	for i := range series {
		if series[i].Year == year {
			result = append(result, series[i])
		}
	}
	return result
}

func seriesIDs(series []library.Series) []int64 {
	ids := make([]int64, len(series))
	for i := range series {
		ids[i] = series[i].ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

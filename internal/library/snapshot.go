package library

import (
	"slices"
	"sort"
	"time"
)

// Snapshot is an immutable in-memory Lookup built once per evaluation run.
type Snapshot struct {
	series   []Series
	byTitle  map[string][]int
	byTvdbID map[int]int
	episodes map[int64][]Episode
}

var _ Lookup = (*Snapshot)(nil)

// NewSnapshot indexes series and episodes. The inputs are copied; later
// changes to them are not visible through the snapshot.
func NewSnapshot(series []Series, episodes []Episode) *Snapshot {
	s := &Snapshot{
		series:   make([]Series, 0, len(series)),
		byTitle:  make(map[string][]int),
		byTvdbID: make(map[int]int),
		episodes: make(map[int64][]Episode),
	}

	for i := range series {
		item := cloneSeries(series[i])
		idx := len(s.series)
		s.series = append(s.series, item)

		seen := make(map[string]bool)
		for _, key := range titleKeys(item) {
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			s.byTitle[key] = append(s.byTitle[key], idx)
		}
		if item.TvdbID != 0 {
			s.byTvdbID[item.TvdbID] = idx
		}
	}

	for i := range episodes {
		ep := cloneEpisode(episodes[i])
		s.episodes[ep.SeriesID] = append(s.episodes[ep.SeriesID], ep)
	}
	for id := range s.episodes {
		eps := s.episodes[id]
		sort.SliceStable(eps, func(i, j int) bool {
			if eps[i].SeasonNumber != eps[j].SeasonNumber {
				return eps[i].SeasonNumber < eps[j].SeasonNumber
			}
			return eps[i].EpisodeNumber < eps[j].EpisodeNumber
		})
	}

	return s
}

// titleKeys returns every cleaned key a series can be found under.
func titleKeys(series Series) []string {
	keys := []string{CleanTitle(series.Title), CleanTitleWithoutYear(series.Title)}
	for _, alias := range series.Aliases {
		keys = append(keys, CleanTitle(alias), CleanTitleWithoutYear(alias))
	}
	return keys
}

// SeriesByTitle implements Lookup.
func (s *Snapshot) SeriesByTitle(title string) []Series {
	var result []Series
	for _, idx := range s.byTitle[CleanTitle(title)] {
		result = append(result, cloneSeries(s.series[idx]))
	}
	return result
}

// SeriesByTvdbID implements Lookup.
func (s *Snapshot) SeriesByTvdbID(tvdbID int) (Series, bool) {
	idx, ok := s.byTvdbID[tvdbID]
	if !ok || tvdbID == 0 {
		return Series{}, false
	}
	return cloneSeries(s.series[idx]), true
}

// AllSeries implements Lookup.
func (s *Snapshot) AllSeries() []Series {
	result := make([]Series, len(s.series))
	for i := range s.series {
		result[i] = cloneSeries(s.series[i])
	}
	return result
}

// EpisodesForSeason implements Lookup.
func (s *Snapshot) EpisodesForSeason(seriesID int64, season int) []Episode {
	return s.filter(seriesID, func(ep *Episode) bool {
		return ep.SeasonNumber == season
	})
}

// EpisodeFor implements Lookup.
func (s *Snapshot) EpisodeFor(seriesID int64, season, episode int) (Episode, bool) {
	found := s.filter(seriesID, func(ep *Episode) bool {
		return ep.SeasonNumber == season && ep.EpisodeNumber == episode
	})
	if len(found) == 0 {
		return Episode{}, false
	}
	return found[0], true
}

// EpisodesByAirDate implements Lookup. Only the calendar date is compared.
func (s *Snapshot) EpisodesByAirDate(seriesID int64, airDate time.Time) []Episode {
	y, m, d := airDate.Date()
	return s.filter(seriesID, func(ep *Episode) bool {
		if ep.AirDate == nil {
			return false
		}
		ey, em, ed := ep.AirDate.Date()
		return ey == y && em == m && ed == d
	})
}

// EpisodesByAbsolute implements Lookup.
func (s *Snapshot) EpisodesByAbsolute(seriesID int64, absolute int) []Episode {
	if absolute <= 0 {
		return nil
	}
	return s.filter(seriesID, func(ep *Episode) bool {
		return ep.AbsoluteNumber == absolute
	})
}

func (s *Snapshot) filter(seriesID int64, keep func(*Episode) bool) []Episode {
	var result []Episode
	eps := s.episodes[seriesID]
	for i := range eps {
		if keep(&eps[i]) {
			result = append(result, cloneEpisode(eps[i]))
		}
	}
	return result
}

func cloneSeries(s Series) Series {
	s.Aliases = slices.Clone(s.Aliases)
	return s
}

func cloneEpisode(e Episode) Episode {
	if e.AirDate != nil {
		t := *e.AirDate
		e.AirDate = &t
	}
	if e.File != nil {
		f := *e.File
		e.File = &f
	}
	return e
}

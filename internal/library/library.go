// Package library holds the read-only view of tracked series and episodes
// that release decisions are resolved against.
package library

import (
	"time"

	"github.com/slipstream/releasedecider/internal/library/quality"
)

// Series format types.
const (
	FormatStandard = "standard"
	FormatDaily    = "daily"
	FormatAnime    = "anime"
)

// Series represents a tracked TV series.
type Series struct {
	ID               int64     `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	Year             int       `json:"year,omitempty" yaml:"year,omitempty"`
	TvdbID           int       `json:"tvdbId,omitempty" yaml:"tvdbId,omitempty"`
	Aliases          []string  `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	QualityProfileID int64     `json:"qualityProfileId,omitempty" yaml:"qualityProfileId,omitempty"`
	Monitored        bool      `json:"monitored" yaml:"monitored"`
	Status           string    `json:"status,omitempty" yaml:"status,omitempty"` // "continuing", "ended", "upcoming"
	FormatType       string    `json:"formatType,omitempty" yaml:"formatType,omitempty"`
	AddedAt          time.Time `json:"addedAt,omitempty" yaml:"addedAt,omitempty"`
}

// Episode represents a single episode of a series.
type Episode struct {
	ID             int64        `json:"id" yaml:"id"`
	SeriesID       int64        `json:"seriesId" yaml:"seriesId"`
	SeasonNumber   int          `json:"seasonNumber" yaml:"seasonNumber"`
	EpisodeNumber  int          `json:"episodeNumber" yaml:"episodeNumber"`
	AbsoluteNumber int          `json:"absoluteNumber,omitempty" yaml:"absoluteNumber,omitempty"`
	Title          string       `json:"title,omitempty" yaml:"title,omitempty"`
	AirDate        *time.Time   `json:"airDate,omitempty" yaml:"airDate,omitempty"`
	Monitored      bool         `json:"monitored" yaml:"monitored"`
	File           *EpisodeFile `json:"episodeFile,omitempty" yaml:"file,omitempty"`
}

// HasFile reports whether the episode already has a file on disk.
func (e *Episode) HasFile() bool {
	return e.File != nil
}

// HasAired reports whether the episode aired at or before now.
// Episodes without an air date have not aired.
func (e *Episode) HasAired(now time.Time) bool {
	return e.AirDate != nil && !e.AirDate.After(now)
}

// EpisodeFile is the file currently imported for an episode.
type EpisodeFile struct {
	ID                int64         `json:"id" yaml:"id"`
	EpisodeID         int64         `json:"episodeId" yaml:"episodeId"`
	Path              string        `json:"path,omitempty" yaml:"path,omitempty"`
	Size              int64         `json:"size" yaml:"size"`
	Quality           quality.Model `json:"quality" yaml:"quality"`
	CustomFormatScore int           `json:"customFormatScore" yaml:"customFormatScore"`
	ReleaseGroup      string        `json:"releaseGroup,omitempty" yaml:"releaseGroup,omitempty"`
	CreatedAt         time.Time     `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// Lookup is the read-only query surface over library state. Implementations
// must be fully materialized in memory and safe for concurrent readers.
// Returned values are copies; callers cannot mutate the underlying state.
type Lookup interface {
	// SeriesByTitle returns every series whose cleaned title or alias equals
	// the cleaned form of title.
	SeriesByTitle(title string) []Series
	SeriesByTvdbID(tvdbID int) (Series, bool)
	AllSeries() []Series

	EpisodesForSeason(seriesID int64, season int) []Episode
	EpisodeFor(seriesID int64, season, episode int) (Episode, bool)
	EpisodesByAirDate(seriesID int64, airDate time.Time) []Episode
	EpisodesByAbsolute(seriesID int64, absolute int) []Episode
}

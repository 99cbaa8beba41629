package api

import (
	"time"

	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library/quality"
)

// ReleaseResource is the API view of one decision.
type ReleaseResource struct {
	GUID        string         `json:"guid"`
	Title       string         `json:"title"`
	DownloadURL string         `json:"downloadUrl,omitempty"`
	InfoURL     string         `json:"infoUrl,omitempty"`
	MagnetURL   string         `json:"magnetUrl,omitempty"`
	InfoHash    string         `json:"infoHash,omitempty"`
	IndexerID   int64          `json:"indexerId"`
	Indexer     string         `json:"indexer,omitempty"`
	TvdbID      int            `json:"tvdbId,omitempty"`
	Size        int64          `json:"size"`
	PublishDate time.Time      `json:"publishDate"`
	AirDate     *time.Time     `json:"airDate,omitempty"`
	Age         int            `json:"age"`
	AgeHours    float64        `json:"ageHours"`
	AgeMinutes  float64        `json:"ageMinutes"`
	Protocol    types.Protocol `json:"protocol"`
	Seeders     *int           `json:"seeders,omitempty"`
	Leechers    *int           `json:"leechers,omitempty"`

	Quality           quality.Model `json:"quality"`
	QualityWeight     int           `json:"qualityWeight"`
	CustomFormats     []string      `json:"customFormats"`
	CustomFormatScore int           `json:"customFormatScore"`
	ReleaseWeight     int           `json:"releaseWeight"`
	ReleaseGroup      string        `json:"releaseGroup,omitempty"`
	Languages         []string      `json:"languages"`

	Approved            bool                    `json:"approved"`
	TemporarilyRejected bool                    `json:"temporarilyRejected"`
	Rejected            bool                    `json:"rejected"`
	Rejections          []decisioning.Rejection `json:"rejections"`

	MappedSeriesID    *int64          `json:"mappedSeriesId,omitempty"`
	MappedEpisodeInfo []MappedEpisode `json:"mappedEpisodeInfo"`
	SeriesTitle       string          `json:"seriesTitle,omitempty"`
	SeasonNumber      int             `json:"seasonNumber"`
	EpisodeNumbers    []int           `json:"episodeNumbers,omitempty"`
	FullSeason        bool            `json:"fullSeason"`
	IsDaily           bool            `json:"isDaily"`
}

// MappedEpisode is a library episode a release resolved to.
type MappedEpisode struct {
	ID                    int64  `json:"id"`
	SeasonNumber          int    `json:"seasonNumber"`
	EpisodeNumber         int    `json:"episodeNumber"`
	AbsoluteEpisodeNumber int    `json:"absoluteEpisodeNumber,omitempty"`
	Title                 string `json:"title,omitempty"`
}

func newReleaseResource(d *decisioning.Decision, now time.Time) ReleaseResource {
	c := &d.Candidate
	rel := &c.Release
	parsed := &c.Parsed

	age := rel.Age(now)
	res := ReleaseResource{
		GUID:        rel.GUID,
		Title:       rel.Title,
		DownloadURL: rel.DownloadURL,
		InfoURL:     rel.InfoURL,
		MagnetURL:   rel.MagnetURL,
		InfoHash:    rel.InfoHash,
		IndexerID:   rel.IndexerID,
		Indexer:     rel.IndexerName,
		TvdbID:      rel.TvdbID,
		Size:        rel.Size,
		PublishDate: rel.PublishDate,
		Age:         rel.AgeDays(now),
		AgeHours:    age.Hours(),
		AgeMinutes:  age.Minutes(),
		Protocol:    rel.Protocol,
		Seeders:     rel.Seeders,
		Leechers:    rel.Leechers(),

		Quality:           parsed.Quality,
		QualityWeight:     d.QualityWeight,
		CustomFormats:     nonNilStrings(d.CustomFormats),
		CustomFormatScore: d.CustomFormatScore,
		ReleaseWeight:     d.ReleaseWeight,
		ReleaseGroup:      parsed.ReleaseGroup,
		Languages:         make([]string, 0, len(parsed.Languages)),

		Approved:            d.Approved(),
		TemporarilyRejected: d.TemporarilyRejected(),
		Rejected:            d.Rejected(),
		Rejections:          d.Rejections,

		MappedEpisodeInfo: make([]MappedEpisode, 0, len(c.Episodes)),
		SeasonNumber:      parsed.SeasonNumber,
		EpisodeNumbers:    parsed.EpisodeNumbers,
		FullSeason:        parsed.IsSeasonPack,
		IsDaily:           parsed.IsDaily,
	}
	if res.Rejections == nil {
		res.Rejections = []decisioning.Rejection{}
	}
	for _, tag := range parsed.Languages {
		res.Languages = append(res.Languages, tag.String())
	}
	if c.Series != nil {
		id := c.Series.ID
		res.MappedSeriesID = &id
		res.SeriesTitle = c.Series.Title
	}
	for _, ep := range c.Episodes {
		res.MappedEpisodeInfo = append(res.MappedEpisodeInfo, MappedEpisode{
			ID:                    ep.ID,
			SeasonNumber:          ep.SeasonNumber,
			EpisodeNumber:         ep.EpisodeNumber,
			AbsoluteEpisodeNumber: ep.AbsoluteNumber,
			Title:                 ep.Title,
		})
	}
	switch {
	case parsed.IsDaily && !parsed.AirDate.IsZero():
		airDate := parsed.AirDate
		res.AirDate = &airDate
	case len(c.Episodes) > 0 && c.Episodes[0].AirDate != nil:
		airDate := *c.Episodes[0].AirDate
		res.AirDate = &airDate
	}
	return res
}

func newReleaseResources(decisions []decisioning.Decision, now time.Time) []ReleaseResource {
	out := make([]ReleaseResource, 0, len(decisions))
	for i := range decisions {
		out = append(out, newReleaseResource(&decisions[i], now))
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

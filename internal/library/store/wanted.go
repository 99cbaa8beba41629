package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/slipstream/releasedecider/internal/library"
)

// Missing episode sort keys.
const (
	SortAirDate     = "airDate"
	SortSeriesTitle = "seriesTitle"
	SortEpisode     = "episode"
)

// Sort directions.
const (
	SortAscending  = "ascending"
	SortDescending = "descending"
)

var missingOrder = map[string]string{
	SortAirDate:     "e.air_date %[1]s, s.title, e.season_number, e.episode_number",
	SortSeriesTitle: "s.title %[1]s, e.season_number %[1]s, e.episode_number %[1]s",
	SortEpisode:     "e.season_number %[1]s, e.episode_number %[1]s, s.title",
}

// MissingOptions selects a page of aired episodes without a file.
type MissingOptions struct {
	// Monitored keeps episodes whose episode and series are both monitored
	// when true, and the rest when false.
	Monitored     bool
	Page          int
	PageSize      int
	SortKey       string
	SortDirection string
	// Now bounds the air date; episodes airing later are not missing yet.
	Now time.Time
}

// MissingEpisode is an episode with no file, together with its series.
type MissingEpisode struct {
	library.Episode
	SeriesTitle string `json:"seriesTitle"`
}

// MissingPage is one page of missing episodes.
type MissingPage struct {
	Page          int              `json:"page"`
	PageSize      int              `json:"pageSize"`
	SortKey       string           `json:"sortKey"`
	SortDirection string           `json:"sortDirection"`
	TotalRecords  int              `json:"totalRecords"`
	Records       []MissingEpisode `json:"records"`
}

func (o *MissingOptions) normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = 10
	}
	if o.PageSize > 100 {
		o.PageSize = 100
	}
	if _, ok := missingOrder[o.SortKey]; !ok {
		o.SortKey = SortAirDate
	}
	switch strings.ToLower(o.SortDirection) {
	case "asc", SortAscending:
		o.SortDirection = SortAscending
	default:
		o.SortDirection = SortDescending
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
}

// ListMissingEpisodes returns a page of aired episodes that have no file.
func (s *Store) ListMissingEpisodes(ctx context.Context, opts MissingOptions) (*MissingPage, error) {
	opts.normalize()

	where := `
		FROM episodes e
		JOIN series s ON s.id = e.series_id
		LEFT JOIN episode_files f ON f.episode_id = e.id
		WHERE f.id IS NULL
			AND e.air_date IS NOT NULL AND e.air_date <= ?`
	if opts.Monitored {
		where += ` AND e.monitored = 1 AND s.monitored = 1`
	} else {
		where += ` AND (e.monitored = 0 OR s.monitored = 0)`
	}
	now := opts.Now.UTC()

	page := &MissingPage{
		Page:          opts.Page,
		PageSize:      opts.PageSize,
		SortKey:       opts.SortKey,
		SortDirection: opts.SortDirection,
		Records:       []MissingEpisode{},
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+where, now).Scan(&page.TotalRecords); err != nil {
		return nil, fmt.Errorf("failed to count missing episodes: %w", err)
	}

	dir := "DESC"
	if opts.SortDirection == SortAscending {
		dir = "ASC"
	}
	order := fmt.Sprintf(missingOrder[opts.SortKey], dir)
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.series_id, e.season_number, e.episode_number, e.absolute_number, e.title,
			e.air_date, e.monitored, s.title`+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`,
		now, opts.PageSize, (opts.Page-1)*opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list missing episodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec     MissingEpisode
			airDate sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.SeriesID, &rec.SeasonNumber, &rec.EpisodeNumber,
			&rec.AbsoluteNumber, &rec.Title, &airDate, &rec.Monitored, &rec.SeriesTitle); err != nil {
			return nil, err
		}
		if airDate.Valid {
			t := airDate.Time.UTC()
			rec.AirDate = &t
		}
		page.Records = append(page.Records, rec)
	}
	return page, rows.Err()
}

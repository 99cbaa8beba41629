package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/releasedecider/internal/library"
	"github.com/slipstream/releasedecider/internal/testutil"
)

func TestStore_ListMissingEpisodes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		at := now.AddDate(0, 0, d)
		return &at
	}

	alpha := library.Series{Title: "Alpha Show", Monitored: true}
	beta := library.Series{Title: "Beta Show", Monitored: true}
	require.NoError(t, s.SaveSeries(ctx, &alpha))
	require.NoError(t, s.SaveSeries(ctx, &beta))

	episodes := []library.Episode{
		{SeriesID: alpha.ID, SeasonNumber: 1, EpisodeNumber: 1, AirDate: day(-30), Monitored: true},
		{SeriesID: alpha.ID, SeasonNumber: 1, EpisodeNumber: 2, AirDate: day(-23), Monitored: true},
		{SeriesID: alpha.ID, SeasonNumber: 1, EpisodeNumber: 3, AirDate: day(-16), Monitored: true,
			File: &library.EpisodeFile{Quality: testutil.Model(t, 13)}},
		{SeriesID: alpha.ID, SeasonNumber: 1, EpisodeNumber: 4, AirDate: day(7), Monitored: true},
		{SeriesID: alpha.ID, SeasonNumber: 1, EpisodeNumber: 5, Monitored: true},
		{SeriesID: beta.ID, SeasonNumber: 2, EpisodeNumber: 1, AirDate: day(-2), Monitored: true},
		{SeriesID: beta.ID, SeasonNumber: 2, EpisodeNumber: 2, AirDate: day(-1), Monitored: false},
	}
	for i := range episodes {
		require.NoError(t, s.SaveEpisode(ctx, &episodes[i]))
	}

	t.Run("monitored newest first", func(t *testing.T) {
		page, err := s.ListMissingEpisodes(ctx, MissingOptions{Monitored: true, Now: now})
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalRecords)
		assert.Equal(t, SortAirDate, page.SortKey)
		assert.Equal(t, SortDescending, page.SortDirection)
		require.Len(t, page.Records, 3)
		assert.Equal(t, "Beta Show", page.Records[0].SeriesTitle)
		assert.Equal(t, 1, page.Records[0].EpisodeNumber)
		assert.Equal(t, 2, page.Records[1].EpisodeNumber)
		assert.Equal(t, 1, page.Records[2].EpisodeNumber)
		for _, rec := range page.Records {
			assert.Nil(t, rec.File)
		}
	})

	t.Run("paged by series title", func(t *testing.T) {
		page, err := s.ListMissingEpisodes(ctx, MissingOptions{
			Monitored:     true,
			Page:          2,
			PageSize:      2,
			SortKey:       SortSeriesTitle,
			SortDirection: "asc",
			Now:           now,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalRecords)
		assert.Equal(t, SortAscending, page.SortDirection)
		require.Len(t, page.Records, 1)
		assert.Equal(t, "Beta Show", page.Records[0].SeriesTitle)
		assert.Equal(t, episodes[5].ID, page.Records[0].ID)
	})

	t.Run("unmonitored", func(t *testing.T) {
		page, err := s.ListMissingEpisodes(ctx, MissingOptions{Monitored: false, Now: now})
		require.NoError(t, err)
		require.Len(t, page.Records, 1)
		assert.Equal(t, episodes[6].ID, page.Records[0].ID)
		assert.False(t, page.Records[0].Monitored)
	})

	t.Run("unknown sort key falls back to air date", func(t *testing.T) {
		page, err := s.ListMissingEpisodes(ctx, MissingOptions{Monitored: true, SortKey: "size; DROP TABLE episodes", Now: now})
		require.NoError(t, err)
		assert.Equal(t, SortAirDate, page.SortKey)
		assert.Equal(t, 3, page.TotalRecords)
	})
}

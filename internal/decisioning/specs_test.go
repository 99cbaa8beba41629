package decisioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/releasedecider/internal/indexer/types"
)

type specCase struct {
	name     string
	release  func() types.ReleaseInfo
	settings Settings
	queue    []QueueItem
	block    []BlocklistItem
	score    int
	want     ReasonCode
}

func runSpecCases(t *testing.T, spec Specification, tests []specCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := testProfile()
			c := scored(t, tt.release())
			c.CustomFormatScore = tt.score
			ec := evalContext(t, tt.settings, tt.queue, tt.block)

			r, err := spec.Evaluate(c, &profile, ec)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, r)
				return
			}
			require.NotNil(t, r)
			assert.Equal(t, tt.want, r.Code)
			assert.NotEmpty(t, r.Message)
		})
	}
}

func titled(title string) func() types.ReleaseInfo {
	return func() types.ReleaseInfo { return release(title) }
}

func withRelease(title string, mutate func(*types.ReleaseInfo)) func() types.ReleaseInfo {
	return func() types.ReleaseInfo {
		r := release(title)
		mutate(&r)
		return r
	}
}

const okTitle = "Example.Title.S01E01.1080p.WEB-DL-GRP"

func TestMatchSpec(t *testing.T) {
	runSpecCases(t, MatchSpec{}, []specCase{
		{name: "matched", release: titled(okTitle)},
		{name: "unknown series", release: titled("Nope.S01E01.1080p.WEB-DL-GRP"), want: ReasonUnknownSeries},
		{name: "unknown episode", release: titled("Example.Title.S05E01.1080p.WEB-DL-GRP"), want: ReasonUnknownEpisode},
		{name: "unnumbered", release: titled("Example.Title.1080p.WEB-DL-GRP"), want: ReasonUnparsableNumbering},
	})
}

func TestQualityAllowedSpec(t *testing.T) {
	runSpecCases(t, QualityAllowedSpec{}, []specCase{
		{name: "allowed", release: titled(okTitle)},
		{name: "not in profile range", release: titled("Example.Title.S01E01.2160p.WEB-DL-GRP"), want: ReasonQualityNotAllowed},
		{name: "unknown quality", release: titled("Example.Title.S01E01-GRP"), want: ReasonQualityNotAllowed},
	})
}

func TestLanguageSpec(t *testing.T) {
	profile := testProfile()
	profile.Languages = []string{"en"}

	tests := []struct {
		title string
		want  ReasonCode
	}{
		{okTitle, ""},
		{"Example.Title.S01E01.FRENCH.1080p.WEB-DL-GRP", ReasonLanguageNotAllowed},
		{"Example.Title.S01E01.MULTi.1080p.WEB-DL-GRP", ""},
		{"Example.Title.S01E01.1080p.WEB-DL-NL", ""},
		{"Example.Title.S01E01.1080p.WEB-DL-GER", ""},
		{"Example.Title.S01E01.GERMAN.1080p.WEB-DL-GER", ReasonLanguageNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			r, err := LanguageSpec{}.Evaluate(scored(t, release(tt.title)), &profile, evalContext(t, Settings{}, nil, nil))
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, r)
				return
			}
			require.NotNil(t, r)
			assert.Equal(t, tt.want, r.Code)
		})
	}
}

func TestTermSpecs(t *testing.T) {
	required := Settings{RequiredTerms: []string{"web-dl", "/\\bx26[45]\\b/"}}
	runSpecCases(t, RequiredTermsSpec{}, []specCase{
		{name: "no terms configured", release: titled("Example.Title.S01E01.720p.HDTV-GRP")},
		{name: "substring", release: titled(okTitle), settings: required},
		{name: "regex", release: titled("Example.Title.S01E01.1080p.BluRay.X264-GRP"), settings: required},
		{name: "missing", release: titled("Example.Title.S01E01.720p.HDTV-GRP"), settings: required, want: ReasonRequiredTermMissing},
	})

	ignored := Settings{IgnoredTerms: []string{"cam", "/\\bsubbed\\b/"}}
	runSpecCases(t, IgnoredTermsSpec{}, []specCase{
		{name: "clean", release: titled(okTitle), settings: ignored},
		{name: "substring", release: titled("Example.Title.S01E01.CAM.1080p-GRP"), settings: ignored, want: ReasonIgnoredTermPresent},
		{name: "regex", release: titled("Example.Title.S01E01.Subbed.1080p.WEB-DL-GRP"), settings: ignored, want: ReasonIgnoredTermPresent},
	})
}

func TestSizeSpec(t *testing.T) {
	limits := Settings{MinimumSize: 200 * 1024 * 1024, MaximumSize: 2 * 1024 * 1024 * 1024}
	sized := func(title string, size int64) func() types.ReleaseInfo {
		return withRelease(title, func(r *types.ReleaseInfo) { r.Size = size })
	}

	runSpecCases(t, SizeSpec{}, []specCase{
		{name: "within limits", release: sized(okTitle, 1<<30), settings: limits},
		{name: "unknown size", release: sized(okTitle, 0), settings: limits},
		{name: "too small", release: sized(okTitle, 100*1024*1024), settings: limits, want: ReasonSizeBelowMinimum},
		{name: "too large", release: sized(okTitle, 3<<30), settings: limits, want: ReasonSizeAboveMaximum},
		// Three episodes at 1 GiB each.
		{name: "per episode", release: sized("Example.Title.S01E01-E03.1080p.WEB-DL-GRP", 3<<30), settings: limits},
	})
}

func TestRetentionSpec(t *testing.T) {
	usenet := func(age time.Duration) func() types.ReleaseInfo {
		return withRelease(okTitle, func(r *types.ReleaseInfo) {
			r.Protocol = types.ProtocolUsenet
			r.PublishDate = testNow.Add(-age)
		})
	}
	settings := Settings{RetentionDays: 30}

	runSpecCases(t, RetentionSpec{}, []specCase{
		{name: "inside retention", release: usenet(10 * 24 * time.Hour), settings: settings},
		{name: "outside retention", release: usenet(40 * 24 * time.Hour), settings: settings, want: ReasonOutsideRetention},
		{name: "torrents ignored", release: withRelease(okTitle, func(r *types.ReleaseInfo) {
			r.PublishDate = testNow.AddDate(-1, 0, 0)
		}), settings: settings},
		{name: "unknown publish date", release: withRelease(okTitle, func(r *types.ReleaseInfo) {
			r.Protocol = types.ProtocolUsenet
			r.PublishDate = time.Time{}
		}), settings: settings},
	})
}

func TestSeedersSpec(t *testing.T) {
	seeders := func(n *int) func() types.ReleaseInfo {
		return withRelease(okTitle, func(r *types.ReleaseInfo) { r.Seeders = n })
	}
	settings := Settings{MinimumSeeders: 5}

	runSpecCases(t, SeedersSpec{}, []specCase{
		{name: "enough", release: seeders(intPtr(5)), settings: settings},
		{name: "too few", release: seeders(intPtr(4)), settings: settings, want: ReasonInsufficientSeeders},
		{name: "unknown", release: seeders(nil), settings: settings},
	})
}

func TestMinimumAgeSpec(t *testing.T) {
	published := func(age time.Duration, protocol types.Protocol) func() types.ReleaseInfo {
		return withRelease(okTitle, func(r *types.ReleaseInfo) {
			r.Protocol = protocol
			r.PublishDate = testNow.Add(-age)
		})
	}
	settings := Settings{UsenetDelay: time.Hour, TorrentDelay: 30 * time.Minute}

	runSpecCases(t, MinimumAgeSpec{}, []specCase{
		{name: "usenet too young", release: published(40*time.Minute, types.ProtocolUsenet), settings: settings, want: ReasonBelowMinimumAge},
		{name: "torrent old enough", release: published(40*time.Minute, types.ProtocolTorrent), settings: settings},
		{name: "no delay", release: published(time.Minute, types.ProtocolTorrent)},
	})

	c := scored(t, published(time.Minute, types.ProtocolUsenet)())
	profile := testProfile()
	r, err := MinimumAgeSpec{}.Evaluate(c, &profile, evalContext(t, settings, nil, nil))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.IsTemporary())
}

func TestBlocklistSpec(t *testing.T) {
	rel := release(okTitle)

	runSpecCases(t, BlocklistSpec{}, []specCase{
		{name: "not listed", release: titled(okTitle), block: []BlocklistItem{{Title: "Something.Else", SeriesID: 1}}},
		{name: "same guid", release: titled(okTitle), block: []BlocklistItem{{GUID: rel.GUID, Title: "renamed"}}, want: ReasonBlocklisted},
		{name: "same info hash", release: withRelease(okTitle, func(r *types.ReleaseInfo) { r.InfoHash = "ABC123" }),
			block: []BlocklistItem{{InfoHash: "abc123", Title: "renamed"}}, want: ReasonBlocklisted},
		{name: "same title", release: titled(okTitle), block: []BlocklistItem{{Title: okTitle, SeriesID: 1}}, want: ReasonBlocklisted},
		{name: "same title other series", release: titled(okTitle), block: []BlocklistItem{{Title: okTitle, SeriesID: 2}}},
		{name: "usenet repost", release: withRelease(okTitle, func(r *types.ReleaseInfo) { r.Protocol = types.ProtocolUsenet }),
			block: []BlocklistItem{{Title: okTitle, Protocol: types.ProtocolUsenet, PublishDate: rel.PublishDate.Add(-time.Hour)}}},
		{name: "usenet same post", release: withRelease(okTitle, func(r *types.ReleaseInfo) { r.Protocol = types.ProtocolUsenet }),
			block: []BlocklistItem{{Title: okTitle, Protocol: types.ProtocolUsenet, PublishDate: rel.PublishDate.Add(time.Minute)}},
			want:  ReasonBlocklisted},
	})
}

func TestQueueSpec(t *testing.T) {
	queued := QueueItem{GUID: "other", SeriesID: 1, EpisodeIDs: []int64{11}, Quality: model(12), CustomFormatScore: 5}

	runSpecCases(t, QueueSpec{}, []specCase{
		{name: "empty queue", release: titled(okTitle)},
		{name: "same guid", release: titled(okTitle), queue: []QueueItem{{GUID: release(okTitle).GUID}}, want: ReasonAlreadyQueued},
		{name: "not an upgrade", release: titled(okTitle), queue: []QueueItem{queued}, score: 5, want: ReasonAlreadyQueued},
		{name: "better score", release: titled(okTitle), queue: []QueueItem{queued}, score: 6},
		{name: "better quality", release: titled("Example.Title.S01E01.1080p.BluRay-GRP"), queue: []QueueItem{queued}},
		{name: "other episode", release: titled("Example.Title.S02E01.1080p.WEB-DL-GRP"), queue: []QueueItem{queued}},
	})
}

func TestMonitoredSpec(t *testing.T) {
	runSpecCases(t, MonitoredSpec{}, []specCase{
		{name: "monitored", release: titled(okTitle)},
		{name: "series unmonitored", release: titled("Other.Show.S01E01.1080p.WEB-DL-GRP"), want: ReasonSeriesNotMonitored},
		{name: "episode unmonitored", release: titled("Example.Title.S01E03.1080p.WEB-DL-GRP"), want: ReasonEpisodeNotMonitored},
		{name: "unmatched", release: titled("Nope.S01E01.1080p.WEB-DL-GRP")},
	})
}

func TestSeasonAiredSpec(t *testing.T) {
	runSpecCases(t, SeasonAiredSpec{}, []specCase{
		{name: "aired season", release: titled("Example.Title.S01.1080p.BluRay-GRP")},
		{name: "airing season", release: titled("Example.Title.S02.1080p.BluRay-GRP"), want: ReasonSeasonNotFullyAired},
		{name: "single episode", release: titled("Example.Title.S02E02.1080p.BluRay-GRP")},
	})
}

func TestFormatScoreSpec(t *testing.T) {
	profile := testProfile()
	profile.MinFormatScore = 10
	ec := evalContext(t, Settings{}, nil, nil)

	for _, tt := range []struct {
		score int
		want  bool
	}{{9, true}, {10, false}, {50, false}} {
		c := scored(t, release(okTitle))
		c.CustomFormatScore = tt.score
		r, err := FormatScoreSpec{}.Evaluate(c, &profile, ec)
		require.NoError(t, err)
		if tt.want {
			require.NotNil(t, r, "score %d", tt.score)
			assert.Equal(t, ReasonFormatScoreTooLow, r.Code)
		} else {
			assert.Nil(t, r, "score %d", tt.score)
		}
	}
}

func TestNewEvaluationContext_Terms(t *testing.T) {
	ec := evalContext(t, Settings{RequiredTerms: []string{" ", "x265", "/^example/"}}, nil, nil)

	require.Len(t, ec.required, 2)
	assert.True(t, ec.required[0].matches("Show.X265-GRP"))
	assert.True(t, ec.required[1].matches("EXAMPLE.Title"))
	assert.False(t, ec.required[1].matches("The.Example.Title"))
}

package decisioning

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/releasedecider/internal/customformat"
	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library"
	"github.com/slipstream/releasedecider/internal/library/quality"
	"github.com/slipstream/releasedecider/internal/matcher"
	"github.com/slipstream/releasedecider/internal/parser"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func model(id int) quality.Model {
	q, ok := quality.GetQualityByID(id)
	if !ok {
		panic("unknown quality")
	}
	return quality.Model{Quality: q, Revision: quality.DefaultRevision}
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// testLibrary holds:
//
//	1 Example Title: S01E01, S01E02 (Bluray-1080p, score 10), S01E03 (unmonitored),
//	  S02E01 (HDTV-720p), S02E02 (not aired)
//	2 Other Show: unmonitored
//	3 Future Show: profile 2
func testLibrary() *library.Snapshot {
	aired := timePtr(testNow.AddDate(0, -1, 0))
	upcoming := timePtr(testNow.AddDate(0, 0, 7))

	series := []library.Series{
		{ID: 1, Title: "Example Title", Year: 2020, Monitored: true, QualityProfileID: 1},
		{ID: 2, Title: "Other Show", Year: 2018, Monitored: false, QualityProfileID: 1},
		{ID: 3, Title: "Future Show", Year: 2023, Monitored: true, QualityProfileID: 2},
	}
	episodes := []library.Episode{
		{ID: 11, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 1, AirDate: aired, Monitored: true},
		{ID: 12, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 2, AirDate: aired, Monitored: true,
			File: &library.EpisodeFile{ID: 100, EpisodeID: 12, Quality: model(13), CustomFormatScore: 10}},
		{ID: 13, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 3, AirDate: aired, Monitored: false},
		{ID: 21, SeriesID: 1, SeasonNumber: 2, EpisodeNumber: 1, AirDate: aired, Monitored: true,
			File: &library.EpisodeFile{ID: 101, EpisodeID: 21, Quality: model(6)}},
		{ID: 22, SeriesID: 1, SeasonNumber: 2, EpisodeNumber: 2, AirDate: upcoming, Monitored: true},
		{ID: 31, SeriesID: 2, SeasonNumber: 1, EpisodeNumber: 1, AirDate: aired, Monitored: true},
		{ID: 41, SeriesID: 3, SeasonNumber: 1, EpisodeNumber: 1, AirDate: aired, Monitored: true},
	}
	return library.NewSnapshot(series, episodes)
}

func testProfile() quality.Profile {
	p := quality.HD1080pProfile()
	p.ID = 1
	p.MinUpgradeFormatScore = 5
	return p
}

func testSnapshot(formats ...customformat.Format) Snapshot {
	uhd := quality.Ultra4KProfile()
	uhd.ID = 2
	return Snapshot{
		Library:  testLibrary(),
		Profile:  testProfile(),
		Profiles: map[int64]quality.Profile{2: uhd},
		Formats:  formats,
		Now:      testNow,
	}
}

func release(title string) types.ReleaseInfo {
	return types.ReleaseInfo{
		GUID:        "guid-" + title,
		Title:       title,
		Size:        1500 * 1024 * 1024,
		PublishDate: testNow.Add(-48 * time.Hour),
		IndexerName: "Indexer",
		Protocol:    types.ProtocolTorrent,
		Seeders:     intPtr(50),
	}
}

func groupFormat(name, group string, score int) customformat.Format {
	return customformat.Format{
		Name:       name,
		Score:      score,
		Conditions: []customformat.Condition{{Kind: customformat.KindReleaseGroup, Value: "^" + group + "$"}},
	}
}

func newTestEngine(opts Options) *Engine {
	return NewEngine(opts, zerolog.Nop())
}

// scored parses and matches title against the test library without scoring.
func scored(t *testing.T, rel types.ReleaseInfo) *ScoredCandidate {
	t.Helper()
	c := matcher.Match(rel, parser.Parse(rel.Title), testLibrary())
	return &ScoredCandidate{Candidate: c}
}

func evalContext(t *testing.T, settings Settings, queue []QueueItem, blocklist []BlocklistItem) *EvaluationContext {
	t.Helper()
	ec, err := NewEvaluationContext(testNow, settings, queue, blocklist)
	if err != nil {
		t.Fatalf("NewEvaluationContext() error = %v", err)
	}
	return ec
}

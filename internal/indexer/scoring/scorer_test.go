package scoring

import (
	"testing"

	"github.com/slipstream/releasedecider/internal/customformat"
	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library/quality"
	"github.com/slipstream/releasedecider/internal/matcher"
	"github.com/slipstream/releasedecider/internal/parser"
)

func candidate(title string) *matcher.Candidate {
	return &matcher.Candidate{
		Release: types.ReleaseInfo{Title: title, Protocol: types.ProtocolTorrent},
		Parsed:  parser.Parse(title),
	}
}

func mustCompile(t *testing.T, formats ...customformat.Format) []*customformat.Compiled {
	t.Helper()
	compiled, err := customformat.Compile(formats)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return compiled
}

func TestScorer_QualityWeight(t *testing.T) {
	scorer := NewDefaultScorer()
	profile := quality.HD1080pProfile()

	tests := []struct {
		name  string
		title string
	}{
		{"WEB-DL 1080p", "Show.S01E01.1080p.WEB-DL-GRP"},
		{"WEBRip 1080p", "Show.S01E01.1080p.WEBRip-GRP"},
		{"Bluray 1080p", "Show.S01E01.1080p.BluRay-GRP"},
		{"HDTV 720p", "Show.S01E01.720p.HDTV-GRP"},
		{"2160p missing from profile", "Show.S01E01.2160p.WEB-DL-GRP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate(tt.title)
			got := scorer.Score(c, &profile, nil).QualityWeight
			want := profile.Weight(c.Parsed.Quality.Quality.ID)
			if got != want {
				t.Errorf("QualityWeight = %d, want %d", got, want)
			}
		})
	}

	// Grouped WEB qualities share a weight.
	web := scorer.Score(candidate("Show.S01E01.1080p.WEB-DL-GRP"), &profile, nil).QualityWeight
	rip := scorer.Score(candidate("Show.S01E01.1080p.WEBRip-GRP"), &profile, nil).QualityWeight
	if web != rip {
		t.Errorf("grouped qualities weights differ: %d vs %d", web, rip)
	}

	uhd := scorer.Score(candidate("Show.S01E01.2160p.WEB-DL-GRP"), &profile, nil).QualityWeight
	if uhd != len(profile.Items) {
		t.Errorf("missing quality weight = %d, want %d", uhd, len(profile.Items))
	}
}

func TestScorer_CustomFormatScore(t *testing.T) {
	scorer := NewDefaultScorer()
	profile := quality.DefaultProfile()
	formats := mustCompile(t,
		customformat.Format{Name: "x265", Score: 20, Conditions: []customformat.Condition{
			{Kind: customformat.KindReleaseTitle, Value: `x265|hevc`},
		}},
		customformat.Format{Name: "Preferred Group", Score: 15, Conditions: []customformat.Condition{
			{Kind: customformat.KindReleaseGroup, Value: `^GRP$`},
		}},
		customformat.Format{Name: "No Repack", Score: -5, Conditions: []customformat.Condition{
			{Kind: customformat.KindQualityModifier, Value: "repack"},
		}},
	)

	tests := []struct {
		name        string
		title       string
		wantScore   int
		wantFormats int
	}{
		{"none", "Show.S01E01.1080p.WEB-DL.x264-OTHER", 0, 0},
		{"codec only", "Show.S01E01.1080p.WEB-DL.x265-OTHER", 20, 1},
		{"codec and group", "Show.S01E01.1080p.WEB-DL.x265-GRP", 35, 2},
		{"negative score", "Show.S01E01.REPACK.1080p.WEB-DL.x265-GRP", 30, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(candidate(tt.title), &profile, formats)
			if got.CustomFormatScore != tt.wantScore {
				t.Errorf("CustomFormatScore = %d, want %d", got.CustomFormatScore, tt.wantScore)
			}
			if len(got.Formats) != tt.wantFormats {
				t.Errorf("Formats = %v, want %d entries", got.Formats, tt.wantFormats)
			}
		})
	}
}

func TestScorer_OrderInsensitive(t *testing.T) {
	scorer := NewDefaultScorer()
	profile := quality.DefaultProfile()
	a := customformat.Format{Name: "a", Score: 7, Conditions: []customformat.Condition{{Kind: customformat.KindSource, Value: "webdl"}}}
	b := customformat.Format{Name: "b", Score: -3, Conditions: []customformat.Condition{{Kind: customformat.KindResolution, Value: "1080"}}}

	c := candidate("Show.S01E01.1080p.WEB-DL-GRP")
	forward := scorer.Score(c, &profile, mustCompile(t, a, b))
	reverse := scorer.Score(c, &profile, mustCompile(t, b, a))

	if forward.CustomFormatScore != reverse.CustomFormatScore || forward.QualityWeight != reverse.QualityWeight {
		t.Errorf("scores depend on format order: %+v vs %+v", forward, reverse)
	}
}

func TestScorer_Deterministic(t *testing.T) {
	scorer := NewDefaultScorer()
	profile := quality.DefaultProfile()
	formats := mustCompile(t, customformat.Format{Name: "web", Score: 5, Conditions: []customformat.Condition{
		{Kind: customformat.KindSource, Value: "webdl"},
	}})
	c := candidate("Show.S01E01.1080p.WEB-DL-GRP")

	first := scorer.Score(c, &profile, formats)
	for i := 0; i < 5; i++ {
		again := scorer.Score(c, &profile, formats)
		if again.CustomFormatScore != first.CustomFormatScore || again.QualityWeight != first.QualityWeight {
			t.Fatalf("score changed between runs: %+v vs %+v", first, again)
		}
	}
}

func TestScorer_Clamp(t *testing.T) {
	scorer := NewScorer(ScoringConfig{FormatScoreCeiling: 100, FormatScoreFloor: -50})
	profile := quality.DefaultProfile()
	formats := mustCompile(t,
		customformat.Format{Name: "huge", Score: 500, Conditions: []customformat.Condition{{Kind: customformat.KindSource, Value: "webdl"}}},
		customformat.Format{Name: "awful", Score: -500, Conditions: []customformat.Condition{{Kind: customformat.KindSource, Value: "tv"}}},
	)

	if got := scorer.Score(candidate("Show.S01E01.1080p.WEB-DL-GRP"), &profile, formats).CustomFormatScore; got != 100 {
		t.Errorf("ceiling: got %d, want 100", got)
	}
	if got := scorer.Score(candidate("Show.S01E01.720p.HDTV-GRP"), &profile, formats).CustomFormatScore; got != -50 {
		t.Errorf("floor: got %d, want -50", got)
	}
}

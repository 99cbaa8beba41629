package decisioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library/quality"
	"github.com/slipstream/releasedecider/internal/matcher"
)

type rankInput struct {
	title     string
	outcome   Outcome
	score     int
	weight    int
	revision  int
	protocol  types.Protocol
	seeders   *int
	published time.Time
}

func (r rankInput) decision() Decision {
	d := Decision{
		Candidate: matcher.Candidate{
			Release: types.ReleaseInfo{
				Title:       r.title,
				Protocol:    r.protocol,
				Seeders:     r.seeders,
				PublishDate: r.published,
			},
		},
		QualityWeight:     r.weight,
		CustomFormatScore: r.score,
		Outcome:           r.outcome,
	}
	d.Candidate.Parsed.Quality.Revision = quality.Revision{Version: max(r.revision, 1)}
	return d
}

func TestRank(t *testing.T) {
	older := testNow.Add(-72 * time.Hour)

	tests := []struct {
		name      string
		preferred types.Protocol
		inputs    []rankInput
		want      []string
	}{
		{
			name: "outcome first",
			inputs: []rankInput{
				{title: "rejected", outcome: OutcomeRejected, score: 100},
				{title: "temporary", outcome: OutcomeTemporarilyRejected, score: 50},
				{title: "approved", outcome: OutcomeApproved},
			},
			want: []string{"approved", "temporary", "rejected"},
		},
		{
			name: "custom format score before quality",
			inputs: []rankInput{
				{title: "better quality", score: 10, weight: 0},
				{title: "better score", score: 30, weight: 5},
			},
			want: []string{"better score", "better quality"},
		},
		{
			name: "quality weight ascending",
			inputs: []rankInput{
				{title: "worse", weight: 4},
				{title: "best", weight: 1},
				{title: "middle", weight: 2},
			},
			want: []string{"best", "middle", "worse"},
		},
		{
			name: "revision",
			inputs: []rankInput{
				{title: "v1", revision: 1},
				{title: "proper", revision: 2},
			},
			want: []string{"proper", "v1"},
		},
		{
			name:      "preferred protocol",
			preferred: types.ProtocolUsenet,
			inputs: []rankInput{
				{title: "torrent", protocol: types.ProtocolTorrent, seeders: intPtr(500)},
				{title: "usenet", protocol: types.ProtocolUsenet},
			},
			want: []string{"usenet", "torrent"},
		},
		{
			name: "seeders between torrents",
			inputs: []rankInput{
				{title: "unknown", protocol: types.ProtocolTorrent},
				{title: "few", protocol: types.ProtocolTorrent, seeders: intPtr(3)},
				{title: "many", protocol: types.ProtocolTorrent, seeders: intPtr(300)},
			},
			want: []string{"many", "few", "unknown"},
		},
		{
			name: "newer usenet post",
			inputs: []rankInput{
				{title: "old", protocol: types.ProtocolUsenet, published: older},
				{title: "new", protocol: types.ProtocolUsenet, published: testNow},
			},
			want: []string{"new", "old"},
		},
		{
			name: "ties keep input order",
			inputs: []rankInput{
				{title: "first", protocol: types.ProtocolTorrent},
				{title: "second", protocol: types.ProtocolUsenet},
				{title: "third", protocol: types.ProtocolTorrent},
			},
			want: []string{"first", "second", "third"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decisions := make([]Decision, len(tt.inputs))
			for i, in := range tt.inputs {
				decisions[i] = in.decision()
			}

			Rank(decisions, tt.preferred)

			got := make([]string, len(decisions))
			for i, d := range decisions {
				got[i] = d.Candidate.Release.Title
				assert.Equal(t, i, d.ReleaseWeight)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every pair of ranked decisions must respect the ordering keys.
func TestRank_Invariant(t *testing.T) {
	var decisions []Decision
	for _, outcome := range []Outcome{OutcomeRejected, OutcomeApproved, OutcomeTemporarilyRejected} {
		for _, score := range []int{-10, 0, 25} {
			for _, weight := range []int{3, 0, 1} {
				decisions = append(decisions, rankInput{
					title:   outcome.String(),
					outcome: outcome,
					score:   score,
					weight:  weight,
				}.decision())
			}
		}
	}

	Rank(decisions, types.ProtocolUnknown)

	for i := 1; i < len(decisions); i++ {
		a, b := decisions[i-1], decisions[i]
		if !assert.LessOrEqual(t, a.Outcome, b.Outcome) {
			continue
		}
		if a.Outcome != b.Outcome {
			continue
		}
		if !assert.GreaterOrEqual(t, a.CustomFormatScore, b.CustomFormatScore) {
			continue
		}
		if a.CustomFormatScore == b.CustomFormatScore {
			assert.LessOrEqual(t, a.QualityWeight, b.QualityWeight)
		}
	}
}

package decisioning

import (
	"sort"

	"github.com/slipstream/releasedecider/internal/indexer/types"
)

// Rank sorts decisions most preferred first and assigns ReleaseWeight. The
// slice is sorted in place; decisions that compare equal keep their order.
//
// Ordering: outcome (approved, temporarily rejected, rejected), custom format
// score descending, quality weight ascending, revision descending, preferred
// protocol first, then seeders descending for torrents or publish date
// descending for usenet.
func Rank(decisions []Decision, preferred types.Protocol) {
	sort.SliceStable(decisions, func(i, j int) bool {
		return less(&decisions[i], &decisions[j], preferred)
	})
	for i := range decisions {
		decisions[i].ReleaseWeight = i
	}
}

func less(a, b *Decision, preferred types.Protocol) bool {
	if a.Outcome != b.Outcome {
		return a.Outcome < b.Outcome
	}
	if a.CustomFormatScore != b.CustomFormatScore {
		return a.CustomFormatScore > b.CustomFormatScore
	}
	if a.QualityWeight != b.QualityWeight {
		return a.QualityWeight < b.QualityWeight
	}
	if cmp := a.Candidate.Parsed.Quality.Revision.Compare(b.Candidate.Parsed.Quality.Revision); cmp != 0 {
		return cmp > 0
	}

	ra, rb := &a.Candidate.Release, &b.Candidate.Release
	if preferred != types.ProtocolUnknown && ra.Protocol != rb.Protocol {
		if ra.Protocol == preferred {
			return true
		}
		if rb.Protocol == preferred {
			return false
		}
	}

	switch {
	case ra.Protocol == types.ProtocolTorrent && rb.Protocol == types.ProtocolTorrent:
		if sa, sb := ra.SeederCount(), rb.SeederCount(); sa != sb {
			return sa > sb
		}
	case ra.Protocol == types.ProtocolUsenet && rb.Protocol == types.ProtocolUsenet:
		if !ra.PublishDate.Equal(rb.PublishDate) {
			return ra.PublishDate.After(rb.PublishDate)
		}
	}
	return false
}

// Package decisioning evaluates release candidates and ranks them into
// ordered accept/reject decisions.
package decisioning

import (
	"errors"
	"fmt"

	"github.com/slipstream/releasedecider/internal/indexer/scoring"
	"github.com/slipstream/releasedecider/internal/matcher"
)

// ErrConfigInvalid is returned before any release is evaluated when the
// profile, custom format, or evaluation settings snapshot is malformed.
var ErrConfigInvalid = errors.New("invalid decision configuration")

// Outcome is the three-way result of evaluating a release.
type Outcome int

const (
	OutcomeApproved Outcome = iota
	OutcomeTemporarilyRejected
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeTemporarilyRejected:
		return "temporarilyRejected"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "approved":
		*o = OutcomeApproved
	case "temporarilyRejected":
		*o = OutcomeTemporarilyRejected
	case "rejected":
		*o = OutcomeRejected
	default:
		return fmt.Errorf("unknown outcome %q", text)
	}
	return nil
}

// RejectionType is the severity of a rejection.
type RejectionType int

const (
	// RejectionPermanent will never pass on a later evaluation.
	RejectionPermanent RejectionType = iota
	// RejectionTemporary may pass on a later evaluation.
	RejectionTemporary
)

func (t RejectionType) String() string {
	if t == RejectionTemporary {
		return "temporary"
	}
	return "permanent"
}

// MarshalText implements encoding.TextMarshaler.
func (t RejectionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *RejectionType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "permanent":
		*t = RejectionPermanent
	case "temporary":
		*t = RejectionTemporary
	default:
		return fmt.Errorf("unknown rejection type %q", text)
	}
	return nil
}

// ReasonCode identifies why a release was rejected. Callers match on the
// code; the message is for display only.
type ReasonCode string

const (
	ReasonUnknownSeries       ReasonCode = "unknown_series"
	ReasonAmbiguousSeries     ReasonCode = "ambiguous_series"
	ReasonUnknownEpisode      ReasonCode = "unknown_episode"
	ReasonUnparsableNumbering ReasonCode = "unparsable_numbering"
	ReasonQualityNotAllowed   ReasonCode = "quality_not_allowed"
	ReasonLanguageNotAllowed  ReasonCode = "language_not_allowed"
	ReasonRequiredTermMissing ReasonCode = "required_term_missing"
	ReasonIgnoredTermPresent  ReasonCode = "ignored_term_present"
	ReasonSizeBelowMinimum    ReasonCode = "size_below_minimum"
	ReasonSizeAboveMaximum    ReasonCode = "size_above_maximum"
	ReasonOutsideRetention    ReasonCode = "outside_retention"
	ReasonInsufficientSeeders ReasonCode = "insufficient_seeders"
	ReasonBelowMinimumAge     ReasonCode = "below_minimum_age"
	ReasonAlreadyQueued       ReasonCode = "already_queued"
	ReasonSeriesNotMonitored  ReasonCode = "series_not_monitored"
	ReasonEpisodeNotMonitored ReasonCode = "episode_not_monitored"
	ReasonSeasonNotFullyAired ReasonCode = "season_not_fully_aired"
	ReasonBlocklisted         ReasonCode = "blocklisted"
	ReasonFormatScoreTooLow   ReasonCode = "format_score_below_minimum"
	ReasonUpgradesNotAllowed  ReasonCode = "upgrades_not_allowed"
	ReasonNotQualityUpgrade   ReasonCode = "not_quality_upgrade"
	ReasonUpgradeInsufficient ReasonCode = "upgrade_insufficient"
	ReasonCutoffMet           ReasonCode = "cutoff_met"
	ReasonRuleFault           ReasonCode = "rule_fault"
	ReasonParseFailure        ReasonCode = "parse_failure"
)

// Rejection is one reason a release was not approved.
type Rejection struct {
	Code    ReasonCode    `json:"code"`
	Message string        `json:"message"`
	Type    RejectionType `json:"type"`
}

// IsTemporary reports whether the rejection may clear on re-evaluation.
func (r Rejection) IsTemporary() bool {
	return r.Type == RejectionTemporary
}

func permanent(code ReasonCode, message string) *Rejection {
	return &Rejection{Code: code, Message: message, Type: RejectionPermanent}
}

func temporary(code ReasonCode, message string) *Rejection {
	return &Rejection{Code: code, Message: message, Type: RejectionTemporary}
}

// ScoredCandidate is a matched candidate together with its score.
type ScoredCandidate struct {
	matcher.Candidate
	scoring.Score
}

// Decision is the final verdict on one release. Decisions are built once per
// run and not modified afterwards.
type Decision struct {
	Candidate         matcher.Candidate `json:"candidate"`
	QualityWeight     int               `json:"qualityWeight"`
	CustomFormatScore int               `json:"customFormatScore"`
	CustomFormats     []string          `json:"customFormats,omitempty"`
	// ReleaseWeight is the decision's position in the ranked output.
	ReleaseWeight int         `json:"releaseWeight"`
	Outcome       Outcome     `json:"outcome"`
	Rejections    []Rejection `json:"rejections,omitempty"`
}

// Approved reports whether the release should be downloaded.
func (d *Decision) Approved() bool {
	return d.Outcome == OutcomeApproved
}

// TemporarilyRejected reports whether the release may pass later.
func (d *Decision) TemporarilyRejected() bool {
	return d.Outcome == OutcomeTemporarilyRejected
}

// Rejected reports whether the release was permanently rejected.
func (d *Decision) Rejected() bool {
	return d.Outcome == OutcomeRejected
}

// HasReason reports whether any rejection carries code.
func (d *Decision) HasReason(code ReasonCode) bool {
	for _, r := range d.Rejections {
		if r.Code == code {
			return true
		}
	}
	return false
}

// outcomeOf folds rejections into the three-way outcome.
func outcomeOf(rejections []Rejection) Outcome {
	outcome := OutcomeApproved
	for _, r := range rejections {
		if !r.IsTemporary() {
			return OutcomeRejected
		}
		outcome = OutcomeTemporarilyRejected
	}
	return outcome
}

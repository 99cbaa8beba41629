package decisioning

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/slipstream/releasedecider/internal/customformat"
	"github.com/slipstream/releasedecider/internal/indexer/scoring"
	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/library"
	"github.com/slipstream/releasedecider/internal/library/quality"
	"github.com/slipstream/releasedecider/internal/matcher"
	"github.com/slipstream/releasedecider/internal/parser"
)

// Snapshot is the immutable library and configuration state for one run.
// The caller must not modify anything it references while Decide runs.
type Snapshot struct {
	Library library.Lookup
	// Profile applies to series without an entry in Profiles.
	Profile  quality.Profile
	Profiles map[int64]quality.Profile
	Formats  []customformat.Format

	Queue     []QueueItem
	Blocklist []BlocklistItem
	// Settings overrides the engine's settings when set.
	Settings *Settings
	// Now defaults to the wall clock.
	Now time.Time
}

// Options configures an Engine.
type Options struct {
	// Workers bounds concurrent evaluations. Defaults to runtime.NumCPU().
	Workers  int
	Settings Settings
	Scoring  scoring.ScoringConfig
	// Specifications replaces DefaultSpecifications when non-nil.
	Specifications []Specification
}

// Engine turns batches of releases into ranked decisions.
type Engine struct {
	workers  int
	settings Settings
	scorer   *scoring.Scorer
	pipeline *Pipeline
	logger   zerolog.Logger
}

// NewEngine creates a decision engine.
func NewEngine(opts Options, logger zerolog.Logger) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	specs := opts.Specifications
	if specs == nil {
		specs = DefaultSpecifications()
	}
	return &Engine{
		workers:  workers,
		settings: opts.Settings,
		scorer:   scoring.NewScorer(opts.Scoring),
		pipeline: NewPipeline(logger, specs...),
		logger:   logger.With().Str("component", "decisioning").Logger(),
	}
}

// Settings returns the engine's default evaluation settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Pipeline returns the engine's specification pipeline.
func (e *Engine) Pipeline() *Pipeline {
	return e.pipeline
}

type run struct {
	lookup   library.Lookup
	profile  *quality.Profile
	profiles map[int64]*quality.Profile
	formats  []*customformat.Compiled
	ec       *EvaluationContext
}

func (r *run) profileFor(series *library.Series) *quality.Profile {
	if series != nil {
		if p, ok := r.profiles[series.QualityProfileID]; ok {
			return p
		}
	}
	return r.profile
}

// prepare validates the snapshot. Any error wraps ErrConfigInvalid.
func (e *Engine) prepare(snap *Snapshot) (*run, error) {
	if snap.Library == nil {
		return nil, fmt.Errorf("%w: library lookup is required", ErrConfigInvalid)
	}

	profile := snap.Profile
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	profiles := make(map[int64]*quality.Profile, len(snap.Profiles))
	for id, p := range snap.Profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: profile %d: %w", ErrConfigInvalid, id, err)
		}
		profiles[id] = &p
	}

	formats, err := customformat.Compile(snap.Formats)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	settings := e.settings
	if snap.Settings != nil {
		settings = *snap.Settings
	}
	now := snap.Now
	if now.IsZero() {
		now = time.Now()
	}
	ec, err := NewEvaluationContext(now, settings, snap.Queue, snap.Blocklist)
	if err != nil {
		return nil, err
	}

	return &run{
		lookup:   snap.Library,
		profile:  &profile,
		profiles: profiles,
		formats:  formats,
		ec:       ec,
	}, nil
}

// Decide evaluates every release and returns the decisions ranked most
// preferred first. The releases slice is not modified.
//
// Configuration errors are returned before any release is evaluated. If ctx
// is cancelled, the decisions completed so far are returned, ranked, together
// with ctx.Err().
func (e *Engine) Decide(ctx context.Context, releases []types.ReleaseInfo, snap Snapshot) ([]Decision, error) {
	r, err := e.prepare(&snap)
	if err != nil {
		return nil, err
	}

	log := e.logger.With().Str("runId", uuid.NewString()).Logger()
	started := time.Now()
	log.Info().Int("releases", len(releases)).Int("workers", e.workers).Msg("Evaluating releases")

	results := make([]Decision, len(releases))
	done := make([]bool, len(releases))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range releases {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = e.decideOne(releases[i], r, log)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	decisions := make([]Decision, 0, len(releases))
	for i := range results {
		if done[i] {
			decisions = append(decisions, results[i])
		}
	}
	Rank(decisions, r.ec.Settings.PreferredProtocol)

	var approved, temporary, rejected int
	for i := range decisions {
		switch decisions[i].Outcome {
		case OutcomeApproved:
			approved++
		case OutcomeTemporarilyRejected:
			temporary++
		default:
			rejected++
		}
	}
	log.Info().
		Int("approved", approved).
		Int("temporarilyRejected", temporary).
		Int("rejected", rejected).
		Dur("elapsed", time.Since(started)).
		Msg("Evaluated releases")

	if len(decisions) < len(releases) {
		log.Warn().Int("completed", len(decisions)).Int("releases", len(releases)).Msg("Evaluation cancelled")
		return decisions, ctx.Err()
	}
	return decisions, nil
}

func (e *Engine) decideOne(release types.ReleaseInfo, r *run, log zerolog.Logger) Decision {
	var candidate matcher.Candidate
	err := safely(func() {
		parsed := parser.Parse(release.Title)
		candidate = matcher.Match(release, parsed, r.lookup)
	})
	if err != nil {
		log.Warn().Err(err).Str("release", release.Title).Msg("Failed to parse release")
		rejection := permanent(ReasonParseFailure, fmt.Sprintf("Unable to parse release: %v", err))
		return Decision{
			Candidate:  matcher.Candidate{Release: release, Status: matcher.StatusUnknownSeries},
			Outcome:    OutcomeRejected,
			Rejections: []Rejection{*rejection},
		}
	}

	profile := r.profileFor(candidate.Series)

	var score scoring.Score
	if err := safely(func() { score = e.scorer.Score(&candidate, profile, r.formats) }); err != nil {
		log.Warn().Err(err).Str("release", release.Title).Msg("Failed to score release")
		rejection := permanent(ReasonRuleFault, fmt.Sprintf("Unable to score release: %v", err))
		return Decision{Candidate: candidate, Outcome: OutcomeRejected, Rejections: []Rejection{*rejection}}
	}

	eval := e.pipeline.Evaluate(&ScoredCandidate{Candidate: candidate, Score: score}, profile, r.ec)

	decision := Decision{
		Candidate:         candidate,
		QualityWeight:     score.QualityWeight,
		CustomFormatScore: score.CustomFormatScore,
		CustomFormats:     score.Formats,
		Outcome:           eval.Outcome,
		Rejections:        eval.Rejections,
	}

	log.Debug().
		Str("release", release.Title).
		Str("quality", candidate.Parsed.Quality.String()).
		Stringer("match", candidate.Status).
		Int("customFormatScore", score.CustomFormatScore).
		Stringer("outcome", decision.Outcome).
		Int("rejections", len(decision.Rejections)).
		Msg("Evaluated release")

	return decision
}

// safely runs fn and converts a panic into an error.
func safely(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = errors.New(fmt.Sprint(r))
		}
	}()
	fn()
	return nil
}

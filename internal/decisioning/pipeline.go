package decisioning

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/slipstream/releasedecider/internal/library/quality"
)

// Specification is one independent rule of the decision pipeline. It returns
// nil when the candidate passes. An error marks the rule itself as broken.
type Specification interface {
	Name() string
	Evaluate(c *ScoredCandidate, profile *quality.Profile, ec *EvaluationContext) (*Rejection, error)
}

// Evaluation is the combined verdict of every specification.
type Evaluation struct {
	Outcome    Outcome     `json:"outcome"`
	Rejections []Rejection `json:"rejections,omitempty"`
}

// Pipeline runs an ordered set of specifications. Every specification runs
// for every candidate so a decision carries all of its rejection reasons.
type Pipeline struct {
	specs  []Specification
	logger zerolog.Logger
}

// NewPipeline creates a pipeline over specs in the given order.
func NewPipeline(logger zerolog.Logger, specs ...Specification) *Pipeline {
	return &Pipeline{
		specs:  specs,
		logger: logger.With().Str("component", "pipeline").Logger(),
	}
}

// NewDefaultPipeline creates a pipeline with DefaultSpecifications.
func NewDefaultPipeline(logger zerolog.Logger) *Pipeline {
	return NewPipeline(logger, DefaultSpecifications()...)
}

// Specifications returns the registered specification names in order.
func (p *Pipeline) Specifications() []string {
	names := make([]string, len(p.specs))
	for i, s := range p.specs {
		names[i] = s.Name()
	}
	return names
}

// Evaluate runs every specification against the candidate.
func (p *Pipeline) Evaluate(c *ScoredCandidate, profile *quality.Profile, ec *EvaluationContext) Evaluation {
	var rejections []Rejection
	for _, spec := range p.specs {
		if r := p.run(spec, c, profile, ec); r != nil {
			rejections = append(rejections, *r)
		}
	}
	return Evaluation{Outcome: outcomeOf(rejections), Rejections: rejections}
}

// run isolates a single specification so an error or panic only rejects
// the current release.
func (p *Pipeline) run(spec Specification, c *ScoredCandidate, profile *quality.Profile, ec *EvaluationContext) (rejection *Rejection) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Str("spec", spec.Name()).
				Str("release", c.Release.Title).
				Interface("panic", r).
				Msg("Specification panicked")
			rejection = permanent(ReasonRuleFault, fmt.Sprintf("Rule %s failed: %v", spec.Name(), r))
		}
	}()

	r, err := spec.Evaluate(c, profile, ec)
	if err != nil {
		p.logger.Warn().Err(err).
			Str("spec", spec.Name()).
			Str("release", c.Release.Title).
			Msg("Specification returned an error")
		return permanent(ReasonRuleFault, fmt.Sprintf("Rule %s failed: %v", spec.Name(), err))
	}
	return r
}

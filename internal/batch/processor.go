package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"candidate-matching-workers/internal/common/logger"
	"candidate-matching-workers/internal/matching"
	"candidate-matching-workers/internal/models"
)

const DefaultConcurrency = 8

var ErrCandidatePanic = errors.New("candidate evaluation panicked")

// EvaluateFunc scores one candidate. matching.Evaluate is the production
// implementation.
type EvaluateFunc func(candidate models.ParsedResume, job models.JobRequirements, weights models.ScoringWeights) models.EvaluationResult

// CandidateResult is an evaluation tagged with its position in the input.
type CandidateResult struct {
	models.EvaluationResult
	CandidateID string `json:"candidateId"`
	Index       int    `json:"-"`
}

type CandidateFailure struct {
	CandidateID string `json:"candidateId"`
	Index       int    `json:"-"`
	Error       string `json:"error"`
}

type Outcome struct {
	Results  []CandidateResult  `json:"results"`
	Failures []CandidateFailure `json:"failures"`
}

type Processor struct {
	concurrency int
	evaluate    EvaluateFunc
	logger      logger.Logger
}

type Option func(*Processor)

func WithEvaluateFunc(fn EvaluateFunc) Option {
	return func(p *Processor) {
		p.evaluate = fn
	}
}

func NewProcessor(concurrency int, log logger.Logger, opts ...Option) *Processor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	p := &Processor{
		concurrency: concurrency,
		evaluate:    matching.Evaluate,
		logger:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CandidateID is the positional id given to the candidate at index i.
func CandidateID(i int) string {
	return fmt.Sprintf("candidate_%d", i)
}

// Process evaluates every candidate against job with at most the configured
// number of evaluations in flight. Results are gathered in input order and
// then sorted by overall score, highest first. A candidate whose evaluation
// panics is reported in Failures and does not abort the batch; a cancelled
// context does.
//
// Zero weights mean models.DefaultWeights().
func (p *Processor) Process(ctx context.Context, candidates []models.ParsedResume, job models.JobRequirements, weights models.ScoringWeights) (*Outcome, error) {
	if weights.IsZero() {
		weights = models.DefaultWeights()
	}

	results := make([]*CandidateResult, len(candidates))
	failures := make([]*CandidateFailure, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := p.evaluateOne(candidates[i], job, weights)
			if err != nil {
				failures[i] = &CandidateFailure{CandidateID: CandidateID(i), Index: i, Error: err.Error()}
				return nil
			}
			results[i] = &CandidateResult{EvaluationResult: result, CandidateID: CandidateID(i), Index: i}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch evaluation aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch evaluation aborted: %w", err)
	}

	outcome := &Outcome{
		Results:  make([]CandidateResult, 0, len(candidates)),
		Failures: []CandidateFailure{},
	}
	for i := range candidates {
		switch {
		case results[i] != nil:
			outcome.Results = append(outcome.Results, *results[i])
		case failures[i] != nil:
			p.logger.Warn("candidate evaluation failed", map[string]interface{}{
				"candidateId": failures[i].CandidateID,
				"error":       failures[i].Error,
			})
			outcome.Failures = append(outcome.Failures, *failures[i])
		}
	}

	sort.SliceStable(outcome.Results, func(a, b int) bool {
		return outcome.Results[a].Scores.Overall > outcome.Results[b].Scores.Overall
	})

	p.logger.Debug("batch evaluated", map[string]interface{}{
		"candidates": len(candidates),
		"evaluated":  len(outcome.Results),
		"failed":     len(outcome.Failures),
	})

	return outcome, nil
}

func (p *Processor) evaluateOne(candidate models.ParsedResume, job models.JobRequirements, weights models.ScoringWeights) (result models.EvaluationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCandidatePanic, r)
		}
	}()
	return p.evaluate(candidate, job, weights), nil
}

// internal/workers/evaluation/batch-evaluate/handler.go
package batchevaluate

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"candidate-matching-workers/internal/batch"
	"candidate-matching-workers/internal/common/errors"
	"candidate-matching-workers/internal/common/logger"
	"candidate-matching-workers/internal/common/metrics"
	"candidate-matching-workers/internal/common/observability"
	"candidate-matching-workers/internal/common/validation"
	"candidate-matching-workers/internal/filtering"
	"candidate-matching-workers/internal/matching"
	"candidate-matching-workers/internal/models"
	"candidate-matching-workers/internal/store"
)

const TaskType = "batch-evaluate"

type Repository interface {
	GetJob(ctx context.Context, id string) (*models.JobRequirements, error)
	ListParsedResumes(ctx context.Context, ids []string) ([]models.Resume, error)
	EvaluationExists(ctx context.Context, jobID, resumeID string) (bool, error)
	SaveEvaluation(ctx context.Context, in models.NewEvaluation) (*models.EvaluationRecord, error)
}

type Indexer interface {
	Index(ctx context.Context, rec models.EvaluationRecord) error
}

type Dependencies struct {
	Repository    Repository
	Indexer       Indexer
	// Cache holds the filter-options sets, dropped after every save.
	Cache         redis.Cmdable
	Observability *observability.Observability
	Logger        logger.Logger
}

type Handler struct {
	config     *Config
	repo       Repository
	indexer    Indexer
	cache      redis.Cmdable
	processor  *batch.Processor
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, deps Dependencies) *Handler {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		repo:       deps.Repository,
		indexer:    deps.Indexer,
		cache:      deps.Cache,
		processor:  batch.NewProcessor(config.Concurrency, log),
		obs:        deps.Observability,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job)
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, input)
	}
	if err != nil {
		stdErr := h.errHandler.HandleJobError(context.Background(), client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInputParsingFailed, err)
	}
	if err := validation.Struct(&input); err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidationFailed, err)
	}
	return &input, nil
}

// Execute scores every PARSED resume among input.ResumeIDs, filters and ranks
// them, and stores an evaluation for each ranked pair not evaluated before.
// Pairs that already have an evaluation are ranked but not stored again, so a
// retried job resumes where the last attempt stopped.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	job, err := h.repo.GetJob(ctx, input.JobID)
	if stderrors.Is(err, store.ErrJobNotFound) {
		return nil, errors.NewJobNotFoundError(input.JobID)
	}
	if err != nil {
		return nil, errors.Classify(ctx, errors.ErrCodeQueryExecutionFailed, "load job", err)
	}

	resumes, err := h.repo.ListParsedResumes(ctx, input.ResumeIDs)
	if err != nil {
		return nil, errors.Classify(ctx, errors.ErrCodeQueryExecutionFailed, "list resumes", err)
	}
	if len(resumes) == 0 {
		return nil, errors.New(errors.ErrCodeNoParsedResumes, fmt.Sprintf("jobId: %s, requested: %d", job.ID, len(input.ResumeIDs)))
	}

	failures := []Failure{}
	candidates := make([]models.ParsedResume, 0, len(resumes))
	owners := make([]models.Resume, 0, len(resumes))
	for _, r := range resumes {
		parsed, err := validation.DecodeParsedResume(r.ParsedData)
		if err != nil {
			h.logger.Warn("skipping resume with invalid parsed data", map[string]interface{}{
				"resumeId": r.ID,
				"error":    err,
			})
			failures = append(failures, Failure{ResumeID: r.ID, Error: err.Error()})
			continue
		}
		candidates = append(candidates, *parsed)
		owners = append(owners, r)
	}

	weights := h.config.Weights
	if input.Weights != nil && !input.Weights.IsZero() {
		weights = *input.Weights
	}

	outcome, err := h.processor.Process(ctx, candidates, *job, weights)
	if err != nil {
		return nil, errors.Classify(ctx, errors.ErrCodeEvaluationFailed, "batch evaluation", err)
	}
	for _, f := range outcome.Failures {
		failures = append(failures, Failure{ResumeID: owners[f.Index].ID, Error: f.Error})
	}

	for _, r := range outcome.Results {
		metrics.ObserveEvaluation(matching.RecommendationTier(r.Scores.Overall), r.Scores.Overall)
	}
	metrics.BatchCandidateFailures.Add(float64(len(failures)))
	h.obs.RecordBatch(ctx, len(resumes), len(failures))

	ranked := batch.Filter(outcome.Results, input.Filters)
	out := &Output{
		RankedCandidates: make([]RankedCandidate, 0, len(ranked)),
		Failures:         failures,
		Summary:          batch.Summarize(len(outcome.Results), ranked),
		Job:              JobInfo{ID: job.ID, Title: job.Title, Department: job.Department},
	}

	stored := 0
	for i, r := range ranked {
		resume := owners[r.Index]

		candidate := RankedCandidate{
			Rank:           i + 1,
			ResumeID:       resume.ID,
			CandidateName:  candidates[r.Index].CandidateName,
			CandidateEmail: candidates[r.Index].CandidateEmail,
			Scores:         r.Scores,
			Recommendation: r.Recommendation,
			Tags:           r.Tags,
			Strengths:      r.Strengths,
			Weaknesses:     r.Weaknesses,
			MissingSkills:  r.MissingSkills,
		}

		evaluationID, existing, err := h.persist(ctx, *job, resume, input.EvaluatedByID, r.EvaluationResult)
		if err != nil {
			if stored > 0 {
				h.invalidateOptions(ctx, job.ID)
			}
			return nil, err
		}
		candidate.EvaluationID = evaluationID
		candidate.Existing = existing
		out.RankedCandidates = append(out.RankedCandidates, candidate)
		if !existing {
			stored++
		}
	}
	if stored > 0 {
		h.invalidateOptions(ctx, job.ID)
	}

	h.logger.Info("batch evaluated", map[string]interface{}{
		"jobId":     job.ID,
		"requested": len(input.ResumeIDs),
		"evaluated": len(outcome.Results),
		"ranked":    len(ranked),
		"failed":    len(failures),
	})

	return out, nil
}

// persist stores one ranked result unless the pair already has an evaluation.
// It reports the stored evaluation id, or existing=true when nothing was
// written.
func (h *Handler) persist(ctx context.Context, job models.JobRequirements, resume models.Resume, evaluatedBy string, result models.EvaluationResult) (string, bool, error) {
	exists, err := h.repo.EvaluationExists(ctx, job.ID, resume.ID)
	if err != nil {
		return "", false, errors.Classify(ctx, errors.ErrCodeQueryExecutionFailed, "check evaluation", err)
	}
	if exists {
		return "", true, nil
	}

	rec, err := h.repo.SaveEvaluation(ctx, models.NewEvaluation{
		JobID:         job.ID,
		ResumeID:      resume.ID,
		EvaluatedByID: evaluatedBy,
		Result:        result,
	})
	if stderrors.Is(err, store.ErrDuplicateEvaluation) {
		return "", true, nil
	}
	if err != nil {
		return "", false, errors.Classify(ctx, errors.ErrCodeDatabaseInsertFailed, "save evaluation", err).
			WithMetadata("resumeId", resume.ID)
	}

	if h.indexer != nil {
		if err := h.indexer.Index(ctx, store.Document(*rec, job, resume)); err != nil {
			h.logger.Warn("failed to index evaluation", map[string]interface{}{
				"evaluationId": rec.ID,
				"error":        err,
			})
		}
	}
	return rec.ID, false, nil
}

// invalidateOptions drops the cached filter-options sets the new rows made
// stale. Failures are logged; the sets still expire with their TTL.
func (h *Handler) invalidateOptions(ctx context.Context, jobID string) {
	if h.cache == nil {
		return
	}
	keys := []string{filtering.OptionsCacheKey(jobID), filtering.OptionsCacheKey("")}
	if err := h.cache.Del(ctx, keys...).Err(); err != nil {
		h.logger.Warn("failed to invalidate filter options cache", map[string]interface{}{
			"jobId": jobID,
			"error": err,
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

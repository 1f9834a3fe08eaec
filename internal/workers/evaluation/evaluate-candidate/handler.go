// internal/workers/evaluation/evaluate-candidate/handler.go
package evaluatecandidate

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

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

const TaskType = "evaluate-candidate"

// Repository loads the pair to score and persists the result.
// *store.PostgresStore implements it.
type Repository interface {
	GetJob(ctx context.Context, id string) (*models.JobRequirements, error)
	GetResume(ctx context.Context, id string) (*models.Resume, error)
	EvaluationExists(ctx context.Context, jobID, resumeID string) (bool, error)
	SaveEvaluation(ctx context.Context, in models.NewEvaluation) (*models.EvaluationRecord, error)
}

// Indexer mirrors saved evaluations into the search index.
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	job, err := h.repo.GetJob(ctx, input.JobID)
	if stderrors.Is(err, store.ErrJobNotFound) {
		return nil, errors.NewJobNotFoundError(input.JobID)
	}
	if err != nil {
		return nil, errors.Classify(ctx, errors.ErrCodeQueryExecutionFailed, "load job", err)
	}

	resume, err := h.repo.GetResume(ctx, input.ResumeID)
	if stderrors.Is(err, store.ErrResumeNotFound) {
		return nil, errors.NewResumeNotFoundError(input.ResumeID)
	}
	if err != nil {
		return nil, errors.Classify(ctx, errors.ErrCodeQueryExecutionFailed, "load resume", err)
	}
	if resume.Status != models.ResumeStatusParsed {
		return nil, errors.New(errors.ErrCodeResumeNotParsed, fmt.Sprintf("resumeId: %s, status: %s", resume.ID, resume.Status)).
			WithMetadata("resumeId", resume.ID)
	}

	exists, err := h.repo.EvaluationExists(ctx, job.ID, resume.ID)
	if err != nil {
		return nil, errors.Classify(ctx, errors.ErrCodeQueryExecutionFailed, "check evaluation", err)
	}
	if exists {
		return nil, errors.NewDuplicateEvaluationError(job.ID, resume.ID)
	}

	parsed, err := validation.DecodeParsedResume(resume.ParsedData)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResumeNotParsed, err).WithMetadata("resumeId", resume.ID)
	}

	weights := h.config.Weights
	if input.Weights != nil && !input.Weights.IsZero() {
		weights = *input.Weights
	}

	result := matching.Evaluate(*parsed, *job, weights)
	metrics.ObserveEvaluation(matching.RecommendationTier(result.Scores.Overall), result.Scores.Overall)

	rec, err := h.repo.SaveEvaluation(ctx, models.NewEvaluation{
		JobID:         job.ID,
		ResumeID:      resume.ID,
		EvaluatedByID: input.EvaluatedByID,
		Result:        result,
	})
	if stderrors.Is(err, store.ErrDuplicateEvaluation) {
		return nil, errors.NewDuplicateEvaluationError(job.ID, resume.ID)
	}
	if err != nil {
		return nil, errors.Classify(ctx, errors.ErrCodeDatabaseInsertFailed, "save evaluation", err)
	}

	h.index(ctx, store.Document(*rec, *job, *resume))
	h.invalidateOptions(ctx, job.ID)

	h.logger.Info("candidate evaluated", map[string]interface{}{
		"evaluationId":   rec.ID,
		"jobId":          job.ID,
		"resumeId":       resume.ID,
		"overall":        result.Scores.Overall,
		"recommendation": result.Recommendation,
	})

	return &Output{
		EvaluationID:   rec.ID,
		Scores:         result.Scores,
		Explanation:    result.Explanation,
		Recommendation: result.Recommendation,
		Details: Details{
			Strengths:     result.Strengths,
			Weaknesses:    result.Weaknesses,
			MissingSkills: result.MissingSkills,
			Tags:          result.Tags,
		},
	}, nil
}

// index is best effort; the database row is already committed.
func (h *Handler) index(ctx context.Context, doc models.EvaluationRecord) {
	if h.indexer == nil {
		return
	}
	if err := h.indexer.Index(ctx, doc); err != nil {
		h.logger.Warn("failed to index evaluation", map[string]interface{}{
			"evaluationId": doc.ID,
			"error":        err,
		})
	}
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

// internal/workers/search/filter-options/handler.go
package filteroptions

import (
	"context"
	"encoding/json"
	stderrors "errors"
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
)

const TaskType = "filter-options"

type Service interface {
	GetFilterOptions(ctx context.Context, jobID string) (*filtering.FilterOptionSet, error)
}

type Dependencies struct {
	Service       Service
	Cache         redis.Cmdable
	Observability *observability.Observability
	Logger        logger.Logger
}

type Handler struct {
	config     *Config
	service    Service
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
		service:    deps.Service,
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

// Execute serves the option set from Redis when a fresh copy is cached and
// computes and caches it otherwise. Cache failures only cost a recompute.
// The evaluation workers drop the cached sets whenever they store a new row.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	key := filtering.OptionsCacheKey(input.JobID)

	if cached, ok := h.lookup(ctx, key); ok {
		return &Output{FilterOptionSet: *cached, Cached: true}, nil
	}

	opts, err := h.service.GetFilterOptions(ctx, input.JobID)
	if err != nil {
		return nil, errors.Classify(ctx, errors.ErrCodeFilterOptionsFailed, "filter options", err)
	}

	h.store(ctx, key, opts)
	return &Output{FilterOptionSet: *opts}, nil
}

func (h *Handler) cacheEnabled() bool {
	return h.cache != nil && h.config.CacheTTL > 0
}

func (h *Handler) lookup(ctx context.Context, key string) (*filtering.FilterOptionSet, bool) {
	if !h.cacheEnabled() {
		return nil, false
	}

	val, err := h.cache.Get(ctx, key).Result()
	if stderrors.Is(err, redis.Nil) {
		metrics.FilterOptionsCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.FilterOptionsCacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("filter options cache read failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return nil, false
	}

	var opts filtering.FilterOptionSet
	if err := json.Unmarshal([]byte(val), &opts); err != nil {
		metrics.FilterOptionsCacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("discarding unreadable cached filter options", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return nil, false
	}

	metrics.FilterOptionsCacheLookups.WithLabelValues("hit").Inc()
	return &opts, true
}

func (h *Handler) store(ctx context.Context, key string, opts *filtering.FilterOptionSet) {
	if !h.cacheEnabled() {
		return
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("filter options cache write failed", map[string]interface{}{
			"key":   key,
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

// internal/workers/search/advanced-search/handler.go
package advancedsearch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"candidate-matching-workers/internal/common/errors"
	"candidate-matching-workers/internal/common/logger"
	"candidate-matching-workers/internal/common/metrics"
	"candidate-matching-workers/internal/common/observability"
	"candidate-matching-workers/internal/common/validation"
	"candidate-matching-workers/internal/filtering"
)

const TaskType = "advanced-search"

type Service interface {
	AdvancedSearch(ctx context.Context, query, jobID string, filters filtering.FilterOptions, sortOpts filtering.SortOptions, page filtering.PaginationOptions) (*filtering.FilteredResult, error)
}

type Handler struct {
	config     *Config
	service    Service
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, service Service, obs *observability.Observability, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		service:    service,
		obs:        obs,
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
	result, err := h.service.AdvancedSearch(ctx, input.Query, input.JobID, input.Filters, input.Sort, input.Pagination)
	if err != nil {
		return nil, errors.Classify(ctx, errors.ErrCodeAdvancedSearchFailed, "advanced search", err)
	}

	h.logger.Debug("advanced search completed", map[string]interface{}{
		"query": input.Query,
		"hits":  len(result.Evaluations),
	})
	return &Output{Query: input.Query, FilteredResult: *result}, nil
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

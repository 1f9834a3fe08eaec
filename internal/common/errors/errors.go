// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input and lookup errors
const (
	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"

	ErrCodeJobNotFound         ErrorCode = "JOB_NOT_FOUND"
	ErrCodeResumeNotFound      ErrorCode = "RESUME_NOT_FOUND"
	ErrCodeResumeNotParsed     ErrorCode = "RESUME_NOT_PARSED"
	ErrCodeNoParsedResumes     ErrorCode = "NO_PARSED_RESUMES"
	ErrCodeDuplicateEvaluation ErrorCode = "DUPLICATE_EVALUATION"
	ErrCodeEvaluationFailed    ErrorCode = "EVALUATION_FAILED"
)

// Infrastructure errors
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeCacheFailed ErrorCode = "CACHE_FAILED"
)

// Filtering service errors
const (
	ErrCodeFilterFailed         ErrorCode = "FILTER_FAILED"
	ErrCodeFilterOptionsFailed  ErrorCode = "FILTER_OPTIONS_FAILED"
	ErrCodeAdvancedSearchFailed ErrorCode = "ADVANCED_SEARCH_FAILED"
)

const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error
// ==========================

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Constructors
// ==========================

var defaultMessages = map[ErrorCode]string{
	ErrCodeInputParsingFailed:       "Job variables could not be parsed",
	ErrCodeValidationFailed:         "Input validation failed",
	ErrCodeJobNotFound:              "Job not found",
	ErrCodeResumeNotFound:           "Resume not found",
	ErrCodeResumeNotParsed:          "Resume has no usable parsed data",
	ErrCodeNoParsedResumes:          "No valid parsed resumes found",
	ErrCodeDuplicateEvaluation:      "Evaluation already exists for this job-resume pair",
	ErrCodeEvaluationFailed:         "Failed to evaluate candidate",
	ErrCodeDatabaseConnectionFailed: "Database connection error",
	ErrCodeQueryExecutionFailed:     "Database query execution error",
	ErrCodeQueryTimeout:             "Database query timeout",
	ErrCodeDatabaseInsertFailed:     "Database insert operation failed",
	ErrCodeSearchQueryFailed:        "Elasticsearch query error",
	ErrCodeSearchTimeout:            "Elasticsearch query timeout",
	ErrCodeCacheFailed:              "Cache operation failed",
	ErrCodeFilterFailed:             "Failed to filter candidates",
	ErrCodeFilterOptionsFailed:      "Failed to get filter options",
	ErrCodeAdvancedSearchFailed:     "Failed to perform advanced search",
}

// New builds a StandardError for code with its default message. Retryability
// follows GetRetryCount.
func New(code ErrorCode, details string) *StandardError {
	msg, ok := defaultMessages[code]
	if !ok {
		msg = "Unexpected error"
	}
	return &StandardError{
		Code:      code,
		Message:   msg,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	}
}

// Wrap is New with err as both the details and the unwrap target.
func Wrap(code ErrorCode, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	stdErr := New(code, details)
	stdErr.cause = err
	return stdErr
}

func NewDuplicateEvaluationError(jobID, resumeID string) *StandardError {
	return New(ErrCodeDuplicateEvaluation, fmt.Sprintf("jobId: %s, resumeId: %s", jobID, resumeID)).
		WithMetadata("jobId", jobID).
		WithMetadata("resumeId", resumeID)
}

func NewJobNotFoundError(jobID string) *StandardError {
	return New(ErrCodeJobNotFound, fmt.Sprintf("jobId: %s", jobID)).WithMetadata("jobId", jobID)
}

func NewResumeNotFoundError(resumeID string) *StandardError {
	return New(ErrCodeResumeNotFound, fmt.Sprintf("resumeId: %s", resumeID)).WithMetadata("resumeId", resumeID)
}

func NewQueryTimeoutError(operation string) *StandardError {
	return New(ErrCodeQueryTimeout, fmt.Sprintf("operation: %s", operation))
}

// Classify turns a persistence failure of op into a StandardError: a timeout
// when err or ctx hit their deadline, code otherwise. A StandardError already
// in err's chain is returned as is.
func Classify(ctx context.Context, code ErrorCode, op string, err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		timeout := NewQueryTimeoutError(op)
		timeout.cause = err
		return timeout
	}
	return Wrap(code, err).WithMetadata("operation", op)
}

// AsStandardError finds a StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 4. BPMN Mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputParsingFailed:       "INPUT_PARSING_FAILED",
	ErrCodeValidationFailed:         "VALIDATION_FAILED",
	ErrCodeJobNotFound:              "JOB_NOT_FOUND",
	ErrCodeResumeNotFound:           "RESUME_NOT_FOUND",
	ErrCodeResumeNotParsed:          "RESUME_NOT_PARSED",
	ErrCodeNoParsedResumes:          "NO_PARSED_RESUMES",
	ErrCodeDuplicateEvaluation:      "DUPLICATE_EVALUATION",
	ErrCodeEvaluationFailed:         "EVALUATION_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:            "SEARCH_TIMEOUT",
	ErrCodeCacheFailed:              "CACHE_FAILED",
	ErrCodeFilterFailed:             "FILTER_FAILED",
	ErrCodeFilterOptionsFailed:      "FILTER_OPTIONS_FAILED",
	ErrCodeAdvancedSearchFailed:     "ADVANCED_SEARCH_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeFilterFailed,
		ErrCodeFilterOptionsFailed,
		ErrCodeAdvancedSearchFailed:
		return 3 // technical errors

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout:
		return 2

	case ErrCodeCacheFailed:
		return 1

	default:
		return 0 // business errors
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "FILTER"):
		return "FILTERING"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "NOT_FOUND") || strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "PARSED"):
		return "BUSINESS"
	case strings.Contains(codeStr, "PARSING") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EVALUATION"):
		return "MATCHING"
	default:
		return "OTHER"
	}
}

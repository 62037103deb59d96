// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler fails or throws Zeebe jobs according to the error's code.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// JobOutcome is what HandleJobError decided to do with a failed job.
type JobOutcome struct {
	Throw   bool
	Retries int
	Error   *BPMNError
}

// Decide picks between a retrying fail and a thrown BPMN error. The retry
// budget never exceeds the retries Zeebe still has for the job.
func Decide(err error, jobRetries int32) JobOutcome {
	stdErr := AsStandardError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	if bpmnErr.Retries == 0 || jobRetries <= 0 {
		return JobOutcome{Throw: true, Error: bpmnErr}
	}

	retries := bpmnErr.Retries
	if int(jobRetries)-1 < retries {
		retries = int(jobRetries) - 1
	}
	return JobOutcome{Retries: retries, Error: bpmnErr}
}

// HandleJobError reports err to Zeebe for the given job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	outcome := Decide(err, job.Retries)
	h.logError(job, err, outcome)

	varsJSON, mErr := json.Marshal(outcome.Error.ToErrorVariables())

	if outcome.Throw {
		cmd := client.NewThrowErrorCommand().
			JobKey(job.Key).
			ErrorCode(outcome.Error.Code).
			ErrorMessage(outcome.Error.Message)
		if mErr == nil {
			if withVars, vErr := cmd.VariablesFromString(string(varsJSON)); vErr == nil {
				h.send(ctx, job, func(ctx context.Context) error { _, e := withVars.Send(ctx); return e })
				return
			}
		}
		h.send(ctx, job, func(ctx context.Context) error { _, e := cmd.Send(ctx); return e })
		return
	}

	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(outcome.Retries)).
		ErrorMessage(outcome.Error.Message)
	if mErr == nil {
		if withVars, vErr := cmd.VariablesFromString(string(varsJSON)); vErr == nil {
			h.send(ctx, job, func(ctx context.Context) error { _, e := withVars.Send(ctx); return e })
			return
		}
	}
	h.send(ctx, job, func(ctx context.Context) error { _, e := cmd.Send(ctx); return e })
}

func (h *ErrorHandler) send(ctx context.Context, job entities.Job, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		h.logger.Error("failed to report job error", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *ErrorHandler) logError(job entities.Job, err error, outcome JobOutcome) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        outcome.Error.Code,
		"message":          outcome.Error.Message,
		"details":          outcome.Error.Details,
		"cause":            err.Error(),
		"thrown":           outcome.Throw,
		"retries":          outcome.Retries,
		"errorCategory":    outcome.Error.ErrorVariables["errorCategory"],
		"workflowInstance": job.ProcessInstanceKey,
	})
}

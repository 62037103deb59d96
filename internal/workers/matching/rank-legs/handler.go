// internal/workers/matching/rank-legs/handler.go
package ranklegs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"crew-match-workers/internal/common/errors"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/common/metrics"
	"crew-match-workers/internal/common/observability"
	"crew-match-workers/internal/common/validation"
	"crew-match-workers/internal/matching"
	"crew-match-workers/internal/models"
)

const (
	TaskType = "rank-legs"
)

type ProfileLoader interface {
	Get(ctx context.Context, userID string) (*matching.CandidateProfile, error)
}

type LegLoader interface {
	ByIDs(ctx context.Context, ids []string) ([]matching.LegCandidate, error)
	ByJourney(ctx context.Context, journeyID string) ([]matching.LegCandidate, error)
}

type LegSearcher interface {
	Search(ctx context.Context, q models.LegQuery) ([]matching.LegCandidate, error)
}

// Dependencies are the data sources the handler reads from. Any of them
// may be nil; inputs that need a missing source are rejected.
type Dependencies struct {
	Profiles ProfileLoader
	Legs     LegLoader
	Search   LegSearcher
}

type Handler struct {
	config       *Config
	deps         Dependencies
	matcher      *matching.Matcher
	schema       *validation.Schema
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the worker. schema and obs are optional.
func NewHandler(config *Config, deps Dependencies, matcher *matching.Matcher, schema *validation.Schema,
	obs *observability.Observability, log logger.Logger) *Handler {
	if matcher == nil {
		matcher = matching.Default()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		deps:         deps,
		matcher:      matcher,
		schema:       schema,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job.Variables)
	if err != nil {
		h.fail(client, job, started, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, started, "")
	h.obs.RecordJobProcessed(context.Background(), TaskType, "completed")
	h.obs.RecordJobDuration(context.Background(), TaskType, time.Since(started), "completed")
}

func (h *Handler) process(ctx context.Context, variables string) (*Output, error) {
	input, err := h.ParseInput([]byte(variables))
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

// ParseInput validates raw job or request variables against the activity
// schema and decodes them.
func (h *Handler) ParseInput(data []byte) (*Input, error) {
	if h.schema != nil {
		result, err := h.schema.Validate(data)
		if err != nil {
			return nil, errors.NewInvalidMatchInputError(err.Error())
		}
		if !result.Valid {
			return nil, errors.NewInvalidMatchInputError(strings.Join(result.GetErrorMessages(), "; "))
		}
	}

	var input Input
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, errors.NewInvalidMatchInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute ranks the candidate legs for one profile.
func (h *Handler) Execute(ctx context.Context, input *Input) (out *Output, err error) {
	if input == nil {
		return nil, errors.NewInvalidMatchInputError("input cannot be nil")
	}

	runID := uuid.NewString()
	ctx, span := h.obs.StartSpan(ctx, "rank-legs.execute", attribute.String("runId", runID))
	defer func() { observability.EndSpan(span, err) }()

	source := input.legSource()
	if source == "" {
		return nil, errors.NewInvalidMatchInputError("exactly one of legIds, journeyId, search or legs is required")
	}

	profile, err := h.loadProfile(ctx, input)
	if err != nil {
		return nil, err
	}

	legs, err := h.loadLegs(ctx, source, input)
	if err != nil {
		return nil, err
	}
	if len(legs) > h.config.MaxCandidates {
		return nil, errors.NewInvalidMatchInputError(
			fmt.Sprintf("%d candidate legs exceed the limit of %d", len(legs), h.config.MaxCandidates))
	}

	ranked := h.matcher.RankLegs(profile, legs)

	metrics.MatchCandidates.WithLabelValues(source).Observe(float64(len(legs)))
	if len(ranked) > 0 {
		metrics.MatchTopScore.Observe(ranked[0].CompositeScore)
	}
	h.obs.RecordLegsScored(ctx, source, len(legs))
	span.SetAttributes(attribute.String("source", source), attribute.Int("candidates", len(legs)))

	if limit := input.MaxResults; limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	h.logger.Debug("legs ranked", map[string]interface{}{
		"runId":      runID,
		"userId":     profile.UserID,
		"source":     source,
		"candidates": len(legs),
		"returned":   len(ranked),
	})

	return &Output{
		RunID:           runID,
		RankedLegs:      ranked,
		TotalCandidates: len(legs),
	}, nil
}

func (h *Handler) loadProfile(ctx context.Context, input *Input) (*matching.CandidateProfile, error) {
	switch {
	case input.Profile != nil && input.UserID != "":
		return nil, errors.NewInvalidMatchInputError("userId and profile are mutually exclusive")
	case input.Profile != nil:
		profile, err := input.Profile.ToCandidate()
		if err != nil {
			return nil, errors.NewInvalidMatchInputError(err.Error())
		}
		return profile, nil
	case input.UserID != "":
		if h.deps.Profiles == nil {
			return nil, errors.NewInvalidMatchInputError("profile lookup is not available, supply profile inline")
		}
		return h.deps.Profiles.Get(ctx, input.UserID)
	}
	return nil, errors.NewInvalidMatchInputError("one of userId or profile is required")
}

func (h *Handler) loadLegs(ctx context.Context, source string, input *Input) ([]matching.LegCandidate, error) {
	switch source {
	case sourceIDs:
		if h.deps.Legs == nil {
			return nil, errors.NewInvalidMatchInputError("leg lookup is not available")
		}
		return h.deps.Legs.ByIDs(ctx, input.LegIDs)
	case sourceJourney:
		if h.deps.Legs == nil {
			return nil, errors.NewInvalidMatchInputError("leg lookup is not available")
		}
		return h.deps.Legs.ByJourney(ctx, input.JourneyID)
	case sourceSearch:
		if h.deps.Search == nil {
			return nil, errors.NewInvalidMatchInputError("leg search is not available")
		}
		return h.deps.Search.Search(ctx, *input.Search)
	default:
		legs := make([]matching.LegCandidate, 0, len(input.Legs))
		for _, l := range input.Legs {
			legs = append(legs, l.ToCandidate())
		}
		return legs, nil
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// fail reports through a fresh context so a job that hit its own deadline
// can still be failed.
func (h *Handler) fail(client worker.JobClient, job entities.Job, started time.Time, err error) {
	ctx := context.Background()
	code := string(errors.AsStandardError(err).Code)
	h.errorHandler.HandleJobError(ctx, client, job, err)
	metrics.ObserveJob(TaskType, started, code)
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(started), "failed")
}

// internal/workers/matching/calculate-skill-match/handler.go
package calculateskillmatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"crew-match-workers/internal/common/errors"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/common/metrics"
	"crew-match-workers/internal/common/observability"
	"crew-match-workers/internal/common/validation"
	"crew-match-workers/internal/matching"
)

const (
	TaskType = "calculate-skill-match"
)

type ProfileLoader interface {
	Get(ctx context.Context, userID string) (*matching.CandidateProfile, error)
}

type LegLoader interface {
	ByIDs(ctx context.Context, ids []string) ([]matching.LegCandidate, error)
}

type Handler struct {
	config       *Config
	profiles     ProfileLoader
	legs         LegLoader
	matcher      *matching.Matcher
	schema       *validation.Schema
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, profiles ProfileLoader, legs LegLoader, matcher *matching.Matcher,
	schema *validation.Schema, obs *observability.Observability, log logger.Logger) *Handler {
	if matcher == nil {
		matcher = matching.Default()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		profiles:     profiles,
		legs:         legs,
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

	input, err := h.ParseInput([]byte(job.Variables))
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, input)
	}
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		metrics.ObserveJob(TaskType, started, string(errors.AsStandardError(err).Code))
		h.obs.RecordJobProcessed(context.Background(), TaskType, "failed")
		return
	}

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
		return
	}

	metrics.ObserveJob(TaskType, started, "")
	h.obs.RecordJobProcessed(context.Background(), TaskType, "completed")
	h.obs.RecordJobDuration(context.Background(), TaskType, time.Since(started), "completed")
}

// ParseInput validates and decodes job or request variables.
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

func (h *Handler) Execute(ctx context.Context, input *Input) (out *Output, err error) {
	if input == nil {
		return nil, errors.NewInvalidMatchInputError("input cannot be nil")
	}

	ctx, span := h.obs.StartSpan(ctx, "calculate-skill-match.execute")
	defer func() { observability.EndSpan(span, err) }()

	profile, err := h.loadProfile(ctx, input)
	if err != nil {
		return nil, err
	}
	leg, err := h.loadLeg(ctx, input)
	if err != nil {
		return nil, err
	}

	sm := h.matcher.SkillMatch(profile, leg)
	span.SetAttributes(attribute.String("legId", leg.LegID), attribute.Int("skillMatch", sm.Percentage))

	return &Output{
		SkillMatchPercentage: sm.Percentage,
		ExperienceMatches:    sm.ExperienceMatches,
		RiskMatches:          sm.RiskMatches,
		MatchedSkills:        sm.MatchedSkills,
		MissingSkills:        sm.MissingSkills,
	}, nil
}

func (h *Handler) loadProfile(ctx context.Context, input *Input) (*matching.CandidateProfile, error) {
	switch {
	case input.Profile != nil && input.UserID != "":
		return nil, errors.NewInvalidMatchInputError("userId and profile are mutually exclusive")
	case input.Profile != nil:
		p, problems := input.Profile.ToCandidateLenient()
		for _, problem := range problems {
			h.logger.Debug("ignoring location preference", map[string]interface{}{"error": problem.Error()})
		}
		return p, nil
	case input.UserID != "":
		if h.profiles == nil {
			return nil, errors.NewInvalidMatchInputError("profile lookup is not available, supply profile inline")
		}
		return h.profiles.Get(ctx, input.UserID)
	}
	return nil, errors.NewInvalidMatchInputError("one of userId or profile is required")
}

func (h *Handler) loadLeg(ctx context.Context, input *Input) (*matching.LegCandidate, error) {
	switch {
	case input.Leg != nil && input.LegID != "":
		return nil, errors.NewInvalidMatchInputError("legId and leg are mutually exclusive")
	case input.Leg != nil:
		leg := input.Leg.ToCandidate()
		return &leg, nil
	case input.LegID != "":
		if h.legs == nil {
			return nil, errors.NewInvalidMatchInputError("leg lookup is not available, supply leg inline")
		}
		legs, err := h.legs.ByIDs(ctx, []string{input.LegID})
		if err != nil {
			return nil, err
		}
		if len(legs) == 0 {
			return nil, errors.NewLegNotFoundError(input.LegID)
		}
		return &legs[0], nil
	}
	return nil, errors.NewInvalidMatchInputError("one of legId or leg is required")
}

package calculateskillmatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crew-match-workers/internal/common/errors"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/matching"
	"crew-match-workers/internal/models"
	"crew-match-workers/pkg/registry"
)

// ==========================
// Mock Sources
// ==========================

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) Get(ctx context.Context, userID string) (*matching.CandidateProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*matching.CandidateProfile), args.Error(1)
}

type MockLegs struct {
	mock.Mock
}

func (m *MockLegs) ByIDs(ctx context.Context, ids []string) ([]matching.LegCandidate, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]matching.LegCandidate), args.Error(1)
}

func createTestHandler(t *testing.T, profiles ProfileLoader, legs LegLoader) *Handler {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	return NewHandler(&Config{Timeout: 5 * time.Second}, profiles, legs, nil,
		reg.MustInputValidator(TaskType), nil, logger.NewTestLogger(t))
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute_Inline(t *testing.T) {
	h := createTestHandler(t, nil, nil)

	out, err := h.Execute(context.Background(), &Input{
		Profile: &models.ProfileInput{
			Skills:          []string{"Navigation", "Sail Trim"},
			RiskLevels:      []string{"coastal"},
			ExperienceLevel: 1,
		},
		Leg: &models.LegInput{
			LegID:              "l1",
			RequiredSkills:     []string{"navigation", "first-aid"},
			RiskLevel:          "OffshoreSailing",
			MinExperienceLevel: 3,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 30, out.SkillMatchPercentage)
	assert.False(t, out.RiskMatches)
	assert.False(t, out.ExperienceMatches)
	assert.Equal(t, []string{"navigation"}, out.MatchedSkills)
	assert.Equal(t, []string{"first_aid"}, out.MissingSkills)
}

func TestHandler_Execute_Stored(t *testing.T) {
	profiles := new(MockProfiles)
	legs := new(MockLegs)
	h := createTestHandler(t, profiles, legs)

	profiles.On("Get", mock.Anything, "u1").Return(&matching.CandidateProfile{
		UserID: "u1",
		Skills: matching.NewSkillSet("navigation"),
	}, nil)
	legs.On("ByIDs", mock.Anything, []string{"l1"}).Return([]matching.LegCandidate{
		{LegID: "l1", RequiredSkills: matching.NewSkillSet("navigation")},
	}, nil)

	out, err := h.Execute(context.Background(), &Input{UserID: "u1", LegID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, 100, out.SkillMatchPercentage)
	assert.True(t, out.RiskMatches)
	assert.True(t, out.ExperienceMatches)

	profiles.AssertExpectations(t)
	legs.AssertExpectations(t)
}

func TestHandler_Execute_Errors(t *testing.T) {
	legs := new(MockLegs)
	legs.On("ByIDs", mock.Anything, []string{"gone"}).Return(nil, errors.NewLegNotFoundError("gone"))
	legs.On("ByIDs", mock.Anything, []string{"empty"}).Return([]matching.LegCandidate{}, nil)

	inlineLeg := &models.LegInput{LegID: "l1"}
	inlineProfile := &models.ProfileInput{Skills: []string{"navigation"}}

	tests := []struct {
		name     string
		input    *Input
		wantCode errors.ErrorCode
	}{
		{name: "nil input", input: nil, wantCode: errors.ErrCodeInvalidMatchInput},
		{name: "no profile", input: &Input{Leg: inlineLeg}, wantCode: errors.ErrCodeInvalidMatchInput},
		{name: "no leg", input: &Input{Profile: inlineProfile}, wantCode: errors.ErrCodeInvalidMatchInput},
		{name: "both legs", input: &Input{Profile: inlineProfile, Leg: inlineLeg, LegID: "l1"}, wantCode: errors.ErrCodeInvalidMatchInput},
		{name: "profiles not wired", input: &Input{UserID: "u1", Leg: inlineLeg}, wantCode: errors.ErrCodeInvalidMatchInput},
		{name: "leg missing", input: &Input{Profile: inlineProfile, LegID: "gone"}, wantCode: errors.ErrCodeLegNotFound},
		{name: "leg store returns nothing", input: &Input{Profile: inlineProfile, LegID: "empty"}, wantCode: errors.ErrCodeLegNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, nil, legs)

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.AsStandardError(err).Code)
		})
	}
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, nil, nil)

	input, err := h.ParseInput([]byte(`{"userId":"u1","leg":{"legId":"l1","requiredSkills":["navigation"]}}`))
	require.NoError(t, err)
	assert.Equal(t, "u1", input.UserID)
	require.NotNil(t, input.Leg)
	assert.Equal(t, []string{"navigation"}, input.Leg.RequiredSkills)

	_, err = h.ParseInput([]byte(`{"userId":"u1"}`))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidMatchInput, errors.AsStandardError(err).Code)
}

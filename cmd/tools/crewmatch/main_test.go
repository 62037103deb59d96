package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crew-match-workers/internal/api"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/matching"
	calculateskillmatch "crew-match-workers/internal/workers/matching/calculate-skill-match"
	ranklegs "crew-match-workers/internal/workers/matching/rank-legs"
	"crew-match-workers/pkg/registry"
)

// ==========================
// Helpers
// ==========================

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	outputFmt, noColor, registryPath = "table", false, ""

	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	return buf.String(), err
}

func decodeOutput(t *testing.T, raw string) ranklegs.Output {
	t.Helper()
	var out ranklegs.Output
	require.NoError(t, json.Unmarshal([]byte(raw), &out), raw)
	return out
}

func rankedIDs(out ranklegs.Output) []string {
	ids := make([]string, 0, len(out.RankedLegs))
	for _, r := range out.RankedLegs {
		ids = append(ids, r.LegID)
	}
	return ids
}

// ==========================
// Fixture Tests
// ==========================

func TestLoadFixture(t *testing.T) {
	fx, err := loadFixture("testdata/atlantic.toml")
	require.NoError(t, err)

	assert.Equal(t, "crew-42", fx.Profile.UserID)
	assert.Equal(t, 3, fx.Profile.ExperienceLevel)
	require.NotNil(t, fx.Profile.PreferredDeparture)
	assert.Equal(t, "canary_islands", fx.Profile.PreferredDeparture.Region)
	require.Len(t, fx.Legs, 3)
	require.NotNil(t, fx.Legs[2].EndWaypoint)
	assert.Equal(t, -61.0, fx.Legs[2].EndWaypoint.Lng)
	assert.Equal(t, matching.DefaultPolicy(), fx.Policy.resolve())
}

func TestLoadFixture_Errors(t *testing.T) {
	_, err := loadFixture("testdata/bad-leg.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legs[0]")

	_, err = loadFixture("testdata/missing.toml")
	assert.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[profile\nskills = "), 0o600))
	_, err = loadFixture(broken)
	assert.Error(t, err)
}

func TestFixturePolicy_Resolve(t *testing.T) {
	penalty, skill, departure, arrival := 35, 0.4, 0.3, 0.3
	p := fixturePolicy{
		RiskPenalty:     &penalty,
		SkillWeight:     &skill,
		DepartureWeight: &departure,
		ArrivalWeight:   &arrival,
	}.resolve()

	assert.Equal(t, 35, p.RiskPenalty)
	assert.Equal(t, 0.4, p.SkillWeight)
	assert.Equal(t, matching.DefaultPolicy().ProximityDecayKm, p.ProximityDecayKm)
	assert.NoError(t, p.Validate())
}

func TestFixturePolicy_ExplicitZeroIsKept(t *testing.T) {
	fx, err := loadFixture("testdata/zero-penalty.toml")
	require.NoError(t, err)

	p := fx.Policy.resolve()
	assert.Equal(t, 0, p.RiskPenalty)
	assert.Equal(t, 0.0, p.NeutralProximity)
	assert.Equal(t, matching.DefaultPolicy().SkillWeight, p.SkillWeight)
	assert.NoError(t, p.Validate())

	raw, err := execute(t, "rank", "-f", "testdata/zero-penalty.toml", "-o", "json")
	require.NoError(t, err)
	out := decodeOutput(t, raw)
	require.Len(t, out.RankedLegs, 1)
	assert.Equal(t, 100, out.RankedLegs[0].SkillMatchPercentage)
	assert.False(t, out.RankedLegs[0].RiskMatches)
}

// ==========================
// Rank Command Tests
// ==========================

func TestRank_LocalJSON(t *testing.T) {
	raw, err := execute(t, "rank", "--fixture", "testdata/atlantic.toml", "-o", "json")
	require.NoError(t, err)

	out := decodeOutput(t, raw)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 3, out.TotalCandidates)
	assert.Equal(t, []string{"leg-atlantic", "leg-extreme", "leg-coastal"}, rankedIDs(out))

	top := out.RankedLegs[0]
	assert.Equal(t, 100, top.SkillMatchPercentage)
	assert.InDelta(t, 100.0, top.CompositeScore, 1e-9)
	assert.True(t, top.RiskMatches)

	extreme := out.RankedLegs[1]
	assert.Equal(t, 80, extreme.SkillMatchPercentage)
	assert.False(t, extreme.RiskMatches)
	assert.False(t, extreme.ExperienceMatches)
	assert.InDelta(t, 65.0, extreme.CompositeScore, 1e-9)

	coastal := out.RankedLegs[2]
	assert.Equal(t, []string{"diesel_engine"}, coastal.MissingSkills)
}

func TestRank_MaxResultsFlag(t *testing.T) {
	raw, err := execute(t, "rank", "-f", "testdata/atlantic.toml", "-o", "json", "-n", "1")
	require.NoError(t, err)

	out := decodeOutput(t, raw)
	assert.Equal(t, []string{"leg-atlantic"}, rankedIDs(out))
	assert.Equal(t, 3, out.TotalCandidates)
}

func TestRank_PolicyOverride(t *testing.T) {
	raw, err := execute(t, "rank", "-f", "testdata/policy.toml", "-o", "json")
	require.NoError(t, err)

	out := decodeOutput(t, raw)
	require.Len(t, out.RankedLegs, 1)
	assert.Equal(t, 0, out.RankedLegs[0].SkillMatchPercentage)
}

func TestRank_Table(t *testing.T) {
	raw, err := execute(t, "rank", "-f", "testdata/atlantic.toml")
	require.NoError(t, err)

	atlantic := strings.Index(raw, "leg-atlantic")
	extreme := strings.Index(raw, "leg-extreme")
	coastal := strings.Index(raw, "leg-coastal")
	require.True(t, atlantic >= 0 && extreme >= 0 && coastal >= 0, raw)
	assert.Less(t, atlantic, extreme)
	assert.Less(t, extreme, coastal)
	assert.Contains(t, raw, "diesel_engine")
	assert.Contains(t, raw, "3 of 3 candidate legs shown")
}

func TestRank_Errors(t *testing.T) {
	_, err := execute(t, "rank")
	assert.Error(t, err)

	_, err = execute(t, "rank", "-f", "testdata/bad-leg.toml")
	assert.Error(t, err)

	_, err = execute(t, "rank", "-f", "testdata/atlantic.toml", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRank_Remote(t *testing.T) {
	log := logger.NewTestLogger(t)
	reg, err := registry.Default()
	require.NoError(t, err)

	rank := ranklegs.NewHandler(
		&ranklegs.Config{Timeout: time.Second, MaxCandidates: 100},
		ranklegs.Dependencies{}, matching.Default(), reg.MustInputValidator(ranklegs.TaskType), nil, log)
	skill := calculateskillmatch.NewHandler(
		&calculateskillmatch.Config{Timeout: time.Second}, nil, nil, matching.Default(),
		reg.MustInputValidator(calculateskillmatch.TaskType), nil, log)
	server := httptest.NewServer(api.NewRouter(api.NewMatchHandler(rank, skill), api.NewHealthHandler("test", nil), log))
	defer server.Close()

	raw, err := execute(t, "rank", "-f", "testdata/atlantic.toml", "-o", "json", "--server", server.URL)
	require.NoError(t, err)

	out := decodeOutput(t, raw)
	assert.Equal(t, []string{"leg-atlantic", "leg-extreme", "leg-coastal"}, rankedIDs(out))
}

// ==========================
// Registry Command Tests
// ==========================

func TestRegistry_ValidateBuiltin(t *testing.T) {
	raw, err := execute(t, "registry", "validate")
	require.NoError(t, err)
	assert.Contains(t, raw, "Registry validation passed")
}

func TestRegistry_List(t *testing.T) {
	raw, err := execute(t, "registry", "list")
	require.NoError(t, err)
	assert.Contains(t, raw, "crew.match.rank")
	assert.Contains(t, raw, "calculate-skill-match")
}

func TestRegistry_Set(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, saveRegistry(reg, path))

	_, err = execute(t, "registry", "set", "crew.match.rank", "retries", "5", "--path", path)
	require.NoError(t, err)

	updated, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	activity, ok := updated.Find(ranklegs.TaskType)
	require.True(t, ok)
	assert.Equal(t, 5, activity.Retries)

	tests := []struct {
		name string
		args []string
	}{
		{"builtin is read-only", []string{"registry", "set", "crew.match.rank", "retries", "5"}},
		{"unknown activity", []string{"registry", "set", "crew.match.none", "retries", "5", "--path", path}},
		{"unknown field", []string{"registry", "set", "crew.match.rank", "owner", "x", "--path", path}},
		{"bad retries", []string{"registry", "set", "crew.match.rank", "retries", "many", "--path", path}},
		{"bad timeout", []string{"registry", "set", "crew.match.rank", "timeout", "soon", "--path", path}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

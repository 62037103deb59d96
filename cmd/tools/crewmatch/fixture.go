// cmd/tools/crewmatch/fixture.go
package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"crew-match-workers/internal/matching"
	"crew-match-workers/internal/models"
)

// Fixture is a self-contained ranking scenario.
type Fixture struct {
	MaxResults int                 `toml:"max_results"`
	Policy     fixturePolicy       `toml:"policy"`
	Profile    models.ProfileInput `toml:"profile"`
	Legs       []models.LegInput   `toml:"legs"`
}

// fixturePolicy overrides scoring constants. Absent fields keep the default.
type fixturePolicy struct {
	RiskPenalty      *int     `toml:"risk_penalty"`
	ProximityDecayKm *float64 `toml:"proximity_decay_km"`
	NeutralProximity *float64 `toml:"neutral_proximity"`
	SkillWeight      *float64 `toml:"skill_weight"`
	DepartureWeight  *float64 `toml:"departure_weight"`
	ArrivalWeight    *float64 `toml:"arrival_weight"`
}

func (p fixturePolicy) resolve() matching.Policy {
	policy := matching.DefaultPolicy()
	setInt(&policy.RiskPenalty, p.RiskPenalty)
	setFloat(&policy.ProximityDecayKm, p.ProximityDecayKm)
	setFloat(&policy.NeutralProximity, p.NeutralProximity)
	setFloat(&policy.SkillWeight, p.SkillWeight)
	setFloat(&policy.DepartureWeight, p.DepartureWeight)
	setFloat(&policy.ArrivalWeight, p.ArrivalWeight)
	return policy
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func loadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var fx Fixture
	if err := toml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if fx.Legs == nil {
		fx.Legs = []models.LegInput{}
	}
	for i, leg := range fx.Legs {
		if leg.LegID == "" {
			return nil, fmt.Errorf("fixture %s: legs[%d] has no leg_id", path, i)
		}
	}
	return &fx, nil
}

// internal/workers/matching/calculate-skill-match/models.go
package calculateskillmatch

import "crew-match-workers/internal/models"

// Input pairs one registrant with one leg, each either stored or inline.
type Input struct {
	UserID  string               `json:"userId,omitempty"`
	Profile *models.ProfileInput `json:"profile,omitempty"`
	LegID   string               `json:"legId,omitempty"`
	Leg     *models.LegInput     `json:"leg,omitempty"`
}

type Output struct {
	SkillMatchPercentage int      `json:"skillMatchPercentage"`
	ExperienceMatches    bool     `json:"experienceMatches"`
	RiskMatches          bool     `json:"riskMatches"`
	MatchedSkills        []string `json:"matchedSkills"`
	MissingSkills        []string `json:"missingSkills"`
}

// internal/workers/matching/rank-legs/models.go
package ranklegs

import (
	"crew-match-workers/internal/matching"
	"crew-match-workers/internal/models"
)

// Input names one profile source and one leg source.
type Input struct {
	UserID     string               `json:"userId,omitempty"`
	Profile    *models.ProfileInput `json:"profile,omitempty"`
	LegIDs     []string             `json:"legIds,omitempty"`
	JourneyID  string               `json:"journeyId,omitempty"`
	Search     *models.LegQuery     `json:"search,omitempty"`
	Legs       []models.LegInput    `json:"legs,omitempty"`
	MaxResults int                  `json:"maxResults,omitempty"`
}

type Output struct {
	RunID           string                 `json:"runId"`
	RankedLegs      []matching.MatchResult `json:"rankedLegs"`
	TotalCandidates int                    `json:"totalCandidates"`
}

const (
	sourceIDs     = "ids"
	sourceJourney = "journey"
	sourceSearch  = "search"
	sourceInline  = "inline"
)

// legSource reports which leg source the input names, or "" unless exactly one is set.
func (in *Input) legSource() string {
	var found []string
	if len(in.LegIDs) > 0 {
		found = append(found, sourceIDs)
	}
	if in.JourneyID != "" {
		found = append(found, sourceJourney)
	}
	if in.Search != nil {
		found = append(found, sourceSearch)
	}
	if in.Legs != nil {
		found = append(found, sourceInline)
	}
	if len(found) != 1 {
		return ""
	}
	return found[0]
}

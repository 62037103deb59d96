// internal/models/crew.go
package models

import (
	"fmt"
	"math"

	"crew-match-workers/internal/matching"
)

// LocationInput is a preferred departure or arrival as it arrives on the
// wire or sits in the profile table. Exactly one form is expected: a named
// cruising region, an explicit bounding box, or a lat/lng point. A bare
// name that matches a cruising region is treated as that region.
type LocationInput struct {
	Name   string                `json:"name,omitempty" toml:"name"`
	Lat    *float64              `json:"lat,omitempty" toml:"lat"`
	Lng    *float64              `json:"lng,omitempty" toml:"lng"`
	Region string                `json:"region,omitempty" toml:"region"`
	BBox   *matching.BoundingBox `json:"bbox,omitempty" toml:"bbox"`
}

// Resolve converts the input into a scoring location. A nil input is no
// preference. A name that resolves to nothing yields a location without
// coordinates, which scores neutral.
func (l *LocationInput) Resolve() (*matching.Location, error) {
	if l == nil {
		return nil, nil
	}

	switch {
	case l.BBox != nil:
		b := *l.BBox
		if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng || !validLat(b.MinLat) || !validLat(b.MaxLat) ||
			!validLng(b.MinLng) || !validLng(b.MaxLng) {
			return nil, fmt.Errorf("invalid bounding box %+v", b)
		}
		return matching.RegionLocation(l.Name, b), nil

	case l.Region != "":
		box, ok := matching.LookupRegion(l.Region)
		if !ok {
			return nil, fmt.Errorf("unknown cruising region %q", l.Region)
		}
		name := l.Name
		if name == "" {
			name = l.Region
		}
		return matching.RegionLocation(name, box), nil

	case l.Lat != nil || l.Lng != nil:
		if l.Lat == nil || l.Lng == nil {
			return nil, fmt.Errorf("location %q needs both lat and lng", l.Name)
		}
		if !validLat(*l.Lat) || !validLng(*l.Lng) {
			return nil, fmt.Errorf("location %q out of range: %v,%v", l.Name, *l.Lat, *l.Lng)
		}
		loc := matching.PointLocation(*l.Lat, *l.Lng)
		loc.Name = l.Name
		return loc, nil
	}

	if box, ok := matching.LookupRegion(l.Name); ok {
		return matching.RegionLocation(l.Name, box), nil
	}
	return &matching.Location{Name: l.Name}, nil
}

func validLat(v float64) bool { return !math.IsNaN(v) && v >= -90 && v <= 90 }
func validLng(v float64) bool { return !math.IsNaN(v) && v >= -180 && v <= 180 }

// ProfileInput is a crew profile supplied inline or stored as JSON.
type ProfileInput struct {
	UserID             string         `json:"userId,omitempty" toml:"user_id"`
	Skills             []string       `json:"skills" toml:"skills"`
	RiskLevels         []string       `json:"riskLevels,omitempty" toml:"risk_levels"`
	ExperienceLevel    int            `json:"experienceLevel,omitempty" toml:"experience_level"`
	PreferredDeparture *LocationInput `json:"preferredDeparture,omitempty" toml:"preferred_departure"`
	PreferredArrival   *LocationInput `json:"preferredArrival,omitempty" toml:"preferred_arrival"`
}

// ToCandidate normalizes skills, drops unknown risk labels, clamps the
// experience level and resolves locations. Location errors are returned.
func (p ProfileInput) ToCandidate() (*matching.CandidateProfile, error) {
	dep, err := p.PreferredDeparture.Resolve()
	if err != nil {
		return nil, fmt.Errorf("preferredDeparture: %w", err)
	}
	arr, err := p.PreferredArrival.Resolve()
	if err != nil {
		return nil, fmt.Errorf("preferredArrival: %w", err)
	}

	c := p.base()
	c.PreferredDeparture = dep
	c.PreferredArrival = arr
	return c, nil
}

// ToCandidateLenient is ToCandidate for stored data: a location that cannot
// be resolved is dropped and reported instead of failing the conversion.
func (p ProfileInput) ToCandidateLenient() (*matching.CandidateProfile, []error) {
	var problems []error

	c := p.base()
	if dep, err := p.PreferredDeparture.Resolve(); err != nil {
		problems = append(problems, fmt.Errorf("preferredDeparture: %w", err))
	} else {
		c.PreferredDeparture = dep
	}
	if arr, err := p.PreferredArrival.Resolve(); err != nil {
		problems = append(problems, fmt.Errorf("preferredArrival: %w", err))
	} else {
		c.PreferredArrival = arr
	}
	return c, problems
}

func (p ProfileInput) base() *matching.CandidateProfile {
	return &matching.CandidateProfile{
		UserID:          p.UserID,
		Skills:          matching.NewSkillSet(p.Skills...),
		RiskLevels:      matching.ParseRiskLevels(p.RiskLevels),
		ExperienceLevel: matching.ClampExperience(p.ExperienceLevel),
	}
}

// LegInput is a leg supplied inline, e.g. from a CLI fixture.
type LegInput struct {
	LegID              string             `json:"legId" toml:"leg_id"`
	JourneyID          string             `json:"journeyId,omitempty" toml:"journey_id"`
	Name               string             `json:"name,omitempty" toml:"name"`
	RequiredSkills     []string           `json:"requiredSkills,omitempty" toml:"required_skills"`
	RiskLevel          string             `json:"riskLevel,omitempty" toml:"risk_level"`
	JourneyRiskLevel   string             `json:"journeyRiskLevel,omitempty" toml:"journey_risk_level"`
	MinExperienceLevel int                `json:"minExperienceLevel,omitempty" toml:"min_experience_level"`
	StartWaypoint      *matching.Waypoint `json:"startWaypoint,omitempty" toml:"start"`
	EndWaypoint        *matching.Waypoint `json:"endWaypoint,omitempty" toml:"end"`
}

// ToCandidate converts the input. Unknown risk labels count as unspecified.
func (l LegInput) ToCandidate() matching.LegCandidate {
	legRisk, _ := matching.ParseRiskLevel(l.RiskLevel)
	journeyRisk, _ := matching.ParseRiskLevel(l.JourneyRiskLevel)

	return matching.LegCandidate{
		LegID:              l.LegID,
		JourneyID:          l.JourneyID,
		Name:               l.Name,
		RequiredSkills:     matching.NewSkillSet(l.RequiredSkills...),
		LegRiskLevel:       legRisk,
		JourneyRiskLevel:   journeyRisk,
		MinExperienceLevel: matching.ClampExperience(l.MinExperienceLevel),
		StartWaypoint:      l.StartWaypoint,
		EndWaypoint:        l.EndWaypoint,
	}
}

// LegQuery describes a leg search against the search index.
type LegQuery struct {
	From        string                `json:"from,omitempty" toml:"from"` // RFC 3339 date
	To          string                `json:"to,omitempty" toml:"to"`
	RiskLevels  []string              `json:"riskLevels,omitempty" toml:"risk_levels"`
	Region      string                `json:"region,omitempty" toml:"region"`
	BoundingBox *matching.BoundingBox `json:"boundingBox,omitempty" toml:"bounding_box"`
	Limit       int                   `json:"limit,omitempty" toml:"limit"`
}

// Area resolves Region or BoundingBox, preferring the explicit box.
func (q LegQuery) Area() (*matching.BoundingBox, error) {
	if q.BoundingBox != nil {
		return q.BoundingBox, nil
	}
	if q.Region == "" {
		return nil, nil
	}
	box, ok := matching.LookupRegion(q.Region)
	if !ok {
		return nil, fmt.Errorf("unknown cruising region %q", q.Region)
	}
	return &box, nil
}

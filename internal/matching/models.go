// internal/matching/models.go
package matching

import "sort"

// RiskLevel is the coarse exposure classification of a leg or journey.
// The zero value means unspecified.
type RiskLevel string

const (
	RiskCoastal  RiskLevel = "CoastalSailing"
	RiskOffshore RiskLevel = "OffshoreSailing"
	RiskExtreme  RiskLevel = "ExtremeSailing"
)

// AllRiskLevels lists the defined risk levels in ascending exposure order.
var AllRiskLevels = []RiskLevel{RiskCoastal, RiskOffshore, RiskExtreme}

func (r RiskLevel) IsSpecified() bool {
	return r != ""
}

// Experience levels run 1 (lowest) to 4. Zero means absent.
const (
	MinExperienceLevel = 1
	MaxExperienceLevel = 4
)

type Waypoint struct {
	Lat float64 `json:"lat" toml:"lat"`
	Lng float64 `json:"lng" toml:"lng"`
}

// BoundingBox is a cruising region expressed in degrees.
type BoundingBox struct {
	MinLng float64 `json:"minLng" toml:"min_lng"`
	MinLat float64 `json:"minLat" toml:"min_lat"`
	MaxLng float64 `json:"maxLng" toml:"max_lng"`
	MaxLat float64 `json:"maxLat" toml:"max_lat"`
}

// Contains reports whether wp lies within the box, bounds inclusive.
func (b BoundingBox) Contains(wp Waypoint) bool {
	return wp.Lat >= b.MinLat && wp.Lat <= b.MaxLat &&
		wp.Lng >= b.MinLng && wp.Lng <= b.MaxLng
}

func (b BoundingBox) Center() Waypoint {
	return Waypoint{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lng: (b.MinLng + b.MaxLng) / 2,
	}
}

// Location is a preferred departure or arrival. Exactly one of Point or
// Region is set; a nil *Location means no preference.
type Location struct {
	Name   string       `json:"name,omitempty" toml:"name"`
	Point  *Waypoint    `json:"point,omitempty" toml:"point"`
	Region *BoundingBox `json:"region,omitempty" toml:"region"`
}

func PointLocation(lat, lng float64) *Location {
	return &Location{Point: &Waypoint{Lat: lat, Lng: lng}}
}

func RegionLocation(name string, box BoundingBox) *Location {
	return &Location{Name: name, Region: &box}
}

// IsRegion reports whether the location is a bounding box preference.
func (l *Location) IsRegion() bool {
	return l != nil && l.Region != nil
}

// usable reports whether the location carries any coordinates at all.
func (l *Location) usable() bool {
	return l != nil && (l.Point != nil || l.Region != nil)
}

// SkillSet is a set of normalized skill identifiers.
type SkillSet map[string]struct{}

// NewSkillSet normalizes and de-duplicates skills. Empty identifiers are dropped.
func NewSkillSet(skills ...string) SkillSet {
	set := make(SkillSet, len(skills))
	for _, s := range skills {
		if n := NormalizeSkill(s); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func (s SkillSet) Has(skill string) bool {
	_, ok := s[skill]
	return ok
}

// Sorted returns the identifiers in lexical order.
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CandidateProfile holds the searching sailor's attributes relevant to matching.
type CandidateProfile struct {
	UserID             string
	Skills             SkillSet
	RiskLevels         []RiskLevel
	ExperienceLevel    int
	PreferredDeparture *Location
	PreferredArrival   *Location
}

// HasLocationPreference reports whether either preferred location is usable.
func (p *CandidateProfile) HasLocationPreference() bool {
	return p.PreferredDeparture.usable() || p.PreferredArrival.usable()
}

func (p *CandidateProfile) acceptsRisk(level RiskLevel) bool {
	for _, r := range p.RiskLevels {
		if r == level {
			return true
		}
	}
	return false
}

// LegCandidate is one bookable leg being scored.
type LegCandidate struct {
	LegID              string
	JourneyID          string
	Name               string
	RequiredSkills     SkillSet
	LegRiskLevel       RiskLevel
	JourneyRiskLevel   RiskLevel
	MinExperienceLevel int
	StartWaypoint      *Waypoint
	EndWaypoint        *Waypoint
}

// EffectiveRiskLevel returns the leg-level risk when set, else the journey-level risk.
func (l *LegCandidate) EffectiveRiskLevel() RiskLevel {
	if l.LegRiskLevel.IsSpecified() {
		return l.LegRiskLevel
	}
	return l.JourneyRiskLevel
}

// SkillMatch is the SkillMatcher outcome for one candidate/leg pair.
type SkillMatch struct {
	Percentage        int      `json:"skillMatchPercentage"`
	ExperienceMatches bool     `json:"experienceMatches"`
	RiskMatches       bool     `json:"riskMatches"`
	MatchedSkills     []string `json:"matchedSkills"`
	MissingSkills     []string `json:"missingSkills"`
}

// MatchResult is the ranked outcome for one leg.
type MatchResult struct {
	LegID                string   `json:"legId"`
	SkillMatchPercentage int      `json:"skillMatchPercentage"`
	ExperienceMatches    bool     `json:"experienceMatches"`
	RiskMatches          bool     `json:"riskMatches"`
	CompositeScore       float64  `json:"compositeScore"`
	DepartureProximity   *float64 `json:"departureProximity,omitempty"`
	ArrivalProximity     *float64 `json:"arrivalProximity,omitempty"`
	MatchedSkills        []string `json:"matchedSkills"`
	MissingSkills        []string `json:"missingSkills"`
}

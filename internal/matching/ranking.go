// internal/matching/ranking.go
package matching

import "sort"

// RankLegs ranks legs for profile under DefaultPolicy.
func RankLegs(profile *CandidateProfile, legs []LegCandidate) []MatchResult {
	return defaultMatcher.RankLegs(profile, legs)
}

// RankLegs scores every leg and returns one MatchResult per input leg,
// ordered by descending composite score. Ties keep their input order.
//
// Without any location preference the composite equals the skill
// percentage. Otherwise it blends skill, departure and arrival proximity
// using the policy weights.
func (m *Matcher) RankLegs(profile *CandidateProfile, legs []LegCandidate) []MatchResult {
	if profile == nil {
		profile = &CandidateProfile{}
	}

	useLocation := profile.HasLocationPreference()
	results := make([]MatchResult, 0, len(legs))

	for i := range legs {
		leg := &legs[i]
		sm := m.SkillMatch(profile, leg)

		res := MatchResult{
			LegID:                leg.LegID,
			SkillMatchPercentage: sm.Percentage,
			ExperienceMatches:    sm.ExperienceMatches,
			RiskMatches:          sm.RiskMatches,
			CompositeScore:       float64(sm.Percentage),
			MatchedSkills:        sm.MatchedSkills,
			MissingSkills:        sm.MissingSkills,
		}

		if useLocation {
			departure := m.Proximity(leg.StartWaypoint, profile.PreferredDeparture)
			arrival := m.Proximity(leg.EndWaypoint, profile.PreferredArrival)
			res.DepartureProximity = &departure
			res.ArrivalProximity = &arrival
			res.CompositeScore = float64(sm.Percentage)*m.policy.SkillWeight +
				departure*m.policy.DepartureWeight +
				arrival*m.policy.ArrivalWeight
		}

		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompositeScore > results[j].CompositeScore
	})

	return results
}

// internal/matching/skill.go
package matching

import "math"

// ComputeSkillMatch returns the 0-100 skill match percentage under DefaultPolicy.
func ComputeSkillMatch(profile *CandidateProfile, leg *LegCandidate) int {
	return defaultMatcher.SkillMatch(profile, leg).Percentage
}

// ExperienceMatches reports whether the candidate meets the leg's minimum.
// An absent level on either side imposes no constraint.
func ExperienceMatches(profile *CandidateProfile, leg *LegCandidate) bool {
	if profile == nil || leg == nil {
		return true
	}
	have := ClampExperience(profile.ExperienceLevel)
	need := ClampExperience(leg.MinExperienceLevel)
	if have == 0 || need == 0 {
		return true
	}
	return have >= need
}

// SkillMatch scores skills, risk tolerance and experience for one pair.
//
// Only the leg's required skills count: extra candidate skills neither help
// nor hurt. A risk mismatch costs Policy.RiskPenalty points. Experience is
// reported through ExperienceMatches and never changes the percentage.
func (m *Matcher) SkillMatch(profile *CandidateProfile, leg *LegCandidate) SkillMatch {
	if profile == nil {
		profile = &CandidateProfile{}
	}
	if leg == nil {
		leg = &LegCandidate{}
	}

	result := SkillMatch{
		ExperienceMatches: ExperienceMatches(profile, leg),
		RiskMatches:       true,
		MatchedSkills:     []string{},
		MissingSkills:     []string{},
	}

	score := 100
	if len(leg.RequiredSkills) > 0 {
		for _, skill := range leg.RequiredSkills.Sorted() {
			if profile.Skills.Has(skill) {
				result.MatchedSkills = append(result.MatchedSkills, skill)
			} else {
				result.MissingSkills = append(result.MissingSkills, skill)
			}
		}
		ratio := float64(len(result.MatchedSkills)) / float64(len(leg.RequiredSkills))
		score = int(math.Round(100 * ratio))
	}

	if risk := leg.EffectiveRiskLevel(); risk.IsSpecified() && len(profile.RiskLevels) > 0 {
		if !profile.acceptsRisk(risk) {
			result.RiskMatches = false
			score -= m.policy.RiskPenalty
		}
	}

	result.Percentage = clampPercent(score)
	return result
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// internal/matching/normalize.go
package matching

import (
	"strings"
)

var skillReplacer = strings.NewReplacer(" ", "_", "-", "_", ".", "_")

// NormalizeSkill converts a skill identifier to its canonical form:
// lowercase, trimmed, with separators collapsed to single underscores.
func NormalizeSkill(skill string) string {
	s := strings.ToLower(strings.TrimSpace(skill))
	if s == "" {
		return ""
	}
	s = skillReplacer.Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// ParseRiskLevel accepts canonical labels and the loose forms stored by the
// web app ("coastal_sailing", "Offshore sailing", "extreme").
func ParseRiskLevel(raw string) (RiskLevel, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	key = strings.TrimSuffix(key, "sailing")

	switch key {
	case "coastal":
		return RiskCoastal, true
	case "offshore":
		return RiskOffshore, true
	case "extreme":
		return RiskExtreme, true
	}
	return "", false
}

// ParseRiskLevels parses a list of labels, dropping unknown and duplicate
// entries while preserving first-seen order.
func ParseRiskLevels(raw []string) []RiskLevel {
	out := make([]RiskLevel, 0, len(raw))
	seen := make(map[RiskLevel]bool, len(raw))
	for _, r := range raw {
		level, ok := ParseRiskLevel(r)
		if !ok || seen[level] {
			continue
		}
		seen[level] = true
		out = append(out, level)
	}
	return out
}

// ClampExperience maps a stored experience level into [1,4]; values <= 0 mean absent.
func ClampExperience(level int) int {
	switch {
	case level <= 0:
		return 0
	case level > MaxExperienceLevel:
		return MaxExperienceLevel
	}
	return level
}

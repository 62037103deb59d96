// internal/matching/proximity.go
package matching

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(a, b Waypoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// ComputeProximity returns the 0-100 proximity score under DefaultPolicy.
func ComputeProximity(waypoint *Waypoint, preferred *Location) float64 {
	return defaultMatcher.Proximity(waypoint, preferred)
}

// Proximity scores how close waypoint is to the preferred location.
// Missing data on either side yields the neutral score. A waypoint inside a
// region preference scores 100; otherwise the score decays linearly with the
// distance to the point (or region center) and bottoms out at 0.
func (m *Matcher) Proximity(waypoint *Waypoint, preferred *Location) float64 {
	if waypoint == nil || !preferred.usable() {
		return m.policy.NeutralProximity
	}

	var target Waypoint
	if preferred.Region != nil {
		if preferred.Region.Contains(*waypoint) {
			return 100
		}
		target = preferred.Region.Center()
	} else {
		target = *preferred.Point
	}

	return m.decay(HaversineKm(*waypoint, target))
}

func (m *Matcher) decay(distanceKm float64) float64 {
	score := 100 - distanceKm/m.policy.ProximityDecayKm
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

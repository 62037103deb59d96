// internal/matching/regions.go
package matching

import "strings"

// cruisingRegions are the named regions offered as location preferences.
// Keys are normalized with regionKey.
var cruisingRegions = map[string]BoundingBox{
	"mediterranean":        {MinLng: -6.0, MinLat: 30.0, MaxLng: 36.5, MaxLat: 46.0},
	"western_med":          {MinLng: -6.0, MinLat: 35.0, MaxLng: 12.0, MaxLat: 44.5},
	"eastern_med":          {MinLng: 12.0, MinLat: 30.0, MaxLng: 36.5, MaxLat: 41.0},
	"greek_islands":        {MinLng: 19.0, MinLat: 34.5, MaxLng: 29.7, MaxLat: 41.0},
	"caribbean":            {MinLng: -89.0, MinLat: 9.0, MaxLng: -59.0, MaxLat: 23.5},
	"bahamas":              {MinLng: -80.5, MinLat: 20.5, MaxLng: -72.5, MaxLat: 27.5},
	"canary_islands":       {MinLng: -18.5, MinLat: 27.5, MaxLng: -13.3, MaxLat: 29.5},
	"baltic_sea":           {MinLng: 9.5, MinLat: 53.5, MaxLng: 30.5, MaxLat: 66.0},
	"north_sea":            {MinLng: -4.5, MinLat: 51.0, MaxLng: 9.0, MaxLat: 61.0},
	"english_channel":      {MinLng: -5.8, MinLat: 48.5, MaxLng: 1.8, MaxLat: 51.2},
	"atlantic_crossing":    {MinLng: -65.0, MinLat: 10.0, MaxLng: -15.0, MaxLat: 30.0},
	"south_pacific":        {MinLng: -180.0, MinLat: -30.0, MaxLng: -130.0, MaxLat: -5.0},
	"new_england":          {MinLng: -74.5, MinLat: 40.5, MaxLng: -66.5, MaxLat: 45.5},
	"pacific_northwest":    {MinLng: -130.0, MinLat: 45.5, MaxLng: -122.0, MaxLat: 51.0},
	"southeast_asia":       {MinLng: 95.0, MinLat: -11.0, MaxLng: 141.0, MaxLat: 21.0},
	"australia_east_coast": {MinLng: 145.0, MinLat: -38.0, MaxLng: 154.0, MaxLat: -10.0},
}

func regionKey(name string) string {
	return NormalizeSkill(strings.ReplaceAll(name, "&", " "))
}

// LookupRegion resolves a cruising region by name, ignoring case and separators.
func LookupRegion(name string) (BoundingBox, bool) {
	box, ok := cruisingRegions[regionKey(name)]
	return box, ok
}

// RegionNames returns the catalogue keys.
func RegionNames() []string {
	names := make([]string, 0, len(cruisingRegions))
	for k := range cruisingRegions {
		names = append(names, k)
	}
	return NewSkillSet(names...).Sorted()
}

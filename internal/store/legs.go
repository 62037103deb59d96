// internal/store/legs.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"crew-match-workers/internal/common/errors"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/matching"
)

const legSelect = `
	SELECT l.id, l.journey_id, l.name, l.skills, l.risk_level, j.risk_level,
	       l.min_experience_level, s.lat, s.lng, e.lat, e.lng
	FROM legs l
	JOIN journeys j ON j.id = l.journey_id
	LEFT JOIN LATERAL (
		SELECT w.lat, w.lng FROM waypoints w WHERE w.leg_id = l.id ORDER BY w.seq ASC LIMIT 1
	) s ON true
	LEFT JOIN LATERAL (
		SELECT w.lat, w.lng FROM waypoints w WHERE w.leg_id = l.id ORDER BY w.seq DESC LIMIT 1
	) e ON true`

const legsByIDsQuery = legSelect + `
	WHERE l.id = ANY($1)`

const legsByJourneyQuery = legSelect + `
	WHERE l.journey_id = $1
	ORDER BY l.start_date NULLS LAST, l.id
	LIMIT $2`

// LegStore reads bookable legs with their journey and waypoint context.
type LegStore struct {
	db            *sql.DB
	maxCandidates int
	logger        logger.Logger
}

func NewLegStore(db *sql.DB, maxCandidates int, log logger.Logger) *LegStore {
	if maxCandidates <= 0 {
		maxCandidates = 500
	}
	return &LegStore{
		db:            db,
		maxCandidates: maxCandidates,
		logger:        log.WithFields(map[string]interface{}{"component": "leg-store"}),
	}
}

// ByIDs loads the legs in the order requested. Duplicate IDs are loaded once.
// Any missing ID fails the whole call.
func (s *LegStore) ByIDs(ctx context.Context, ids []string) ([]matching.LegCandidate, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > s.maxCandidates {
		return nil, errors.NewInvalidMatchInputError(
			fmt.Sprintf("%d legs requested, at most %d allowed", len(ids), s.maxCandidates))
	}

	rows, err := s.db.QueryContext(ctx, legsByIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, errors.NewLegQueryFailedError(err)
	}
	defer rows.Close()

	found, err := scanLegs(rows)
	if err != nil {
		return nil, errors.NewLegQueryFailedError(err)
	}

	byID := make(map[string]matching.LegCandidate, len(found))
	for _, leg := range found {
		byID[leg.LegID] = leg
	}

	var missing []string
	legs := make([]matching.LegCandidate, 0, len(ids))
	for _, id := range ids {
		leg, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		legs = append(legs, leg)
	}
	if len(missing) > 0 {
		return nil, errors.NewLegNotFoundError(strings.Join(missing, ", "))
	}

	return legs, nil
}

// ByJourney loads every leg of a journey. A journey with more legs than the
// configured maximum is rejected rather than cut short.
func (s *LegStore) ByJourney(ctx context.Context, journeyID string) ([]matching.LegCandidate, error) {
	rows, err := s.db.QueryContext(ctx, legsByJourneyQuery, journeyID, s.maxCandidates+1)
	if err != nil {
		return nil, errors.NewLegQueryFailedError(err)
	}
	defer rows.Close()

	legs, err := scanLegs(rows)
	if err != nil {
		return nil, errors.NewLegQueryFailedError(err)
	}
	if len(legs) == 0 {
		return nil, errors.NewLegNotFoundError("journey " + journeyID + " has no legs")
	}
	if len(legs) > s.maxCandidates {
		return nil, errors.NewInvalidMatchInputError(
			fmt.Sprintf("journey %s has more than %d legs", journeyID, s.maxCandidates))
	}

	s.logger.Debug("loaded journey legs", map[string]interface{}{
		"journeyId": journeyID,
		"count":     len(legs),
	})
	return legs, nil
}

func scanLegs(rows *sql.Rows) ([]matching.LegCandidate, error) {
	var legs []matching.LegCandidate

	for rows.Next() {
		var (
			leg                  matching.LegCandidate
			name                 sql.NullString
			skills               []byte
			legRisk, journeyRisk sql.NullString
			minExperience        sql.NullInt64
			startLat, startLng   sql.NullFloat64
			endLat, endLng       sql.NullFloat64
			requiredSkills       []string
		)

		if err := rows.Scan(&leg.LegID, &leg.JourneyID, &name, &skills, &legRisk, &journeyRisk,
			&minExperience, &startLat, &startLng, &endLat, &endLng); err != nil {
			return nil, err
		}

		if err := decodeJSONColumn(skills, &requiredSkills); err != nil {
			return nil, fmt.Errorf("leg %s skills: %w", leg.LegID, err)
		}

		leg.Name = name.String
		leg.RequiredSkills = matching.NewSkillSet(requiredSkills...)
		leg.LegRiskLevel, _ = matching.ParseRiskLevel(legRisk.String)
		leg.JourneyRiskLevel, _ = matching.ParseRiskLevel(journeyRisk.String)
		if minExperience.Valid {
			leg.MinExperienceLevel = matching.ClampExperience(int(minExperience.Int64))
		}
		leg.StartWaypoint = waypoint(startLat, startLng)
		leg.EndWaypoint = waypoint(endLat, endLng)

		legs = append(legs, leg)
	}

	return legs, rows.Err()
}

func waypoint(lat, lng sql.NullFloat64) *matching.Waypoint {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &matching.Waypoint{Lat: lat.Float64, Lng: lng.Float64}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// internal/store/search.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"crew-match-workers/internal/common/errors"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/common/metrics"
	"crew-match-workers/internal/matching"
	"crew-match-workers/internal/models"
)

// GeoPoint is the Elasticsearch geo_point object form.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LegDocument is the indexed shape of a leg.
type LegDocument struct {
	LegID              string    `json:"legId"`
	JourneyID          string    `json:"journeyId"`
	Name               string    `json:"name"`
	RequiredSkills     []string  `json:"requiredSkills"`
	RiskLevel          string    `json:"riskLevel"`
	JourneyRiskLevel   string    `json:"journeyRiskLevel"`
	MinExperienceLevel int       `json:"minExperienceLevel"`
	StartDate          string    `json:"startDate,omitempty"`
	Start              *GeoPoint `json:"start,omitempty"`
	End                *GeoPoint `json:"end,omitempty"`
}

func (d LegDocument) toCandidate() matching.LegCandidate {
	legRisk, _ := matching.ParseRiskLevel(d.RiskLevel)
	journeyRisk, _ := matching.ParseRiskLevel(d.JourneyRiskLevel)

	leg := matching.LegCandidate{
		LegID:              d.LegID,
		JourneyID:          d.JourneyID,
		Name:               d.Name,
		RequiredSkills:     matching.NewSkillSet(d.RequiredSkills...),
		LegRiskLevel:       legRisk,
		JourneyRiskLevel:   journeyRisk,
		MinExperienceLevel: matching.ClampExperience(d.MinExperienceLevel),
	}
	if d.Start != nil {
		leg.StartWaypoint = &matching.Waypoint{Lat: d.Start.Lat, Lng: d.Start.Lon}
	}
	if d.End != nil {
		leg.EndWaypoint = &matching.Waypoint{Lat: d.End.Lat, Lng: d.End.Lon}
	}
	return leg
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string      `json:"_id"`
			Source LegDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// LegSearch finds candidate legs in the search index.
type LegSearch struct {
	client        *elasticsearch.Client
	index         string
	maxCandidates int
	logger        logger.Logger
}

func NewLegSearch(client *elasticsearch.Client, index string, maxCandidates int, log logger.Logger) *LegSearch {
	if maxCandidates <= 0 {
		maxCandidates = 500
	}
	return &LegSearch{
		client:        client,
		index:         index,
		maxCandidates: maxCandidates,
		logger:        log.WithFields(map[string]interface{}{"component": "leg-search", "index": index}),
	}
}

// Search runs q and returns the matching legs in index order.
func (s *LegSearch) Search(ctx context.Context, q models.LegQuery) ([]matching.LegCandidate, error) {
	body, err := BuildLegQuery(q, s.maxCandidates)
	if err != nil {
		return nil, errors.NewInvalidMatchInputError(err.Error())
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
	}

	start := time.Now()
	res, err := req.Do(ctx, s.client)
	metrics.LegSearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewLegSearchTimeoutError(s.index)
		}
		return nil, errors.NewLegSearchFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewLegSearchFailedError(s.index, fmt.Errorf("search query failed: %s", res.Status()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewLegSearchFailedError(s.index, fmt.Errorf("decode response: %w", err))
	}

	legs := make([]matching.LegCandidate, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := hit.Source
		if doc.LegID == "" {
			doc.LegID = hit.ID
		}
		legs = append(legs, doc.toCandidate())
	}

	s.logger.Debug("leg search finished", map[string]interface{}{
		"hits":     len(legs),
		"total":    r.Hits.Total.Value,
		"duration": time.Since(start).Milliseconds(),
	})
	return legs, nil
}

// BuildLegQuery renders q as a search body. Limit is capped at maxSize.
func BuildLegQuery(q models.LegQuery, maxSize int) (map[string]interface{}, error) {
	filters := []interface{}{}

	if q.From != "" || q.To != "" {
		window := map[string]interface{}{}
		if q.From != "" {
			if !isDate(q.From) {
				return nil, fmt.Errorf("search.from: %q is not a date", q.From)
			}
			window["gte"] = q.From
		}
		if q.To != "" {
			if !isDate(q.To) {
				return nil, fmt.Errorf("search.to: %q is not a date", q.To)
			}
			window["lte"] = q.To
		}
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"startDate": window},
		})
	}

	if len(q.RiskLevels) > 0 {
		levels := matching.ParseRiskLevels(q.RiskLevels)
		if len(levels) == 0 {
			return nil, fmt.Errorf("search.riskLevels: no recognised risk level in %v", q.RiskLevels)
		}
		filters = append(filters, riskFilter(riskTerms(levels)))
	}

	area, err := q.Area()
	if err != nil {
		return nil, err
	}
	if area != nil {
		filters = append(filters, map[string]interface{}{
			"geo_bounding_box": map[string]interface{}{
				"start": map[string]interface{}{
					"top_left":     map[string]float64{"lat": area.MaxLat, "lon": area.MinLng},
					"bottom_right": map[string]float64{"lat": area.MinLat, "lon": area.MaxLng},
				},
			},
		})
	}

	size := q.Limit
	if size <= 0 || size > maxSize {
		size = maxSize
	}

	return map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"sort": []interface{}{
			map[string]interface{}{"startDate": map[string]interface{}{"order": "asc", "unmapped_type": "date"}},
		},
	}, nil
}

// riskFilter matches on the effective risk level: the leg's own level, or
// the journey's level when the leg has none.
func riskFilter(terms []string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []interface{}{
				map[string]interface{}{"terms": map[string]interface{}{"riskLevel": terms}},
				map[string]interface{}{
					"bool": map[string]interface{}{
						"must_not": map[string]interface{}{"exists": map[string]interface{}{"field": "riskLevel"}},
						"filter":   map[string]interface{}{"terms": map[string]interface{}{"journeyRiskLevel": terms}},
					},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

// riskTerms expands each level into the labels found in indexed documents,
// which carry the same loose forms ParseRiskLevel accepts.
func riskTerms(levels []matching.RiskLevel) []string {
	var terms []string
	for _, level := range levels {
		full := string(level)
		word := strings.TrimSuffix(full, "Sailing")
		lower := strings.ToLower(word)
		terms = append(terms,
			full,
			strings.ToLower(full),
			word,
			lower,
			word+" sailing",
			lower+" sailing",
			word+"_sailing",
			lower+"_sailing",
			lower+"-sailing",
		)
	}
	return terms
}

func isDate(s string) bool {
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crew-match-workers/internal/common/errors"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/matching"
	"crew-match-workers/internal/models"
)

func newTestSearch(t *testing.T, handler http.HandlerFunc) *LegSearch {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)
	return NewLegSearch(es, "legs", 100, logger.NewTestLogger(t))
}

const searchHits = `{
  "took": 3,
  "hits": {
    "total": {"value": 2},
    "hits": [
      {"_id": "leg-1", "_source": {"legId": "leg-1", "journeyId": "j1", "requiredSkills": ["Navigation"],
        "riskLevel": "OffshoreSailing", "minExperienceLevel": 2,
        "start": {"lat": 36.1, "lon": -5.3}, "end": {"lat": 28.1, "lon": -15.4}}},
      {"_id": "leg-2", "_source": {"journeyId": "j2", "journeyRiskLevel": "coastal"}}
    ]
  }
}`

func TestLegSearch_DecodesHits(t *testing.T) {
	var body map[string]interface{}
	search := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/legs/_search")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte(searchHits))
	})

	legs, err := search.Search(context.Background(), models.LegQuery{
		From:       "2026-05-01",
		RiskLevels: []string{"offshore"},
		Region:     "Canary Islands",
		Limit:      20,
	})
	require.NoError(t, err)
	require.Len(t, legs, 2)

	assert.Equal(t, "leg-1", legs[0].LegID)
	assert.True(t, legs[0].RequiredSkills.Has("navigation"))
	assert.InDelta(t, -5.3, legs[0].StartWaypoint.Lng, 1e-9)
	assert.Equal(t, "leg-2", legs[1].LegID)
	assert.Equal(t, matching.RiskCoastal, legs[1].EffectiveRiskLevel())
	assert.Nil(t, legs[1].StartWaypoint)

	require.NotNil(t, body)
	assert.EqualValues(t, 20, body["size"])
}

func TestLegSearch_Failures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		search := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
		})

		_, err := search.Search(context.Background(), models.LegQuery{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeLegSearchFailed, errors.AsStandardError(err).Code)
	})

	t.Run("timeout", func(t *testing.T) {
		search := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := search.Search(ctx, models.LegQuery{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeLegSearchTimeout, errors.AsStandardError(err).Code)
	})

	t.Run("bad query", func(t *testing.T) {
		search := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := search.Search(context.Background(), models.LegQuery{Region: "Atlantis"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidMatchInput, errors.AsStandardError(err).Code)
	})
}

func TestBuildLegQuery(t *testing.T) {
	tests := []struct {
		name        string
		query       models.LegQuery
		wantFilters int
		wantSize    int
		wantErr     bool
	}{
		{name: "match all", query: models.LegQuery{}, wantFilters: 0, wantSize: 100},
		{name: "date window", query: models.LegQuery{From: "2026-05-01", To: "2026-06-01T00:00:00Z"}, wantFilters: 1, wantSize: 100},
		{name: "limit capped", query: models.LegQuery{Limit: 1000}, wantFilters: 0, wantSize: 100},
		{
			name: "all filters",
			query: models.LegQuery{
				From:        "2026-05-01",
				RiskLevels:  []string{"Coastal", "ExtremeSailing"},
				BoundingBox: &matching.BoundingBox{MinLng: -6, MinLat: 35, MaxLng: 12, MaxLat: 44},
				Limit:       10,
			},
			wantFilters: 3,
			wantSize:    10,
		},
		{name: "bad date", query: models.LegQuery{From: "next tuesday"}, wantErr: true},
		{name: "unknown risk levels only", query: models.LegQuery{RiskLevels: []string{"lake"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := BuildLegQuery(tt.query, 100)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			filters := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
			assert.Len(t, filters, tt.wantFilters)
			assert.Equal(t, tt.wantSize, body["size"])
		})
	}
}

func TestBuildLegQuery_GeoBoxCorners(t *testing.T) {
	box := &matching.BoundingBox{MinLng: -6, MinLat: 35, MaxLng: 12, MaxLat: 44}
	body, err := BuildLegQuery(models.LegQuery{BoundingBox: box}, 10)
	require.NoError(t, err)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"top_left":{"lat":44,"lon":-6}`)
	assert.Contains(t, string(raw), `"bottom_right":{"lat":35,"lon":12}`)
}

func TestBuildLegQuery_RiskFallsBackToJourneyLevel(t *testing.T) {
	body, err := BuildLegQuery(models.LegQuery{RiskLevels: []string{"offshore"}}, 10)
	require.NoError(t, err)

	filters := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	require.Len(t, filters, 1)

	risk := filters[0].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Equal(t, 1, risk["minimum_should_match"])
	should := risk["should"].([]interface{})
	require.Len(t, should, 2)

	legTerms := should[0].(map[string]interface{})["terms"].(map[string]interface{})["riskLevel"].([]string)
	assert.Contains(t, legTerms, "OffshoreSailing")

	journey := should[1].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Equal(t,
		map[string]interface{}{"exists": map[string]interface{}{"field": "riskLevel"}},
		journey["must_not"])
	journeyTerms := journey["filter"].(map[string]interface{})["terms"].(map[string]interface{})["journeyRiskLevel"].([]string)
	assert.Equal(t, legTerms, journeyTerms)
}

func TestRiskTerms_CoverStoredLabels(t *testing.T) {
	terms := riskTerms([]matching.RiskLevel{matching.RiskCoastal})

	for _, label := range []string{"CoastalSailing", "coastal", "Coastal", "coastal_sailing", "Coastal sailing", "coastalsailing"} {
		assert.Contains(t, terms, label)
		level, ok := matching.ParseRiskLevel(label)
		require.True(t, ok, label)
		assert.Equal(t, matching.RiskCoastal, level)
	}
	for _, term := range terms {
		level, ok := matching.ParseRiskLevel(term)
		assert.True(t, ok, term)
		assert.Equal(t, matching.RiskCoastal, level, term)
	}
}

package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crew-match-workers/internal/common/errors"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/matching"
	"crew-match-workers/internal/models"
)

// ==========================
// Helpers
// ==========================

var profileColumns = []string{
	"user_id", "skills", "risk_levels", "experience_level", "preferred_departure", "preferred_arrival",
}

func profileRow(mock sqlmock.Sqlmock, userID string) {
	mock.ExpectQuery("SELECT (.+) FROM crew_profiles").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			userID,
			[]byte(`["Navigation", "night-watch"]`),
			[]byte(`["coastal", "not-a-level"]`),
			7,
			[]byte(`{"region":"Caribbean"}`),
			nil,
		))
}

func createTestProfileStore(t *testing.T, rdb *redis.Client) (*ProfileStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewProfileStore(db, rdb, ProfileStoreConfig{
		RedisTTL:       5 * time.Minute,
		LocalTTL:       time.Minute,
		LocalCacheSize: 100,
	}, logger.NewTestLogger(t))
	return store, mock
}

// ==========================
// Tiered lookup
// ==========================

func TestProfileStore_LoadsFromPostgresAndCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, mock := createTestProfileStore(t, rdb)

	profileRow(mock, "u1")

	p, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.Skills.Has("navigation"))
	assert.True(t, p.Skills.Has("night_watch"))
	assert.Equal(t, []matching.RiskLevel{matching.RiskCoastal}, p.RiskLevels)
	assert.Equal(t, matching.MaxExperienceLevel, p.ExperienceLevel)
	require.NotNil(t, p.PreferredDeparture)
	assert.True(t, p.PreferredDeparture.IsRegion())
	assert.Nil(t, p.PreferredArrival)

	assert.True(t, mr.Exists("crew:profile:u1"))
	assert.Greater(t, mr.TTL("crew:profile:u1"), time.Duration(0))

	// served from the in-process cache; no further query expected
	again, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Same(t, p, again)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStore_ServesFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, mock := createTestProfileStore(t, rdb)

	cached, err := json.Marshal(models.ProfileInput{
		UserID: "u2",
		Skills: []string{"Diesel Engine"},
	})
	require.NoError(t, err)
	require.NoError(t, mr.Set("crew:profile:u2", string(cached)))

	p, err := store.Get(context.Background(), "u2")
	require.NoError(t, err)
	assert.True(t, p.Skills.Has("diesel_engine"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStore_CorruptCacheFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, mock := createTestProfileStore(t, rdb)

	require.NoError(t, mr.Set("crew:profile:u1", "{not json"))
	profileRow(mock, "u1")

	p, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStore_RedisFailuresAreTolerated(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	store, mock := createTestProfileStore(t, rdb)

	redisMock.ExpectGet("crew:profile:u1").SetErr(stderrors.New("connection refused"))
	profileRow(mock, "u1")

	cachedData, err := json.Marshal(models.ProfileInput{
		UserID:             "u1",
		Skills:             []string{"Navigation", "night-watch"},
		RiskLevels:         []string{"coastal", "not-a-level"},
		ExperienceLevel:    7,
		PreferredDeparture: &models.LocationInput{Region: "Caribbean"},
	})
	require.NoError(t, err)
	redisMock.ExpectSet("crew:profile:u1", cachedData, 5*time.Minute).SetErr(stderrors.New("connection refused"))

	p, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestProfileStore_WithoutRedis(t *testing.T) {
	store, mock := createTestProfileStore(t, nil)
	profileRow(mock, "u1")

	_, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.NoError(t, store.Invalidate(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Failures
// ==========================

func TestProfileStore_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		wantCode errors.ErrorCode
	}{
		{
			name: "no row",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM crew_profiles").
					WithArgs("ghost").
					WillReturnRows(sqlmock.NewRows(profileColumns))
			},
			wantCode: errors.ErrCodeProfileNotFound,
		},
		{
			name: "query error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM crew_profiles").
					WithArgs("ghost").
					WillReturnError(stderrors.New("connection reset"))
			},
			wantCode: errors.ErrCodeProfileLookupFailed,
		},
		{
			name: "malformed skills column",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM crew_profiles").
					WithArgs("ghost").
					WillReturnRows(sqlmock.NewRows(profileColumns).
						AddRow("ghost", []byte(`{"oops":1}`), nil, nil, nil, nil))
			},
			wantCode: errors.ErrCodeProfileLookupFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := createTestProfileStore(t, nil)
			tt.setup(mock)

			_, err := store.Get(context.Background(), "ghost")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.AsStandardError(err).Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProfileStore_Invalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, mock := createTestProfileStore(t, rdb)

	profileRow(mock, "u1")
	_, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)

	require.NoError(t, store.Invalidate(context.Background(), "u1"))
	assert.False(t, mr.Exists("crew:profile:u1"))

	// both tiers are empty, so the next lookup goes back to Postgres
	profileRow(mock, "u1")
	_, err = store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStore_UnresolvableLocationIsDropped(t *testing.T) {
	store, mock := createTestProfileStore(t, nil)

	mock.ExpectQuery("SELECT (.+) FROM crew_profiles").
		WithArgs("u3").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"u3", []byte(`["navigation"]`), nil, nil,
			[]byte(`{"region":"Atlantis"}`),
			[]byte(`{"lat":43.3,"lng":5.4}`),
		))

	p, err := store.Get(context.Background(), "u3")
	require.NoError(t, err)
	assert.Nil(t, p.PreferredDeparture)
	require.NotNil(t, p.PreferredArrival)
	assert.InDelta(t, 43.3, p.PreferredArrival.Point.Lat, 1e-9)
	assert.Equal(t, 0, p.ExperienceLevel)
}

// internal/store/profiles.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/redis/go-redis/v9"

	"crew-match-workers/internal/common/errors"
	"crew-match-workers/internal/common/logger"
	"crew-match-workers/internal/common/metrics"
	"crew-match-workers/internal/matching"
	"crew-match-workers/internal/models"
)

const profileKeyPrefix = "crew:profile:"

const profileQuery = `
	SELECT user_id, skills, risk_levels, experience_level,
	       preferred_departure, preferred_arrival
	FROM crew_profiles
	WHERE user_id = $1`

// ProfileStoreConfig sizes the two cache tiers.
type ProfileStoreConfig struct {
	RedisTTL       time.Duration
	LocalTTL       time.Duration
	LocalCacheSize int
}

// ProfileStore loads crew profiles through an in-process cache, then the
// shared Redis cache, then PostgreSQL.
type ProfileStore struct {
	db     *sql.DB
	redis  *redis.Client
	local  *otter.Cache[string, *matching.CandidateProfile]
	config ProfileStoreConfig
	logger logger.Logger
}

// NewProfileStore builds a store. rdb may be nil to skip the shared cache.
func NewProfileStore(db *sql.DB, rdb *redis.Client, cfg ProfileStoreConfig, log logger.Logger) *ProfileStore {
	if cfg.LocalCacheSize <= 0 {
		cfg.LocalCacheSize = 10_000
	}
	if cfg.LocalTTL <= 0 {
		cfg.LocalTTL = 30 * time.Second
	}

	return &ProfileStore{
		db:    db,
		redis: rdb,
		local: otter.Must(&otter.Options[string, *matching.CandidateProfile]{
			MaximumSize:      cfg.LocalCacheSize,
			ExpiryCalculator: otter.ExpiryWriting[string, *matching.CandidateProfile](cfg.LocalTTL),
		}),
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "profile-store"}),
	}
}

// Get returns the profile for userID. The result is shared and must not be
// modified.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*matching.CandidateProfile, error) {
	if p, ok := s.local.GetIfPresent(userID); ok {
		metrics.ProfileLookups.WithLabelValues("local").Inc()
		return p, nil
	}

	if raw, ok := s.getShared(ctx, userID); ok {
		metrics.ProfileLookups.WithLabelValues("redis").Inc()
		p := s.convert(raw)
		s.local.Set(userID, p)
		return p, nil
	}

	raw, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics.ProfileLookups.WithLabelValues("postgres").Inc()

	s.putShared(ctx, raw)
	p := s.convert(raw)
	s.local.Set(userID, p)
	return p, nil
}

// Invalidate drops userID from both cache tiers.
func (s *ProfileStore) Invalidate(ctx context.Context, userID string) error {
	s.local.Invalidate(userID)
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, profileKeyPrefix+userID).Err(); err != nil {
		return errors.NewExternalServiceError("redis", err)
	}
	return nil
}

func (s *ProfileStore) getShared(ctx context.Context, userID string) (*models.ProfileInput, bool) {
	if s.redis == nil {
		return nil, false
	}

	val, err := s.redis.Get(ctx, profileKeyPrefix+userID).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("profile cache read failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
		return nil, false
	}

	var raw models.ProfileInput
	if err := json.Unmarshal([]byte(val), &raw); err != nil {
		s.logger.Warn("discarding corrupt cached profile", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, false
	}
	return &raw, true
}

func (s *ProfileStore) putShared(ctx context.Context, raw *models.ProfileInput) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, profileKeyPrefix+raw.UserID, data, s.config.RedisTTL).Err(); err != nil {
		s.logger.Warn("profile cache write failed", map[string]interface{}{
			"userId": raw.UserID,
			"error":  err.Error(),
		})
	}
}

func (s *ProfileStore) load(ctx context.Context, userID string) (*models.ProfileInput, error) {
	var (
		raw                models.ProfileInput
		skills, risks      []byte
		experience         sql.NullInt64
		departure, arrival []byte
	)

	err := s.db.QueryRowContext(ctx, profileQuery, userID).
		Scan(&raw.UserID, &skills, &risks, &experience, &departure, &arrival)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.NewProfileNotFoundError(userID)
	case err != nil:
		return nil, errors.NewProfileLookupFailedError(userID, err)
	}

	if err := decodeJSONColumn(skills, &raw.Skills); err != nil {
		return nil, errors.NewProfileLookupFailedError(userID, fmt.Errorf("skills: %w", err))
	}
	if err := decodeJSONColumn(risks, &raw.RiskLevels); err != nil {
		return nil, errors.NewProfileLookupFailedError(userID, fmt.Errorf("risk_levels: %w", err))
	}
	if experience.Valid {
		raw.ExperienceLevel = int(experience.Int64)
	}
	if err := decodeJSONColumn(departure, &raw.PreferredDeparture); err != nil {
		return nil, errors.NewProfileLookupFailedError(userID, fmt.Errorf("preferred_departure: %w", err))
	}
	if err := decodeJSONColumn(arrival, &raw.PreferredArrival); err != nil {
		return nil, errors.NewProfileLookupFailedError(userID, fmt.Errorf("preferred_arrival: %w", err))
	}

	return &raw, nil
}

func (s *ProfileStore) convert(raw *models.ProfileInput) *matching.CandidateProfile {
	p, problems := raw.ToCandidateLenient()
	for _, problem := range problems {
		s.logger.Warn("ignoring unusable location preference", map[string]interface{}{
			"userId": raw.UserID,
			"error":  problem.Error(),
		})
	}
	return p
}

// decodeJSONColumn unmarshals a nullable json/jsonb column. NULL leaves dst untouched.
func decodeJSONColumn(data []byte, dst interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, dst)
}

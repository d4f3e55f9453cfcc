package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/models"
	"sikep-admin-svc/src/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	fieldSession      = "session"
	fieldLastActivity = "last_activity_ms"
)

type Service interface {
	Save(ctx context.Context, s *session.Session) error
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	SaveLastActivity(ctx context.Context, sessionID string, at time.Time) error
	Delete(ctx context.Context, sessionID string) error
	SaveOfficialStats(ctx context.Context, stats *models.OfficialStats) error
	GetOfficialStats(ctx context.Context) (*models.OfficialStats, error)
	InvalidateOfficialStats(ctx context.Context) error
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache,
	}
}

func (c *cacheService) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", c.cfg.SessionKeyPrefix, sessionID)
}

func (c *cacheService) sessionTTL() time.Duration {
	return time.Duration(c.cfg.SessionExpirationMinutes) * time.Minute
}

// Save stores the session document and its last activity instant in one hash.
func (c *cacheService) Save(ctx context.Context, s *session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		logrus.WithError(err).WithField("session_id", s.ID).Error("Failed to marshal session for cache")
		return models.ErrRedisSet
	}

	key := c.sessionKey(s.ID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldSession:      string(data),
		fieldLastActivity: strconv.FormatInt(s.LastActivityAt.UnixMilli(), 10),
	})
	if ttl := c.sessionTTL(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithError(err).WithField("session_id", s.ID).Error("Failed to cache session")
		return models.ErrRedisSet
	}

	logrus.WithField("session_id", s.ID).Debug("Session cached successfully")
	return nil
}

func (c *cacheService) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	key := c.sessionKey(sessionID)

	values, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to get session from cache")
		return nil, models.ErrRedisGet
	}

	data, ok := values[fieldSession]
	if !ok {
		logrus.WithField("key", key).Debug("Session not found in cache")
		return nil, models.ErrSessionNotFound
	}

	var s session.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to unmarshal session from cache")
		return nil, models.ErrRedisGet
	}

	if raw, ok := values[fieldLastActivity]; ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			s.LastActivityAt = time.UnixMilli(ms)
		}
	}

	return &s, nil
}

// SaveLastActivity updates only the activity field and extends the TTL.
// A session that is no longer stored is left absent.
func (c *cacheService) SaveLastActivity(ctx context.Context, sessionID string, at time.Time) error {
	key := c.sessionKey(sessionID)

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to check session existence")
		return models.ErrRedisGet
	}
	if exists == 0 {
		return models.ErrSessionNotFound
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fieldLastActivity, strconv.FormatInt(at.UnixMilli(), 10))
	if ttl := c.sessionTTL(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to update session activity")
		return models.ErrRedisSet
	}

	logrus.WithField("key", key).Debug("Session activity updated successfully")
	return nil
}

func (c *cacheService) Delete(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, c.sessionKey(sessionID)).Err(); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to delete session from cache")
		return models.ErrRedisDelete
	}
	return nil
}

func (c *cacheService) SaveOfficialStats(ctx context.Context, stats *models.OfficialStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal official stats for cache")
		return models.ErrRedisSet
	}
	expiration := time.Minute * time.Duration(c.cfg.OfficialStatExpirationMinutes)
	err = c.client.Set(ctx, c.cfg.OfficialStatKey, data, expiration).Err()
	if err != nil {
		logrus.WithError(err).Error("Failed to cache official stats")
		return models.ErrRedisSet
	}
	return nil
}

// GetOfficialStats returns nil, nil on a cache miss.
func (c *cacheService) GetOfficialStats(ctx context.Context) (*models.OfficialStats, error) {
	data, err := c.client.Get(ctx, c.cfg.OfficialStatKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.Debug("Official stats not found in cache")
			return nil, nil
		}
		logrus.WithError(err).Error("Failed to get official stats from cache")
		return nil, models.ErrRedisGet
	}

	var stats models.OfficialStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal official stats from cache")
		return nil, models.ErrRedisGet
	}

	logrus.Debug("Official stats retrieved from cache successfully")
	return &stats, nil
}

func (c *cacheService) InvalidateOfficialStats(ctx context.Context) error {
	if err := c.client.Del(ctx, c.cfg.OfficialStatKey).Err(); err != nil {
		logrus.WithError(err).Error("Failed to invalidate official stats")
		return models.ErrRedisDelete
	}
	return nil
}

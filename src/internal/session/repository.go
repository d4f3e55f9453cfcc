package session

import (
	"context"
	"time"

	"sikep-admin-svc/src/clients"
	"sikep-admin-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// End reasons recorded in the session history.
const (
	EndReasonLogout        = "logout"
	EndReasonTimeout       = "timeout"
	EndReasonExpiredOnLoad = "expired_on_load"
	EndReasonUnauthorized  = "unauthorized"
)

// Record is one session's lifecycle as kept in the history collection.
type Record struct {
	SessionID string     `bson:"session_id"`
	UserID    int64      `bson:"user_id"`
	UserName  string     `bson:"user_name"`
	IsActive  bool       `bson:"is_active"`
	CreatedAt time.Time  `bson:"created_at"`
	LogoutAt  *time.Time `bson:"logout_at,omitempty"`
	EndReason string     `bson:"end_reason,omitempty"`
}

type repository struct {
	collection *mongo.Collection
}

type Repository interface {
	Create(ctx context.Context, s *Session) error
	End(ctx context.Context, sessionID, reason string, at time.Time) error
}

func NewSessionRepository(db *clients.MongoDB, collectionName string) Repository {
	collection := db.Database.Collection(collectionName)
	return &repository{collection: collection}
}

func (r *repository) Create(ctx context.Context, s *Session) error {
	record := Record{
		SessionID: s.ID,
		UserID:    s.User.ID,
		UserName:  s.User.Name,
		IsActive:  true,
		CreatedAt: s.CreatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		logrus.WithError(err).WithField("session_id", s.ID).Error("Failed to insert session record")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *repository) End(ctx context.Context, sessionID, reason string, at time.Time) error {
	filter := bson.M{
		"session_id": sessionID,
		"is_active":  true,
	}

	update := bson.M{
		"$set": bson.M{
			"is_active":  false,
			"logout_at":  at,
			"end_reason": reason,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to end session record")
		return models.ErrSessionUpdating
	}

	return nil
}

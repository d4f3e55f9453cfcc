package hierarchy

import (
	"context"

	"sikep-admin-svc/src/clients"
	"sikep-admin-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository journals reassignment runs.
type Repository interface {
	Insert(ctx context.Context, run *Run) error
	ListByOfficial(ctx context.Context, officialID int64, limit int) ([]*Run, error)
}

type runRepository struct {
	collection *mongo.Collection
}

func NewRunRepository(db *clients.MongoDB, collectionName string) Repository {
	return &runRepository{
		collection: db.Database.Collection(collectionName),
	}
}

func (r *runRepository) Insert(ctx context.Context, run *Run) error {
	if _, err := r.collection.InsertOne(ctx, run); err != nil {
		logrus.WithError(err).WithField("run_id", run.ID).Error("Failed to insert reassignment run")
		return models.ErrDatabaseInsert
	}
	return nil
}

func (r *runRepository) ListByOfficial(ctx context.Context, officialID int64, limit int) ([]*Run, error) {
	filter := bson.M{"official_id": officialID}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.M{"started_at": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logrus.WithError(err).WithField("official_id", officialID).Error("Failed to find reassignment runs")
		return nil, models.ErrDatabaseQuery
	}
	defer cursor.Close(ctx)

	runs := []*Run{}
	for cursor.Next(ctx) {
		var run Run
		if err := cursor.Decode(&run); err != nil {
			logrus.WithError(err).Error("Failed to decode reassignment run")
			continue
		}
		runs = append(runs, &run)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, models.ErrDatabaseQuery
	}

	return runs, nil
}

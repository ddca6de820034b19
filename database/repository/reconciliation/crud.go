package reconciliationRepo

import (
	"context"
	"errors"
	"time"

	"magicweekends/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrCaseNotFound = errors.New("reconciliation case not found")

// Create inserts a new case, filling in its id and timestamps when missing.
func (r *mongoReconciliationRepo) Create(ctx context.Context, c *models.ReconciliationCase) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.ReconciliationOpen
	}
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

// ListOpen returns unresolved cases, oldest first.
func (r *mongoReconciliationRepo) ListOpen(ctx context.Context) ([]models.ReconciliationCase, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"status": models.ReconciliationOpen}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	cases := []models.ReconciliationCase{}
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// Resolve closes an open case with a note.
func (r *mongoReconciliationRepo) Resolve(ctx context.Context, id, note string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.ReconciliationOpen},
		bson.M{"$set": bson.M{
			"status":    models.ReconciliationResolved,
			"note":      note,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCaseNotFound
	}
	return nil
}

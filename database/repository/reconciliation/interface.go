package reconciliationRepo

import (
	"context"
	"fmt"
	"time"

	"magicweekends/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "reconciliation_cases"

// ReconciliationRepository stores payments whose verification did not succeed.
type ReconciliationRepository interface {
	Create(ctx context.Context, c *models.ReconciliationCase) error
	ListOpen(ctx context.Context) ([]models.ReconciliationCase, error)
	Resolve(ctx context.Context, id, note string) error
}

type mongoReconciliationRepo struct {
	coll *mongo.Collection
}

// NewMongoReconciliationRepo returns a ReconciliationRepository backed by db.
func NewMongoReconciliationRepo(db *mongo.Database) (ReconciliationRepository, error) {
	repo := &mongoReconciliationRepo{coll: db.Collection(collectionName)}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *mongoReconciliationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "gatewayPaymentId", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

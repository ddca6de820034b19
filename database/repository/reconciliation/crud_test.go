package reconciliationRepo

import (
	"context"
	"testing"

	"magicweekends/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestReconciliationRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create fills defaults", func(mt *mtest.T) {
		repo := &mongoReconciliationRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		c := &models.ReconciliationCase{SessionID: "s1", BookingID: "b1", GatewayPaymentID: "pay_1", Reason: "not confirmed"}
		require.NoError(mt, repo.Create(context.Background(), c))
		assert.NotEmpty(mt, c.ID)
		assert.Equal(mt, models.ReconciliationOpen, c.Status)
		assert.False(mt, c.CreatedAt.IsZero())
	})

	mt.Run("list open", func(mt *mtest.T) {
		repo := &mongoReconciliationRepo{coll: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{{Key: "id", Value: "c1"}, {Key: "bookingId", Value: "b1"}, {Key: "status", Value: "open"}})
		last := mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
			bson.D{{Key: "id", Value: "c2"}, {Key: "bookingId", Value: "b2"}, {Key: "status", Value: "open"}})
		mt.AddMockResponses(first, last)

		cases, err := repo.ListOpen(context.Background())
		require.NoError(mt, err)
		require.Len(mt, cases, 2)
		assert.Equal(mt, "c1", cases[0].ID)
		assert.Equal(mt, "b2", cases[1].BookingID)
	})

	mt.Run("resolve", func(mt *mtest.T) {
		repo := &mongoReconciliationRepo{coll: mt.Coll}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})
		assert.NoError(mt, repo.Resolve(context.Background(), "c1", "refunded"))

		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})
		assert.ErrorIs(mt, repo.Resolve(context.Background(), "c9", "n/a"), ErrCaseNotFound)
	})
}

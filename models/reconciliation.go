package models

import "time"

const (
	ReconciliationOpen     = "open"
	ReconciliationResolved = "resolved"
)

// ReconciliationCase records a payment whose verification failed and needs a manual check.
type ReconciliationCase struct {
	ID               string    `bson:"id" json:"id"`
	SessionID        string    `bson:"sessionId" json:"sessionId"`
	BookingID        string    `bson:"bookingId" json:"bookingId"`
	GatewayOrderID   string    `bson:"gatewayOrderId" json:"gatewayOrderId"`
	GatewayPaymentID string    `bson:"gatewayPaymentId" json:"gatewayPaymentId"`
	Email            string    `bson:"email" json:"email"`
	Amount           float64   `bson:"amount" json:"amount"`
	Reason           string    `bson:"reason" json:"reason"`
	Status           string    `bson:"status" json:"status"`
	Note             string    `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

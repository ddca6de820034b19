// Package catalog reads trips from the storefront catalog and hands the booking
// wizard a normalized snapshot.
package catalog

import (
	"context"
	"errors"

	"magicweekends/models"
)

var ErrTripNotFound = errors.New("trip not found")

// TripProvider resolves a trip by id and type.
type TripProvider interface {
	GetTrip(ctx context.Context, id string, tripType models.TripType) (*models.TripSnapshot, error)
}

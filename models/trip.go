package models

type TripType string

const (
	TripTypeNormal  TripType = "normal"
	TripTypeWeekend TripType = "weekend"
)

func (t TripType) Valid() bool {
	return t == TripTypeNormal || t == TripTypeWeekend
}

// TripSnapshot is the read-only view of a catalog trip used while booking.
// PricePerPerson is already normalized by the catalog adapter.
type TripSnapshot struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	DurationLabel  string   `json:"duration"`
	PricePerPerson float64  `json:"pricePerPerson"`
	Type           TripType `json:"type"`
}

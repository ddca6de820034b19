package bookingapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"magicweekends/models"
	"magicweekends/services/pricing"
)

// upstreamBooking accepts the loosely typed booking rows the API returns:
// ids and amounts arrive as numbers or strings depending on the row.
type upstreamBooking struct {
	ID             json.RawMessage `json:"id"`
	MongoID        json.RawMessage `json:"_id"`
	TripID         json.RawMessage `json:"trip_id"`
	TripType       string          `json:"trip_type"`
	FullName       string          `json:"full_name"`
	Email          string          `json:"email"`
	TravelDate     string          `json:"travel_date"`
	NumberOfPeople json.RawMessage `json:"number_of_people"`
	TotalAmount    json.RawMessage `json:"total_amount"`
	BookingStatus  *string         `json:"booking_status"`
	PaymentStatus  *string         `json:"payment_status"`
	CreatedAt      string          `json:"created_at"`
}

func (u upstreamBooking) toRecord() models.BookingRecord {
	id := rawID(u.ID)
	if id == "" {
		id = rawID(u.MongoID)
	}
	total := rawNumber(u.TotalAmount)
	deposit := pricing.Deposit(total, 1)

	bookingStatus := models.BookingStatusPending
	if u.BookingStatus != nil && *u.BookingStatus != "" {
		bookingStatus = models.BookingStatus(strings.ToLower(*u.BookingStatus))
	}
	paymentStatus := models.PaymentStatusUnpaid
	if u.PaymentStatus != nil && *u.PaymentStatus != "" {
		paymentStatus = models.PaymentStatus(strings.ToLower(*u.PaymentStatus))
	}

	return models.BookingRecord{
		ID:             id,
		TripID:         rawID(u.TripID),
		TripType:       models.TripType(u.TripType),
		FullName:       u.FullName,
		Email:          u.Email,
		TravelDate:     u.TravelDate,
		NumberOfPeople: int(rawNumber(u.NumberOfPeople)),
		TotalAmount:    total,
		Deposit:        deposit,
		Balance:        total - deposit,
		BookingStatus:  bookingStatus,
		PaymentStatus:  paymentStatus,
		CreatedAt:      u.CreatedAt,
	}
}

// rawID renders a JSON string or number id as text.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func rawNumber(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return 0
}

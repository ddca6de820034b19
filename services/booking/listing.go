package booking

import (
	"context"
	"strings"

	"magicweekends/models"
)

// StatusAll disables the status filter of MyBookings.
const StatusAll = "all"

// Summarize filters records by status and counts them. Counters always cover
// the full list; Active counts everything not cancelled.
func Summarize(records []models.BookingRecord, status string) models.BookingSummary {
	sum := models.BookingSummary{
		Bookings: []models.BookingRecord{},
		Total:    len(records),
		ByStatus: map[models.BookingStatus]int{
			models.BookingStatusPending:   0,
			models.BookingStatusConfirmed: 0,
			models.BookingStatusCancelled: 0,
		},
	}
	for _, r := range records {
		sum.ByStatus[r.BookingStatus]++
		if r.BookingStatus != models.BookingStatusCancelled {
			sum.Active++
		}
		if status == "" || status == StatusAll || string(r.BookingStatus) == status {
			sum.Bookings = append(sum.Bookings, r)
		}
	}
	return sum
}

func validStatusFilter(status string) bool {
	switch models.BookingStatus(status) {
	case "", StatusAll, models.BookingStatusPending, models.BookingStatusConfirmed, models.BookingStatusCancelled:
		return true
	}
	return false
}

// MyBookings lists the bookings made with email.
func (s *DefaultWizardService) MyBookings(ctx context.Context, email string, status string) (*models.BookingSummary, error) {
	email = strings.TrimSpace(email)
	status = strings.ToLower(strings.TrimSpace(status))

	errs := ValidationErrors{}
	if email == "" {
		errs["email"] = "Email is required"
	} else if !emailPattern.MatchString(email) {
		errs["email"] = "Invalid email format"
	}
	if !validStatusFilter(status) {
		errs["status"] = "Unknown booking status"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	records, err := s.API.GetUserBookings(ctx, email)
	if err != nil {
		return nil, err
	}
	sum := Summarize(records, status)
	return &sum, nil
}

func (s *DefaultWizardService) GetBooking(ctx context.Context, bookingID string) (*models.BookingRecord, error) {
	return s.API.GetBooking(ctx, bookingID)
}

func (s *DefaultWizardService) CancelBooking(ctx context.Context, bookingID string) error {
	return s.API.CancelBooking(ctx, bookingID)
}

package models

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// BookingRecord is a server-owned booking as listed on the my-bookings screen.
type BookingRecord struct {
	ID             string        `json:"id"`
	TripID         string        `json:"trip_id,omitempty"`
	TripType       TripType      `json:"trip_type"`
	FullName       string        `json:"full_name,omitempty"`
	Email          string        `json:"email,omitempty"`
	TravelDate     string        `json:"travel_date"`
	NumberOfPeople int           `json:"number_of_people"`
	TotalAmount    float64       `json:"total_amount"`
	Deposit        float64       `json:"deposit"`
	Balance        float64       `json:"balance"`
	BookingStatus  BookingStatus `json:"booking_status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	CreatedAt      string        `json:"created_at,omitempty"`
}

// BookingSummary is the my-bookings listing with its per-status counters.
type BookingSummary struct {
	Bookings []BookingRecord       `json:"bookings"`
	Total    int                   `json:"total"`
	Active   int                   `json:"active"`
	ByStatus map[BookingStatus]int `json:"byStatus"`
}

package booking

import (
	"fmt"
	"io"
	"strings"

	"magicweekends/models"
)

// NextSteps is shown on every confirmation.
var NextSteps = []string{
	"Check your email for booking confirmation and payment details",
	"Complete the payment using your selected payment method",
	"Share the transaction ID/reference number with us",
	"We'll confirm your payment and send you the final itinerary",
}

// Confirmation is the read-only receipt for a confirmed booking.
type Confirmation struct {
	BookingID     string            `json:"bookingId"`
	Email         string            `json:"email"`
	FullName      string            `json:"fullName"`
	TripTitle     string            `json:"tripTitle"`
	Duration      string            `json:"duration,omitempty"`
	TravelDate    string            `json:"travelDate"`
	Travelers     int               `json:"travelers"`
	PaymentMethod string            `json:"paymentMethod"`
	Quote         models.PriceQuote `json:"quote"`
	NextSteps     []string          `json:"nextSteps"`
	SupportEmail  string            `json:"supportEmail,omitempty"`
	SupportPhone  string            `json:"supportPhone,omitempty"`
}

// Present builds the confirmation. It is only available once the booking is confirmed.
func Present(w *Wizard, supportEmail, supportPhone string) (*Confirmation, error) {
	if w.State != models.StateConfirmed {
		return nil, ErrNotConfirmed
	}
	date := ""
	if w.Draft.TravelDate != nil {
		date = w.Draft.TravelDate.Format(travelDateLayout)
	}
	return &Confirmation{
		BookingID:     w.BookingID,
		Email:         w.Draft.Contact.Email,
		FullName:      w.Draft.Contact.FullName,
		TripTitle:     w.Trip.Title,
		Duration:      w.Trip.DurationLabel,
		TravelDate:    date,
		Travelers:     w.Draft.TravelerCount,
		PaymentMethod: string(w.Draft.PaymentMethod),
		Quote:         w.Quote(),
		NextSteps:     append([]string(nil), NextSteps...),
		SupportEmail:  supportEmail,
		SupportPhone:  supportPhone,
	}, nil
}

// Print writes a plain text receipt.
func (c *Confirmation) Print(out io.Writer) error {
	var b strings.Builder
	fmt.Fprintln(&b, "Booking Confirmed!")
	fmt.Fprintf(&b, "Booking reference: #%s\n", c.BookingID)
	fmt.Fprintln(&b, "Please save this reference number for future correspondence.")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Trip:        %s\n", c.TripTitle)
	if c.Duration != "" {
		fmt.Fprintf(&b, "Duration:    %s\n", c.Duration)
	}
	fmt.Fprintf(&b, "Travel date: %s\n", c.TravelDate)
	fmt.Fprintf(&b, "Travelers:   %d\n", c.Travelers)
	fmt.Fprintf(&b, "Lead guest:  %s <%s>\n", c.FullName, c.Email)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Total:       ₹%.2f\n", c.Quote.Total)
	fmt.Fprintf(&b, "Token (10%%): ₹%.2f\n", c.Quote.Deposit)
	fmt.Fprintf(&b, "Balance:     ₹%.2f\n", c.Quote.Balance)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "A confirmation email has been sent to %s.\n", c.Email)
	fmt.Fprintln(&b, "Next steps:")
	for i, step := range c.NextSteps {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
	}
	if c.SupportEmail != "" || c.SupportPhone != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Need help?")
		if c.SupportEmail != "" {
			fmt.Fprintf(&b, "  Email: %s\n", c.SupportEmail)
		}
		if c.SupportPhone != "" {
			fmt.Fprintf(&b, "  Phone: %s\n", c.SupportPhone)
		}
	}
	_, err := io.WriteString(out, b.String())
	return err
}

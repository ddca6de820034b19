package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"magicweekends/models"
)

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
)

func travelerNameKey(i int) string { return fmt.Sprintf("travelers[%d].name", i) }

// ValidateContact checks step one. The travel date must be strictly after now.
func ValidateContact(d models.BookingDraft, now time.Time) ValidationErrors {
	errs := ValidationErrors{}
	if strings.TrimSpace(d.Contact.FullName) == "" {
		errs["fullName"] = "Name is required"
	}
	switch email := strings.TrimSpace(d.Contact.Email); {
	case email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Invalid email format"
	}
	switch phone := strings.TrimSpace(d.Contact.Phone); {
	case phone == "":
		errs["phone"] = "Phone is required"
	case !phonePattern.MatchString(phone):
		errs["phone"] = "Invalid phone number"
	}
	switch {
	case d.TravelDate == nil:
		errs["travelDate"] = "Travel date is required"
	case !d.TravelDate.After(now):
		errs["travelDate"] = "Date must be in the future"
	}
	switch {
	case d.TravelerCount < 1:
		errs["travelerCount"] = "At least 1 person required"
	case d.TravelerCount > models.MaxTravelers:
		errs["travelerCount"] = fmt.Sprintf("At most %d people per booking", models.MaxTravelers)
	}
	return errs
}

// ValidateTravelers checks step two: every traveler needs a name.
func ValidateTravelers(d models.BookingDraft) ValidationErrors {
	errs := ValidationErrors{}
	for i, t := range d.Travelers {
		if strings.TrimSpace(t.Name) == "" {
			errs[travelerNameKey(i)] = "Name is required"
		}
	}
	return errs
}

// ValidatePayment checks step three.
func ValidatePayment(d models.BookingDraft) ValidationErrors {
	errs := ValidationErrors{}
	if !d.PaymentMethod.Valid() {
		errs["paymentMethod"] = "Please select a payment method"
	}
	return errs
}

// ValidateStep runs the validator for a form step. Review has none.
func ValidateStep(state models.WizardState, d models.BookingDraft, now time.Time) ValidationErrors {
	switch state {
	case models.StateContactDetails:
		return ValidateContact(d, now)
	case models.StateTravelers:
		return ValidateTravelers(d)
	case models.StatePayment:
		return ValidatePayment(d)
	}
	return ValidationErrors{}
}

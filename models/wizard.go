package models

// WizardState is the position of a booking wizard. The step number shown to the
// customer is derived from it.
type WizardState string

const (
	StateContactDetails     WizardState = "contact_details"
	StateTravelers          WizardState = "travelers"
	StatePayment            WizardState = "payment"
	StateReview             WizardState = "review"
	StateSubmitting         WizardState = "submitting"
	StateAwaitingPayment    WizardState = "awaiting_payment"
	StateVerifying          WizardState = "verifying"
	StateConfirmed          WizardState = "confirmed"
	StateVerificationFailed WizardState = "verification_failed"
)

// Step returns the 1-based form step for the state. Every state past the
// review form reports step 4.
func (s WizardState) Step() int {
	switch s {
	case StateContactDetails:
		return 1
	case StateTravelers:
		return 2
	case StatePayment:
		return 3
	default:
		return 4
	}
}

// Editable reports whether the draft may still be changed in this state.
func (s WizardState) Editable() bool {
	switch s {
	case StateContactDetails, StateTravelers, StatePayment, StateReview:
		return true
	}
	return false
}

// Loading is true while a request to the booking API is outstanding.
func (s WizardState) Loading() bool {
	return s == StateSubmitting || s == StateVerifying
}

// PriceQuote is the derived pricing for a draft.
type PriceQuote struct {
	UnitPrice float64 `json:"unitPrice"`
	Travelers int     `json:"travelers"`
	Total     float64 `json:"total"`
	Deposit   float64 `json:"deposit"`
	Balance   float64 `json:"balance"`
}

// WizardView is what the storefront renders for a wizard session.
type WizardView struct {
	SessionID       string            `json:"sessionId"`
	State           WizardState       `json:"state"`
	CurrentStep     int               `json:"currentStep"`
	Loading         bool              `json:"loading"`
	BookingComplete bool              `json:"bookingComplete"`
	Trip            TripSnapshot      `json:"trip"`
	Draft           BookingDraft      `json:"draft"`
	Errors          map[string]string `json:"errors"`
	Quote           PriceQuote        `json:"quote"`
	BookingID       string            `json:"bookingId,omitempty"`
	Message         string            `json:"message,omitempty"`
	Checkout        *CheckoutOptions  `json:"checkout,omitempty"`
}

package booking

import (
	"fmt"
	"strings"
	"time"

	"magicweekends/models"
	"magicweekends/services/pricing"
)

const travelDateLayout = "2006-01-02"

// Wizard is one customer's pass through the booking form. All transitions are
// synchronous; the service serializes access per session.
type Wizard struct {
	SessionID string                  `json:"sessionId"`
	State     models.WizardState      `json:"state"`
	Trip      models.TripSnapshot     `json:"trip"`
	Draft     models.BookingDraft     `json:"draft"`
	Errors    ValidationErrors        `json:"errors"`
	Order     *models.PendingOrder    `json:"order,omitempty"`
	Checkout  *models.CheckoutOptions `json:"checkout,omitempty"`
	BookingID string                  `json:"bookingId,omitempty"`
	Message   string                  `json:"message,omitempty"`
	OpenedAt  time.Time               `json:"openedAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// NewWizard opens a wizard for trip.
func NewWizard(sessionID string, trip models.TripSnapshot, now time.Time) *Wizard {
	w := &Wizard{SessionID: sessionID}
	w.Open(trip, now)
	return w
}

// Open resets the wizard onto trip. It is unconditional.
func (w *Wizard) Open(trip models.TripSnapshot, now time.Time) {
	w.Trip = trip
	w.OpenedAt = now
	w.UpdatedAt = now
	w.Reset()
}

// Reset discards the draft and every submission artifact.
func (w *Wizard) Reset() {
	w.State = models.StateContactDetails
	w.Draft = models.NewBookingDraft()
	w.Errors = ValidationErrors{}
	w.Order = nil
	w.Checkout = nil
	w.BookingID = ""
	w.Message = ""
}

func (w *Wizard) checkEditable() error {
	switch {
	case w.State.Loading(), w.State == models.StateAwaitingPayment:
		return ErrBusy
	case !w.State.Editable():
		return ErrInvalidTransition
	}
	return nil
}

func (w *Wizard) clearError(key string) {
	delete(w.Errors, key)
}

// ApplyContact applies the step one form. Nothing is applied when any field
// in the update is malformed.
func (w *Wizard) ApplyContact(u models.ContactUpdate) error {
	if err := w.checkEditable(); err != nil {
		return err
	}

	var date *time.Time
	if u.TravelDate != nil && strings.TrimSpace(*u.TravelDate) != "" {
		d, err := time.Parse(travelDateLayout, strings.TrimSpace(*u.TravelDate))
		if err != nil {
			return ValidationErrors{"travelDate": "Travel date must be in YYYY-MM-DD format"}
		}
		date = &d
	}
	if u.TravelerCount != nil {
		if errs := checkTravelerCount(*u.TravelerCount); errs != nil {
			return errs
		}
	}

	if u.FullName != nil {
		w.Draft.Contact.FullName = *u.FullName
		w.clearError("fullName")
	}
	if u.Email != nil {
		w.Draft.Contact.Email = *u.Email
		w.clearError("email")
	}
	if u.Phone != nil {
		w.Draft.Contact.Phone = *u.Phone
		w.clearError("phone")
	}
	if u.TravelDate != nil {
		w.Draft.TravelDate = date
		w.clearError("travelDate")
	}
	if u.TravelerCount != nil {
		w.resizeTravelers(*u.TravelerCount)
	}
	if u.SpecialRequest != nil {
		w.Draft.SpecialRequest = *u.SpecialRequest
	}
	return nil
}

func checkTravelerCount(n int) ValidationErrors {
	switch {
	case n < 1:
		return ValidationErrors{"travelerCount": "At least 1 person required"}
	case n > models.MaxTravelers:
		return ValidationErrors{"travelerCount": fmt.Sprintf("At most %d people per booking", models.MaxTravelers)}
	}
	return nil
}

// SetTravelerCount changes the party size and resizes the traveler roster.
func (w *Wizard) SetTravelerCount(n int) error {
	if err := w.checkEditable(); err != nil {
		return err
	}
	if errs := checkTravelerCount(n); errs != nil {
		return errs
	}
	w.resizeTravelers(n)
	return nil
}

// resizeTravelers keeps len(Travelers) == TravelerCount. Growing appends blank
// records, shrinking drops the tail, retained records are untouched.
func (w *Wizard) resizeTravelers(n int) {
	cur := w.Draft.Travelers
	switch {
	case n > len(cur):
		for i := len(cur); i < n; i++ {
			cur = append(cur, models.TravelerRecord{})
		}
	case n < len(cur):
		for i := n; i < len(cur); i++ {
			w.clearError(travelerNameKey(i))
		}
		cur = cur[:n:n]
	}
	w.Draft.Travelers = cur
	w.Draft.TravelerCount = n
	w.clearError("travelerCount")
}

// UpdateTraveler applies a partial update to traveler i.
func (w *Wizard) UpdateTraveler(i int, p models.TravelerPatch) error {
	if err := w.checkEditable(); err != nil {
		return err
	}
	if i < 0 || i >= len(w.Draft.Travelers) {
		return ErrTravelerIndex
	}

	errs := ValidationErrors{}
	if p.Age != nil && (*p.Age < 1 || *p.Age > 120) {
		errs[fmt.Sprintf("travelers[%d].age", i)] = "Invalid age"
	}
	if p.Gender != nil && !p.Gender.Valid() {
		errs[fmt.Sprintf("travelers[%d].gender", i)] = "Invalid gender"
	}
	if p.IDProofType != nil && !p.IDProofType.Valid() {
		errs[fmt.Sprintf("travelers[%d].idProofType", i)] = "Invalid ID proof type"
	}
	if len(errs) > 0 {
		return errs
	}

	t := &w.Draft.Travelers[i]
	if p.Name != nil {
		t.Name = *p.Name
		w.clearError(travelerNameKey(i))
	}
	if p.Age != nil {
		age := *p.Age
		t.Age = &age
	}
	if p.Gender != nil {
		t.Gender = *p.Gender
	}
	if p.IDProofType != nil {
		t.IDProofType = *p.IDProofType
	}
	return nil
}

// SetTravelerProof attaches an identity document to traveler i; nil removes it.
func (w *Wizard) SetTravelerProof(i int, a *models.Attachment) error {
	if err := w.checkEditable(); err != nil {
		return err
	}
	if i < 0 || i >= len(w.Draft.Travelers) {
		return ErrTravelerIndex
	}
	w.Draft.Travelers[i].IDProof = a
	return nil
}

// SetPaymentMethod records the customer's chosen method. The empty value unsets it.
func (w *Wizard) SetPaymentMethod(m models.PaymentMethod) error {
	if err := w.checkEditable(); err != nil {
		return err
	}
	if m != "" && !m.Valid() {
		return ValidationErrors{"paymentMethod": "Please select a payment method"}
	}
	w.Draft.PaymentMethod = m
	w.clearError("paymentMethod")
	return nil
}

var nextState = map[models.WizardState]models.WizardState{
	models.StateContactDetails: models.StateTravelers,
	models.StateTravelers:      models.StatePayment,
	models.StatePayment:        models.StateReview,
}

// Next validates the current step and advances exactly one step when it passes.
// On failure the errors replace the stored ones and the state is unchanged.
func (w *Wizard) Next(now time.Time) error {
	if err := w.checkEditable(); err != nil {
		return err
	}
	to, ok := nextState[w.State]
	if !ok {
		return ErrInvalidTransition
	}
	errs := ValidateStep(w.State, w.Draft, now)
	w.Errors = errs
	if len(errs) > 0 {
		return errs.clone()
	}
	w.State = to
	return nil
}

var prevState = map[models.WizardState]models.WizardState{
	models.StateTravelers: models.StateContactDetails,
	models.StatePayment:   models.StateTravelers,
	models.StateReview:    models.StatePayment,
}

// Back moves one step back without validation. It is a no-op on step one.
func (w *Wizard) Back() error {
	if err := w.checkEditable(); err != nil {
		return err
	}
	if to, ok := prevState[w.State]; ok {
		w.State = to
	}
	return nil
}

// BeginSubmit raises the loading guard. The whole draft is re-checked because
// the travel date may have lapsed since step one.
func (w *Wizard) BeginSubmit(now time.Time) error {
	switch {
	case w.State.Loading(), w.State == models.StateAwaitingPayment:
		return ErrBusy
	case w.State != models.StateReview:
		return ErrInvalidTransition
	}

	errs := ValidateContact(w.Draft, now)
	for k, v := range ValidateTravelers(w.Draft) {
		errs[k] = v
	}
	for k, v := range ValidatePayment(w.Draft) {
		errs[k] = v
	}
	if len(errs) > 0 {
		w.Errors = errs
		return errs.clone()
	}

	w.State = models.StateSubmitting
	w.Message = ""
	return nil
}

// SubmissionFailed returns to review with the draft intact.
func (w *Wizard) SubmissionFailed(message string) error {
	if w.State != models.StateSubmitting {
		return ErrInvalidTransition
	}
	w.State = models.StateReview
	w.Message = message
	return nil
}

// AwaitPayment records the pending order and the checkout handed to the customer.
func (w *Wizard) AwaitPayment(order models.PendingOrder, checkout models.CheckoutOptions) error {
	if w.State != models.StateSubmitting {
		return ErrInvalidTransition
	}
	w.State = models.StateAwaitingPayment
	w.Order = &order
	w.Checkout = &checkout
	return nil
}

// PaymentDismissed returns to review; the upstream pending order is left as is.
func (w *Wizard) PaymentDismissed() error {
	if w.State != models.StateAwaitingPayment {
		return ErrInvalidTransition
	}
	w.State = models.StateReview
	w.Checkout = nil
	return nil
}

// BeginVerify raises the loading guard for verification. Besides the normal
// path from awaiting_payment, a late gateway result may be verified from
// review or verification_failed as long as an order exists.
func (w *Wizard) BeginVerify() error {
	switch w.State {
	case models.StateAwaitingPayment:
	case models.StateReview, models.StateVerificationFailed:
		if w.Order == nil {
			return ErrInvalidTransition
		}
	case models.StateSubmitting, models.StateVerifying:
		return ErrBusy
	default:
		return ErrInvalidTransition
	}
	w.State = models.StateVerifying
	w.Checkout = nil
	w.Message = ""
	return nil
}

// Confirm completes the booking.
func (w *Wizard) Confirm(bookingID string) error {
	if w.State != models.StateVerifying {
		return ErrInvalidTransition
	}
	w.State = models.StateConfirmed
	w.BookingID = bookingID
	w.Message = ""
	return nil
}

// VerificationFailed parks the wizard until the customer closes it.
func (w *Wizard) VerificationFailed(message string) error {
	if w.State != models.StateVerifying {
		return ErrInvalidTransition
	}
	w.State = models.StateVerificationFailed
	w.Message = message
	return nil
}

// Quote prices the current draft.
func (w *Wizard) Quote() models.PriceQuote {
	return pricing.Quote(w.Trip, w.Draft.TravelerCount)
}

// View renders the wizard for the storefront. Attachment contents are omitted.
func (w *Wizard) View() models.WizardView {
	draft := w.Draft
	draft.Travelers = make([]models.TravelerRecord, len(w.Draft.Travelers))
	for i, t := range w.Draft.Travelers {
		if t.IDProof != nil {
			meta := *t.IDProof
			meta.Data = nil
			t.IDProof = &meta
		}
		draft.Travelers[i] = t
	}

	errs := make(map[string]string, len(w.Errors))
	for k, v := range w.Errors {
		errs[k] = v
	}

	return models.WizardView{
		SessionID:       w.SessionID,
		State:           w.State,
		CurrentStep:     w.State.Step(),
		Loading:         w.State.Loading(),
		BookingComplete: w.State == models.StateConfirmed,
		Trip:            w.Trip,
		Draft:           draft,
		Errors:          errs,
		Quote:           w.Quote(),
		BookingID:       w.BookingID,
		Message:         w.Message,
		Checkout:        w.Checkout,
	}
}

package booking

import (
	"testing"
	"time"

	"magicweekends/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow  = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	testTrip = models.TripSnapshot{ID: "t1", Title: "Coorg Escape", DurationLabel: "2N/3D", PricePerPerson: 1000, Type: models.TripTypeNormal}
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func validContact() models.ContactUpdate {
	return models.ContactUpdate{
		FullName:   strPtr("Asha Rao"),
		Email:      strPtr("asha@example.com"),
		Phone:      strPtr("+91 98765-43210"),
		TravelDate: strPtr("2026-11-20"),
	}
}

// reviewWizard returns a wizard filled in and advanced to review.
func reviewWizard(t *testing.T, travelers int) *Wizard {
	t.Helper()
	w := NewWizard("s1", testTrip, testNow)
	u := validContact()
	u.TravelerCount = intPtr(travelers)
	require.NoError(t, w.ApplyContact(u))
	require.NoError(t, w.Next(testNow))
	for i := 0; i < travelers; i++ {
		require.NoError(t, w.UpdateTraveler(i, models.TravelerPatch{Name: strPtr("Traveler")}))
	}
	require.NoError(t, w.Next(testNow))
	require.NoError(t, w.SetPaymentMethod(models.PaymentMethodPaytm))
	require.NoError(t, w.Next(testNow))
	require.Equal(t, models.StateReview, w.State)
	return w
}

func TestTravelerCountInvariant(t *testing.T) {
	w := NewWizard("s1", testTrip, testNow)
	require.Len(t, w.Draft.Travelers, 1)

	for _, n := range []int{3, 7, 2, 20, 1, 5} {
		before := append([]models.TravelerRecord(nil), w.Draft.Travelers...)
		for i := range w.Draft.Travelers {
			require.NoError(t, w.UpdateTraveler(i, models.TravelerPatch{Name: strPtr(string(rune('A' + i))), Age: intPtr(20 + i)}))
			before[i] = w.Draft.Travelers[i]
		}

		require.NoError(t, w.SetTravelerCount(n))
		assert.Equal(t, n, w.Draft.TravelerCount)
		require.Len(t, w.Draft.Travelers, n)
		for i := 0; i < n && i < len(before); i++ {
			assert.Equal(t, before[i], w.Draft.Travelers[i], "traveler %d after resize to %d", i, n)
		}
		for i := len(before); i < n; i++ {
			assert.Equal(t, models.TravelerRecord{}, w.Draft.Travelers[i])
		}
	}
}

func TestTravelerCountOutOfRangeIsRejected(t *testing.T) {
	w := NewWizard("s1", testTrip, testNow)
	require.NoError(t, w.SetTravelerCount(4))

	for _, n := range []int{0, -1, models.MaxTravelers + 1} {
		err := w.SetTravelerCount(n)
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs, "travelerCount")
		assert.Equal(t, 4, w.Draft.TravelerCount)
		assert.Len(t, w.Draft.Travelers, 4)
	}
}

func TestApplyContactIsAllOrNothing(t *testing.T) {
	w := NewWizard("s1", testTrip, testNow)
	u := validContact()
	u.TravelDate = strPtr("20/11/2026")

	var verrs ValidationErrors
	require.ErrorAs(t, w.ApplyContact(u), &verrs)
	assert.Contains(t, verrs, "travelDate")
	assert.Empty(t, w.Draft.Contact.FullName)
}

func TestEmptyEmailBlocksStepOne(t *testing.T) {
	w := NewWizard("s1", testTrip, testNow)
	u := validContact()
	u.Email = strPtr("")
	require.NoError(t, w.ApplyContact(u))

	err := w.Next(testNow)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Email is required", verrs["email"])
	assert.Equal(t, models.StateContactDetails, w.State)
	assert.Equal(t, 1, w.View().CurrentStep)
	assert.Equal(t, "Email is required", w.View().Errors["email"])
}

func TestStepOneValidation(t *testing.T) {
	cases := map[string]struct {
		mutate func(u *models.ContactUpdate)
		field  string
		msg    string
	}{
		"blank name":    {func(u *models.ContactUpdate) { u.FullName = strPtr("   ") }, "fullName", "Name is required"},
		"bad email":     {func(u *models.ContactUpdate) { u.Email = strPtr("asha.example.com") }, "email", "Invalid email format"},
		"no phone":      {func(u *models.ContactUpdate) { u.Phone = strPtr("") }, "phone", "Phone is required"},
		"short phone":   {func(u *models.ContactUpdate) { u.Phone = strPtr("98765") }, "phone", "Invalid phone number"},
		"letters phone": {func(u *models.ContactUpdate) { u.Phone = strPtr("98765abcde12") }, "phone", "Invalid phone number"},
		"no date":       {func(u *models.ContactUpdate) { u.TravelDate = strPtr("") }, "travelDate", "Travel date is required"},
		"past date":     {func(u *models.ContactUpdate) { u.TravelDate = strPtr("2026-10-01") }, "travelDate", "Date must be in the future"},
		"today":         {func(u *models.ContactUpdate) { u.TravelDate = strPtr("2026-10-17") }, "travelDate", "Date must be in the future"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := NewWizard("s1", testTrip, testNow)
			u := validContact()
			tc.mutate(&u)
			require.NoError(t, w.ApplyContact(u))

			var verrs ValidationErrors
			require.ErrorAs(t, w.Next(testNow), &verrs)
			assert.Equal(t, map[string]string{tc.field: tc.msg}, map[string]string(verrs))
			assert.Equal(t, models.StateContactDetails, w.State)
		})
	}
}

func TestStepGating(t *testing.T) {
	w := NewWizard("s1", testTrip, testNow)
	require.NoError(t, w.ApplyContact(validContact()))
	require.NoError(t, w.SetTravelerCount(2))

	require.NoError(t, w.Next(testNow))
	assert.Equal(t, 2, w.State.Step())
	assert.Empty(t, w.Errors)

	require.NoError(t, w.UpdateTraveler(0, models.TravelerPatch{Name: strPtr("Asha")}))
	var verrs ValidationErrors
	require.ErrorAs(t, w.Next(testNow), &verrs)
	assert.Equal(t, ValidationErrors{"travelers[1].name": "Name is required"}, verrs)
	assert.Equal(t, 2, w.State.Step())

	require.NoError(t, w.UpdateTraveler(1, models.TravelerPatch{Name: strPtr("Ravi")}))
	assert.Empty(t, w.Errors, "editing a field clears its error")
	require.NoError(t, w.Next(testNow))
	assert.Equal(t, 3, w.State.Step())

	require.ErrorAs(t, w.Next(testNow), &verrs)
	assert.Equal(t, "Please select a payment method", verrs["paymentMethod"])
	assert.Equal(t, 3, w.State.Step())

	require.NoError(t, w.SetPaymentMethod(models.PaymentMethodBankTransfer))
	require.NoError(t, w.Next(testNow))
	assert.Equal(t, models.StateReview, w.State)
	assert.Equal(t, 4, w.State.Step())

	assert.ErrorIs(t, w.Next(testNow), ErrInvalidTransition)
}

func TestBackIsUngated(t *testing.T) {
	w := reviewWizard(t, 1)
	require.NoError(t, w.SetPaymentMethod(""))
	require.NoError(t, w.Back())
	assert.Equal(t, models.StatePayment, w.State)
	require.NoError(t, w.Back())
	require.NoError(t, w.Back())
	assert.Equal(t, models.StateContactDetails, w.State)
	require.NoError(t, w.Back())
	assert.Equal(t, models.StateContactDetails, w.State)
}

func TestOpenResetsLeftoverState(t *testing.T) {
	leftovers := []func(w *Wizard){
		func(w *Wizard) {},
		func(w *Wizard) { w.Next(testNow) },
		func(w *Wizard) {
			w.BeginSubmit(testNow)
			w.AwaitPayment(models.PendingOrder{BookingID: "b1", GatewayOrderID: "o", GatewayPublicKey: "k"}, models.CheckoutOptions{})
			w.BeginVerify()
			w.Confirm("b1")
		},
		func(w *Wizard) {
			w.BeginSubmit(testNow)
			w.AwaitPayment(models.PendingOrder{BookingID: "b1", GatewayOrderID: "o", GatewayPublicKey: "k"}, models.CheckoutOptions{})
			w.BeginVerify()
			w.VerificationFailed("nope")
		},
	}
	for i, leave := range leftovers {
		w := reviewWizard(t, 2)
		leave(w)

		w.Open(testTrip, testNow)
		v := w.View()
		assert.Equal(t, 1, v.CurrentStep, "case %d", i)
		assert.False(t, v.BookingComplete, "case %d", i)
		assert.Empty(t, v.Errors, "case %d", i)
		assert.Empty(t, v.BookingID, "case %d", i)
		assert.Equal(t, models.NewBookingDraft(), w.Draft, "case %d", i)
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	w := reviewWizard(t, 3)
	draft := w.Draft

	require.NoError(t, w.BeginSubmit(testNow))
	assert.True(t, w.View().Loading)
	assert.ErrorIs(t, w.BeginSubmit(testNow), ErrBusy)
	assert.ErrorIs(t, w.SetPaymentMethod(models.PaymentMethodCash), ErrBusy)

	require.NoError(t, w.SubmissionFailed("Trip is full"))
	assert.Equal(t, models.StateReview, w.State)
	assert.False(t, w.View().Loading)
	assert.Equal(t, "Trip is full", w.Message)
	assert.Equal(t, draft, w.Draft)

	order := models.PendingOrder{BookingID: "b1", GatewayOrderID: "order_1", GatewayPublicKey: "rzp"}
	require.NoError(t, w.BeginSubmit(testNow))
	require.NoError(t, w.AwaitPayment(order, models.CheckoutOptions{OrderID: "order_1"}))
	assert.False(t, w.View().Loading)
	assert.ErrorIs(t, w.BeginSubmit(testNow), ErrBusy)

	require.NoError(t, w.PaymentDismissed())
	assert.Equal(t, models.StateReview, w.State)
	assert.Nil(t, w.Checkout)
	assert.Equal(t, draft, w.Draft)

	require.NoError(t, w.BeginSubmit(testNow))
	require.NoError(t, w.AwaitPayment(order, models.CheckoutOptions{}))
	require.NoError(t, w.BeginVerify())
	assert.True(t, w.View().Loading)
	require.NoError(t, w.Confirm("b1"))

	v := w.View()
	assert.True(t, v.BookingComplete)
	assert.False(t, v.Loading)
	assert.Equal(t, 4, v.CurrentStep)
	assert.Equal(t, "b1", v.BookingID)
}

func TestBeginSubmitRechecksDraft(t *testing.T) {
	w := reviewWizard(t, 1)
	later := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	var verrs ValidationErrors
	require.ErrorAs(t, w.BeginSubmit(later), &verrs)
	assert.Contains(t, verrs, "travelDate")
	assert.Equal(t, models.StateReview, w.State)
}

func TestBeginSubmitOnlyFromReview(t *testing.T) {
	w := NewWizard("s1", testTrip, testNow)
	assert.ErrorIs(t, w.BeginSubmit(testNow), ErrInvalidTransition)
}

func TestVerificationFailureIsTerminalUntilClose(t *testing.T) {
	w := reviewWizard(t, 1)
	require.NoError(t, w.BeginSubmit(testNow))
	require.NoError(t, w.AwaitPayment(models.PendingOrder{BookingID: "b1", GatewayOrderID: "o", GatewayPublicKey: "k"}, models.CheckoutOptions{}))
	require.NoError(t, w.BeginVerify())
	require.NoError(t, w.VerificationFailed("contact support"))

	v := w.View()
	assert.False(t, v.BookingComplete)
	assert.False(t, v.Loading)
	assert.Equal(t, "contact support", v.Message)
	assert.ErrorIs(t, w.Back(), ErrInvalidTransition)
	assert.ErrorIs(t, w.SetTravelerCount(2), ErrInvalidTransition)
	_, err := Present(w, "", "")
	assert.ErrorIs(t, err, ErrNotConfirmed)
}

func TestViewOmitsAttachmentData(t *testing.T) {
	w := NewWizard("s1", testTrip, testNow)
	require.NoError(t, w.SetTravelerProof(0, &models.Attachment{Filename: "id.png", ContentType: "image/png", Size: 3, Data: []byte{1, 2, 3}}))

	v := w.View()
	require.NotNil(t, v.Draft.Travelers[0].IDProof)
	assert.Equal(t, "id.png", v.Draft.Travelers[0].IDProof.Filename)
	assert.Nil(t, v.Draft.Travelers[0].IDProof.Data)
	assert.Equal(t, []byte{1, 2, 3}, w.Draft.Travelers[0].IDProof.Data)
}

func TestUpdateTravelerValidatesEnums(t *testing.T) {
	w := NewWizard("s1", testTrip, testNow)
	bad := models.Gender("robot")

	var verrs ValidationErrors
	require.ErrorAs(t, w.UpdateTraveler(0, models.TravelerPatch{Gender: &bad}), &verrs)
	assert.Contains(t, verrs, "travelers[0].gender")
	assert.ErrorIs(t, w.UpdateTraveler(3, models.TravelerPatch{}), ErrTravelerIndex)
}

func TestUpdateTravelerAgeBounds(t *testing.T) {
	w := NewWizard("s1", testTrip, testNow)

	for _, age := range []int{0, -3, 121} {
		var verrs ValidationErrors
		require.ErrorAs(t, w.UpdateTraveler(0, models.TravelerPatch{Age: intPtr(age)}), &verrs, "age %d", age)
		assert.Equal(t, "Invalid age", verrs["travelers[0].age"])
	}
	assert.Nil(t, w.Draft.Travelers[0].Age)

	require.NoError(t, w.UpdateTraveler(0, models.TravelerPatch{Age: intPtr(1)}))
	require.NoError(t, w.UpdateTraveler(0, models.TravelerPatch{Age: intPtr(120)}))
	assert.Equal(t, 120, *w.Draft.Travelers[0].Age)
}

func TestQuoteFollowsDraft(t *testing.T) {
	w := reviewWizard(t, 3)
	q := w.View().Quote
	assert.Equal(t, models.PriceQuote{UnitPrice: 1000, Travelers: 3, Total: 3000, Deposit: 300, Balance: 2700}, q)
}

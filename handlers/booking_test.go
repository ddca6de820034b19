package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"magicweekends/models"
	"magicweekends/services/booking"
	"magicweekends/services/bookingapi"
	"magicweekends/services/catalog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeWizards implements the calls under test; the embedded interface panics on anything else.
type fakeWizards struct {
	booking.WizardService

	open         func(tripID string, tt models.TripType) (*models.WizardView, error)
	get          func(id string) (*models.WizardView, error)
	next         func(id string) (*models.WizardView, error)
	book         func(id string) (*models.WizardView, error)
	callback     func(id string, r models.PaymentResult) (*models.WizardView, error)
	confirmation func(id string) (*booking.Confirmation, error)
	myBookings   func(email, status string) (*models.BookingSummary, error)
	cancel       func(id string) error

	attachedIndex int
	attached      *models.Attachment
}

func (f *fakeWizards) Open(_ context.Context, tripID string, tt models.TripType) (*models.WizardView, error) {
	return f.open(tripID, tt)
}
func (f *fakeWizards) Get(_ context.Context, id string) (*models.WizardView, error) { return f.get(id) }
func (f *fakeWizards) Next(_ context.Context, id string) (*models.WizardView, error) {
	return f.next(id)
}
func (f *fakeWizards) Book(_ context.Context, id string) (*models.WizardView, error) {
	return f.book(id)
}
func (f *fakeWizards) PaymentCallback(_ context.Context, id string, r models.PaymentResult) (*models.WizardView, error) {
	return f.callback(id, r)
}
func (f *fakeWizards) Confirmation(_ context.Context, id string) (*booking.Confirmation, error) {
	return f.confirmation(id)
}
func (f *fakeWizards) MyBookings(_ context.Context, email, status string) (*models.BookingSummary, error) {
	return f.myBookings(email, status)
}
func (f *fakeWizards) CancelBooking(_ context.Context, id string) error { return f.cancel(id) }
func (f *fakeWizards) AttachIDProof(_ context.Context, id string, index int, a *models.Attachment) (*models.WizardView, error) {
	f.attachedIndex = index
	f.attached = a
	return &models.WizardView{SessionID: id, State: models.StateTravelers}, nil
}

func newTestRouter(svc booking.WizardService) *gin.Engine {
	h := NewBookingHandler(svc, zap.NewNop())
	hb := NewHandlerBundle(h, nil)
	r := gin.New()
	r.POST("/wizard", hb.OpenWizard)
	r.GET("/wizard/:id", hb.GetWizard)
	r.POST("/wizard/:id/next", hb.NextStep)
	r.POST("/wizard/:id/book", hb.Book)
	r.POST("/wizard/:id/payment/callback", hb.PaymentCallback)
	r.PUT("/wizard/:id/travelers/:index/id-proof", hb.UploadIDProof)
	r.GET("/wizard/:id/confirmation", hb.Confirmation)
	r.GET("/bookings", hb.MyBookings)
	r.DELETE("/bookings/:bookingId", hb.CancelBooking)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOpenWizardDefaultsTripType(t *testing.T) {
	svc := &fakeWizards{open: func(tripID string, tt models.TripType) (*models.WizardView, error) {
		assert.Equal(t, "t1", tripID)
		assert.Equal(t, models.TripTypeNormal, tt)
		return &models.WizardView{SessionID: "s1", State: models.StateContactDetails, CurrentStep: 1}, nil
	}}
	w := doJSON(newTestRouter(svc), http.MethodPost, "/wizard", gin.H{"tripId": "t1"})

	require.Equal(t, http.StatusCreated, w.Code)
	var view models.WizardView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "s1", view.SessionID)
	assert.Equal(t, 1, view.CurrentStep)
}

func TestNextWithValidationErrorsReturnsFieldsAndWizard(t *testing.T) {
	svc := &fakeWizards{next: func(id string) (*models.WizardView, error) {
		errs := booking.ValidationErrors{"email": "Invalid email format"}
		return &models.WizardView{SessionID: id, State: models.StateContactDetails, Errors: errs}, errs
	}}
	w := doJSON(newTestRouter(svc), http.MethodPost, "/wizard/s1/next", nil)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body wizardErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid email format", body.Fields["email"])
	require.NotNil(t, body.Wizard)
	assert.Equal(t, models.StateContactDetails, body.Wizard.State)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"session", booking.ErrSessionNotFound, http.StatusNotFound},
		{"trip", fmt.Errorf("failed to load trip: %w", catalog.ErrTripNotFound), http.StatusNotFound},
		{"busy", booking.ErrBusy, http.StatusConflict},
		{"transition", booking.ErrInvalidTransition, http.StatusConflict},
		{"upstream 404", &bookingapi.APIError{Status: 404, Message: "Booking not found"}, http.StatusNotFound},
		{"upstream odd", &bookingapi.APIError{Status: 302, Message: "moved"}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeWizards{get: func(string) (*models.WizardView, error) { return nil, tc.err }}
			w := doJSON(newTestRouter(svc), http.MethodGet, "/wizard/s1", nil)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestBookSubmissionFailureReturnsServerMessage(t *testing.T) {
	svc := &fakeWizards{book: func(id string) (*models.WizardView, error) {
		view := &models.WizardView{SessionID: id, State: models.StateReview, Message: "Trip is sold out"}
		return view, &bookingapi.SubmissionError{Message: "Trip is sold out", Status: 400}
	}}
	w := doJSON(newTestRouter(svc), http.MethodPost, "/wizard/s1/book", nil)

	require.Equal(t, http.StatusBadGateway, w.Code)
	var body wizardErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Trip is sold out", body.Message)
	require.NotNil(t, body.Wizard)
	assert.Equal(t, models.StateReview, body.Wizard.State)
}

func TestBookReturnsCheckoutOptions(t *testing.T) {
	svc := &fakeWizards{book: func(id string) (*models.WizardView, error) {
		return &models.WizardView{
			SessionID: id,
			State:     models.StateAwaitingPayment,
			BookingID: "b1",
			Checkout:  &models.CheckoutOptions{Key: "rzp_test", Amount: 300000, Currency: "INR", OrderID: "order_1"},
		}, nil
	}}
	w := doJSON(newTestRouter(svc), http.MethodPost, "/wizard/s1/book", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var view models.WizardView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotNil(t, view.Checkout)
	assert.Equal(t, int64(300000), view.Checkout.Amount)
	assert.Equal(t, "order_1", view.Checkout.OrderID)
}

func TestPaymentCallback(t *testing.T) {
	var got models.PaymentResult
	svc := &fakeWizards{callback: func(id string, r models.PaymentResult) (*models.WizardView, error) {
		got = r
		return &models.WizardView{SessionID: id, State: models.StateVerificationFailed, Message: bookingapi.VerificationMessage}, nil
	}}
	r := newTestRouter(svc)

	w := doJSON(r, http.MethodPost, "/wizard/s1/payment/callback", gin.H{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "sig",
	})
	require.Equal(t, http.StatusOK, w.Code, "a failed verification is still a rendered state")
	assert.Equal(t, "pay_1", got.GatewayPaymentID)
	assert.Contains(t, w.Body.String(), "verification_failed")

	w = doJSON(r, http.MethodPost, "/wizard/s1/payment/callback", gin.H{"razorpay_order_id": "order_1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadIDProof(t *testing.T) {
	svc := &fakeWizards{}
	r := newTestRouter(svc)

	upload := func(path, filename string, data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, _ = part.Write(data)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPut, path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	w := upload("/wizard/s1/travelers/1/id-proof", "passport.pdf", pdf)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.attached)
	assert.Equal(t, 1, svc.attachedIndex)
	assert.Equal(t, "passport.pdf", svc.attached.Filename)
	assert.Equal(t, "application/pdf", svc.attached.ContentType)
	assert.Equal(t, int64(len(pdf)), svc.attached.Size)

	w = upload("/wizard/s1/travelers/0/id-proof", "notes.txt", []byte("just some text"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = upload("/wizard/s1/travelers/x/id-proof", "passport.pdf", pdf)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmationFormats(t *testing.T) {
	conf := &booking.Confirmation{
		BookingID: "b42",
		Email:     "asha@example.com",
		FullName:  "Asha Rao",
		TripTitle: "Coorg Escape",
		Travelers: 3,
		Quote:     models.PriceQuote{UnitPrice: 1000, Travelers: 3, Total: 3000, Deposit: 300, Balance: 2700},
		NextSteps: booking.NextSteps,
	}
	svc := &fakeWizards{confirmation: func(id string) (*booking.Confirmation, error) {
		if id == "pending" {
			return nil, booking.ErrNotConfirmed
		}
		return conf, nil
	}}
	r := newTestRouter(svc)

	w := doJSON(r, http.MethodGet, "/wizard/s1/confirmation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bookingId":"b42"`)

	w = doJSON(r, http.MethodGet, "/wizard/s1/confirmation?format=text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "#b42")
	assert.Contains(t, w.Body.String(), "asha@example.com")

	w = doJSON(r, http.MethodGet, "/wizard/pending/confirmation", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMyBookingsAndCancel(t *testing.T) {
	svc := &fakeWizards{
		myBookings: func(email, status string) (*models.BookingSummary, error) {
			if email == "" {
				return nil, booking.ValidationErrors{"email": "Email is required"}
			}
			assert.Equal(t, "confirmed", status)
			return &models.BookingSummary{
				Bookings: []models.BookingRecord{{ID: "b1", BookingStatus: models.BookingStatusConfirmed}},
				Total:    2,
				Active:   1,
			}, nil
		},
		cancel: func(id string) error {
			if id == "missing" {
				return &bookingapi.APIError{Status: 404, Message: "Booking not found"}
			}
			return nil
		},
	}
	r := newTestRouter(svc)

	w := doJSON(r, http.MethodGet, "/bookings?email=asha@example.com&status=confirmed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sum models.BookingSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 2, sum.Total)
	require.Len(t, sum.Bookings, 1)

	w = doJSON(r, http.MethodGet, "/bookings", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodDelete, "/bookings/b1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, "/bookings/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookLogsGatewayOrder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := &fakeWizards{book: func(id string) (*models.WizardView, error) {
		return &models.WizardView{
			SessionID: id,
			State:     models.StateAwaitingPayment,
			Checkout:  &models.CheckoutOptions{Amount: 300000, OrderID: "order_1"},
		}, nil
	}}
	hb := NewHandlerBundle(NewBookingHandler(svc, zap.New(core)), nil)
	r := gin.New()
	r.POST("/wizard/:id/book", hb.Book)

	w := doJSON(r, http.MethodPost, "/wizard/s1/book", nil)
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("Booking submitted").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "order_1", fields["gatewayOrderID"])
	assert.Equal(t, "s1", fields["sessionID"])
	assert.NotContains(t, fields, "bookingID")
}

func TestHandlersPreferRequestLogger(t *testing.T) {
	handlerCore, handlerLogs := observer.New(zap.InfoLevel)
	requestCore, requestLogs := observer.New(zap.InfoLevel)
	svc := &fakeWizards{cancel: func(string) error { return nil }}
	hb := NewHandlerBundle(NewBookingHandler(svc, zap.New(handlerCore)), nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("logger", zap.New(requestCore).With(zap.String("requestID", "req-1")))
		c.Next()
	})
	r.DELETE("/bookings/:bookingId", hb.CancelBooking)

	w := doJSON(r, http.MethodDelete, "/bookings/b1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 0, handlerLogs.Len())
	entries := requestLogs.FilterMessage("Booking cancelled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-1", entries[0].ContextMap()["requestID"])
}

// Package booking hosts the storefront booking wizard: form steps, order
// submission, the hosted checkout round trip and payment verification.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"magicweekends/models"
	"magicweekends/services/bookingapi"
	"magicweekends/services/catalog"
	"magicweekends/services/gateway"
	"magicweekends/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingAPI is the upstream booking REST API.
type BookingAPI interface {
	CreateBooking(ctx context.Context, draft models.BookingDraft, trip models.TripSnapshot) (*models.PendingOrder, error)
	VerifyPayment(ctx context.Context, proof models.PaymentProof) error
	GetUserBookings(ctx context.Context, email string) ([]models.BookingRecord, error)
	GetBooking(ctx context.Context, id string) (*models.BookingRecord, error)
	CancelBooking(ctx context.Context, id string) error
}

// ReconciliationRecorder stores payments that could not be verified.
type ReconciliationRecorder interface {
	Create(ctx context.Context, c *models.ReconciliationCase) error
}

// WizardService drives booking wizards on behalf of the storefront. Mutating
// calls return the updated view; a ValidationErrors result also carries the view.
type WizardService interface {
	Open(ctx context.Context, tripID string, tripType models.TripType) (*models.WizardView, error)
	Get(ctx context.Context, sessionID string) (*models.WizardView, error)
	UpdateContact(ctx context.Context, sessionID string, u models.ContactUpdate) (*models.WizardView, error)
	SetTravelerCount(ctx context.Context, sessionID string, n int) (*models.WizardView, error)
	UpdateTraveler(ctx context.Context, sessionID string, index int, p models.TravelerPatch) (*models.WizardView, error)
	AttachIDProof(ctx context.Context, sessionID string, index int, a *models.Attachment) (*models.WizardView, error)
	SetPaymentMethod(ctx context.Context, sessionID string, m models.PaymentMethod) (*models.WizardView, error)
	Next(ctx context.Context, sessionID string) (*models.WizardView, error)
	Back(ctx context.Context, sessionID string) (*models.WizardView, error)
	Close(ctx context.Context, sessionID string) error
	Book(ctx context.Context, sessionID string) (*models.WizardView, error)
	PaymentCallback(ctx context.Context, sessionID string, result models.PaymentResult) (*models.WizardView, error)
	DismissCheckout(ctx context.Context, sessionID string) (*models.WizardView, error)
	Confirmation(ctx context.Context, sessionID string) (*Confirmation, error)
	MyBookings(ctx context.Context, email string, status string) (*models.BookingSummary, error)
	GetBooking(ctx context.Context, bookingID string) (*models.BookingRecord, error)
	CancelBooking(ctx context.Context, bookingID string) error
}

// Options tunes DefaultWizardService. StaleAfter is how long a session may
// stay in a loading state before Close is allowed to discard it anyway; it
// should exceed the booking API timeout.
type Options struct {
	SessionTTL   time.Duration
	StaleAfter   time.Duration
	SupportEmail string
	SupportPhone string
	Now          func() time.Time
}

// Outcomes of upstream calls are written back with a few retries, since the
// upstream side effect cannot be undone.
var (
	storeAttempts   = 4
	storeRetryDelay = 50 * time.Millisecond
)

func withRetry(fn func() error) error {
	delay := storeRetryDelay
	var err error
	for i := 0; i < storeAttempts; i++ {
		if err = fn(); err == nil || errors.Is(err, ErrSessionNotFound) {
			return err
		}
		if i < storeAttempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}

func (s *DefaultWizardService) loadRetrying(ctx context.Context, id string) (*Wizard, error) {
	var w *Wizard
	err := withRetry(func() error {
		var err error
		w, err = s.Store.Load(ctx, id)
		return err
	})
	return w, err
}

func (s *DefaultWizardService) saveRetrying(ctx context.Context, w *Wizard) error {
	w.UpdatedAt = s.now()
	return withRetry(func() error { return s.Store.Save(ctx, w) })
}

// stale reports whether a loading wizard has outlived any request that could
// still clear it.
func (s *DefaultWizardService) stale(w *Wizard) bool {
	return s.now().Sub(w.UpdatedAt) >= s.Options.StaleAfter
}

// DefaultWizardService implements WizardService. Per-session locks assume a
// single service instance.
type DefaultWizardService struct {
	Store          SessionStore
	Trips          catalog.TripProvider
	API            BookingAPI
	Gateway        *gateway.Bridge
	Reconciliation ReconciliationRecorder
	Options        Options

	locks    sessionLocks
	flowsMu  sync.Mutex
	flows    map[string]*paymentFlow
	stop     chan struct{}
	stopOnce sync.Once
}

func NewWizardService(store SessionStore, trips catalog.TripProvider, api BookingAPI, bridge *gateway.Bridge, recon ReconciliationRecorder, opts Options) *DefaultWizardService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 2 * time.Minute
	}
	return &DefaultWizardService{
		Store:          store,
		Trips:          trips,
		API:            api,
		Gateway:        bridge,
		Reconciliation: recon,
		Options:        opts,
		locks:          sessionLocks{m: make(map[string]*lockEntry)},
		flows:          make(map[string]*paymentFlow),
		stop:           make(chan struct{}),
	}
}

// Stop ends every pending checkout wait.
func (s *DefaultWizardService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *DefaultWizardService) now() time.Time { return s.Options.Now() }

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

// lock serializes work on one session and returns the matching unlock.
func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &lockEntry{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

func viewOf(w *Wizard) *models.WizardView {
	v := w.View()
	return &v
}

// mutate loads, changes and saves a wizard under its session lock. Validation
// failures are saved too, since Next records its errors on the wizard.
func (s *DefaultWizardService) mutate(ctx context.Context, id string, fn func(w *Wizard) error) (*models.WizardView, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	w, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		w.UpdatedAt = s.now()
		if saveErr := s.Store.Save(ctx, w); saveErr != nil {
			return nil, saveErr
		}
		return viewOf(w), err
	}
	w.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, w); err != nil {
		return nil, err
	}
	return viewOf(w), nil
}

func (s *DefaultWizardService) Open(ctx context.Context, tripID string, tripType models.TripType) (*models.WizardView, error) {
	logger := utils.GetLogger()

	errs := ValidationErrors{}
	if tripID == "" {
		errs["tripId"] = "Trip is required"
	}
	if !tripType.Valid() {
		errs["tripType"] = "Unknown trip type"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	trip, err := s.Trips.GetTrip(ctx, tripID, tripType)
	if err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}

	w := NewWizard(uuid.New().String(), *trip, s.now())
	if err := s.Store.Save(ctx, w); err != nil {
		return nil, err
	}
	logger.Info("Booking wizard opened",
		zap.String("sessionID", w.SessionID),
		zap.String("tripID", trip.ID),
		zap.String("tripType", string(trip.Type)))
	return viewOf(w), nil
}

func (s *DefaultWizardService) Get(ctx context.Context, id string) (*models.WizardView, error) {
	w, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(w), nil
}

func (s *DefaultWizardService) UpdateContact(ctx context.Context, id string, u models.ContactUpdate) (*models.WizardView, error) {
	return s.mutate(ctx, id, func(w *Wizard) error { return w.ApplyContact(u) })
}

func (s *DefaultWizardService) SetTravelerCount(ctx context.Context, id string, n int) (*models.WizardView, error) {
	return s.mutate(ctx, id, func(w *Wizard) error { return w.SetTravelerCount(n) })
}

func (s *DefaultWizardService) UpdateTraveler(ctx context.Context, id string, index int, p models.TravelerPatch) (*models.WizardView, error) {
	return s.mutate(ctx, id, func(w *Wizard) error { return w.UpdateTraveler(index, p) })
}

func (s *DefaultWizardService) AttachIDProof(ctx context.Context, id string, index int, a *models.Attachment) (*models.WizardView, error) {
	return s.mutate(ctx, id, func(w *Wizard) error { return w.SetTravelerProof(index, a) })
}

func (s *DefaultWizardService) SetPaymentMethod(ctx context.Context, id string, m models.PaymentMethod) (*models.WizardView, error) {
	return s.mutate(ctx, id, func(w *Wizard) error { return w.SetPaymentMethod(m) })
}

func (s *DefaultWizardService) Next(ctx context.Context, id string) (*models.WizardView, error) {
	return s.mutate(ctx, id, func(w *Wizard) error { return w.Next(s.now()) })
}

func (s *DefaultWizardService) Back(ctx context.Context, id string) (*models.WizardView, error) {
	return s.mutate(ctx, id, func(w *Wizard) error { return w.Back() })
}

// Close discards the session. A checkout still open for it is dismissed; an
// upstream pending order is left to expire on its own. A loading session is
// only discarded once it is stale.
func (s *DefaultWizardService) Close(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	w, err := s.Store.Load(ctx, id)
	if err != nil {
		return err
	}
	if w.State.Loading() && !s.stale(w) {
		return ErrBusy
	}
	if f, ok := s.flow(id); ok {
		f.checkout.Dismiss()
	}
	w.Reset()
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	utils.GetLogger().Info("Booking wizard closed", zap.String("sessionID", id))
	return nil
}

// Book submits the reviewed draft and opens the hosted checkout. The session
// lock is not held across the upstream call; the submitting state keeps other
// mutations out in the meantime.
func (s *DefaultWizardService) Book(ctx context.Context, id string) (*models.WizardView, error) {
	logger := utils.GetLogger()

	view, w, err := s.beginSubmit(ctx, id)
	if err != nil || view != nil {
		return view, err
	}

	var order *models.PendingOrder
	submitErr := safely(func() error {
		var err error
		order, err = s.API.CreateBooking(ctx, w.Draft, w.Trip)
		return err
	})
	if submitErr == nil && order == nil {
		submitErr = errors.New("booking api returned no order")
	}

	// The outcome is recorded even when the caller has gone away. While the
	// wizard is submitting nothing else may change it, so the copy taken by
	// beginSubmit stands in when the store cannot be read back.
	ctx = context.WithoutCancel(ctx)
	unlock := s.locks.lock(id)
	defer unlock()

	stored, err := s.loadRetrying(ctx, id)
	switch {
	case err == nil:
		w = stored
	case errors.Is(err, ErrSessionNotFound):
		if submitErr == nil {
			logger.Error("Booking session vanished with a pending order",
				zap.String("sessionID", id), zap.String("bookingID", order.BookingID), zap.Error(err))
		}
		return nil, err
	default:
		logger.Warn("Failed to reload booking session, using submitted copy", zap.String("sessionID", id), zap.Error(err))
	}

	if submitErr != nil {
		subErr := asSubmissionError(submitErr)
		logger.Warn("Booking submission failed", zap.String("sessionID", id), zap.Error(submitErr))
		return s.failSubmission(ctx, w, subErr)
	}

	checkout, err := s.Gateway.Open(id, *order, gateway.CheckoutRequest{
		Title:   w.Trip.Title,
		Total:   w.Quote().Total,
		Contact: w.Draft.Contact,
	})
	if err != nil {
		logger.Error("Failed to open checkout", zap.String("sessionID", id), zap.Error(err))
		return s.failSubmission(ctx, w, &bookingapi.SubmissionError{Message: bookingapi.DefaultSubmissionMessage, Err: err})
	}

	if err := w.AwaitPayment(*order, checkout.Options); err != nil {
		s.Gateway.Release(checkout)
		return nil, err
	}
	if err := s.saveRetrying(ctx, w); err != nil {
		s.Gateway.Release(checkout)
		logger.Error("Failed to store pending order",
			zap.String("sessionID", id), zap.String("bookingID", order.BookingID), zap.Error(err))
		return nil, err
	}

	s.startFlow(id, checkout, utils.BearerTokenFrom(ctx))
	logger.Info("Checkout opened",
		zap.String("sessionID", id),
		zap.String("bookingID", order.BookingID),
		zap.String("gatewayOrderID", order.GatewayOrderID),
		zap.Int64("amount", checkout.Options.Amount))
	return viewOf(w), nil
}

// beginSubmit raises the loading guard. A non-nil view is returned only with
// validation errors.
func (s *DefaultWizardService) beginSubmit(ctx context.Context, id string) (*models.WizardView, *Wizard, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	w, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := w.BeginSubmit(s.now()); err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			if saveErr := s.Store.Save(ctx, w); saveErr != nil {
				return nil, nil, saveErr
			}
			return viewOf(w), nil, err
		}
		return nil, nil, err
	}
	w.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, w); err != nil {
		return nil, nil, err
	}
	return nil, w, nil
}

func (s *DefaultWizardService) failSubmission(ctx context.Context, w *Wizard, subErr *bookingapi.SubmissionError) (*models.WizardView, error) {
	if err := w.SubmissionFailed(subErr.Message); err != nil {
		return nil, err
	}
	if err := s.saveRetrying(ctx, w); err != nil {
		return nil, err
	}
	return viewOf(w), subErr
}

func asSubmissionError(err error) *bookingapi.SubmissionError {
	var subErr *bookingapi.SubmissionError
	if errors.As(err, &subErr) {
		return subErr
	}
	return &bookingapi.SubmissionError{Message: bookingapi.DefaultSubmissionMessage, Err: err}
}

// safely runs fn and turns a panic into an error so loading is always cleared.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()
	return fn()
}

func (s *DefaultWizardService) Confirmation(ctx context.Context, id string) (*Confirmation, error) {
	w, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return Present(w, s.Options.SupportEmail, s.Options.SupportPhone)
}

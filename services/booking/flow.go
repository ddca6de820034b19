package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"magicweekends/models"
	"magicweekends/services/bookingapi"
	"magicweekends/services/gateway"
	"magicweekends/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// paymentFlow waits for the outcome of one checkout. settled is closed once
// the outcome has been applied to the wizard.
type paymentFlow struct {
	checkout *gateway.Checkout
	settled  chan struct{}
}

// verifyTicket is what verification needs from the wizard, captured when the
// loading guard is raised. wizard is the copy saved in verifying.
type verifyTicket struct {
	sessionID string
	proof     models.PaymentProof
	email     string
	amount    float64
	wizard    *Wizard
}

func (s *DefaultWizardService) flow(id string) (*paymentFlow, bool) {
	s.flowsMu.Lock()
	defer s.flowsMu.Unlock()
	f, ok := s.flows[id]
	return f, ok
}

func (s *DefaultWizardService) startFlow(id string, c *gateway.Checkout, token string) {
	f := &paymentFlow{checkout: c, settled: make(chan struct{})}

	s.flowsMu.Lock()
	if old, ok := s.flows[id]; ok {
		old.checkout.Dismiss()
	}
	s.flows[id] = f
	s.flowsMu.Unlock()

	go s.runFlow(id, f, token)
}

func (s *DefaultWizardService) dropFlow(id string, f *paymentFlow) {
	s.flowsMu.Lock()
	defer s.flowsMu.Unlock()
	if cur, ok := s.flows[id]; ok && cur == f {
		delete(s.flows, id)
	}
}

func (s *DefaultWizardService) runFlow(id string, f *paymentFlow, token string) {
	defer close(f.settled)
	defer s.dropFlow(id, f)
	defer s.Gateway.Release(f.checkout)

	logger := utils.GetLogger()
	ctx := utils.WithBearerToken(context.Background(), token)

	timer := time.NewTimer(s.Options.SessionTTL)
	defer timer.Stop()

	select {
	case o := <-f.checkout.Outcome():
		switch o.Kind {
		case gateway.OutcomeDismissed:
			s.settleDismissed(ctx, id)
		case gateway.OutcomePaid:
			s.settlePaid(ctx, id, o.Proof)
		default:
			logger.Error("Unknown checkout outcome", zap.String("sessionID", id), zap.Stringer("kind", o.Kind))
		}
	case <-timer.C:
		logger.Info("Checkout abandoned", zap.String("sessionID", id))
	case <-s.stop:
	}
}

func (s *DefaultWizardService) settleDismissed(ctx context.Context, id string) {
	unlock := s.locks.lock(id)
	defer unlock()

	w, err := s.loadRetrying(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			utils.GetLogger().Error("Failed to load session after dismissal", zap.String("sessionID", id), zap.Error(err))
		}
		return
	}
	if err := w.PaymentDismissed(); err != nil {
		return
	}
	if err := s.saveRetrying(ctx, w); err != nil {
		utils.GetLogger().Error("Failed to save dismissed checkout", zap.String("sessionID", id), zap.Error(err))
	}
}

func (s *DefaultWizardService) settlePaid(ctx context.Context, id string, proof models.PaymentProof) {
	ticket, err := s.beginVerify(ctx, id, proof)
	if err != nil {
		utils.GetLogger().Error("Cannot verify payment", zap.String("sessionID", id),
			zap.String("gatewayPaymentID", proof.GatewayPaymentID), zap.Error(err))
		s.recordReconciliation(ctx, verifyTicket{sessionID: id, proof: proof}, err)
		return
	}
	s.completeVerification(ctx, ticket)
}

// beginVerify moves the wizard to verifying. If that cannot be stored the
// wizard is left awaiting payment, so a repeated callback can verify later.
func (s *DefaultWizardService) beginVerify(ctx context.Context, id string, proof models.PaymentProof) (verifyTicket, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	w, err := s.loadRetrying(ctx, id)
	if err != nil {
		return verifyTicket{}, err
	}
	if err := w.BeginVerify(); err != nil {
		return verifyTicket{}, err
	}
	if err := s.saveRetrying(ctx, w); err != nil {
		return verifyTicket{}, err
	}
	return verifyTicket{
		sessionID: id,
		proof:     proof,
		email:     w.Draft.Contact.Email,
		amount:    w.Quote().Total,
		wizard:    w,
	}, nil
}

// completeVerification forwards the proof once and settles the wizard. Any
// failure, including a panic in the client, leaves the wizard in
// verification_failed with loading cleared. A verified payment whose outcome
// cannot be stored is recorded for reconciliation.
func (s *DefaultWizardService) completeVerification(ctx context.Context, t verifyTicket) {
	logger := utils.GetLogger()

	verifyErr := safely(func() error { return s.API.VerifyPayment(ctx, t.proof) })
	ctx = context.WithoutCancel(ctx)
	if verifyErr != nil {
		logger.Error("Payment verification failed",
			zap.String("sessionID", t.sessionID),
			zap.String("bookingID", t.proof.BookingID),
			zap.String("gatewayOrderID", t.proof.GatewayOrderID),
			zap.String("gatewayPaymentID", t.proof.GatewayPaymentID),
			zap.Error(verifyErr))
		s.recordReconciliation(ctx, t, verifyErr)
	}

	unlock := s.locks.lock(t.sessionID)
	defer unlock()

	lost := func(err error) {
		logger.Error("Failed to store verification result", zap.String("sessionID", t.sessionID),
			zap.Bool("verified", verifyErr == nil), zap.Error(err))
		if verifyErr == nil {
			s.recordReconciliation(ctx, t, fmt.Errorf("payment verified but booking session not updated: %w", err))
		}
	}

	w, err := s.loadRetrying(ctx, t.sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || t.wizard == nil {
			lost(err)
			return
		}
		logger.Warn("Failed to reload booking session, using verifying copy", zap.String("sessionID", t.sessionID), zap.Error(err))
		w = t.wizard
	}
	if verifyErr == nil {
		err = w.Confirm(t.proof.BookingID)
	} else {
		err = w.VerificationFailed(s.verificationMessage())
	}
	if err != nil {
		logger.Error("Unexpected wizard state after verification", zap.String("sessionID", t.sessionID),
			zap.String("state", string(w.State)), zap.Error(err))
		if verifyErr == nil {
			lost(err)
		}
		return
	}
	if err := s.saveRetrying(ctx, w); err != nil {
		lost(err)
		return
	}
	if verifyErr == nil {
		logger.Info("Booking confirmed", zap.String("sessionID", t.sessionID), zap.String("bookingID", t.proof.BookingID))
	}
}

func (s *DefaultWizardService) verificationMessage() string {
	msg := bookingapi.VerificationMessage
	if s.Options.SupportEmail != "" {
		msg += " Email: " + s.Options.SupportEmail + "."
	}
	if s.Options.SupportPhone != "" {
		msg += " Phone: " + s.Options.SupportPhone + "."
	}
	return msg
}

func (s *DefaultWizardService) recordReconciliation(ctx context.Context, t verifyTicket, cause error) {
	if s.Reconciliation == nil {
		return
	}
	now := s.now()
	c := &models.ReconciliationCase{
		ID:               uuid.New().String(),
		SessionID:        t.sessionID,
		BookingID:        t.proof.BookingID,
		GatewayOrderID:   t.proof.GatewayOrderID,
		GatewayPaymentID: t.proof.GatewayPaymentID,
		Email:            t.email,
		Amount:           t.amount,
		Reason:           cause.Error(),
		Status:           models.ReconciliationOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Reconciliation.Create(ctx, c); err != nil {
		utils.GetLogger().Error("Failed to record reconciliation case",
			zap.String("sessionID", t.sessionID), zap.String("gatewayPaymentID", t.proof.GatewayPaymentID), zap.Error(err))
	}
}

func waitSettled(ctx context.Context, f *paymentFlow) error {
	select {
	case <-f.settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PaymentCallback receives the checkout success handler. The first result for
// a live checkout is settled by its flow; any later result, or one arriving
// after the flow ended, is verified directly.
func (s *DefaultWizardService) PaymentCallback(ctx context.Context, id string, result models.PaymentResult) (*models.WizardView, error) {
	if f, ok := s.flow(id); ok {
		_, first := f.checkout.Succeed(result)
		if err := waitSettled(ctx, f); err != nil {
			return nil, err
		}
		if first {
			return s.Get(ctx, id)
		}
	}
	return s.verifyLate(ctx, id, result)
}

func (s *DefaultWizardService) verifyLate(ctx context.Context, id string, result models.PaymentResult) (*models.WizardView, error) {
	unlock := s.locks.lock(id)
	w, err := s.loadRetrying(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	if w.State == models.StateConfirmed {
		unlock()
		return viewOf(w), nil
	}
	if w.Order == nil {
		unlock()
		return nil, ErrInvalidTransition
	}
	proof := models.PaymentProof{
		GatewayOrderID:   result.GatewayOrderID,
		GatewayPaymentID: result.GatewayPaymentID,
		GatewaySignature: result.GatewaySignature,
		BookingID:        w.Order.BookingID,
	}
	if err := w.BeginVerify(); err != nil {
		unlock()
		return nil, err
	}
	if err := s.saveRetrying(ctx, w); err != nil {
		unlock()
		return nil, err
	}
	ticket := verifyTicket{sessionID: id, proof: proof, email: w.Draft.Contact.Email, amount: w.Quote().Total, wizard: w}
	unlock()

	s.completeVerification(ctx, ticket)
	return s.Get(context.WithoutCancel(ctx), id)
}

// DismissCheckout receives the checkout's dismiss hook.
func (s *DefaultWizardService) DismissCheckout(ctx context.Context, id string) (*models.WizardView, error) {
	if f, ok := s.flow(id); ok {
		f.checkout.Dismiss()
		if err := waitSettled(ctx, f); err != nil {
			return nil, err
		}
		return s.Get(ctx, id)
	}
	return s.mutate(ctx, id, func(w *Wizard) error { return w.PaymentDismissed() })
}

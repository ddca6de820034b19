package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Wizard endpoints
	OpenWizard       gin.HandlerFunc
	GetWizard        gin.HandlerFunc
	CloseWizard      gin.HandlerFunc
	UpdateContact    gin.HandlerFunc
	SetTravelerCount gin.HandlerFunc
	UpdateTraveler   gin.HandlerFunc
	UploadIDProof    gin.HandlerFunc
	SetPaymentMethod gin.HandlerFunc
	NextStep         gin.HandlerFunc
	PreviousStep     gin.HandlerFunc

	// Checkout endpoints
	Book            gin.HandlerFunc
	PaymentCallback gin.HandlerFunc
	DismissCheckout gin.HandlerFunc
	Confirmation    gin.HandlerFunc

	// Booking records
	MyBookings    gin.HandlerFunc
	GetBooking    gin.HandlerFunc
	CancelBooking gin.HandlerFunc

	// Admin endpoints
	ListReconciliation    gin.HandlerFunc
	ResolveReconciliation gin.HandlerFunc
}

// NewHandlerBundle wires the booking and reconciliation handlers into a bundle.
func NewHandlerBundle(bh *BookingHandler, rh *ReconciliationHandler) *HandlerBundle {
	hb := &HandlerBundle{
		OpenWizard:       bh.OpenWizard,
		GetWizard:        bh.GetWizard,
		CloseWizard:      bh.CloseWizard,
		UpdateContact:    bh.UpdateContact,
		SetTravelerCount: bh.SetTravelerCount,
		UpdateTraveler:   bh.UpdateTraveler,
		UploadIDProof:    bh.UploadIDProof,
		SetPaymentMethod: bh.SetPaymentMethod,
		NextStep:         bh.Next,
		PreviousStep:     bh.Back,

		Book:            bh.Book,
		PaymentCallback: bh.PaymentCallback,
		DismissCheckout: bh.DismissCheckout,
		Confirmation:    bh.Confirmation,

		MyBookings:    bh.MyBookings,
		GetBooking:    bh.GetBooking,
		CancelBooking: bh.CancelBooking,
	}
	if rh != nil {
		hb.ListReconciliation = rh.ListOpenHandler
		hb.ResolveReconciliation = rh.ResolveHandler
	}
	return hb
}

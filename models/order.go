package models

// PendingOrder is the server-side booking awaiting payment, as returned by the booking API.
type PendingOrder struct {
	BookingID        string `json:"bookingId"`
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPublicKey string `json:"gatewayPublicKey"`
}

// PaymentResult is what the hosted checkout hands to its success handler.
type PaymentResult struct {
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	GatewaySignature string `json:"razorpay_signature" binding:"required"`
}

// PaymentProof is forwarded once to the verification endpoint and never stored.
type PaymentProof struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	GatewaySignature string `json:"razorpay_signature"`
	BookingID        string `json:"booking_id"`
}

// CheckoutOptions mirrors the hosted checkout widget configuration.
type CheckoutOptions struct {
	Key         string          `json:"key"`
	Amount      int64           `json:"amount"` // minor units
	Currency    string          `json:"currency"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	OrderID     string          `json:"order_id"`
	Prefill     CheckoutPrefill `json:"prefill"`
	Theme       CheckoutTheme   `json:"theme"`
}

type CheckoutPrefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type CheckoutTheme struct {
	Color string `json:"color"`
}

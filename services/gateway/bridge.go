// Package gateway adapts the hosted checkout widget to the booking flow. The
// widget's success handler and dismiss hook reach this service as HTTP
// callbacks; the bridge turns them into exactly one typed outcome per checkout.
package gateway

import (
	"errors"
	"fmt"
	"sync"

	"magicweekends/models"
	"magicweekends/services/pricing"
)

const Currency = "INR"

var ErrIncompleteOrder = errors.New("pending order is missing gateway details")

type OutcomeKind int

const (
	OutcomePaid OutcomeKind = iota + 1
	OutcomeDismissed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePaid:
		return "paid"
	case OutcomeDismissed:
		return "dismissed"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the single result of a checkout. Proof is set only for OutcomePaid.
type Outcome struct {
	Kind  OutcomeKind
	Proof models.PaymentProof
}

// CheckoutRequest carries the display data for a checkout.
type CheckoutRequest struct {
	Title   string
	Total   float64
	Contact models.Contact
}

// Checkout is one opened widget instance.
type Checkout struct {
	Key     string
	Order   models.PendingOrder
	Options models.CheckoutOptions

	once    sync.Once
	outcome chan Outcome
}

// Outcome delivers exactly one value and is never closed.
func (c *Checkout) Outcome() <-chan Outcome {
	return c.outcome
}

// Proof builds the verification payload for a gateway result, injecting the
// booking id of the pending order.
func (c *Checkout) Proof(result models.PaymentResult) models.PaymentProof {
	return models.PaymentProof{
		GatewayOrderID:   result.GatewayOrderID,
		GatewayPaymentID: result.GatewayPaymentID,
		GatewaySignature: result.GatewaySignature,
		BookingID:        c.Order.BookingID,
	}
}

// Succeed resolves the checkout as paid. It reports false when the checkout
// had already been resolved; the returned proof is valid either way.
func (c *Checkout) Succeed(result models.PaymentResult) (models.PaymentProof, bool) {
	proof := c.Proof(result)
	return proof, c.resolve(Outcome{Kind: OutcomePaid, Proof: proof})
}

// Dismiss resolves the checkout as closed without payment.
func (c *Checkout) Dismiss() bool {
	return c.resolve(Outcome{Kind: OutcomeDismissed})
}

func (c *Checkout) resolve(o Outcome) bool {
	delivered := false
	c.once.Do(func() {
		c.outcome <- o
		delivered = true
	})
	return delivered
}

// Bridge opens checkouts and keeps the live ones addressable by key.
type Bridge struct {
	MerchantName string
	ThemeColor   string

	mu        sync.Mutex
	checkouts map[string]*Checkout
}

func NewBridge(merchantName, themeColor string) *Bridge {
	return &Bridge{
		MerchantName: merchantName,
		ThemeColor:   themeColor,
		checkouts:    make(map[string]*Checkout),
	}
}

// Open builds the widget options for order and registers the checkout under
// key, replacing any earlier checkout for the same key.
func (b *Bridge) Open(key string, order models.PendingOrder, req CheckoutRequest) (*Checkout, error) {
	if order.GatewayOrderID == "" || order.GatewayPublicKey == "" {
		return nil, ErrIncompleteOrder
	}

	c := &Checkout{
		Key:   key,
		Order: order,
		Options: models.CheckoutOptions{
			Key:         order.GatewayPublicKey,
			Amount:      pricing.MinorUnits(req.Total),
			Currency:    Currency,
			Name:        b.MerchantName,
			Description: "Booking for " + req.Title,
			OrderID:     order.GatewayOrderID,
			Prefill: models.CheckoutPrefill{
				Name:    req.Contact.FullName,
				Email:   req.Contact.Email,
				Contact: req.Contact.Phone,
			},
			Theme: models.CheckoutTheme{Color: b.ThemeColor},
		},
		outcome: make(chan Outcome, 1),
	}

	b.mu.Lock()
	b.checkouts[key] = c
	b.mu.Unlock()
	return c, nil
}

// Lookup returns the live checkout for key.
func (b *Bridge) Lookup(key string) (*Checkout, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.checkouts[key]
	return c, ok
}

// Release forgets c if it is still the checkout registered under its key.
func (b *Bridge) Release(c *Checkout) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.checkouts[c.Key]; ok && cur == c {
		delete(b.checkouts, c.Key)
	}
}

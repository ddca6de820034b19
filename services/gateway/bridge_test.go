package gateway

import (
	"sync"
	"testing"

	"magicweekends/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var order = models.PendingOrder{BookingID: "b42", GatewayOrderID: "order_9", GatewayPublicKey: "rzp_test"}

func openCheckout(t *testing.T, b *Bridge) *Checkout {
	c, err := b.Open("s1", order, CheckoutRequest{
		Title:   "Coorg Escape",
		Total:   1234.56,
		Contact: models.Contact{FullName: "Asha", Email: "asha@example.com", Phone: "9876543210"},
	})
	require.NoError(t, err)
	return c
}

func TestOpenBuildsCheckoutOptions(t *testing.T) {
	c := openCheckout(t, NewBridge("Magic Weekends", "#EAB308"))

	assert.Equal(t, models.CheckoutOptions{
		Key:         "rzp_test",
		Amount:      123456,
		Currency:    "INR",
		Name:        "Magic Weekends",
		Description: "Booking for Coorg Escape",
		OrderID:     "order_9",
		Prefill:     models.CheckoutPrefill{Name: "Asha", Email: "asha@example.com", Contact: "9876543210"},
		Theme:       models.CheckoutTheme{Color: "#EAB308"},
	}, c.Options)
}

func TestOpenRejectsIncompleteOrder(t *testing.T) {
	_, err := NewBridge("m", "c").Open("s1", models.PendingOrder{BookingID: "b1"}, CheckoutRequest{})
	assert.ErrorIs(t, err, ErrIncompleteOrder)
}

func TestSucceedInjectsBookingID(t *testing.T) {
	c := openCheckout(t, NewBridge("m", "c"))

	proof, first := c.Succeed(models.PaymentResult{GatewayOrderID: "order_9", GatewayPaymentID: "pay_1", GatewaySignature: "sig"})
	require.True(t, first)
	assert.Equal(t, "b42", proof.BookingID)

	got := <-c.Outcome()
	assert.Equal(t, OutcomePaid, got.Kind)
	assert.Equal(t, proof, got.Proof)
}

func TestExactlyOneOutcome(t *testing.T) {
	c := openCheckout(t, NewBridge("m", "c"))

	var wg sync.WaitGroup
	results := make(chan bool, 10)
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); results <- c.Dismiss() }()
		go func() {
			defer wg.Done()
			_, ok := c.Succeed(models.PaymentResult{GatewayPaymentID: "pay"})
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	delivered := 0
	for ok := range results {
		if ok {
			delivered++
		}
	}
	assert.Equal(t, 1, delivered)
	<-c.Outcome()
	assert.Len(t, c.Outcome(), 0)
}

func TestDismissOutcome(t *testing.T) {
	c := openCheckout(t, NewBridge("m", "c"))
	assert.True(t, c.Dismiss())
	assert.Equal(t, Outcome{Kind: OutcomeDismissed}, <-c.Outcome())
}

func TestLookupAndRelease(t *testing.T) {
	b := NewBridge("m", "c")
	first := openCheckout(t, b)
	second := openCheckout(t, b)

	got, ok := b.Lookup("s1")
	require.True(t, ok)
	assert.Same(t, second, got)

	b.Release(first)
	_, ok = b.Lookup("s1")
	assert.True(t, ok, "releasing a replaced checkout keeps the live one")

	b.Release(second)
	_, ok = b.Lookup("s1")
	assert.False(t, ok)
}

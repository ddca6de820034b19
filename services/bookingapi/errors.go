package bookingapi

import "fmt"

// DefaultSubmissionMessage is shown when the booking API gives no reason of its own.
const DefaultSubmissionMessage = "Failed to create booking. Please try again."

// VerificationMessage directs the customer to support after an unconfirmed payment.
const VerificationMessage = "Payment verification failed. Please contact support. Your payment may need manual reconciliation."

// SubmissionError is returned when a booking could not be created upstream.
// Message is safe to show to the customer.
type SubmissionError struct {
	Message string
	Status  int
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("booking submission failed: %s: %v", e.Message, e.Err)
	}
	return "booking submission failed: " + e.Message
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// VerificationError is returned for anything other than an explicit successful
// verification, including transport failures.
type VerificationError struct {
	Reason string
	Status int
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment verification failed: %s: %v", e.Reason, e.Err)
	}
	return "payment verification failed: " + e.Reason
}

func (e *VerificationError) Unwrap() error { return e.Err }

// UserMessage is the customer-facing text for the failure.
func (e *VerificationError) UserMessage() string { return VerificationMessage }

// APIError is a non-successful response from the read and cancel endpoints.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("booking api: status %d: %s", e.Status, e.Message)
}

package booking

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrSessionNotFound   = errors.New("booking session not found")
	ErrInvalidTransition = errors.New("action not allowed at this step")
	ErrBusy              = errors.New("a booking request is already in progress")
	ErrTravelerIndex     = errors.New("traveler index out of range")
	ErrNotConfirmed      = errors.New("booking is not confirmed")
)

// ValidationErrors maps a form field key to its message. Keys are fullName,
// email, phone, travelDate, travelerCount, travelers[i].name and paymentMethod.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) clone() ValidationErrors {
	out := make(ValidationErrors, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

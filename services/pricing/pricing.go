// Package pricing derives booking amounts from a trip's per-person price.
// All functions are pure; callers recompute from the live draft on every view.
package pricing

import (
	"math"

	"magicweekends/models"
)

// DepositRate is the share of the total collected upfront as the token amount.
const DepositRate = 0.10

// Total is the price for the whole party.
func Total(unitPrice float64, travelers int) float64 {
	return unitPrice * float64(travelers)
}

// Deposit is 10% of the total rounded half-up to a whole currency unit.
func Deposit(unitPrice float64, travelers int) float64 {
	return math.Floor(Total(unitPrice, travelers)*DepositRate + 0.5)
}

// Balance is what remains payable after the deposit.
func Balance(unitPrice float64, travelers int) float64 {
	return Total(unitPrice, travelers) - Deposit(unitPrice, travelers)
}

// Quote computes all derived figures for a trip and party size.
func Quote(trip models.TripSnapshot, travelers int) models.PriceQuote {
	return models.PriceQuote{
		UnitPrice: trip.PricePerPerson,
		Travelers: travelers,
		Total:     Total(trip.PricePerPerson, travelers),
		Deposit:   Deposit(trip.PricePerPerson, travelers),
		Balance:   Balance(trip.PricePerPerson, travelers),
	}
}

// MinorUnits converts an amount to paise for the checkout widget.
func MinorUnits(amount float64) int64 {
	return int64(math.Floor(amount*100 + 0.5))
}

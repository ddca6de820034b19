// File: utils/constants.go
package utils

// WizardSessionPrefix is the prefix used for Redis booking wizard keys.
const WizardSessionPrefix = "wizard:"

// TripCachePrefix is the prefix used for cached catalog trips.
const TripCachePrefix = "trip:"

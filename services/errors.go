package services

import "errors"

// ErrNotAuthenticated short-circuits every mutating operation before any
// network or database I/O happens.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrBillingUnavailable marks a billing-platform call that failed or timed
// out; callers fall back to the stored subscription record.
var ErrBillingUnavailable = errors.New("billing platform unavailable")

var errInvalidRange = errors.New("invalid date range")

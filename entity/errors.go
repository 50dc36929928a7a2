package entity

import "errors"

var (
	ErrInvalidCallsign   = errors.New("invalid callsign")
	ErrInvalidLocator    = errors.New("invalid locator")
	ErrDuplicateCallsign = errors.New("callsign already registered")
	ErrNotFound          = errors.New("request not found")
	ErrDecisionFinal     = errors.New("request already decided")
	ErrNotDecided        = errors.New("request not decided yet")
	ErrDeliveryFailed    = errors.New("notification delivery failed")
)

package engine

import "errors"

var (
	ErrNoMatchingContract      = errors.New("no matching at-the-money contract")
	ErrInsufficientBuyingPower = errors.New("insufficient buying power")
	ErrOrderPlacement          = errors.New("order placement failed")
	ErrCycleInProgress         = errors.New("strategy cycle already in progress")
)

package core

import "gitlab.com/distributed_lab/logan/v3/errors"

// Sentinel errors of the trading core. Callers discriminate with
// errors.Cause, wrapping only adds context on the way up.
var (
	ErrInvalidOrder            = errors.New("invalid order parameters")
	ErrInvalidPath             = errors.New("path endpoints do not match the order's asset pair")
	ErrInvalidBid              = errors.New("invalid bid parameters")
	ErrOrderNotFound           = errors.New("order does not exist")
	ErrOrderFullyFilled        = errors.New("order is fully filled")
	ErrBidNotCompetitive       = errors.New("bid does not beat the pending bid")
	ErrPendingPeriodNotElapsed = errors.New("pending period has not elapsed")
	ErrNoPendingBid            = errors.New("order has no pending bid")

	// Propagated by Transferor implementations.
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferRejected    = errors.New("transfer rejected")
)

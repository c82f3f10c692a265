package ticketing

import "errors"

// Every rejected operation returns one of these (possibly wrapped with
// context).  A rejected operation has no effect.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrAlreadyInitialized  = errors.New("already initialized")
	ErrSoldOut             = errors.New("sold out")
	ErrIncorrectPayment    = errors.New("incorrect payment")
	ErrDeadlinePassed      = errors.New("cancellation deadline passed")
	ErrInvalidPercentage   = errors.New("invalid percentage")
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInsufficientBalance = errors.New("insufficient contract balance")
	ErrInsufficientFunds   = errors.New("insufficient funds")
)

package host

import "errors"

var (
	ErrAborted           = errors.New("transaction aborted")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrReentrantCall     = errors.New("component already on the call stack")
	ErrUnknownComponent  = errors.New("unknown component")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDanglingBucket    = errors.New("bucket left undeposited")
	ErrResourceExists    = errors.New("resource already exists")
	ErrUnknownResource   = errors.New("unknown resource")
	ErrInvalidAmount     = errors.New("invalid amount")
)

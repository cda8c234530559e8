package staking

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrLocked          = errors.New("stake is locked by an ongoing vote")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrWrongToken      = errors.New("token does not match the stakable token")
	ErrNotInitialized  = errors.New("staking not initialized")
	ErrInvalidConfig   = errors.New("invalid staking configuration")
	ErrUnknownMethod   = errors.New("unknown method")
	ErrUnknownIdentity = errors.New("unknown voting id")
)

package core

import "errors"

// Errors
var (
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidOrderType = errors.New("invalid order type")
)

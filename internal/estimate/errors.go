package estimate

import "errors"

// Abstentions. Callers should render "no estimate available" for either.
var (
	ErrInsufficientData  = errors.New("estimate: insufficient history")
	ErrInvalidArithmetic = errors.New("estimate: invalid nav in window")
)

// IsAbstention reports whether err is one of the engine's abstentions.
func IsAbstention(err error) bool {
	return errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrInvalidArithmetic)
}

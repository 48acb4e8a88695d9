// Package estimate turns a fund's daily NAV history into an intraday NAV estimate.
//
// Everything here is a pure function of its inputs: no I/O, no logging, no
// retained state. Bad input never panics; an estimator that cannot produce a
// number abstains with ErrInsufficientData or ErrInvalidArithmetic.
package estimate

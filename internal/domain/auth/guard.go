package auth

import "errors"

// ErrForbidden is returned by Authorize when the held roles do not satisfy
// the required role set.
var ErrForbidden = errors.New("forbidden")

// Authorize checks the held role set against the required role set.
// Access is granted when the intersection is non-empty. An empty required
// set means the operation carries no role restriction. This is a pure
// function; it is evaluated only after authentication has resolved a
// session, never before.
func Authorize(held, required []Role) error {
	if len(required) == 0 {
		return nil
	}
	for _, have := range held {
		for _, want := range required {
			if have == want {
				return nil
			}
		}
	}
	return ErrForbidden
}

package futurecache

import "errors"

var (
	ErrPanicked = errors.New("future producer panicked")
	ErrPending  = errors.New("future is not settled yet")
)

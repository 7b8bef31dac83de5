package transport

import "errors"

var (
	ErrTimeout   = errors.New("operation timed out")
	ErrQueueFull = errors.New("transmit queue full")
)

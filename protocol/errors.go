package protocol

import "errors"

var (
	ErrCapacity       = errors.New("bit message capacity exceeded")
	ErrOutOfBounds    = errors.New("bit position out of bounds")
	ErrChunkLength    = errors.New("invalid chunk length (valid range: 1-8)")
	ErrInvalidPayload = errors.New("invalid payload size")
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnknownMethod  = errors.New("unknown error correction method")
	ErrNotComplete    = errors.New("bit message not complete")
)

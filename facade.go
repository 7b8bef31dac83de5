// Package acomm provides a façade to access the modem framing layer.
package acomm

import (
	"github.com/ystepanoff/acomm/param"
	"github.com/ystepanoff/acomm/protocol"
	"github.com/ystepanoff/acomm/transport"
)

// Constructors live in constructors_host.go (loopback stub driver) and
// constructors_serial.go (UART-attached modem card).

type (
	Message     = protocol.Message
	BitMessage  = protocol.BitMessage
	Method      = protocol.Method
	ContentType = protocol.ContentType
	Registry    = param.Registry
	Transmitter = transport.Transmitter
	Receiver    = transport.Receiver
)

var (
	ErrInvalidPayload = protocol.ErrInvalidPayload
	ErrCapacity       = protocol.ErrCapacity
	ErrTimeout        = transport.ErrTimeout
	ErrQueueFull      = transport.ErrQueueFull
	ErrOutOfRange     = param.ErrOutOfRange
)

const (
	CRC8       = protocol.CRC8
	CRC16      = protocol.CRC16
	CRC32      = protocol.CRC32
	Checksum8  = protocol.Checksum8
	Checksum16 = protocol.Checksum16
	Checksum32 = protocol.Checksum32

	ContentEvaluation = protocol.ContentEvaluation
	ContentBits       = protocol.ContentBits
	ContentString     = protocol.ContentString
	ContentInteger    = protocol.ContentInteger
	ContentFloat      = protocol.ContentFloat
)

package protocol

// Framing constants shared by the packet and error correction codecs.
//
// On-air layout, packed MSB-first with no padding between fields:
//
//	Preamble (13 bits) | Payload (8 × MinimumSize(len) bits) | Trailer (8/16/32 bits)
//
// Evaluation frames carry the payload only.
const (
	// Hard capacity of a BitMessage
	MaxPacketBytes = 256
	MaxPacketBits  = MaxPacketBytes * 8

	// Smallest payload size MinimumSize returns, in bytes
	MinPayloadBytes = 1

	// Longest string an operator may queue
	MaxStringLength = 128

	// 13-bit Barker code, sent MSB first
	Preamble       uint32 = 0x1F35
	PreambleLength        = 13
)

package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// MessageType tells the transport where a message goes or came from.
type MessageType uint8

const (
	MsgTransmitTransducer MessageType = iota
	MsgTransmitFeedback
	MsgReceived
)

func (t MessageType) String() string {
	switch t {
	case MsgTransmitTransducer:
		return "transducer"
	case MsgTransmitFeedback:
		return "feedback"
	case MsgReceived:
		return "received"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ContentType tags the payload of a message.
type ContentType uint8

const (
	// ContentEvaluation frames carry the raw payload without preamble or
	// trailer.
	ContentEvaluation ContentType = iota
	ContentBits
	ContentString
	ContentInteger
	ContentFloat
)

var contentNames = [...]string{"evaluation", "bits", "string", "integer", "float"}

func (c ContentType) String() string {
	if int(c) < len(contentNames) {
		return contentNames[c]
	}
	return fmt.Sprintf("content(%d)", uint8(c))
}

// ParseContentType resolves a name produced by ContentType.String.
func ParseContentType(s string) (ContentType, error) {
	for i, name := range contentNames {
		if name == s {
			return ContentType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown content type %q", ErrInvalidMessage, s)
}

// Message is an application message before framing or after unpacking.
type Message struct {
	Type        MessageType
	ContentType ContentType
	Timestamp   time.Time
	LengthBits  int
	Data        []byte
}

func (m *Message) validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil", ErrInvalidMessage)
	}
	if m.LengthBits < 0 || m.LengthBits > len(m.Data)*8 {
		return fmt.Errorf("%w: %d bits, %d data bytes", ErrInvalidPayload, m.LengthBits, len(m.Data))
	}
	return nil
}

// NewStringMessage packs s into a zero-padded payload of MinimumSize(len(s))
// bytes.
func NewStringMessage(typ MessageType, s string) (*Message, error) {
	if len(s) > MaxStringLength {
		return nil, fmt.Errorf("%w: string of %d characters, max %d", ErrInvalidPayload, len(s), MaxStringLength)
	}
	n := MinimumSize(len(s))
	data := make([]byte, n)
	copy(data, s)
	return &Message{
		Type:        typ,
		ContentType: ContentString,
		Timestamp:   time.Now(),
		LengthBits:  8 * n,
		Data:        data,
	}, nil
}

func NewIntegerMessage(typ MessageType, v uint32) *Message {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, v)
	return &Message{Type: typ, ContentType: ContentInteger, Timestamp: time.Now(), LengthBits: 32, Data: data}
}

func NewFloatMessage(typ MessageType, v float32) *Message {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, math.Float32bits(v))
	return &Message{Type: typ, ContentType: ContentFloat, Timestamp: time.Now(), LengthBits: 32, Data: data}
}

// NewBitsMessage carries the first nbits bits of data, left-aligned in a
// zero-padded payload of MinimumSize bytes like NewStringMessage. The
// padding bits are delivered with the message on receive.
func NewBitsMessage(typ MessageType, data []byte, nbits int) (*Message, error) {
	if nbits < 0 || nbits > len(data)*8 {
		return nil, fmt.Errorf("%w: %d bits from %d bytes", ErrInvalidPayload, nbits, len(data))
	}
	n := MinimumSize((nbits + 7) / 8)
	buf := make([]byte, n)
	copy(buf, data[:(nbits+7)/8])
	if r := nbits % 8; r > 0 {
		buf[nbits/8] &= 0xFF << (8 - r)
	}
	return &Message{Type: typ, ContentType: ContentBits, Timestamp: time.Now(), LengthBits: 8 * n, Data: buf}, nil
}

// NewEvaluationMessage builds the fixed 32-bit pattern sent in evaluation
// mode.
func NewEvaluationMessage(typ MessageType, pattern uint32) *Message {
	m := NewIntegerMessage(typ, pattern)
	m.ContentType = ContentEvaluation
	return m
}

// Text returns the payload of a string message without its zero padding.
func (m *Message) Text() (string, error) {
	if m.ContentType != ContentString {
		return "", fmt.Errorf("%w: %s message is not a string", ErrInvalidMessage, m.ContentType)
	}
	data := m.Data[:min(len(m.Data), m.LengthBits/8)]
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

func (m *Message) word() (uint32, error) {
	if m.LengthBits != 32 || len(m.Data) < 4 {
		return 0, fmt.Errorf("%w: %d-bit payload is not a 32-bit word", ErrInvalidPayload, m.LengthBits)
	}
	return binary.BigEndian.Uint32(m.Data), nil
}

func (m *Message) Integer() (uint32, error) {
	if m.ContentType != ContentInteger && m.ContentType != ContentEvaluation {
		return 0, fmt.Errorf("%w: %s message is not an integer", ErrInvalidMessage, m.ContentType)
	}
	return m.word()
}

func (m *Message) Float() (float32, error) {
	if m.ContentType != ContentFloat {
		return 0, fmt.Errorf("%w: %s message is not a float", ErrInvalidMessage, m.ContentType)
	}
	v, err := m.word()
	return math.Float32frombits(v), err
}

// Content renders the payload according to its content type.
func (m *Message) Content() string {
	switch m.ContentType {
	case ContentString:
		s, _ := m.Text()
		return s
	case ContentInteger, ContentEvaluation:
		if v, err := m.word(); err == nil {
			return fmt.Sprintf("%d", v)
		}
	case ContentFloat:
		if v, err := m.Float(); err == nil {
			return fmt.Sprintf("%g", v)
		}
	}
	return fmt.Sprintf("%x", m.Data)
}

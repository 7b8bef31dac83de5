package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"gopkg.in/urfave/cli.v1"

	"github.com/ystepanoff/acomm"
	proto "github.com/ystepanoff/acomm/protocol"
)

var (
	encodeCommand = cli.Command{
		Action:    encode,
		Name:      "encode",
		Usage:     "Print the on-air bits of a message",
		ArgsUsage: "<value>",
		Flags:     []cli.Flag{methodFlag, contentFlag},
		Description: `The encode command frames one message with the configured modem id,
stationary flag and error correction method and prints its bits.
Bits content takes a string of 0 and 1.`,
	}
	decodeCommand = cli.Command{
		Action:    decode,
		Name:      "decode",
		Usage:     "Find and check frames in a bit string",
		ArgsUsage: "<bits>",
		Flags:     []cli.Flag{methodFlag, contentFlag},
		Description: `The decode command runs the receiver over a string of 0 and 1 and
prints every message whose trailer checks out.`,
	}
)

// buildMessage parses value according to content.
func buildMessage(content proto.ContentType, value string) (*proto.Message, error) {
	typ := proto.MsgTransmitTransducer
	switch content {
	case proto.ContentString:
		return proto.NewStringMessage(typ, value)
	case proto.ContentInteger, proto.ContentEvaluation:
		n, err := strconv.ParseUint(value, 0, 32)
		if err != nil {
			return nil, err
		}
		if content == proto.ContentEvaluation {
			return proto.NewEvaluationMessage(typ, uint32(n)), nil
		}
		return proto.NewIntegerMessage(typ, uint32(n)), nil
	case proto.ContentFloat:
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, err
		}
		return proto.NewFloatMessage(typ, float32(f)), nil
	case proto.ContentBits:
		bm, err := proto.ParseBits(value)
		if err != nil {
			return nil, err
		}
		return proto.NewBitsMessage(typ, bm.Bytes(), bm.BitCount)
	}
	return nil, fmt.Errorf("%w: %s", proto.ErrInvalidMessage, content)
}

func frame(m *acomm.Modem, content proto.ContentType, value string) (*proto.BitMessage, error) {
	msg, err := buildMessage(content, value)
	if err != nil {
		return nil, err
	}
	var bm proto.BitMessage
	if err := m.Packets.PrepareTx(msg, &bm); err != nil {
		return nil, err
	}
	return &bm, nil
}

func encode(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("encode takes exactly one value", 2)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	m, err := offlineModem(cfg)
	if err != nil {
		return err
	}
	content, err := proto.ParseContentType(cfg.Transport.Content)
	if err != nil {
		return err
	}
	bm, err := frame(m, content, ctx.Args().First())
	if err != nil {
		return err
	}
	method, _ := m.ErrorCorrection()
	fmt.Printf("method:  %s\n", method)
	fmt.Printf("bits:    %d\n", bm.BitCount)
	fmt.Printf("frame:   %s\n", bm)
	fmt.Printf("hex:     %s\n", hex.EncodeToString(bm.Bytes()))
	return nil
}

// decodeBits feeds every bit of s to the modem's receiver. Spaces and
// underscores are skipped.
func decodeBits(m *acomm.Modem, s string) ([]*proto.Message, error) {
	var out []*proto.Message
	for i, c := range s {
		switch c {
		case ' ', '_':
			continue
		case '0', '1':
		default:
			return nil, fmt.Errorf("invalid bit %q at offset %d", c, i)
		}
		if msg := m.Rx.ProcessBit(c == '1'); msg != nil {
			out = append(out, msg)
		}
	}
	return out, nil
}

func decode(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("decode takes exactly one bit string", 2)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	m, err := offlineModem(cfg)
	if err != nil {
		return err
	}
	msgs, err := decodeBits(m, ctx.Args().First())
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return cli.NewExitError("no valid frame found", 1)
	}
	for _, msg := range msgs {
		fmt.Printf("%s %d bits: %s\n", msg.ContentType, msg.LengthBits, msg.Content())
	}
	return nil
}

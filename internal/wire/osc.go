package wire

import (
	"fmt"
	"math"
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// Encode marshals m as an OSC 1.0 message. time.Time arguments are sent as
// int64 Unix milliseconds and plain ints as int32 when they fit.
func Encode(m Message) ([]byte, error) {
	if m.Address == "" || m.Address[0] != '/' {
		return nil, fmt.Errorf("wire: invalid address %q", m.Address)
	}
	msg := osc.NewMessage(m.Address)
	for i, a := range m.Args {
		v, err := toOSC(a)
		if err != nil {
			return nil, fmt.Errorf("wire: %s arg %d: %w", m.Address, i, err)
		}
		msg.Append(v)
	}
	data, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("wire: failed to encode %s: %w", m.Address, err)
	}
	return data, nil
}

func toOSC(a any) (any, error) {
	switch v := a.(type) {
	case time.Time:
		return v.UnixMilli(), nil
	case time.Duration:
		return v.Milliseconds(), nil
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return int32(v), nil
		}
		return int64(v), nil
	case int32, int64, float32, float64, string, []byte, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T cannot be encoded", ErrArgType, a)
	}
}

// DecodeAll parses an OSC packet, flattening bundles into their messages
// in order
func DecodeAll(packet []byte) ([]Message, error) {
	p, err := osc.ParsePacket(string(packet))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var out []Message
	flatten(p, &out)
	return out, nil
}

// Decode parses a packet holding exactly one message
func Decode(packet []byte) (Message, error) {
	msgs, err := DecodeAll(packet)
	if err != nil {
		return Message{}, err
	}
	if len(msgs) != 1 {
		return Message{}, fmt.Errorf("%w: expected one message, got %d", ErrDecode, len(msgs))
	}
	return msgs[0], nil
}

func flatten(p osc.Packet, out *[]Message) {
	switch v := p.(type) {
	case *osc.Message:
		*out = append(*out, Message{Address: v.Address, Args: v.Arguments})
	case *osc.Bundle:
		for _, m := range v.Messages {
			flatten(m, out)
		}
		for _, b := range v.Bundles {
			flatten(b, out)
		}
	}
}

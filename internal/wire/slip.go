package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// SLIP special bytes (RFC 1055)
const (
	slipEnd    = 0xC0
	slipEsc    = 0xDB
	slipEscEnd = 0xDC
	slipEscEsc = 0xDD
)

// MaxFrameSize bounds a decoded frame
const MaxFrameSize = 64 * 1024

var ErrFrameTooLarge = errors.New("wire: SLIP frame too large")

// SLIPEncoder writes packets as SLIP frames
type SLIPEncoder struct {
	w io.Writer
}

// NewSLIPEncoder creates an encoder writing to w
func NewSLIPEncoder(w io.Writer) *SLIPEncoder {
	return &SLIPEncoder{w: w}
}

// Encode writes one packet as a single frame. A leading END flushes any line
// noise the receiver has buffered.
func (e *SLIPEncoder) Encode(packet []byte) error {
	buf := make([]byte, 0, len(packet)+2)
	buf = append(buf, slipEnd)
	for _, b := range packet {
		switch b {
		case slipEnd:
			buf = append(buf, slipEsc, slipEscEnd)
		case slipEsc:
			buf = append(buf, slipEsc, slipEscEsc)
		default:
			buf = append(buf, b)
		}
	}
	buf = append(buf, slipEnd)
	_, err := e.w.Write(buf)
	return err
}

// SLIPDecoder reads SLIP frames
type SLIPDecoder struct {
	r *bufio.Reader
}

// NewSLIPDecoder creates a decoder reading from r
func NewSLIPDecoder(r io.Reader) *SLIPDecoder {
	return &SLIPDecoder{r: bufio.NewReader(r)}
}

// Decode returns the next non-empty frame. It returns io.EOF when the stream
// ends between frames and io.ErrUnexpectedEOF when it ends inside one.
func (d *SLIPDecoder) Decode() ([]byte, error) {
	var frame []byte
	escaped := false
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(frame) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		if escaped {
			escaped = false
			switch b {
			case slipEscEnd:
				frame = append(frame, slipEnd)
			case slipEscEsc:
				frame = append(frame, slipEsc)
			default:
				// protocol violation; keep the byte as RFC 1055 suggests
				frame = append(frame, b)
			}
		} else {
			switch b {
			case slipEnd:
				if len(frame) == 0 {
					continue
				}
				return frame, nil
			case slipEsc:
				escaped = true
				continue
			default:
				frame = append(frame, b)
			}
		}

		if len(frame) > MaxFrameSize {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrFrameTooLarge, MaxFrameSize)
		}
	}
}

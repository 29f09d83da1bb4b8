package packet

import (
	"errors"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrMalformed     = errors.New("malformed packet")
)

// Reader decodes one inbound payload. Byte 0 is always the opcode; the rest
// is the msgpack body, which may be empty.
type Reader struct {
	data []byte
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

// Body returns the bytes after the opcode.
func (r *Reader) Body() []byte {
	if len(r.data) <= 1 {
		return nil
	}
	return r.data[1:]
}

// Decode unmarshals the body into v. Any decoding failure, including an
// empty body, is reported as ErrMalformed.
func (r *Reader) Decode(v any) error {
	body := r.Body()
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body for opcode 0x%02X", ErrMalformed, r.Opcode())
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// ReadTarget decodes a point body and rejects non-finite coordinates.
func (r *Reader) ReadTarget() (Target, error) {
	var t Target
	if err := r.Decode(&t); err != nil {
		return t, err
	}
	if !finite(t.X) || !finite(t.Y) {
		return t, fmt.Errorf("%w: non-finite point", ErrMalformed)
	}
	return t, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

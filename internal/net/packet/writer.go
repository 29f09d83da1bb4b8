package packet

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Writer builds an outbound payload: the opcode byte followed by a msgpack
// body. String map keys are sorted; State orders its own uid keys.
type Writer struct {
	buf bytes.Buffer
	enc *msgpack.Encoder
}

func NewWriterWithOpcode(opcode byte) *Writer {
	w := &Writer{}
	w.buf.Grow(64)
	w.buf.WriteByte(opcode)
	w.enc = msgpack.NewEncoder(&w.buf)
	w.enc.SetSortMapKeys(true)
	return w
}

// Encode appends v as the body.
func (w *Writer) Encode(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	return nil
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Build is a shorthand for a single-record payload.
func Build(opcode byte, body any) ([]byte, error) {
	w := NewWriterWithOpcode(opcode)
	if body != nil {
		if err := w.Encode(body); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

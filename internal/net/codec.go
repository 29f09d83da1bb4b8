package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrame bounds a single inbound payload.
const DefaultMaxFrame = 1 << 20

var ErrFrameTooLarge = errors.New("frame too large")

// ReadFrame reads one frame from r.
// Wire format: [4 bytes LE: payload length][payload].
// Returns the payload bytes without the header.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	n := binary.LittleEndian.Uint32(header[:])
	if n == 0 {
		return nil, nil
	}
	if maxSize > 0 && uint64(n) > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", n, err)
	}
	return payload, nil
}

// WriteFrame writes one frame to w as a single Write call.
func WriteFrame(w io.Writer, data []byte) error {
	buf := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(data)))
	copy(buf[4:], data)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

package ordtree

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Sentinel payload encoding errors.
var (
	// ErrPayloadWidth is returned when a payload does not have exactly the codec width.
	ErrPayloadWidth = errors.New("payload width mismatch")
	// ErrNilPayload is returned when a nil pointer payload has to be dereferenced.
	ErrNilPayload = errors.New("nil payload")
)

// PayloadCodec converts payloads to and from fixed-width records.
type PayloadCodec[V any] interface {
	// Width is the encoded size in bytes. It must be positive and constant.
	Width() int
	// Encode writes exactly Width bytes of payload into dst, len(dst) == Width.
	Encode(dst []byte, payload V) error
	// Decode builds a new payload from src, len(src) == Width. The result must
	// not alias src.
	Decode(src []byte) (V, error)
}

// Payload widths of the built-in codecs.
const (
	int64Width  = 8
	uint32Width = 4
)

// Int64Codec stores int64 payloads as 8 little-endian bytes.
type Int64Codec struct{}

// Width implements PayloadCodec.
func (Int64Codec) Width() int { return int64Width }

// Encode implements PayloadCodec.
func (Int64Codec) Encode(dst []byte, payload int64) error {
	binary.LittleEndian.PutUint64(dst, uint64(payload))

	return nil
}

// Decode implements PayloadCodec.
func (Int64Codec) Decode(src []byte) (int64, error) {
	return int64(binary.LittleEndian.Uint64(src)), nil
}

// Uint32Codec stores uint32 payloads as 4 little-endian bytes.
type Uint32Codec struct{}

// Width implements PayloadCodec.
func (Uint32Codec) Width() int { return uint32Width }

// Encode implements PayloadCodec.
func (Uint32Codec) Encode(dst []byte, payload uint32) error {
	binary.LittleEndian.PutUint32(dst, payload)

	return nil
}

// Decode implements PayloadCodec.
func (Uint32Codec) Decode(src []byte) (uint32, error) {
	return binary.LittleEndian.Uint32(src), nil
}

// FixedBytesCodec stores raw byte payloads of exactly Size bytes.
type FixedBytesCodec struct {
	Size int
}

// Width implements PayloadCodec.
func (c FixedBytesCodec) Width() int { return c.Size }

// Encode implements PayloadCodec. Payloads of any other length are rejected
// with ErrPayloadWidth.
func (c FixedBytesCodec) Encode(dst []byte, payload []byte) error {
	if len(payload) != c.Size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPayloadWidth, len(payload), c.Size)
	}

	copy(dst, payload)

	return nil
}

// Decode implements PayloadCodec.
func (c FixedBytesCodec) Decode(src []byte) ([]byte, error) {
	payload := make([]byte, c.Size)
	copy(payload, src)

	return payload, nil
}

// PointerCodec stores the value a pointer payload refers to, using Inner for
// the value itself. Decoding allocates a fresh value for every record.
type PointerCodec[T any] struct {
	Inner PayloadCodec[T]
}

// Width implements PayloadCodec.
func (c PointerCodec[T]) Width() int { return c.Inner.Width() }

// Encode implements PayloadCodec. A nil pointer yields ErrNilPayload.
func (c PointerCodec[T]) Encode(dst []byte, payload *T) error {
	if payload == nil {
		return ErrNilPayload
	}

	return c.Inner.Encode(dst, *payload)
}

// Decode implements PayloadCodec.
func (c PointerCodec[T]) Decode(src []byte) (*T, error) {
	value, err := c.Inner.Decode(src)
	if err != nil {
		return nil, err
	}

	return &value, nil
}

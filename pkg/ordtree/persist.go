package ordtree

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Sumatoshi-tech/ordtree/pkg/safeconv"
)

// KeyWidth is the encoded size of a key: a little-endian two's complement int64.
const KeyWidth = 8

// ErrInvalidCodec is returned when a codec reports a non-positive width.
var ErrInvalidCodec = errors.New("codec width must be positive")

// RecordWidth returns the size of one record for the given codec.
func RecordWidth[V any](codec PayloadCodec[V]) int {
	return KeyWidth + codec.Width()
}

// WriteTo writes the tree as a flat sequence of records in pre-order. Each
// record is the key followed by the encoded payload. There is no header,
// footer or count. Writing stops at the first payload that cannot be encoded.
func (tree *Tree[V]) WriteTo(w io.Writer, codec PayloadCodec[V]) (int64, error) {
	if codec.Width() <= 0 {
		return 0, ErrInvalidCodec
	}

	buffered := bufio.NewWriter(w)
	record := make([]byte, RecordWidth(codec))

	var (
		written int64
		err     error
	)

	for key, payload := range tree.PreOrder() {
		binary.LittleEndian.PutUint64(record, uint64(key))

		err = codec.Encode(record[KeyWidth:], payload)
		if err != nil {
			err = fmt.Errorf("encode payload of key %d: %w", key, err)

			break
		}

		var n int

		n, err = buffered.Write(record)
		written += int64(n)

		if err != nil {
			err = fmt.Errorf("write record: %w", err)

			break
		}
	}

	if err != nil {
		return written, err
	}

	err = buffered.Flush()
	if err != nil {
		return written, fmt.Errorf("flush records: %w", err)
	}

	return written, nil
}

// Save writes the tree to path, creating or truncating the file.
func (tree *Tree[V]) Save(path string, codec PayloadCodec[V]) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tree file: %w", err)
	}

	_, err = tree.WriteTo(file, codec)
	if err != nil {
		file.Close()

		return err
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close tree file: %w", err)
	}

	return nil
}

// ReadFrom builds a tree from a record stream, inserting records in stream
// order into a tree over allocator (nil for a fresh unlimited one). A trailing
// partial record is ignored.
//
// On failure the tree built so far is returned together with the error. The
// only insert failure is ErrAllocatorFull.
func ReadFrom[V any](r io.Reader, codec PayloadCodec[V], allocator *Allocator[V]) (*Tree[V], error) {
	if codec.Width() <= 0 {
		return nil, ErrInvalidCodec
	}

	tree := NewTree(allocator)
	buffered := bufio.NewReader(r)
	record := make([]byte, RecordWidth(codec))

	for {
		_, err := io.ReadFull(buffered, record)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return tree, nil
		}

		if err != nil {
			return tree, fmt.Errorf("read record: %w", err)
		}

		key := int64(binary.LittleEndian.Uint64(record))

		payload, err := codec.Decode(record[KeyWidth:])
		if err != nil {
			return tree, fmt.Errorf("decode payload of key %d: %w", key, err)
		}

		err = tree.Insert(key, payload)
		if err != nil {
			return tree, fmt.Errorf("load key %d: %w", key, err)
		}
	}
}

// Load reads a tree saved with Save. The number of records is the file size
// divided by the record width; any remainder is ignored. A file that cannot be
// opened yields a nil tree and the wrapped os error.
func Load[V any](path string, codec PayloadCodec[V], allocator *Allocator[V]) (*Tree[V], error) {
	if codec.Width() <= 0 {
		return nil, ErrInvalidCodec
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tree file: %w", err)
	}

	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat tree file: %w", err)
	}

	recordWidth := int64(RecordWidth(codec))
	records := info.Size() / recordWidth

	if allocator == nil {
		allocator = NewAllocator[V](0)
	}

	hint, err := safeconv.Int64ToInt(records)
	if err == nil {
		allocator.reserve(hint)
	}

	return ReadFrom(io.LimitReader(file, records*recordWidth), codec, allocator)
}

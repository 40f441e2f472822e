package ordtree

import (
	"fmt"
	"os"

	"github.com/pierrec/lz4/v4"
)

// SaveCompressed writes the same record stream as Save, wrapped in a single LZ4 frame.
func (tree *Tree[V]) SaveCompressed(path string, codec PayloadCodec[V]) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tree file: %w", err)
	}

	compressor := lz4.NewWriter(file)

	_, err = tree.WriteTo(compressor, codec)
	if err != nil {
		file.Close()

		return err
	}

	err = compressor.Close()
	if err != nil {
		file.Close()

		return fmt.Errorf("close lz4 frame: %w", err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close tree file: %w", err)
	}

	return nil
}

// LoadCompressed reads a tree saved with SaveCompressed. As with Load, a
// trailing partial record inside the frame is ignored.
func LoadCompressed[V any](path string, codec PayloadCodec[V], allocator *Allocator[V]) (*Tree[V], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tree file: %w", err)
	}

	defer file.Close()

	tree, err := ReadFrom(lz4.NewReader(file), codec, allocator)
	if err != nil {
		return tree, fmt.Errorf("read lz4 frame: %w", err)
	}

	return tree, nil
}

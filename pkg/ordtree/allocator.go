package ordtree

import (
	"errors"
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/ordtree/pkg/safeconv"
)

// ErrAllocatorFull is returned when the allocator cannot provide another node,
// either because its configured limit is reached or the index space is exhausted.
var ErrAllocatorFull = errors.New("node allocator is full")

// nilNode is the reserved index meaning "no node".
const nilNode uint32 = 0

// maxArenaLen bounds the storage length so every index fits in uint32 and
// math.MaxUint32 is never handed out.
const maxArenaLen = math.MaxUint32

// growCapacityNumerator and growCapacityDenominator define the 3/2 growth factor for reserved storage.
const (
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

// node is one arena slot. Only left and right change after allocation.
type node[V any] struct {
	payload     V
	key         int64
	left, right uint32
}

// Allocator is the node arena backing one or more trees. Nodes are addressed by
// stable uint32 indices; index 0 is reserved as the empty sentinel.
type Allocator[V any] struct {
	storage []node[V]
	gaps    map[uint32]bool
	limit   int
}

// NewAllocator creates a node allocator. A positive limit caps the number of
// live nodes; zero or negative means no limit beyond the index space.
func NewAllocator[V any](limit int) *Allocator[V] {
	if limit < 0 {
		limit = 0
	}

	return &Allocator[V]{
		storage: []node[V]{},
		gaps:    map[uint32]bool{},
		limit:   limit,
	}
}

// Size returns the currently allocated storage length, reserved slot and free slots included.
func (allocator *Allocator[V]) Size() int {
	return len(allocator.storage)
}

// Used returns the number of live nodes.
func (allocator *Allocator[V]) Used() int {
	if len(allocator.storage) == 0 {
		return 0
	}

	return len(allocator.storage) - len(allocator.gaps) - 1
}

// Limit returns the configured live node limit, 0 when unlimited.
func (allocator *Allocator[V]) Limit() int {
	return allocator.limit
}

// reserve grows the storage capacity so that n more nodes can be appended
// without reallocation.
func (allocator *Allocator[V]) reserve(n int) {
	if n <= 0 {
		return
	}

	want := len(allocator.storage) + n + 1
	if allocator.limit > 0 && want > allocator.limit+1 {
		want = allocator.limit + 1
	}

	if want <= cap(allocator.storage) {
		return
	}

	capSize := (want * growCapacityNumerator) / growCapacityDenominator
	grown := make([]node[V], len(allocator.storage), capSize)
	copy(grown, allocator.storage)
	allocator.storage = grown
}

func (allocator *Allocator[V]) malloc() (uint32, error) {
	if allocator.limit > 0 && allocator.Used() >= allocator.limit {
		return nilNode, fmt.Errorf("%w: limit %d reached", ErrAllocatorFull, allocator.limit)
	}

	if len(allocator.gaps) > 0 {
		var key uint32

		for key = range allocator.gaps {
			break
		}

		delete(allocator.gaps, key)

		return key, nil
	}

	nodeLen := len(allocator.storage)
	if nodeLen == 0 {
		// Zero is reserved.
		allocator.storage = append(allocator.storage, node[V]{})
		nodeLen = 1
	}

	if uint64(nodeLen) >= maxArenaLen {
		return nilNode, fmt.Errorf("%w: index space exhausted", ErrAllocatorFull)
	}

	allocator.storage = append(allocator.storage, node[V]{})

	return safeconv.MustIntToUint32(nodeLen), nil
}

func (allocator *Allocator[V]) free(nodeIdx uint32) {
	if nodeIdx == nilNode {
		panic("node #0 is special and cannot be deallocated")
	}

	_, exists := allocator.gaps[nodeIdx]
	doAssert(!exists)
	doAssert(safeconv.MustUint32ToInt(nodeIdx) < len(allocator.storage))

	allocator.storage[nodeIdx] = node[V]{}
	allocator.gaps[nodeIdx] = true
}

func doAssert(condition bool) {
	if !condition {
		panic("ordtree internal assertion failed")
	}
}

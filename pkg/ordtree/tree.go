// Package ordtree provides an unbalanced binary search tree keyed by int64,
// backed by an index-addressed node arena, with flat binary persistence.
//
// Duplicate keys are allowed. Insertion sends keys that are less than or equal
// to a node's key into its left subtree, so for every node all keys on the left
// are <= its key and all keys on the right are > its key. No rebalancing is
// performed: the shape depends only on insertion and removal order.
//
// A Tree is not safe for concurrent use. Callers serialize every call on the
// same tree, or wrap it (see package treestore).
package ordtree

// Entry is a key and its payload as stored in a tree node.
type Entry[V any] struct {
	Value V
	Key   int64
}

// Tree is a binary search tree over an Allocator.
type Tree[V any] struct {
	// Nodes allocator.
	allocator *Allocator[V]

	// Root of the tree.
	root uint32

	// Number of nodes under root, including the root.
	count int
}

// NewTree creates an empty tree over the given allocator. A nil allocator is
// replaced by a fresh unlimited one.
func NewTree[V any](allocator *Allocator[V]) *Tree[V] {
	if allocator == nil {
		allocator = NewAllocator[V](0)
	}

	return &Tree[V]{allocator: allocator, root: nilNode, count: 0}
}

func (tree *Tree[V]) storage() []node[V] {
	return tree.allocator.storage
}

// Allocator returns the bound nodes allocator.
func (tree *Tree[V]) Allocator() *Allocator[V] {
	return tree.allocator
}

// Len returns the maintained number of nodes. It always equals Size.
func (tree *Tree[V]) Len() int {
	return tree.count
}

// Empty reports whether the tree has no nodes.
func (tree *Tree[V]) Empty() bool {
	return tree.root == nilNode
}

// Insert adds a leaf holding key and payload. Keys <= a node's key descend
// left. The only failure is ErrAllocatorFull, in which case the tree is unchanged.
func (tree *Tree[V]) Insert(key int64, payload V) error {
	nodeIdx, err := tree.allocator.malloc()
	if err != nil {
		return err
	}

	// malloc may have grown the storage.
	alloc := tree.storage()
	alloc[nodeIdx] = node[V]{key: key, payload: payload, left: nilNode, right: nilNode}
	tree.count++

	if tree.root == nilNode {
		tree.root = nodeIdx

		return nil
	}

	parent := tree.root

	for {
		if key <= alloc[parent].key {
			if alloc[parent].left == nilNode {
				alloc[parent].left = nodeIdx

				return nil
			}

			parent = alloc[parent].left

			continue
		}

		if alloc[parent].right == nilNode {
			alloc[parent].right = nodeIdx

			return nil
		}

		parent = alloc[parent].right
	}
}

// Lookup returns the payload of the first node holding key on the search path
// from the root.
func (tree *Tree[V]) Lookup(key int64) (V, bool) {
	nodeIdx := tree.find(key)
	if nodeIdx == nilNode {
		var zero V

		return zero, false
	}

	return tree.storage()[nodeIdx].payload, true
}

// Contains reports whether key is present.
func (tree *Tree[V]) Contains(key int64) bool {
	return tree.find(key) != nilNode
}

// Root returns the entry stored at the root.
func (tree *Tree[V]) Root() (Entry[V], bool) {
	return tree.entry(tree.root)
}

// Min returns the entry with the smallest key, following left links from the root.
func (tree *Tree[V]) Min() (Entry[V], bool) {
	if tree.root == nilNode {
		return Entry[V]{}, false
	}

	nodeIdx, _ := leftmost(tree.storage(), tree.root)

	return tree.entry(nodeIdx)
}

// Max returns the entry with the largest key, following right links from the root.
func (tree *Tree[V]) Max() (Entry[V], bool) {
	if tree.root == nilNode {
		return Entry[V]{}, false
	}

	nodeIdx, _ := rightmost(tree.storage(), tree.root)

	return tree.entry(nodeIdx)
}

// Size counts the nodes reachable from the root.
func (tree *Tree[V]) Size() int {
	size := 0

	tree.preOrder(func(uint32) bool {
		size++

		return true
	})

	return size
}

// Depth returns the height in levels: 0 for an empty tree, 1 for a single node.
func (tree *Tree[V]) Depth() int {
	if tree.root == nilNode {
		return 0
	}

	alloc := tree.storage()
	level := []uint32{tree.root}
	depth := 0

	for len(level) > 0 {
		depth++

		next := make([]uint32, 0, len(level)*2)

		for _, nodeIdx := range level {
			if alloc[nodeIdx].left != nilNode {
				next = append(next, alloc[nodeIdx].left)
			}

			if alloc[nodeIdx].right != nilNode {
				next = append(next, alloc[nodeIdx].right)
			}
		}

		level = next
	}

	return depth
}

// Delete releases every node back to the allocator in post-order and leaves
// the tree empty. Safe on an empty tree.
func (tree *Tree[V]) Delete() {
	tree.postOrder(func(nodeIdx uint32) {
		tree.allocator.free(nodeIdx)
	})

	tree.root = nilNode
	tree.count = 0
}

func (tree *Tree[V]) find(key int64) uint32 {
	alloc := tree.storage()
	nodeIdx := tree.root

	for nodeIdx != nilNode {
		current := &alloc[nodeIdx]

		switch {
		case key == current.key:
			return nodeIdx
		case key < current.key:
			nodeIdx = current.left
		default:
			nodeIdx = current.right
		}
	}

	return nilNode
}

func (tree *Tree[V]) entry(nodeIdx uint32) (Entry[V], bool) {
	if nodeIdx == nilNode {
		return Entry[V]{}, false
	}

	nd := &tree.storage()[nodeIdx]

	return Entry[V]{Key: nd.key, Value: nd.payload}, true
}

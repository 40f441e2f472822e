package ordtree

import "iter"

// All iterates over the entries in key order. Entries with equal keys come in
// the order of their in-order position. The tree must not be modified while
// iterating.
func (tree *Tree[V]) All() iter.Seq2[int64, V] {
	return func(yield func(int64, V) bool) {
		alloc := tree.storage()

		tree.inOrder(func(nodeIdx uint32) bool {
			return yield(alloc[nodeIdx].key, alloc[nodeIdx].payload)
		})
	}
}

// PreOrder iterates over the entries node first, then the left subtree, then
// the right subtree. Re-inserting entries in this order rebuilds the same shape.
func (tree *Tree[V]) PreOrder() iter.Seq2[int64, V] {
	return func(yield func(int64, V) bool) {
		alloc := tree.storage()

		tree.preOrder(func(nodeIdx uint32) bool {
			return yield(alloc[nodeIdx].key, alloc[nodeIdx].payload)
		})
	}
}

// Keys returns all keys in non-decreasing order.
func (tree *Tree[V]) Keys() []int64 {
	keys := make([]int64, 0, tree.count)

	for key := range tree.All() {
		keys = append(keys, key)
	}

	return keys
}

// Entries returns all entries in key order.
func (tree *Tree[V]) Entries() []Entry[V] {
	entries := make([]Entry[V], 0, tree.count)

	for key, value := range tree.All() {
		entries = append(entries, Entry[V]{Key: key, Value: value})
	}

	return entries
}

// The walks below keep an explicit stack, so their call depth does not depend
// on the tree shape. A degenerate chain of n nodes is a stack of n indices.

func (tree *Tree[V]) preOrder(visit func(uint32) bool) {
	if tree.root == nilNode {
		return
	}

	alloc := tree.storage()
	stack := []uint32{tree.root}

	for len(stack) > 0 {
		nodeIdx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(nodeIdx) {
			return
		}

		if alloc[nodeIdx].right != nilNode {
			stack = append(stack, alloc[nodeIdx].right)
		}

		if alloc[nodeIdx].left != nilNode {
			stack = append(stack, alloc[nodeIdx].left)
		}
	}
}

func (tree *Tree[V]) inOrder(visit func(uint32) bool) {
	alloc := tree.storage()
	stack := []uint32{}
	nodeIdx := tree.root

	for nodeIdx != nilNode || len(stack) > 0 {
		for nodeIdx != nilNode {
			stack = append(stack, nodeIdx)
			nodeIdx = alloc[nodeIdx].left
		}

		nodeIdx = stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(nodeIdx) {
			return
		}

		nodeIdx = alloc[nodeIdx].right
	}
}

// postOrder visits children before their parent. visit may release the node
// it is given: the walk never reads a node after visiting it.
func (tree *Tree[V]) postOrder(visit func(uint32)) {
	alloc := tree.storage()
	stack := []uint32{}
	last := nilNode
	nodeIdx := tree.root

	for nodeIdx != nilNode || len(stack) > 0 {
		if nodeIdx != nilNode {
			stack = append(stack, nodeIdx)
			nodeIdx = alloc[nodeIdx].left

			continue
		}

		top := stack[len(stack)-1]

		if right := alloc[top].right; right != nilNode && right != last {
			nodeIdx = right

			continue
		}

		stack = stack[:len(stack)-1]
		visit(top)
		last = top
	}
}

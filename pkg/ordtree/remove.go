package ordtree

// Remove deletes the first node holding key and reports whether one was found.
//
// A matching root is spliced directly. Otherwise the parent of the match is
// found by re-descending from the root, stopping at the first node one of whose
// children holds key, and the splice result is stored in that child link. The
// re-descent takes the same direction as Lookup at every node above the match,
// so with duplicate keys the removed node is the one Lookup reported.
func (tree *Tree[V]) Remove(key int64) bool {
	if tree.root == nilNode {
		return false
	}

	alloc := tree.storage()

	if alloc[tree.root].key == key {
		tree.root = tree.splice(tree.root)

		return true
	}

	if tree.find(key) == nilNode {
		return false
	}

	parent := tree.parentOf(key)

	if holdsKey(alloc, alloc[parent].left, key) {
		alloc[parent].left = tree.splice(alloc[parent].left)
	} else {
		alloc[parent].right = tree.splice(alloc[parent].right)
	}

	return true
}

// parentOf requires key to be present below the root.
func (tree *Tree[V]) parentOf(key int64) uint32 {
	alloc := tree.storage()
	nodeIdx := tree.root

	for {
		current := &alloc[nodeIdx]

		if holdsKey(alloc, current.left, key) || holdsKey(alloc, current.right, key) {
			return nodeIdx
		}

		if key <= current.key {
			nodeIdx = current.left
		} else {
			nodeIdx = current.right
		}

		doAssert(nodeIdx != nilNode)
	}
}

// splice unlinks nodeIdx, releases it and returns the index that must take its
// place in the parent link.
//
// With two children, the length of the left child's right spine is compared
// with the length of the right child's left spine. The left child is promoted
// when its spine is not longer, and the right subtree is grafted below the end
// of that spine; otherwise the mirror image is done:
//
//	      N                  L
//	    /   \              /   \
//	   L     R     =>     a     b
//	  / \   / \                  \
//	 a   b c   d                  R
//	                             / \
//	                            c   d
//
// Every key of the grafted subtree is ordered against the whole promoted
// subtree, so BST ordering is kept.
func (tree *Tree[V]) splice(nodeIdx uint32) uint32 {
	alloc := tree.storage()
	removed := alloc[nodeIdx]

	var replacement uint32

	switch {
	case removed.left != nilNode && removed.right != nilNode:
		leftEnd, leftPathLength := rightmost(alloc, removed.left)
		rightEnd, rightPathLength := leftmost(alloc, removed.right)

		if leftPathLength <= rightPathLength {
			replacement = removed.left
			alloc[leftEnd].right = removed.right
		} else {
			replacement = removed.right
			alloc[rightEnd].left = removed.left
		}
	case removed.left != nilNode:
		replacement = removed.left
	default:
		replacement = removed.right
	}

	tree.allocator.free(nodeIdx)
	tree.count--

	return replacement
}

func holdsKey[V any](alloc []node[V], nodeIdx uint32, key int64) bool {
	return nodeIdx != nilNode && alloc[nodeIdx].key == key
}

// leftmost follows left links from nodeIdx and returns the last node together
// with the number of links followed.
func leftmost[V any](alloc []node[V], nodeIdx uint32) (uint32, int) {
	links := 0

	for alloc[nodeIdx].left != nilNode {
		nodeIdx = alloc[nodeIdx].left
		links++
	}

	return nodeIdx, links
}

// rightmost is the mirror of leftmost.
func rightmost[V any](alloc []node[V], nodeIdx uint32) (uint32, int) {
	links := 0

	for alloc[nodeIdx].right != nilNode {
		nodeIdx = alloc[nodeIdx].right
		links++
	}

	return nodeIdx, links
}

package ordtree //nolint:testpackage // tests inspect the node arena and tree shape.

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixturePayloads backs the pointer payloads of the fixture tree: key k points at fixturePayloads[k].
func fixturePayloads() []int64 {
	return []int64{0, 10, 20, 30, 40, 50, 60, 70}
}

// newFixtureTree builds the standard test tree:
//
//	      5
//	     / \
//	    3   7
//	   / \  /
//	  1  4 6
//	   \
//	    2
func newFixtureTree(t *testing.T) (*Tree[*int64], []int64) {
	t.Helper()

	payloads := fixturePayloads()
	tree := NewTree[*int64](nil)

	for _, key := range []int64{5, 3, 4, 7, 6, 1, 2} {
		require.NoError(t, tree.Insert(key, &payloads[key]))
	}

	return tree, payloads
}

// shape renders the tree as key(left,right); leaves are rendered as bare keys.
func shape[V any](tree *Tree[V]) string {
	alloc := tree.storage()

	var render func(uint32) string

	render = func(nodeIdx uint32) string {
		if nodeIdx == nilNode {
			return ""
		}

		nd := alloc[nodeIdx]
		if nd.left == nilNode && nd.right == nilNode {
			return strconv.FormatInt(nd.key, 10)
		}

		return fmt.Sprintf("%d(%s,%s)", nd.key, render(nd.left), render(nd.right))
	}

	return render(tree.root)
}

func assertFound(t *testing.T, tree *Tree[*int64], payloads []int64, keys ...int64) {
	t.Helper()

	for _, key := range keys {
		payload, ok := tree.Lookup(key)
		if assert.True(t, ok, "key %d not found", key) {
			assert.Same(t, &payloads[key], payload, "payload of key %d", key)
		}
	}
}

func assertMissing[V any](t *testing.T, tree *Tree[V], keys ...int64) {
	t.Helper()

	for _, key := range keys {
		_, ok := tree.Lookup(key)
		assert.False(t, ok, "key %d still found", key)
	}
}

func TestFirstNode(t *testing.T) {
	t.Parallel()

	payload := int64(50000)
	tree := NewTree[*int64](nil)

	require.NoError(t, tree.Insert(5, &payload))

	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, int64(5), root.Key)
	assert.Same(t, &payload, root.Value)
	assert.Equal(t, "5", shape(tree))
	assert.Equal(t, 1, tree.Len())
}

func TestFullTree(t *testing.T) {
	t.Parallel()

	tree, payloads := newFixtureTree(t)

	assert.Equal(t, "5(3(1(,2),4),7(6,))", shape(tree))
	assertFound(t, tree, payloads, 1, 2, 3, 4, 5, 6, 7)
	assertMissing(t, tree, 0, 8, -1)
}

func TestDeleteLeaf(t *testing.T) {
	t.Parallel()

	tree, payloads := newFixtureTree(t)

	require.True(t, tree.Remove(6))

	assert.Equal(t, "5(3(1(,2),4),7)", shape(tree))
	assertMissing(t, tree, 6)
	assertFound(t, tree, payloads, 1, 2, 3, 4, 5, 7)
	assert.Equal(t, 6, tree.Size())
}

func TestDeleteMid(t *testing.T) {
	t.Parallel()

	tree, payloads := newFixtureTree(t)

	// Two children: 1 has a right spine of one link, 4 has no left spine.
	require.True(t, tree.Remove(3))

	assert.Equal(t, "5(4(1(,2),),7(6,))", shape(tree))
	assertMissing(t, tree, 3)
	assertFound(t, tree, payloads, 1, 2, 4, 5, 6, 7)

	// One child.
	require.True(t, tree.Remove(1))

	assert.Equal(t, "5(4(2,),7(6,))", shape(tree))
	assertMissing(t, tree, 1, 3)
	assertFound(t, tree, payloads, 2, 4, 5, 6, 7)
}

func TestDeleteRoot(t *testing.T) {
	t.Parallel()

	tree, payloads := newFixtureTree(t)

	require.True(t, tree.Remove(5))

	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, int64(3), root.Key)
	assert.Equal(t, "3(1(,2),4(,7(6,)))", shape(tree))
	assertMissing(t, tree, 5)
	assertFound(t, tree, payloads, 1, 2, 3, 4, 6, 7)

	require.True(t, tree.Remove(3))

	root, ok = tree.Root()
	require.True(t, ok)
	assert.Equal(t, int64(4), root.Key)
	assert.Equal(t, "4(1(,2),7(6,))", shape(tree))
	assertMissing(t, tree, 3, 5)
	assertFound(t, tree, payloads, 1, 2, 4, 6, 7)
}

func TestTreeSize(t *testing.T) {
	t.Parallel()

	tree, _ := newFixtureTree(t)

	assert.Equal(t, 7, tree.Size())
	assert.Equal(t, 7, tree.Len())
	assert.Equal(t, 0, NewTree[int64](nil).Size())
}

func TestTreeDepth(t *testing.T) {
	t.Parallel()

	payloads := fixturePayloads()
	tree := NewTree[*int64](nil)

	assert.Equal(t, 0, tree.Depth())

	require.NoError(t, tree.Insert(5, &payloads[5]))
	assert.Equal(t, 1, tree.Depth())

	require.NoError(t, tree.Insert(3, &payloads[3]))
	assert.Equal(t, 2, tree.Depth())

	require.NoError(t, tree.Insert(4, &payloads[4]))
	assert.Equal(t, 3, tree.Depth())

	for _, key := range []int64{7, 6, 1, 2} {
		require.NoError(t, tree.Insert(key, &payloads[key]))
	}

	assert.Equal(t, 4, tree.Depth())
}

func TestMinMax(t *testing.T) {
	t.Parallel()

	empty := NewTree[*int64](nil)

	_, ok := empty.Min()
	assert.False(t, ok)

	_, ok = empty.Max()
	assert.False(t, ok)

	_, ok = empty.Root()
	assert.False(t, ok)

	tree, payloads := newFixtureTree(t)

	minEntry, ok := tree.Min()
	require.True(t, ok)
	assert.Equal(t, int64(1), minEntry.Key)
	assert.Same(t, &payloads[1], minEntry.Value)

	maxEntry, ok := tree.Max()
	require.True(t, ok)
	assert.Equal(t, int64(7), maxEntry.Key)
	assert.Same(t, &payloads[7], maxEntry.Value)
}

func TestMinMaxSingleNode(t *testing.T) {
	t.Parallel()

	tree := NewTree[int64](nil)
	require.NoError(t, tree.Insert(42, 1))

	minEntry, _ := tree.Min()
	maxEntry, _ := tree.Max()

	assert.Equal(t, minEntry, maxEntry)
}

func TestDegenerateChain(t *testing.T) {
	t.Parallel()

	const chainLen = 3000

	tree := NewTree[int64](nil)

	for key := range int64(chainLen) {
		require.NoError(t, tree.Insert(key, key))
	}

	assert.Equal(t, chainLen, tree.Size())
	assert.Equal(t, chainLen, tree.Depth())
	assert.Len(t, tree.Keys(), chainLen)

	tree.Delete()

	assert.True(t, tree.Empty())
	assert.Equal(t, 0, tree.Allocator().Used())
}

func TestDelete(t *testing.T) {
	t.Parallel()

	tree, _ := newFixtureTree(t)
	allocator := tree.Allocator()

	require.Equal(t, 7, allocator.Used())

	tree.Delete()

	assert.True(t, tree.Empty())
	assert.Equal(t, 0, tree.Size())
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, allocator.Used())
	assert.Len(t, allocator.gaps, 7)

	// Releasing an empty tree is a no-op.
	assert.NotPanics(t, tree.Delete)
}

func TestAllInOrder(t *testing.T) {
	t.Parallel()

	tree, _ := newFixtureTree(t)

	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, tree.Keys())

	var firstThree []int64

	for key := range tree.All() {
		if len(firstThree) == 3 {
			break
		}

		firstThree = append(firstThree, key)
	}

	assert.Equal(t, []int64{1, 2, 3}, firstThree)
}

func TestPreOrder(t *testing.T) {
	t.Parallel()

	tree, _ := newFixtureTree(t)

	var keys []int64

	for key := range tree.PreOrder() {
		keys = append(keys, key)
	}

	assert.Equal(t, []int64{5, 3, 1, 2, 4, 7, 6}, keys)
}

func TestEntries(t *testing.T) {
	t.Parallel()

	tree := NewTree[string](nil)

	require.NoError(t, tree.Insert(2, "b"))
	require.NoError(t, tree.Insert(1, "a"))

	assert.Equal(t, []Entry[string]{{Key: 1, Value: "a"}, {Key: 2, Value: "b"}}, tree.Entries())
}

func TestNilPayloadIsFound(t *testing.T) {
	t.Parallel()

	tree := NewTree[*int64](nil)
	require.NoError(t, tree.Insert(3, nil))

	payload, ok := tree.Lookup(3)
	assert.True(t, ok)
	assert.Nil(t, payload)

	assert.True(t, tree.Remove(3))
	assert.True(t, tree.Empty())
}

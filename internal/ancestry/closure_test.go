package ancestry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_WouldCycle(t *testing.T) {
	assert := assert.New(t)

	c := NewClosure()
	assert.True(c.WouldCycle(1, 1))
	assert.False(c.WouldCycle(1, 2))

	// B derives from A.
	c.Insert(2 /* child B */, 1 /* parent A */)

	// A deriving from B would be a cycle, since B is a descendant of A /
	// A is already an ancestor of B.
	assert.True(c.WouldCycle(1, 2))
}

func Test_AllRows_SortedByAncestorThenDescendant(t *testing.T) {
	assert := assert.New(t)

	c := NewClosure()
	c.Rebuild([]Edge{
		{Child: 2, Parent: 1},
		{Child: 3, Parent: 2},
		{Child: 4, Parent: 1},
	})

	rows := c.AllRows()

	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		inOrder := prev.Ancestor < cur.Ancestor ||
			(prev.Ancestor == cur.Ancestor && prev.Descendant <= cur.Descendant)
		assert.True(inOrder, "row %d (%+v) out of order after row %d (%+v)", i, cur, i-1, prev)
	}

	assert.Contains(rows, Row{Ancestor: 1, Descendant: 2, Depth: 1})
	assert.Contains(rows, Row{Ancestor: 1, Descendant: 3, Depth: 2})
	assert.Contains(rows, Row{Ancestor: 1, Descendant: 4, Depth: 1})
	assert.Contains(rows, Row{Ancestor: 2, Descendant: 3, Depth: 1})
	assert.Len(rows, 4)
}

func Test_Insert_DirectEdge(t *testing.T) {
	assert := assert.New(t)

	c := NewClosure()
	c.Insert(2, 1)

	assert.True(c.Contains(1, 2))
	d, ok := c.Depth(1, 2)
	assert.True(ok)
	assert.Equal(1, d)
}

func Test_Insert_TransitiveChain(t *testing.T) {
	assert := assert.New(t)

	c := NewClosure()
	// C derives from B, B derives from A: A -> B -> C
	c.Insert(2 /* B */, 1 /* A */)
	c.Insert(3 /* C */, 2 /* B */)

	assert.True(c.Contains(1, 3))
	d, ok := c.Depth(1, 3)
	assert.True(ok)
	assert.Equal(2, d)

	assert.ElementsMatch([]int64{2, 3}, c.DescendantsOf(1))
	assert.ElementsMatch([]int64{1, 2}, c.AncestorsOf(3))
}

func Test_Rebuild_MatchesShortestPath(t *testing.T) {
	assert := assert.New(t)

	// Diamond: D derives from both B and C; B and C both derive from A.
	edges := []Edge{
		{Child: 2, Parent: 1}, // B <- A
		{Child: 3, Parent: 1}, // C <- A
		{Child: 4, Parent: 2}, // D <- B
		{Child: 4, Parent: 3}, // D <- C
	}

	c := NewClosure()
	c.Rebuild(edges)

	d, ok := c.Depth(1, 4)
	assert.True(ok)
	assert.Equal(2, d)
}

func Test_Rebuild_RespectsMaxDepth(t *testing.T) {
	assert := assert.New(t)

	var edges []Edge
	for i := int64(1); i < int64(MaxDepth)+10; i++ {
		edges = append(edges, Edge{Child: i + 1, Parent: i})
	}

	c := NewClosure()
	c.Rebuild(edges)

	// the last node is farther than MaxDepth away from node 1
	assert.False(c.Contains(1, int64(MaxDepth)+10))
}

func Test_Tree_AncestorsAsChildren(t *testing.T) {
	assert := assert.New(t)

	// "kat" (3) is a compound/blend of "ka" (1, derived) and "t" (4, borrowed)
	edges := []Edge{
		{Child: 3, Parent: 1, Position: 0, Type: "derived"},
		{Child: 3, Parent: 4, Position: 1, Type: "borrowed"},
	}

	tree := Tree(3, edges, 50)

	assert.Equal(int64(3), tree.ID)
	assert.Len(tree.Children, 2)
	assert.Equal(int64(1), tree.Children[0].ID)
	assert.Equal("derived", tree.Children[0].Type)
	assert.Equal(int64(4), tree.Children[1].ID)
	assert.Equal("borrowed", tree.Children[1].Type)
}

func Test_Tree_RevisitEmitsEmptyChildren(t *testing.T) {
	assert := assert.New(t)

	// A diamond: D's ancestors are B and C, both of which derive from A.
	edges := []Edge{
		{Child: 4, Parent: 2, Position: 0},
		{Child: 4, Parent: 3, Position: 1},
		{Child: 2, Parent: 1, Position: 0},
		{Child: 3, Parent: 1, Position: 0},
	}

	tree := Tree(4, edges, 50)
	require := assert.New(t)
	require.Len(tree.Children, 2)

	b := tree.Children[0]
	c := tree.Children[1]
	require.Len(b.Children, 1)
	// A was already visited while expanding B, so C's expansion to A is
	// truncated to an empty-children leaf rather than expanded again.
	require.Len(c.Children, 1)
	require.Empty(c.Children[0].Children)
}

func Test_Tree_MaxDepthTruncates(t *testing.T) {
	assert := assert.New(t)

	edges := []Edge{
		{Child: 2, Parent: 1},
		{Child: 3, Parent: 2},
	}

	tree := Tree(3, edges, 1)
	assert.Len(tree.Children, 1)
	assert.Empty(tree.Children[0].Children)
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailCursorOpenBounds(t *testing.T) {
	var c detailCursor
	assert.False(t, c.Open(stateDraft, 0, 5))
	assert.False(t, c.Open(stateDraft, 6, 5))
	assert.False(t, c.IsOpen())

	require.True(t, c.Open(stateDraft, 3, 5))
	assert.True(t, c.IsOpen())
	assert.True(t, c.HasNext())
	assert.True(t, c.HasPrevious())
}

func TestDetailCursorNavigationClampsAtEdges(t *testing.T) {
	var c detailCursor
	require.True(t, c.Open(stateSubmitted, 1, 2))

	assert.False(t, c.Previous(), "already at the first record")
	assert.True(t, c.Next())
	assert.False(t, c.HasNext())
	assert.False(t, c.Next(), "already at the last record")
	assert.True(t, c.Previous())
}

func TestDetailCursorSingleRecord(t *testing.T) {
	var c detailCursor
	require.True(t, c.Open(stateDraft, 1, 1))
	assert.False(t, c.HasNext())
	assert.False(t, c.HasPrevious())
}

func TestDetailCursorResync(t *testing.T) {
	var c detailCursor
	require.True(t, c.Open(stateDraft, 5, 5))

	// view shrank under the cursor: clamp to the new end
	c.Resync(3)
	assert.True(t, c.IsOpen())
	assert.Equal(t, 3, c.position)
	assert.Equal(t, 3, c.total)

	// view emptied: nothing left to show
	c.Resync(0)
	assert.False(t, c.IsOpen())
}

func TestDetailCursorClose(t *testing.T) {
	var c detailCursor
	require.True(t, c.Open(stateDraft, 2, 4))
	c.Close()
	assert.False(t, c.IsOpen())
	assert.False(t, c.Next())
	assert.False(t, c.Previous())
}

func TestAddressPathDetailSegment(t *testing.T) {
	var a addressPath
	a.SetBase("forms", "expenses", "draft")
	assert.Equal(t, "/forms/expenses/draft", a.String())

	a.OpenDetail("rec-1")
	assert.Equal(t, "/forms/expenses/draft/detail/rec-1", a.String())

	// navigating replaces the segment, it does not stack
	a.OpenDetail("rec-2")
	assert.Equal(t, "/forms/expenses/draft/detail/rec-2", a.String())

	id, ok := a.DetailID()
	require.True(t, ok)
	assert.Equal(t, "rec-2", id)

	a.CloseDetail()
	assert.Equal(t, "/forms/expenses/draft", a.String())
	_, ok = a.DetailID()
	assert.False(t, ok)
}

func TestAddressPathEmpty(t *testing.T) {
	var a addressPath
	assert.Equal(t, "/", a.String())
}

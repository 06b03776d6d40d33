package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *dataStore {
	t.Helper()
	store, err := openDataStore(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMergeStoredColumnsOrderAndVisibility(t *testing.T) {
	live := testColumns()
	stored := []storedColumn{
		{Field: "reason", Title: "Reason", Visible: true},
		{Field: "amount", Title: "Amount", Visible: false},
	}

	merged, ok := mergeStoredColumns(live, stored)
	require.True(t, ok)
	require.Len(t, merged, 5)
	assert.Equal(t, "reason", merged[0].Field)
	assert.True(t, merged[0].Visible)
	assert.Equal(t, "amount", merged[1].Field)
	assert.False(t, merged[1].Visible)
	// live columns the preference never saw keep their derived position after
	assert.Equal(t, fieldDateCreated, merged[2].Field)
	// frozen columns close the list regardless of the stored order
	assert.Equal(t, fieldIdentifier, merged[3].Field)
	assert.Equal(t, fieldActions, merged[4].Field)
}

func TestMergeStoredColumnsDropsStaleFields(t *testing.T) {
	live := testColumns()
	stored := []storedColumn{
		{Field: "removed-long-ago", Visible: true},
		{Field: "amount", Visible: true},
		{Field: fieldIdentifier, Visible: false},
	}
	merged, ok := mergeStoredColumns(live, stored)
	require.True(t, ok)
	assert.Equal(t, "amount", merged[0].Field)
	for _, col := range merged {
		assert.NotEqual(t, "removed-long-ago", col.Field)
	}
	// a stored row cannot hide a frozen column
	last := merged[len(merged)-1]
	assert.Equal(t, fieldActions, last.Field)
	assert.True(t, last.Visible)
}

func TestMergeStoredColumnsNoOverlapIsMiss(t *testing.T) {
	_, ok := mergeStoredColumns(testColumns(), []storedColumn{{Field: "ghost"}})
	assert.False(t, ok)
	_, ok = mergeStoredColumns(testColumns(), nil)
	assert.False(t, ok)
}

func TestMergeStoredColumnsLiveTitleWins(t *testing.T) {
	live := testColumns()
	stored := []storedColumn{{Field: "amount", Title: "Stale Label", Visible: true}}
	merged, ok := mergeStoredColumns(live, stored)
	require.True(t, ok)
	assert.Equal(t, "Amount", merged[0].Title)
}

func TestPrefStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	prefs := newColumnPrefStore(store, "user-1", nil)
	live := testColumns()

	_, ok := prefs.Load("expenses", stateDraft, live)
	assert.False(t, ok, "nothing stored yet")

	edited := columnsClone(live)
	edited[1].Visible = false
	edited[0], edited[1] = edited[1], edited[0]
	require.NoError(t, prefs.Save("expenses", stateDraft, edited))

	merged, ok := prefs.Load("expenses", stateDraft, live)
	require.True(t, ok)
	assert.Equal(t, "amount", merged[0].Field)
	assert.False(t, merged[0].Visible)

	// states are independent preference slots
	_, ok = prefs.Load("expenses", stateSubmitted, live)
	assert.False(t, ok)

	// and so are users
	other := newColumnPrefStore(store, "user-2", nil)
	_, ok = other.Load("expenses", stateDraft, live)
	assert.False(t, ok)
}

func TestPrefStoreUndecodableIsMiss(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveColumnPrefs("expenses", stateDraft, "user-1", []byte("{broken")))

	prefs := newColumnPrefStore(store, "user-1", nil)
	_, ok := prefs.Load("expenses", stateDraft, testColumns())
	assert.False(t, ok)
}

func TestPrefStoreClear(t *testing.T) {
	store := newTestStore(t)
	prefs := newColumnPrefStore(store, "user-1", nil)
	require.NoError(t, prefs.Save("expenses", stateDraft, testColumns()))
	require.NoError(t, prefs.Clear("expenses", stateDraft))
	_, ok := prefs.Load("expenses", stateDraft, testColumns())
	assert.False(t, ok)
}

func TestNilPrefStoreIsInert(t *testing.T) {
	var prefs *columnPrefStore
	_, ok := prefs.Load("expenses", stateDraft, testColumns())
	assert.False(t, ok)
	assert.NoError(t, prefs.Save("expenses", stateDraft, nil))
	assert.NoError(t, prefs.Clear("expenses", stateDraft))
}

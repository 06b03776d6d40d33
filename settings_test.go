package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testColumns() []columnDef {
	return []columnDef{
		{Field: fieldDateCreated, Title: "Created", Visible: true},
		{Field: "amount", Title: "Amount", Visible: true},
		{Field: "reason", Title: "Reason", Visible: false},
		{Field: fieldIdentifier, Title: "ID", Visible: true, Frozen: true},
		{Field: fieldActions, Title: "Actions", Visible: true, Frozen: true},
	}
}

func TestSettingsWorkingCopyIsIsolated(t *testing.T) {
	initial := testColumns()
	s := newColumnSettings(initial, nil, false)

	require.True(t, s.ToggleVisibility("amount"))
	assert.True(t, initial[1].Visible, "edit must not leak into the source slice")
	assert.False(t, s.Columns()[1].Visible)
}

func TestSettingsToggleVisibility(t *testing.T) {
	s := newColumnSettings(testColumns(), nil, false)
	assert.True(t, s.ToggleVisibility("reason"))
	assert.True(t, s.Columns()[2].Visible)

	assert.False(t, s.ToggleVisibility(fieldIdentifier), "frozen columns cannot be hidden")
	assert.False(t, s.ToggleVisibility("no-such-field"))
}

func TestSettingsMove(t *testing.T) {
	s := newColumnSettings(testColumns(), nil, false)

	require.True(t, s.Move("amount", -1))
	cols := s.Columns()
	assert.Equal(t, "amount", cols[0].Field)
	assert.Equal(t, fieldDateCreated, cols[1].Field)

	// boundary: first row cannot move further up
	assert.False(t, s.Move("amount", -1))
	// frozen columns never move and never take part in a swap
	assert.False(t, s.Move(fieldIdentifier, -1))
	assert.False(t, s.Move("reason", 1), "swap into frozen region is a no-op")
	// only single steps are valid
	assert.False(t, s.Move("amount", 2))
}

func TestSettingsSetAllVisibility(t *testing.T) {
	s := newColumnSettings(testColumns(), nil, false)
	s.SetAllVisibility(false)
	for _, col := range s.Columns() {
		if col.Frozen {
			assert.True(t, col.Visible, "frozen columns stay visible")
		} else {
			assert.False(t, col.Visible)
		}
	}
	s.SetAllVisibility(true)
	for _, col := range s.Columns() {
		assert.True(t, col.Visible)
	}
}

func TestSettingsResetToSchemaDefault(t *testing.T) {
	derived := testColumns()
	s := newColumnSettings(testColumns(), func() []columnDef { return derived }, true)

	require.True(t, s.ToggleVisibility("amount"))
	require.True(t, s.Move("amount", -1))
	require.True(t, s.ResetToSchemaDefault())

	cols := s.Columns()
	assert.Equal(t, fieldDateCreated, cols[0].Field)
	assert.True(t, cols[1].Visible)
}

func TestSettingsResetDisabledWithoutDefaults(t *testing.T) {
	s := newColumnSettings(testColumns(), func() []columnDef { return testColumns() }, false)
	assert.False(t, s.CanReset())
	assert.False(t, s.ResetToSchemaDefault())
}

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSubmission(t *testing.T, store *dataStore, id, form string, state recordState, created time.Time, fields, grants string) {
	t.Helper()
	_, err := store.db.Exec(
		`INSERT INTO submissions (id, form, state, created, fields, files, grants) VALUES (?, ?, ?, ?, ?, '[]', ?)`,
		id, form, string(state), created, fields, grants,
	)
	require.NoError(t, err)
}

func TestFormsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	_, err := store.db.Exec(
		`INSERT INTO forms (name, titles, description, schema, states) VALUES (?, ?, ?, ?, ?)`,
		"expenses", `{"en": "Expenses", "nl": "Declaraties"}`, "Expense claims", sampleSchema, "draft,submitted",
	)
	require.NoError(t, err)

	forms, err := store.Forms()
	require.NoError(t, err)
	require.Len(t, forms, 1)

	form := forms[0]
	assert.Equal(t, "expenses", form.Name)
	assert.Equal(t, "Expenses", form.DisplayTitle("en"))
	assert.Equal(t, "Declaraties", form.DisplayTitle("nl"))
	assert.Equal(t, []recordState{stateDraft, stateSubmitted}, form.States)
	require.NotNil(t, form.Schema())
	assert.Len(t, form.Schema().Properties, 3)
}

func TestDisplayTitleFallsBackToName(t *testing.T) {
	form := formInfo{Name: "expenses"}
	assert.Equal(t, "expenses", form.DisplayTitle("en"))
}

func TestParseStates(t *testing.T) {
	assert.Equal(t, []recordState{stateDraft, stateSubmitted}, parseStates("draft, submitted"))
	assert.Equal(t, []recordState{stateSubmitted}, parseStates("submitted"))
	assert.Equal(t, recordStates, parseStates(""))
	assert.Equal(t, recordStates, parseStates("bogus"))
}

func TestSubmissionsOrderedNewestFirst(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	seedSubmission(t, store, "old", "expenses", stateDraft, base.Add(-time.Hour), `{"amount": 1}`, `["view"]`)
	seedSubmission(t, store, "new", "expenses", stateDraft, base, `{"amount": 2}`, `["view","manage"]`)
	seedSubmission(t, store, "other-state", "expenses", stateSubmitted, base, `{"amount": 3}`, `["view"]`)
	seedSubmission(t, store, "other-form", "travel", stateDraft, base, `{"amount": 4}`, `["view"]`)

	records, err := store.Submissions("expenses", stateDraft, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "old", records[1].ID)
	assert.Equal(t, []string{"view", "manage"}, records[0].Grants)
	assert.Equal(t, stateDraft, records[0].State)
}

func TestBuildRecordInjectsCreatedField(t *testing.T) {
	created := time.Date(2026, 5, 1, 9, 15, 0, 0, time.UTC)
	rec, err := buildRecord("r1", created, stateDraft, []byte(`{"amount": 5}`), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01 09:15", rec.Fields[fieldDateCreated])
	require.NotEmpty(t, rec.Order)
	assert.Equal(t, fieldDateCreated, rec.Order[0], "creation timestamp leads the field order")
	assert.Equal(t, "amount", rec.Order[1])
}

func TestDeleteSubmission(t *testing.T) {
	store := newTestStore(t)
	seedSubmission(t, store, "gone", "expenses", stateDraft, time.Now().UTC(), `{}`, `[]`)
	require.NoError(t, store.DeleteSubmission("gone"))

	records, err := store.Submissions("expenses", stateDraft, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUserNameLookup(t *testing.T) {
	store := newTestStore(t)
	_, err := store.db.Exec(`INSERT INTO users (id, display_name) VALUES ('u-1', 'Grace Hopper')`)
	require.NoError(t, err)

	name, ok := store.UserName("u-1")
	require.True(t, ok)
	assert.Equal(t, "Grace Hopper", name)

	_, ok = store.UserName("u-unknown")
	assert.False(t, ok)
}

func TestNilStoreIsInert(t *testing.T) {
	var store *dataStore
	forms, err := store.Forms()
	assert.NoError(t, err)
	assert.Nil(t, forms)
	assert.NoError(t, store.DeleteSubmission("x"))
	assert.NoError(t, store.Close())
	_, ok := store.LoadColumnPrefs("f", stateDraft, "u")
	assert.False(t, ok)
}

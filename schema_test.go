package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchema = `{
	"title": "Expense claim",
	"properties": {
		"amount": {"localizedName": {"en": "Amount", "nl": "Bedrag"}, "tableViewVisibleDefault": true},
		"reason": {"localizedName": {"en": "Reason"}, "tableViewVisibleDefault": false},
		"approver": {"localizedName": {"en": "Approver"}}
	},
	"files": {
		"receipt": {"maxSize": 1048576}
	},
	"submissionExport": {"downloadFolderPattern": "claims/{id}", "subfolders": ["receipt"]}
}`

func TestParseFormSchemaPreservesPropertyOrder(t *testing.T) {
	schema := parseFormSchema([]byte(sampleSchema))
	require.NotNil(t, schema)
	require.Len(t, schema.Properties, 3)
	assert.Equal(t, "amount", schema.Properties[0].Field)
	assert.Equal(t, "reason", schema.Properties[1].Field)
	assert.Equal(t, "approver", schema.Properties[2].Field)
	assert.Equal(t, []string{"receipt"}, schema.Files)
	assert.Equal(t, "claims/{id}", schema.Export.DownloadFolder)
}

func TestParseFormSchemaMalformed(t *testing.T) {
	assert.Nil(t, parseFormSchema(nil))
	assert.Nil(t, parseFormSchema([]byte("  ")))
	assert.Nil(t, parseFormSchema([]byte("null")))
	assert.Nil(t, parseFormSchema([]byte(`{"properties": 42}`)))
	assert.Nil(t, parseFormSchema([]byte(`[1,2,3]`)))
}

func TestHasVisibilityDefaults(t *testing.T) {
	schema := parseFormSchema([]byte(sampleSchema))
	require.NotNil(t, schema)
	assert.True(t, schema.HasVisibilityDefaults())

	bare := parseFormSchema([]byte(`{"properties": {"a": {}, "b": {}}}`))
	require.NotNil(t, bare)
	assert.False(t, bare.HasVisibilityDefaults())
	assert.False(t, (*formSchema)(nil).HasVisibilityDefaults())
}

func TestDeriveColumnsFromSchema(t *testing.T) {
	schema := parseFormSchema([]byte(sampleSchema))
	require.NotNil(t, schema)

	cols := deriveColumns(schema, nil, "en")
	require.Len(t, cols, 7)

	assert.Equal(t, fieldDateCreated, cols[0].Field)
	assert.Equal(t, "Created", cols[0].Title)
	assert.Equal(t, "amount", cols[1].Field)
	assert.Equal(t, "Amount", cols[1].Title)
	assert.True(t, cols[1].Visible)
	assert.Equal(t, "reason", cols[2].Field)
	assert.False(t, cols[2].Visible)
	assert.Equal(t, "approver", cols[3].Field)
	assert.Equal(t, "Approver", cols[3].Title)
	assert.Equal(t, "receipt", cols[4].Field)

	assert.Equal(t, fieldIdentifier, cols[5].Field)
	assert.True(t, cols[5].Frozen)
	assert.Equal(t, fieldActions, cols[6].Field)
	assert.True(t, cols[6].Frozen)
}

func TestDeriveColumnsLocalizedTitleFallback(t *testing.T) {
	schema := parseFormSchema([]byte(sampleSchema))
	require.NotNil(t, schema)

	cols := deriveColumns(schema, nil, "nl")
	assert.Equal(t, "Aangemaakt", cols[0].Title)
	assert.Equal(t, "Bedrag", cols[1].Title)
	// no Dutch name declared, falls back to the field name
	assert.Equal(t, "reason", cols[2].Title)
}

func TestDeriveColumnsCatchAll(t *testing.T) {
	rec := record{
		Fields: map[string]string{
			fieldDateCreated: "2026-01-02 10:00",
			"zebra":          "1",
			"alpha":          "2",
			fieldSubmission:  "s-1",
		},
		Order: []string{fieldDateCreated, "zebra", "alpha", fieldSubmission},
	}

	cols := deriveColumns(nil, &rec, "en")
	require.Len(t, cols, 5)
	assert.Equal(t, fieldDateCreated, cols[0].Field)
	// observation order, not alphabetical; internal fields are skipped
	assert.Equal(t, "zebra", cols[1].Field)
	assert.Equal(t, "alpha", cols[2].Field)
	assert.Equal(t, fieldIdentifier, cols[3].Field)
	assert.Equal(t, fieldActions, cols[4].Field)
}

func TestDeriveColumnsEmptyState(t *testing.T) {
	cols := deriveColumns(nil, nil, "en")
	require.Len(t, cols, 3)
	assert.Equal(t, fieldDateCreated, cols[0].Field)
	assert.Equal(t, fieldIdentifier, cols[1].Field)
	assert.Equal(t, fieldActions, cols[2].Field)
}

func TestCellValue(t *testing.T) {
	rec := record{
		ID:     "rec-1",
		Fields: map[string]string{"amount": "12.50"},
		Grants: []string{"view", "manage"},
	}
	assert.Equal(t, "12.50", cellValue(rec, columnDef{Field: "amount"}))
	assert.Equal(t, "", cellValue(rec, columnDef{Field: "missing"}))
	assert.Equal(t, "manage/view", cellValue(rec, columnDef{Field: fieldActions, Format: formatGrantSummary}))
}

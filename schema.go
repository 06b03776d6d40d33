package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errSchemaShape = errors.New("unexpected schema shape")

// Structural field names shared by every submission table.
const (
	fieldDateCreated = "dateCreated"
	fieldIdentifier  = "identifier"
	fieldSubmission  = "submissionId"
	fieldActions     = "actions"
)

// columnDef describes one submission-table column. Field/Title/Visible are
// the serializable structural parts; Format is behavioral and is attached
// during derivation only, never persisted.
type columnDef struct {
	Field   string
	Title   string
	Visible bool
	Frozen  bool
	Format  func(rec record) string
}

type schemaProperty struct {
	Field        string
	Names        map[string]string
	TableVisible *bool
}

type exportSettings struct {
	DownloadFolder string
	Subfolders     []string
}

type formSchema struct {
	Properties []schemaProperty
	Files      []string
	Export     exportSettings
}

// HasVisibilityDefaults reports whether the schema declares an explicit
// table-view visibility for at least one property. Reset-to-default is only
// meaningful when it does.
func (s *formSchema) HasVisibilityDefaults() bool {
	if s == nil {
		return false
	}
	for _, prop := range s.Properties {
		if prop.TableVisible != nil {
			return true
		}
	}
	return false
}

// parseFormSchema decodes a raw schema document. Property and file order is
// preserved by walking decoder tokens instead of unmarshalling into a map.
// Malformed or empty input yields nil, which callers treat as "no schema".
func parseFormSchema(raw []byte) *formSchema {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if !expectDelim(dec, '{') {
		return nil
	}
	schema := &formSchema{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := keyTok.(string)
		switch key {
		case "properties":
			props, err := parseSchemaProperties(dec)
			if err != nil {
				return nil
			}
			schema.Properties = props
		case "files":
			files, err := parseSchemaFiles(dec)
			if err != nil {
				return nil
			}
			schema.Files = files
		case "submissionExport":
			var export struct {
				DownloadFolderPattern string   `json:"downloadFolderPattern"`
				Subfolders            []string `json:"subfolders"`
			}
			if err := dec.Decode(&export); err != nil {
				return nil
			}
			schema.Export = exportSettings{
				DownloadFolder: export.DownloadFolderPattern,
				Subfolders:     export.Subfolders,
			}
		default:
			if err := skipJSONValue(dec); err != nil {
				return nil
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil
	}
	return schema
}

func parseSchemaProperties(dec *json.Decoder) ([]schemaProperty, error) {
	if !expectDelim(dec, '{') {
		return nil, errSchemaShape
	}
	var props []schemaProperty
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		field, _ := keyTok.(string)
		var body struct {
			LocalizedName           map[string]string `json:"localizedName"`
			TableViewVisibleDefault *bool             `json:"tableViewVisibleDefault"`
		}
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}
		if strings.TrimSpace(field) == "" {
			continue
		}
		props = append(props, schemaProperty{
			Field:        field,
			Names:        body.LocalizedName,
			TableVisible: body.TableViewVisibleDefault,
		})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return props, nil
}

func parseSchemaFiles(dec *json.Decoder) ([]string, error) {
	if !expectDelim(dec, '{') {
		return nil, errSchemaShape
	}
	var files []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := keyTok.(string)
		if err := skipJSONValue(dec); err != nil {
			return nil, err
		}
		if strings.TrimSpace(name) != "" {
			files = append(files, name)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return files, nil
}

func expectDelim(dec *json.Decoder, want rune) bool {
	tok, err := dec.Token()
	if err != nil {
		return false
	}
	delim, ok := tok.(json.Delim)
	return ok && rune(delim) == want
}

func skipJSONValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}

// deriveColumns builds the ordered column list for one record state: the
// creation timestamp first, then either the schema's declared properties and
// attachment types or (catch-all) every observed record field, then the
// frozen system columns. The sample record supplies field observation order
// for catch-all forms.
func deriveColumns(schema *formSchema, sample *record, lang string) []columnDef {
	var cols []columnDef
	seen := map[string]bool{
		fieldIdentifier: true,
		fieldSubmission: true,
		fieldActions:    true,
	}

	if sample == nil || sample.HasField(fieldDateCreated) {
		cols = append(cols, columnDef{
			Field:   fieldDateCreated,
			Title:   createdColumnTitle(lang),
			Visible: true,
			Format:  formatCreated,
		})
		seen[fieldDateCreated] = true
	}

	if schema == nil || len(schema.Properties) == 0 {
		if sample != nil {
			for _, field := range sample.Order {
				if seen[field] {
					continue
				}
				seen[field] = true
				cols = append(cols, columnDef{Field: field, Title: field, Visible: true})
			}
		}
	} else {
		for _, prop := range schema.Properties {
			if seen[prop.Field] {
				continue
			}
			seen[prop.Field] = true
			title := prop.Names[lang]
			if title == "" {
				title = prop.Field
			}
			visible := true
			if prop.TableVisible != nil {
				visible = *prop.TableVisible
			}
			cols = append(cols, columnDef{Field: prop.Field, Title: title, Visible: visible})
		}
		for _, file := range schema.Files {
			if seen[file] {
				continue
			}
			seen[file] = true
			cols = append(cols, columnDef{
				Field:   file,
				Title:   file,
				Visible: true,
				Format:  formatAttachments(file),
			})
		}
	}

	cols = append(cols,
		columnDef{Field: fieldIdentifier, Title: "ID", Visible: true, Frozen: true},
		columnDef{Field: fieldActions, Title: "Actions", Visible: true, Frozen: true, Format: formatGrantSummary},
	)
	return cols
}

func createdColumnTitle(lang string) string {
	switch lang {
	case "nl":
		return "Aangemaakt"
	case "de":
		return "Erstellt"
	default:
		return "Created"
	}
}

// columnsClone deep-copies a column list so working sets and templates never
// alias each other.
func columnsClone(cols []columnDef) []columnDef {
	out := make([]columnDef, len(cols))
	copy(out, cols)
	return out
}

// cellValue returns what the table shows for one record/column pair.
func cellValue(rec record, col columnDef) string {
	if col.Format != nil {
		return col.Format(rec)
	}
	return rec.Fields[col.Field]
}

func columnByField(cols []columnDef, field string) (columnDef, bool) {
	for _, col := range cols {
		if col.Field == field {
			return col, true
		}
	}
	return columnDef{}, false
}

package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// dataStore is the local sqlite surface behind the client: the cached forms
// and submissions handed over by the platform sync, the user display-name
// table, and the per-(form,state,user) column preferences.
type dataStore struct {
	db   *sql.DB
	path string
}

func openDataStore(path string) (*dataStore, error) {
	if strings.TrimSpace(path) == "" {
		path = filepath.Join(resolveConfigDir(), "formdeck.sqlite")
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := migrateDataStore(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &dataStore{db: db, path: path}, nil
}

func migrateDataStore(db *sql.DB) error {
	statements := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS forms (
			name TEXT PRIMARY KEY,
			titles TEXT NOT NULL DEFAULT '{}',
			description TEXT NOT NULL DEFAULT '',
			schema TEXT NOT NULL DEFAULT '',
			states TEXT NOT NULL DEFAULT 'draft,submitted'
		);`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			form TEXT NOT NULL,
			state TEXT NOT NULL,
			created TIMESTAMP NOT NULL,
			fields TEXT NOT NULL DEFAULT '{}',
			files TEXT NOT NULL DEFAULT '[]',
			grants TEXT NOT NULL DEFAULT '[]'
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_form_state ON submissions (form, state, created);`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS column_prefs (
			form TEXT NOT NULL,
			state TEXT NOT NULL,
			user TEXT NOT NULL,
			columns TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (form, state, user)
		);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("data store migration failed: %w", err)
		}
	}
	return nil
}

func (s *dataStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type formInfo struct {
	Name        string
	Titles      map[string]string
	Description string
	SchemaRaw   []byte
	States      []recordState
}

// DisplayTitle picks the localized form title, falling back to any declared
// language and then the technical name.
func (f formInfo) DisplayTitle(lang string) string {
	if title, ok := f.Titles[lang]; ok && strings.TrimSpace(title) != "" {
		return title
	}
	for _, title := range f.Titles {
		if strings.TrimSpace(title) != "" {
			return title
		}
	}
	return f.Name
}

func (f formInfo) Schema() *formSchema {
	return parseFormSchema(f.SchemaRaw)
}

func (s *dataStore) Forms() ([]formInfo, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT name, titles, description, schema, states FROM forms ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []formInfo
	for rows.Next() {
		var (
			name        string
			titlesRaw   string
			description string
			schemaRaw   string
			statesRaw   string
		)
		if err := rows.Scan(&name, &titlesRaw, &description, &schemaRaw, &statesRaw); err != nil {
			return nil, err
		}
		titles := map[string]string{}
		// a broken titles blob only costs the localized label
		_ = json.Unmarshal([]byte(titlesRaw), &titles)
		forms = append(forms, formInfo{
			Name:        name,
			Titles:      titles,
			Description: description,
			SchemaRaw:   []byte(schemaRaw),
			States:      parseStates(statesRaw),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return forms, nil
}

func parseStates(raw string) []recordState {
	var states []recordState
	for _, part := range strings.Split(raw, ",") {
		switch recordState(strings.TrimSpace(part)) {
		case stateDraft:
			states = append(states, stateDraft)
		case stateSubmitted:
			states = append(states, stateSubmitted)
		}
	}
	if len(states) == 0 {
		states = append([]recordState(nil), recordStates...)
	}
	return states
}

func (s *dataStore) Submissions(form string, state recordState, users *userCache) ([]record, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(
		`SELECT id, created, fields, files, grants FROM submissions
		 WHERE form = ? AND state = ? ORDER BY created DESC, id ASC`,
		form, string(state),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		var (
			id        string
			created   time.Time
			fieldsRaw string
			filesRaw  string
			grantsRaw string
		)
		if err := rows.Scan(&id, &created, &fieldsRaw, &filesRaw, &grantsRaw); err != nil {
			return nil, err
		}
		rec, err := buildRecord(id, created, state, []byte(fieldsRaw), []byte(filesRaw), []byte(grantsRaw), users)
		if err != nil {
			return nil, fmt.Errorf("submission %s: %w", id, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func buildRecord(id string, created time.Time, state recordState, fieldsRaw, filesRaw, grantsRaw []byte, users *userCache) (record, error) {
	fields, order, err := decodeRecordFields(fieldsRaw, users)
	if err != nil {
		return record{}, err
	}
	var files []string
	if len(filesRaw) > 0 {
		_ = json.Unmarshal(filesRaw, &files)
	}
	var grants []string
	if len(grantsRaw) > 0 {
		_ = json.Unmarshal(grantsRaw, &grants)
	}
	rec := record{
		ID:      id,
		Created: created,
		State:   state,
		Fields:  fields,
		Order:   order,
		Files:   files,
		Grants:  grants,
	}
	if !rec.HasField(fieldDateCreated) {
		rec.Fields[fieldDateCreated] = formatCreated(rec)
		rec.Order = append([]string{fieldDateCreated}, rec.Order...)
	}
	return rec, nil
}

func (s *dataStore) DeleteSubmission(id string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM submissions WHERE id = ?`, id)
	return err
}

func (s *dataStore) UserName(id string) (string, bool) {
	if s == nil || s.db == nil {
		return "", false
	}
	var name string
	err := s.db.QueryRow(`SELECT display_name FROM users WHERE id = ?`, id).Scan(&name)
	if err != nil {
		return "", false
	}
	return name, true
}

// Raw column-preference access. Merge semantics live in prefs.go.

func (s *dataStore) LoadColumnPrefs(form string, state recordState, user string) ([]byte, bool) {
	if s == nil || s.db == nil {
		return nil, false
	}
	var raw string
	err := s.db.QueryRow(
		`SELECT columns FROM column_prefs WHERE form = ? AND state = ? AND user = ?`,
		form, string(state), user,
	).Scan(&raw)
	if err != nil {
		return nil, false
	}
	return []byte(raw), true
}

func (s *dataStore) SaveColumnPrefs(form string, state recordState, user string, columns []byte) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO column_prefs (form, state, user, columns, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(form, state, user) DO UPDATE SET columns = excluded.columns, updated_at = excluded.updated_at`,
		form, string(state), user, string(columns),
	)
	return err
}

func (s *dataStore) ClearColumnPrefs(form string, state recordState, user string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(
		`DELETE FROM column_prefs WHERE form = ? AND state = ? AND user = ?`,
		form, string(state), user,
	)
	return err
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

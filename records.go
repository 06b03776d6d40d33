package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type recordState string

const (
	stateDraft     recordState = "draft"
	stateSubmitted recordState = "submitted"
)

var recordStates = []recordState{stateDraft, stateSubmitted}

func (s recordState) Label() string {
	switch s {
	case stateDraft:
		return "Draft"
	case stateSubmitted:
		return "Submitted"
	default:
		return string(s)
	}
}

// Capability tokens granted to the current operator on a single record.
const (
	grantView   = "view"
	grantUpdate = "update"
	grantDelete = "delete"
	grantManage = "manage"
)

// record is one submission: an opaque identifier, a normalized field map
// (arrays joined, user references resolved to display names), the lifecycle
// state, and the grant tokens the operator holds on it.
type record struct {
	ID      string
	Created time.Time
	State   recordState
	Fields  map[string]string
	Order   []string
	Files   []string
	Grants  []string
}

func (r record) HasField(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

func (r record) HasGrant(tokens ...string) bool {
	for _, grant := range r.Grants {
		for _, token := range tokens {
			if grant == token {
				return true
			}
		}
	}
	return false
}

func formatCreated(rec record) string {
	if rec.Created.IsZero() {
		return rec.Fields[fieldDateCreated]
	}
	return rec.Created.Format("2006-01-02 15:04")
}

// formatAttachments renders the names of a record's files for one declared
// attachment type.
func formatAttachments(kind string) func(rec record) string {
	return func(rec record) string {
		var names []string
		prefix := kind + ":"
		for _, file := range rec.Files {
			if trimmed, ok := strings.CutPrefix(file, prefix); ok {
				names = append(names, trimmed)
			}
		}
		if len(names) == 0 {
			return ""
		}
		return strings.Join(names, ", ")
	}
}

func formatGrantSummary(rec record) string {
	if len(rec.Grants) == 0 {
		return "—"
	}
	sorted := append([]string(nil), rec.Grants...)
	sort.Strings(sorted)
	return strings.Join(sorted, "/")
}

// userCache resolves opaque user identifiers to display names once per
// session.
type userCache struct {
	mu     sync.Mutex
	names  map[string]string
	lookup func(id string) (string, bool)
}

func newUserCache(lookup func(id string) (string, bool)) *userCache {
	return &userCache{
		names:  make(map[string]string),
		lookup: lookup,
	}
}

// DisplayName returns the human name for an identifier, falling back to the
// identifier itself when no resolver entry exists.
func (c *userCache) DisplayName(id string) string {
	if c == nil {
		return id
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if name, ok := c.names[id]; ok {
		return name
	}
	name := id
	if c.lookup != nil {
		if resolved, ok := c.lookup(id); ok && strings.TrimSpace(resolved) != "" {
			name = resolved
		}
	}
	c.names[id] = name
	return name
}

// decodeRecordFields normalizes a JSON-encoded field map into flat strings,
// preserving key observation order (catch-all column derivation depends on
// it). Arrays become comma-joined values; objects carrying a user id resolve
// to a display name.
func decodeRecordFields(raw []byte, users *userCache) (map[string]string, []string, error) {
	fields := make(map[string]string)
	var order []string
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return fields, order, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if !expectDelim(dec, '{') {
		return nil, nil, fmt.Errorf("record fields: not a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := keyTok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, exists := fields[key]; !exists {
			order = append(order, key)
		}
		fields[key] = normalizeFieldValue(value, users)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return fields, order, nil
}

func normalizeFieldValue(value any, users *userCache) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, normalizeFieldValue(item, users))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if id, ok := v["id"].(string); ok && id != "" {
			return users.DisplayName(id)
		}
		if name, ok := v["name"].(string); ok {
			return name
		}
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

type submissionsLoadedMsg struct {
	form       string
	state      recordState
	generation int
	records    []record
	err        error
}

// loadSubmissionsCmd fetches one (form, state) row set. The generation tag
// lets the coordinator discard completions that arrive after the operator
// already moved to another form or state.
func loadSubmissionsCmd(store *dataStore, users *userCache, form string, state recordState, generation int) tea.Cmd {
	return func() tea.Msg {
		records, err := store.Submissions(form, state, users)
		return submissionsLoadedMsg{
			form:       form,
			state:      state,
			generation: generation,
			records:    records,
			err:        err,
		}
	}
}

func recordPosition(rows []record, id string) (int, bool) {
	for i, rec := range rows {
		if rec.ID == id {
			return i + 1, true
		}
	}
	return 0, false
}

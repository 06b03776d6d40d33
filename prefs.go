package main

import (
	"encoding/json"
)

// storedColumn is the serializable slice of a column preference. Formatter
// behavior is never stored; it is re-attached from the freshly derived
// column set on load.
type storedColumn struct {
	Field   string `json:"field"`
	Title   string `json:"title"`
	Visible bool   `json:"visible"`
}

// columnPrefStore persists a user's column order and visibility per
// (form, record state). Load failures are misses, never errors: the caller
// falls back to the schema-derived defaults.
type columnPrefStore struct {
	store     *dataStore
	user      string
	telemetry *telemetryLogger
}

func newColumnPrefStore(store *dataStore, user string, telemetry *telemetryLogger) *columnPrefStore {
	return &columnPrefStore{store: store, user: user, telemetry: telemetry}
}

// Load merges the stored preference onto the live column set. The stored
// rows carry only field/title/visible; frozen columns and formatter funcs
// always come from the live derivation. Returns false when nothing usable
// is stored.
func (p *columnPrefStore) Load(form string, state recordState, live []columnDef) ([]columnDef, bool) {
	if p == nil {
		return nil, false
	}
	raw, ok := p.store.LoadColumnPrefs(form, state, p.user)
	if !ok {
		return nil, false
	}
	var stored []storedColumn
	if err := json.Unmarshal(raw, &stored); err != nil {
		p.telemetry.Emit(telemetryEvent{
			Event: "column_prefs_discarded",
			Form:  form,
			State: string(state),
		})
		return nil, false
	}
	merged, ok := mergeStoredColumns(live, stored)
	if !ok {
		return nil, false
	}
	return merged, true
}

// Save persists the non-frozen columns of the working set.
func (p *columnPrefStore) Save(form string, state recordState, cols []columnDef) error {
	if p == nil {
		return nil
	}
	stored := make([]storedColumn, 0, len(cols))
	for _, col := range cols {
		if col.Frozen {
			continue
		}
		stored = append(stored, storedColumn{Field: col.Field, Title: col.Title, Visible: col.Visible})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return p.store.SaveColumnPrefs(form, state, p.user, raw)
}

func (p *columnPrefStore) Clear(form string, state recordState) error {
	if p == nil {
		return nil
	}
	return p.store.ClearColumnPrefs(form, state, p.user)
}

// mergeStoredColumns applies stored order and visibility to the live column
// set. Stored fields without a live counterpart are dropped, live fields the
// preference has never seen keep their derived position after the stored
// ones, and frozen columns keep their structural place at the end. The live
// title wins when present so a language switch is not defeated by a stale
// snapshot.
func mergeStoredColumns(live []columnDef, stored []storedColumn) ([]columnDef, bool) {
	liveByField := make(map[string]columnDef, len(live))
	for _, def := range live {
		liveByField[def.Field] = def
	}

	consumed := make(map[string]bool, len(stored))
	var merged []columnDef
	for _, sc := range stored {
		def, ok := liveByField[sc.Field]
		if !ok || def.Frozen || consumed[sc.Field] {
			continue
		}
		consumed[sc.Field] = true
		def.Visible = sc.Visible
		if def.Title == "" {
			def.Title = sc.Title
		}
		merged = append(merged, def)
	}
	if len(merged) == 0 {
		return nil, false
	}
	for _, def := range live {
		if def.Frozen || consumed[def.Field] {
			continue
		}
		merged = append(merged, def)
	}
	for _, def := range live {
		if def.Frozen {
			merged = append(merged, def)
		}
	}
	return merged, true
}

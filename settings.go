package main

// columnSettings is the uncommitted working copy of one table's column
// configuration. Every edit stays local until the coordinator commits it to
// the preference store and applies it to the live table.
type columnSettings struct {
	working     []columnDef
	derive      func() []columnDef
	hasDefaults bool
}

func newColumnSettings(initial []columnDef, derive func() []columnDef, hasDefaults bool) *columnSettings {
	return &columnSettings{
		working:     columnsClone(initial),
		derive:      derive,
		hasDefaults: hasDefaults,
	}
}

// Columns returns a copy of the working set.
func (s *columnSettings) Columns() []columnDef {
	if s == nil {
		return nil
	}
	return columnsClone(s.working)
}

// Replace seeds the working set anew, e.g. after a commit or a column
// re-derivation.
func (s *columnSettings) Replace(cols []columnDef) {
	if s == nil {
		return
	}
	s.working = columnsClone(cols)
}

// ToggleVisibility flips one non-frozen column. Unknown fields are a no-op.
func (s *columnSettings) ToggleVisibility(field string) bool {
	if s == nil {
		return false
	}
	for i := range s.working {
		if s.working[i].Field != field || s.working[i].Frozen {
			continue
		}
		s.working[i].Visible = !s.working[i].Visible
		return true
	}
	return false
}

// Move swaps a column with its neighbor. delta is -1 for up, +1 for down.
// Boundary moves and frozen columns are no-ops; frozen columns never take
// part in a swap from either side.
func (s *columnSettings) Move(field string, delta int) bool {
	if s == nil || (delta != -1 && delta != 1) {
		return false
	}
	idx := -1
	for i := range s.working {
		if s.working[i].Field == field {
			idx = i
			break
		}
	}
	if idx < 0 || s.working[idx].Frozen {
		return false
	}
	target := idx + delta
	if target < 0 || target >= len(s.working) || s.working[target].Frozen {
		return false
	}
	s.working[idx], s.working[target] = s.working[target], s.working[idx]
	return true
}

// SetAllVisibility shows or hides every non-frozen column at once.
func (s *columnSettings) SetAllVisibility(visible bool) {
	if s == nil {
		return
	}
	for i := range s.working {
		if s.working[i].Frozen {
			continue
		}
		s.working[i].Visible = visible
	}
}

// ResetToSchemaDefault replaces the working set with a fresh derivation.
// Disabled for forms without declared per-field visibility defaults, where
// the derivation and catch-all coincide anyway.
func (s *columnSettings) ResetToSchemaDefault() bool {
	if s == nil || !s.hasDefaults || s.derive == nil {
		return false
	}
	s.working = columnsClone(s.derive())
	return true
}

func (s *columnSettings) CanReset() bool {
	return s != nil && s.hasDefaults
}

package main

import (
	"regexp"
	"strconv"
	"strings"
)

type filterOp string

const (
	filterOpLike     filterOp = "like"
	filterOpEquals   filterOp = "="
	filterOpNotEqual filterOp = "!="
	filterOpStarts   filterOp = "starts"
	filterOpEnds     filterOp = "ends"
	filterOpLess     filterOp = "<"
	filterOpLessEq   filterOp = "<="
	filterOpGreater  filterOp = ">"
	filterOpGreatEq  filterOp = ">="
	filterOpRegex    filterOp = "regex"
	filterOpKeywords filterOp = "keywords"
)

const filterTargetAll = "all"

var filterOps = []filterOp{
	filterOpLike, filterOpEquals, filterOpNotEqual, filterOpStarts,
	filterOpEnds, filterOpLess, filterOpLessEq, filterOpGreater,
	filterOpGreatEq, filterOpRegex, filterOpKeywords,
}

type filterQuery struct {
	Target string
	Op     filterOp
	Value  string
}

// Active reports whether the query narrows the row set at all. An empty
// value always means "no filter".
func (q filterQuery) Active() bool {
	return strings.TrimSpace(q.Value) != ""
}

func (q filterQuery) Describe() string {
	if !q.Active() {
		return ""
	}
	target := q.Target
	if target == "" {
		target = filterTargetAll
	}
	return target + " " + string(q.Op) + " " + q.Value
}

// parseFilterInput reads the filter prompt syntax:
//
//	value              all fields, like
//	op:value           all fields, explicit operator
//	field:op:value     one field, explicit operator
func parseFilterInput(input string) filterQuery {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return filterQuery{Target: filterTargetAll, Op: filterOpLike}
	}
	parts := strings.SplitN(trimmed, ":", 3)
	switch len(parts) {
	case 3:
		if op, ok := lookupFilterOp(parts[1]); ok {
			return filterQuery{Target: strings.TrimSpace(parts[0]), Op: op, Value: parts[2]}
		}
	case 2:
		if op, ok := lookupFilterOp(parts[0]); ok {
			return filterQuery{Target: filterTargetAll, Op: op, Value: parts[1]}
		}
	}
	return filterQuery{Target: filterTargetAll, Op: filterOpLike, Value: trimmed}
}

func lookupFilterOp(raw string) (filterOp, bool) {
	candidate := filterOp(strings.TrimSpace(raw))
	for _, op := range filterOps {
		if candidate == op {
			return op, true
		}
	}
	return "", false
}

// applyFilter evaluates the query against the row set and returns the
// matching subset. The input rows are never mutated. An inactive query and
// an unknown target field both return the rows unchanged.
func applyFilter(rows []record, cols []columnDef, q filterQuery) []record {
	if !q.Active() {
		return rows
	}
	if q.Target != filterTargetAll && q.Target != "" {
		if _, ok := columnByField(cols, q.Target); !ok {
			return rows
		}
	}
	matched := make([]record, 0, len(rows))
	for _, rec := range rows {
		if matchRecord(rec, cols, q) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// matchRecord checks one row. For target "all" a row matches when any
// non-frozen field satisfies the operator.
func matchRecord(rec record, cols []columnDef, q filterQuery) bool {
	if q.Target != filterTargetAll && q.Target != "" {
		col, ok := columnByField(cols, q.Target)
		if !ok {
			return true
		}
		return matchValue(cellValue(rec, col), q.Op, q.Value)
	}
	for _, col := range cols {
		if col.Frozen {
			continue
		}
		if matchValue(cellValue(rec, col), q.Op, q.Value) {
			return true
		}
	}
	return false
}

func matchValue(cell string, op filterOp, value string) bool {
	switch op {
	case filterOpLike:
		return strings.Contains(strings.ToLower(cell), strings.ToLower(value))
	case filterOpEquals:
		return cell == value
	case filterOpNotEqual:
		return cell != value
	case filterOpStarts:
		return strings.HasPrefix(strings.ToLower(cell), strings.ToLower(value))
	case filterOpEnds:
		return strings.HasSuffix(strings.ToLower(cell), strings.ToLower(value))
	case filterOpLess:
		return compareValues(cell, value) < 0
	case filterOpLessEq:
		return compareValues(cell, value) <= 0
	case filterOpGreater:
		return compareValues(cell, value) > 0
	case filterOpGreatEq:
		return compareValues(cell, value) >= 0
	case filterOpRegex:
		re, err := regexp.Compile(value)
		if err != nil {
			return false
		}
		return re.MatchString(cell)
	case filterOpKeywords:
		lower := strings.ToLower(cell)
		for _, keyword := range strings.Fields(strings.ToLower(value)) {
			if !strings.Contains(lower, keyword) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareValues orders two cells numerically when both parse as numbers,
// lexicographically otherwise.
func compareValues(left, right string) int {
	lf, lerr := strconv.ParseFloat(strings.TrimSpace(left), 64)
	rf, rerr := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if lerr == nil && rerr == nil {
		switch {
		case lf < rf:
			return -1
		case lf > rf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(left, right)
}

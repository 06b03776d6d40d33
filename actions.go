package main

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

type bulkAction string

const (
	actionDeleteSelected bulkAction = "delete-selected"
	actionDeleteAll      bulkAction = "delete-all"
	actionEdit           bulkAction = "edit"
	actionEditGrants     bulkAction = "edit-grants"
)

// bulkActionItem is one row of the actions column: the action, its display
// strings, and whether the current selection enables it.
type bulkActionItem struct {
	Action         bulkAction
	Title          string
	Desc           string
	Disabled       bool
	DisabledReason string
}

// grantUnion aggregates the grant tokens across a batch of records. The
// gating rule tests membership on this union, not per record; server-side
// re-authorization of each target is the platform's job.
func grantUnion(records []record) mapset.Set[string] {
	union := mapset.NewThreadUnsafeSet[string]()
	for _, rec := range records {
		for _, grant := range rec.Grants {
			union.Add(grant)
		}
	}
	return union
}

// evaluateBulkActions derives the enabled state of every bulk action from
// the current selection, falling back to the full visible row set when
// nothing is selected.
func evaluateBulkActions(selected, visible []record) []bulkActionItem {
	selectedUnion := grantUnion(selected)
	visibleUnion := grantUnion(visible)

	items := []bulkActionItem{
		{
			Action: actionDeleteSelected,
			Title:  "Delete selected",
			Desc:   fmt.Sprintf("Remove the %d selected record(s)", len(selected)),
		},
		{
			Action: actionDeleteAll,
			Title:  "Delete all",
			Desc:   fmt.Sprintf("Remove all %d visible record(s)", len(visible)),
		},
		{
			Action: actionEdit,
			Title:  "Edit",
			Desc:   "Open the selected record for editing",
		},
		{
			Action: actionEditGrants,
			Title:  "Edit permissions",
			Desc:   "Grant or revoke access on the selected record",
		},
	}

	for i := range items {
		switch items[i].Action {
		case actionDeleteSelected:
			switch {
			case len(selected) == 0:
				items[i].disable("Select at least one record")
			case !selectedUnion.ContainsAny(grantManage, grantDelete):
				items[i].disable("Requires delete or manage rights")
			}
		case actionDeleteAll:
			switch {
			case len(selected) > 0:
				items[i].disable("Clear the selection to delete all")
			case len(visible) == 0:
				items[i].disable("No records to delete")
			case !visibleUnion.ContainsAny(grantManage, grantDelete):
				items[i].disable("Requires delete or manage rights")
			}
		case actionEdit:
			switch {
			case len(selected) != 1:
				items[i].disable("Select exactly one record")
			case !selected[0].HasGrant(grantManage, grantUpdate):
				items[i].disable("Requires update or manage rights")
			}
		case actionEditGrants:
			switch {
			case len(selected) != 1:
				items[i].disable("Select exactly one record")
			case !selected[0].HasGrant(grantManage):
				items[i].disable("Requires manage rights")
			}
		}
	}
	return items
}

func (item *bulkActionItem) disable(reason string) {
	item.Disabled = true
	item.DisabledReason = reason
}

// anyActionEnabled decides whether the actions column shows its rows at all.
func anyActionEnabled(items []bulkActionItem) bool {
	for _, item := range items {
		if !item.Disabled {
			return true
		}
	}
	return false
}

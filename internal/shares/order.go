package shares

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortAndOrderGrantees returns grantees in display order.
//
// When activeShares is nil every grantee counts as existing. Otherwise grantees without an
// active share come first in reverse insertion order, so the latest addition is on top.
// Existing grantees follow, sorted by title and grouped by type in the order
// error, global, team, user. Grantees of any other type trail the known groups.
// A non-nil empty activeShares marks every grantee as new.
func SortAndOrderGrantees[T Principal](grantees []T, activeShares []ActiveShare) []T {
	var (
		newGrantees []T
		existing    []T
	)

	active := activeGranteeIDs(activeShares)
	for _, grantee := range grantees {
		if activeShares == nil || active[grantee.PrincipalID()] {
			existing = append(existing, grantee)
			continue
		}
		newGrantees = append(newGrantees, grantee)
	}
	slices.Reverse(newGrantees)

	titles := collate.New(language.Und, collate.IgnoreCase)
	slices.SortStableFunc(existing, func(a, b T) int {
		return titles.CompareString(a.PrincipalTitle(), b.PrincipalTitle())
	})

	out := make([]T, 0, len(grantees))
	out = append(out, newGrantees...)
	for _, group := range groupByType(existing) {
		out = append(out, group...)
	}
	return out
}

func activeGranteeIDs(activeShares []ActiveShare) map[string]bool {
	ids := make(map[string]bool, len(activeShares))
	for _, share := range activeShares {
		ids[share.Grantee] = true
	}
	return ids
}

// groupByType splits sorted grantees into type groups in display priority.
func groupByType[T Principal](sorted []T) [][]T {
	groups := make(map[GranteeType][]T)
	var unknown []GranteeType
	for _, grantee := range sorted {
		t := grantee.PrincipalType()
		if _, seen := groups[t]; !seen && !t.Valid() {
			unknown = append(unknown, t)
		}
		groups[t] = append(groups[t], grantee)
	}

	out := make([][]T, 0, len(groups))
	for _, t := range granteeTypeOrder {
		if len(groups[t]) > 0 {
			out = append(out, groups[t])
		}
	}
	for _, t := range unknown {
		out = append(out, groups[t])
	}
	return out
}

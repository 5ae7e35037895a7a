package store

import (
	"cmp"
	"slices"
	"strings"

	"fintrack/internal/core"
)

// MatchCategory reports whether c passes the filters of q.
func (q Query) MatchCategory(c core.Category) bool {
	if q.Type != "" && c.Type != q.Type {
		return false
	}
	if q.ActiveOnly && !c.Active {
		return false
	}
	return true
}

// MatchTransaction reports whether t passes the filters of q.
func (q Query) MatchTransaction(t core.Transaction) bool {
	if q.CategoryID == nil {
		return true
	}
	return t.CategoryID != nil && *t.CategoryID == *q.CategoryID
}

// Descending reports whether results should be newest first. Transactions
// default to newest first.
func (q Query) Descending() bool {
	return q.Order != Ascending
}

// SortCategories orders categories by name, ascending unless q asks otherwise.
func SortCategories(cs []core.Category, q Query) {
	slices.SortStableFunc(cs, func(a, b core.Category) int {
		c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		if q.Order == Descending {
			return -c
		}
		return c
	})
}

// SortByDate orders income or expenses by date, newest first by default.
// Entries on the same day keep their relative order.
func SortByDate[T interface{ Record() core.Transaction }](txs []T, q Query) {
	desc := q.Descending()
	slices.SortStableFunc(txs, func(a, b T) int {
		c := a.Record().Date.Compare(b.Record().Date.Time)
		if desc {
			return -c
		}
		return c
	})
}

package sheets

import (
	"sort"

	"subtrack/internal/core"
)

// SortByDisplayOrder orders subs in place by DisplayOrder, then id.
func SortByDisplayOrder(subs []core.Subscription) {
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].DisplayOrder != subs[j].DisplayOrder {
			return subs[i].DisplayOrder < subs[j].DisplayOrder
		}
		return subs[i].ID < subs[j].ID
	})
}

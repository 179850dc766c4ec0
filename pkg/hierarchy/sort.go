package hierarchy

import (
	"cmp"
	"slices"
)

// SortByValue orders every child list by descending value. The sort is
// stable, so equal values keep first-seen order.
func SortByValue(n *Node) {
	slices.SortStableFunc(n.Children, func(a, b *Node) int {
		return cmp.Compare(b.Value, a.Value)
	})
	for _, c := range n.Children {
		SortByValue(c)
	}
}

package bom

import (
	"slices"
	"strings"
)

// Query selects the items shown in a filtered view. Empty Statuses or
// Categories place no restriction.
type Query struct {
	Search     string   `json:"search"`
	Statuses   []Status `json:"statuses"`
	Categories []string `json:"categories"`
}

// Filter returns the categories holding at least one item matching q, each
// with only its matching items
func Filter(tree Tree, q Query) Tree {
	search := strings.ToLower(q.Search)
	out := Tree{}
	for _, c := range tree {
		if len(q.Categories) > 0 && !slices.Contains(q.Categories, c.Name) {
			continue
		}
		var items []Item
		for _, item := range c.Items {
			if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, item.Status) {
				continue
			}
			if !matchesSearch(item, search) {
				continue
			}
			items = append(items, item.clone())
		}
		if len(items) > 0 {
			out = append(out, Category{Name: c.Name, Items: items, IsExpanded: c.IsExpanded})
		}
	}
	return out
}

func matchesSearch(item Item, search string) bool {
	return strings.Contains(strings.ToLower(item.Name), search) ||
		strings.Contains(strings.ToLower(item.PartID), search) ||
		strings.Contains(strings.ToLower(item.Description), search)
}

// Stats counts the items of a tree by status
type Stats struct {
	TotalParts      int `json:"totalParts"`
	ReceivedParts   int `json:"receivedParts"`
	OrderedParts    int `json:"orderedParts"`
	NotOrderedParts int `json:"notOrderedParts"`
	ApprovedParts   int `json:"approvedParts"`
}

// ComputeStats scans every item once
func ComputeStats(tree Tree) Stats {
	var s Stats
	for _, c := range tree {
		for _, item := range c.Items {
			s.TotalParts++
			switch item.Status {
			case StatusReceived:
				s.ReceivedParts++
			case StatusOrdered:
				s.OrderedParts++
			case StatusNotOrdered:
				s.NotOrderedParts++
			case StatusApproved:
				s.ApprovedParts++
			}
		}
	}
	return s
}

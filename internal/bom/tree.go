package bom

import "strings"

// Tree operations never modify their input. Each returns a new tree, and an
// operation whose target is absent returns an unchanged copy.

// ToggleCategoryExpanded flips the expanded flag of the named category
func ToggleCategoryExpanded(tree Tree, categoryName string) Tree {
	out := tree.Clone()
	for i := range out {
		if out[i].Name == categoryName {
			out[i].IsExpanded = !out[i].IsExpanded
		}
	}
	return out
}

// SetItemFields overlays update onto the item with the given id
func SetItemFields(tree Tree, itemID string, update ItemUpdate) Tree {
	out := tree.Clone()
	for i := range out {
		for j := range out[i].Items {
			if out[i].Items[j].ID == itemID {
				out[i].Items[j] = update.Apply(out[i].Items[j])
			}
		}
	}
	return out
}

// RemoveItem deletes the item with the given id from whichever category holds it
func RemoveItem(tree Tree, itemID string) Tree {
	out := tree.Clone()
	for i := range out {
		items := out[i].Items[:0]
		for _, item := range out[i].Items {
			if item.ID != itemID {
				items = append(items, item)
			}
		}
		out[i].Items = items
	}
	return out
}

// AddItem appends item to the named category and stamps the category name on
// it. Categories are not created here, so the caller must append a missing
// category before adding to it.
func AddItem(tree Tree, categoryName string, item Item) Tree {
	out := tree.Clone()
	for i := range out {
		if out[i].Name == categoryName {
			added := item.clone()
			added.Category = categoryName
			out[i].Items = append(out[i].Items, added)
		}
	}
	return out
}

// AppendCategory adds an empty, expanded category at the end of the tree
// unless one with that name already exists
func AppendCategory(tree Tree, name string) Tree {
	out := tree.Clone()
	if out.HasCategory(name) {
		return out
	}
	return append(out, Category{Name: name, Items: []Item{}, IsExpanded: true})
}

// RenameCategory renames a category and rewrites the category of its items
func RenameCategory(tree Tree, oldName, newName string) Tree {
	out := tree.Clone()
	for i := range out {
		if out[i].Name != oldName {
			continue
		}
		out[i].Name = newName
		for j := range out[i].Items {
			out[i].Items[j].Category = newName
		}
	}
	return out
}

// FindItem returns the item with the given id
func FindItem(tree Tree, itemID string) (Item, bool) {
	for _, c := range tree {
		for _, item := range c.Items {
			if item.ID == itemID {
				return item.clone(), true
			}
		}
	}
	return Item{}, false
}

// HasPartID reports whether any item carries partID, ignoring case and
// surrounding whitespace
func HasPartID(tree Tree, partID string) bool {
	want := normalizePartID(partID)
	for _, c := range tree {
		for _, item := range c.Items {
			if normalizePartID(item.PartID) == want {
				return true
			}
		}
	}
	return false
}

func normalizePartID(partID string) string {
	return strings.ToLower(strings.TrimSpace(partID))
}

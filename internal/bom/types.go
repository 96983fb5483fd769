// Package bom models a project's bill of materials as a tree of named
// categories holding items, and provides pure transformations over it.
package bom

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Status represents the procurement state of a BOM item
type Status string

// Item status constants
const (
	// StatusNotOrdered indicates the part has not been ordered yet
	StatusNotOrdered Status = "not-ordered"
	// StatusOrdered indicates a purchase order was placed
	StatusOrdered Status = "ordered"
	// StatusReceived indicates the part arrived
	StatusReceived Status = "received"
	// StatusApproved indicates the part passed inspection
	StatusApproved Status = "approved"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusNotOrdered, StatusOrdered, StatusReceived, StatusApproved}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// Label returns the human readable status used in exports
func (s Status) Label() string {
	if s == StatusNotOrdered {
		return "Pending"
	}
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ParseStatus converts a string to a Status
func ParseStatus(str string) (Status, error) {
	switch str {
	case string(StatusNotOrdered):
		return StatusNotOrdered, nil
	case string(StatusOrdered):
		return StatusOrdered, nil
	case string(StatusReceived):
		return StatusReceived, nil
	case string(StatusApproved):
		return StatusApproved, nil
	default:
		return "", fmt.Errorf("invalid item status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for Status
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// Vendor is a supplier quote for an item
type Vendor struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	LeadTime     string  `json:"leadTime"`
	Availability string  `json:"availability"`
}

// Item is one part line of the BOM. ID is generated and independent of the
// user supplied PartID.
type Item struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	PartID           string   `json:"partId"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	Quantity         int      `json:"quantity"`
	Vendors          []Vendor `json:"vendors"`
	Status           Status   `json:"status"`
	ExpectedDelivery string   `json:"expectedDelivery,omitempty"`
	PONumber         string   `json:"poNumber,omitempty"`
	FinalizedVendor  *Vendor  `json:"finalizedVendor,omitempty"`
}

// NewItem creates a not yet ordered item with a fresh id
func NewItem(name, partID, description, category string, quantity int) Item {
	return Item{
		ID:          uuid.NewString(),
		Name:        name,
		PartID:      partID,
		Description: description,
		Category:    category,
		Quantity:    quantity,
		Vendors:     []Vendor{},
		Status:      StatusNotOrdered,
	}
}

func (i Item) clone() Item {
	out := i
	if i.Vendors != nil {
		out.Vendors = append([]Vendor{}, i.Vendors...)
	}
	if i.FinalizedVendor != nil {
		v := *i.FinalizedVendor
		out.FinalizedVendor = &v
	}
	return out
}

// Category groups items under a name. The name is the category's key.
type Category struct {
	Name       string `json:"name"`
	Items      []Item `json:"items"`
	IsExpanded bool   `json:"isExpanded"`
}

// Tree is the ordered list of categories of one project
type Tree []Category

// Clone returns a deep copy of the tree
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, c := range t {
		out[i] = Category{Name: c.Name, IsExpanded: c.IsExpanded, Items: make([]Item, len(c.Items))}
		for j, item := range c.Items {
			out[i].Items[j] = item.clone()
		}
	}
	return out
}

// Items returns every item of the tree in category order
func (t Tree) Items() []Item {
	var items []Item
	for _, c := range t {
		items = append(items, c.Items...)
	}
	return items
}

// CategoryNames returns the category names in order
func (t Tree) CategoryNames() []string {
	names := make([]string, 0, len(t))
	for _, c := range t {
		names = append(names, c.Name)
	}
	return names
}

// HasCategory reports whether a category with the exact name exists
func (t Tree) HasCategory(name string) bool {
	for _, c := range t {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Document is the stored form of a project's BOM
type Document struct {
	Categories Tree `json:"categories"`
}

// ItemUpdate is a partial update of an item. Nil fields are left unchanged.
// The category of an item is deliberately not part of it, a category change
// goes through RenameCategory.
type ItemUpdate struct {
	Name             *string   `json:"name,omitempty"`
	PartID           *string   `json:"partId,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Quantity         *int      `json:"quantity,omitempty"`
	Status           *Status   `json:"status,omitempty"`
	Vendors          *[]Vendor `json:"vendors,omitempty"`
	FinalizedVendor  *Vendor   `json:"finalizedVendor,omitempty"`
	ExpectedDelivery *string   `json:"expectedDelivery,omitempty"`
	PONumber         *string   `json:"poNumber,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u ItemUpdate) IsEmpty() bool {
	return u == ItemUpdate{}
}

// Validate checks the values that are set
func (u ItemUpdate) Validate() error {
	if u.Quantity != nil && *u.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative: %d", *u.Quantity)
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if u.PartID != nil && strings.TrimSpace(*u.PartID) == "" {
		return fmt.Errorf("part ID cannot be empty")
	}
	return nil
}

// Apply returns item with the set fields overlaid
func (u ItemUpdate) Apply(item Item) Item {
	out := item.clone()
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.PartID != nil {
		out.PartID = *u.PartID
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.Quantity != nil {
		out.Quantity = *u.Quantity
	}
	if u.Status != nil {
		out.Status = *u.Status
	}
	if u.Vendors != nil {
		out.Vendors = append([]Vendor{}, (*u.Vendors)...)
	}
	if u.FinalizedVendor != nil {
		v := *u.FinalizedVendor
		out.FinalizedVendor = &v
	}
	if u.ExpectedDelivery != nil {
		out.ExpectedDelivery = *u.ExpectedDelivery
	}
	if u.PONumber != nil {
		out.PONumber = *u.PONumber
	}
	return out
}

// DescriptionRow is one key/value line of an item description
type DescriptionRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// JoinDescription renders rows as "key: value" lines. Rows with an empty key
// or value are kept as they are.
func JoinDescription(rows []DescriptionRow) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = row.Key + ": " + row.Value
	}
	return strings.Join(lines, "\n")
}

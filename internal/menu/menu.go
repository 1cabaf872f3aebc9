package menu

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MenuItem is one dish as extracted from a menu photo. Items get a uuid
// when they are created so that edits and deletes keep working while the
// surrounding list is being mutated.
type MenuItem struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Price       string   `json:"price,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Allergens   []string `json:"allergens,omitempty"`
	Dietary     []string `json:"dietary,omitempty"`
}

type CategoryGroup struct {
	CategoryName string     `json:"category_name"`
	Items        []MenuItem `json:"items"`
}

// Menu holds either a flat item list or category groups, depending on
// what the model returned. At most one of Items/Categories is populated.
type Menu struct {
	RestaurantName string          `json:"restaurant_name"`
	Items          []MenuItem      `json:"items,omitempty"`
	Categories     []CategoryGroup `json:"categories,omitempty"`
}

const DefaultCategory = "Uncategorized"

// listFields are edited as comma-separated text and stored as lists.
var listFields = map[string]bool{
	"ingredients": true,
	"allergens":   true,
	"dietary":     true,
}

func (m Menu) nested() bool {
	return len(m.Categories) > 0
}

func (m Menu) ItemCount() int {
	if m.nested() {
		n := 0
		for _, g := range m.Categories {
			n += len(g.Items)
		}
		return n
	}
	return len(m.Items)
}

// FlatItems returns all items in menu order regardless of representation.
// The returned slice is a copy and safe to hold onto.
func (m Menu) FlatItems() []MenuItem {
	if !m.nested() {
		return append([]MenuItem(nil), m.Items...)
	}
	var items []MenuItem
	for _, g := range m.Categories {
		items = append(items, g.Items...)
	}
	return items
}

// Clone deep-copies the menu so that mutations never alias slices of the
// original value. Every mutating operation works on a clone and returns
// it whole.
func (m Menu) Clone() Menu {
	out := Menu{RestaurantName: m.RestaurantName}
	if m.Items != nil {
		out.Items = make([]MenuItem, len(m.Items))
		for i, it := range m.Items {
			out.Items[i] = it.clone()
		}
	}
	if m.Categories != nil {
		out.Categories = make([]CategoryGroup, len(m.Categories))
		for i, g := range m.Categories {
			cg := CategoryGroup{CategoryName: g.CategoryName}
			cg.Items = make([]MenuItem, len(g.Items))
			for j, it := range g.Items {
				cg.Items[j] = it.clone()
			}
			out.Categories[i] = cg
		}
	}
	return out
}

func (it MenuItem) clone() MenuItem {
	out := it
	out.Ingredients = append([]string(nil), it.Ingredients...)
	out.Allergens = append([]string(nil), it.Allergens...)
	out.Dietary = append([]string(nil), it.Dietary...)
	return out
}

// itemAt resolves a logical item index against either representation. For
// the nested form it walks groups in order with a running count.
func (m *Menu) itemAt(index int) (*MenuItem, error) {
	if index < 0 {
		return nil, fmt.Errorf("item index %d out of range", index)
	}
	if !m.nested() {
		if index >= len(m.Items) {
			return nil, fmt.Errorf("item index %d out of range", index)
		}
		return &m.Items[index], nil
	}
	seen := 0
	for gi := range m.Categories {
		g := &m.Categories[gi]
		if index < seen+len(g.Items) {
			return &g.Items[index-seen], nil
		}
		seen += len(g.Items)
	}
	return nil, fmt.Errorf("item index %d out of range", index)
}

func (m *Menu) itemByID(id string) (*MenuItem, error) {
	if !m.nested() {
		for i := range m.Items {
			if m.Items[i].ID == id {
				return &m.Items[i], nil
			}
		}
		return nil, fmt.Errorf("item %q not found", id)
	}
	for gi := range m.Categories {
		for i := range m.Categories[gi].Items {
			if m.Categories[gi].Items[i].ID == id {
				return &m.Categories[gi].Items[i], nil
			}
		}
	}
	return nil, fmt.Errorf("item %q not found", id)
}

// SetField applies one field edit to the item at the given logical index
// and returns the updated menu as a full replacement of the old value.
func (m Menu) SetField(index int, field, value string) (Menu, error) {
	out := m.Clone()
	item, err := out.itemAt(index)
	if err != nil {
		return Menu{}, err
	}
	if err := applyField(item, field, value); err != nil {
		return Menu{}, err
	}
	return out, nil
}

// SetFieldByID is SetField addressed by the item's stable id.
func (m Menu) SetFieldByID(id, field, value string) (Menu, error) {
	out := m.Clone()
	item, err := out.itemByID(id)
	if err != nil {
		return Menu{}, err
	}
	if err := applyField(item, field, value); err != nil {
		return Menu{}, err
	}
	return out, nil
}

func applyField(item *MenuItem, field, value string) error {
	if listFields[field] {
		list := SplitList(value)
		switch field {
		case "ingredients":
			item.Ingredients = list
		case "allergens":
			item.Allergens = list
		case "dietary":
			item.Dietary = list
		}
		return nil
	}

	trimmed := strings.TrimSpace(value)
	switch field {
	case "name":
		item.Name = trimmed
	case "description":
		item.Description = trimmed
	case "category":
		item.Category = trimmed
	case "price":
		item.Price = NormalizePrice(trimmed)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// SplitList turns comma-separated edit text into a list: each part is
// trimmed and empty parts are dropped.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NormalizePrice prefixes "$" when the edited price has no recognizable
// currency symbol. Prices stay free text otherwise.
func NormalizePrice(price string) string {
	price = strings.TrimSpace(price)
	if price == "" {
		return price
	}
	if strings.ContainsAny(price, "$€£¥") {
		return price
	}
	return "$" + price
}

// DeleteItem removes the item at the given logical index. In the nested
// representation a category left empty by the delete is removed as well.
func (m Menu) DeleteItem(index int) (Menu, error) {
	out := m.Clone()
	if index < 0 {
		return Menu{}, fmt.Errorf("item index %d out of range", index)
	}
	if !out.nested() {
		if index >= len(out.Items) {
			return Menu{}, fmt.Errorf("item index %d out of range", index)
		}
		out.Items = append(out.Items[:index], out.Items[index+1:]...)
		return out, nil
	}
	seen := 0
	for gi := range out.Categories {
		g := &out.Categories[gi]
		if index < seen+len(g.Items) {
			local := index - seen
			g.Items = append(g.Items[:local], g.Items[local+1:]...)
			if len(g.Items) == 0 {
				out.Categories = append(out.Categories[:gi], out.Categories[gi+1:]...)
			}
			return out, nil
		}
		seen += len(g.Items)
	}
	return Menu{}, fmt.Errorf("item index %d out of range", index)
}

// DeleteItemByID is DeleteItem addressed by the item's stable id.
func (m Menu) DeleteItemByID(id string) (Menu, error) {
	if !m.nested() {
		for i := range m.Items {
			if m.Items[i].ID == id {
				return m.DeleteItem(i)
			}
		}
		return Menu{}, fmt.Errorf("item %q not found", id)
	}
	seen := 0
	for _, g := range m.Categories {
		for i := range g.Items {
			if g.Items[i].ID == id {
				return m.DeleteItem(seen + i)
			}
		}
		seen += len(g.Items)
	}
	return Menu{}, fmt.Errorf("item %q not found", id)
}

// GroupByCategory buckets items under their category name, defaulting to
// "Uncategorized", preserving first-seen category order.
func (m Menu) GroupByCategory() []CategoryGroup {
	if m.nested() {
		out := m.Clone()
		return out.Categories
	}
	var groups []CategoryGroup
	index := make(map[string]int)
	for _, item := range m.Items {
		cat := item.Category
		if cat == "" {
			cat = DefaultCategory
		}
		gi, ok := index[cat]
		if !ok {
			gi = len(groups)
			index[cat] = gi
			groups = append(groups, CategoryGroup{CategoryName: cat})
		}
		groups[gi].Items = append(groups[gi].Items, item.clone())
	}
	return groups
}

// StampItemIDs assigns a uuid to every item that lacks one. Called once
// on freshly extracted menus so later edits can address items stably.
func (m *Menu) StampItemIDs() {
	for i := range m.Items {
		if m.Items[i].ID == "" {
			m.Items[i].ID = uuid.NewString()
		}
	}
	for gi := range m.Categories {
		for i := range m.Categories[gi].Items {
			if m.Categories[gi].Items[i].ID == "" {
				m.Categories[gi].Items[i].ID = uuid.NewString()
			}
		}
	}
}

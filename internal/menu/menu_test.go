package menu

import (
	"reflect"
	"testing"
)

func flatMenu() Menu {
	return Menu{
		RestaurantName: "Cafe X",
		Items: []MenuItem{
			{ID: "a", Name: "Tea", Price: "$2", Category: "Beverages"},
			{ID: "b", Name: "Scone", Description: "With jam"},
			{ID: "c", Name: "Soup", Category: "Starters"},
		},
	}
}

func nestedMenu() Menu {
	return Menu{
		RestaurantName: "Cafe X",
		Categories: []CategoryGroup{
			{CategoryName: "Beverages", Items: []MenuItem{
				{ID: "a", Name: "Tea"},
				{ID: "b", Name: "Coffee"},
			}},
			{CategoryName: "Desserts", Items: []MenuItem{
				{ID: "c", Name: "Cake"},
			}},
		},
	}
}

func TestSetFieldSplitsListFields(t *testing.T) {
	m := flatMenu()

	updated, err := m.SetField(0, "ingredients", "a, b ,, c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(updated.Items[0].Ingredients, want) {
		t.Fatalf("expected %v, got %v", want, updated.Items[0].Ingredients)
	}
	// Original menu must stay untouched.
	if m.Items[0].Ingredients != nil {
		t.Fatal("original menu was mutated")
	}
}

func TestSetFieldTrimsPlainFields(t *testing.T) {
	m := flatMenu()

	updated, err := m.SetField(1, "name", "  Buttered Scone  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Items[1].Name != "Buttered Scone" {
		t.Fatalf("expected trimmed name, got %q", updated.Items[1].Name)
	}
}

func TestSetFieldPriceCurrencyPrefix(t *testing.T) {
	m := flatMenu()

	updated, err := m.SetField(0, "price", " 4.50 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Items[0].Price != "$4.50" {
		t.Fatalf("expected $4.50, got %q", updated.Items[0].Price)
	}

	updated, err = m.SetField(0, "price", "€3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Items[0].Price != "€3" {
		t.Fatalf("existing currency symbol must be kept, got %q", updated.Items[0].Price)
	}

	updated, err = m.SetField(0, "price", "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Items[0].Price != "" {
		t.Fatalf("empty price must stay empty, got %q", updated.Items[0].Price)
	}
}

func TestSetFieldUnknownField(t *testing.T) {
	m := flatMenu()
	if _, err := m.SetField(0, "rating", "5"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestSetFieldNestedIndexResolution(t *testing.T) {
	m := nestedMenu()

	// Index 2 is the first item of the second group.
	updated, err := m.SetField(2, "name", "Chocolate Cake")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Categories[1].Items[0].Name != "Chocolate Cake" {
		t.Fatalf("nested index resolved incorrectly: %+v", updated.Categories)
	}
	if m.Categories[1].Items[0].Name != "Cake" {
		t.Fatal("original menu was mutated")
	}
}

func TestSetFieldIndexOutOfRange(t *testing.T) {
	m := flatMenu()
	if _, err := m.SetField(3, "name", "x"); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
	if _, err := m.SetField(-1, "name", "x"); err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestSetFieldByID(t *testing.T) {
	m := nestedMenu()

	updated, err := m.SetFieldByID("b", "dietary", "vegan, , gluten-free")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"vegan", "gluten-free"}
	if !reflect.DeepEqual(updated.Categories[0].Items[1].Dietary, want) {
		t.Fatalf("expected %v, got %v", want, updated.Categories[0].Items[1].Dietary)
	}

	if _, err := m.SetFieldByID("missing", "name", "x"); err == nil {
		t.Fatal("expected error for unknown item id")
	}
}

func TestDeleteItemFlat(t *testing.T) {
	m := flatMenu()

	updated, err := m.DeleteItem(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(updated.Items))
	}
	if updated.Items[0].Name != "Tea" || updated.Items[1].Name != "Soup" {
		t.Fatalf("wrong item deleted: %+v", updated.Items)
	}
	if len(m.Items) != 3 {
		t.Fatal("original menu was mutated")
	}
}

func TestDeleteItemRemovesEmptiedCategory(t *testing.T) {
	m := nestedMenu()

	// "Cake" is the only item in Desserts.
	updated, err := m.DeleteItem(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Categories) != 1 {
		t.Fatalf("expected emptied category to be removed, got %+v", updated.Categories)
	}
	if updated.Categories[0].CategoryName != "Beverages" {
		t.Fatalf("wrong category removed: %+v", updated.Categories)
	}
}

func TestDeleteItemKeepsNonEmptyCategory(t *testing.T) {
	m := nestedMenu()

	updated, err := m.DeleteItem(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Categories) != 2 {
		t.Fatalf("expected both categories to remain, got %+v", updated.Categories)
	}
	if len(updated.Categories[0].Items) != 1 || updated.Categories[0].Items[0].Name != "Coffee" {
		t.Fatalf("wrong item deleted: %+v", updated.Categories[0].Items)
	}
}

func TestDeleteItemByID(t *testing.T) {
	m := nestedMenu()

	updated, err := m.DeleteItemByID("c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Categories) != 1 {
		t.Fatalf("expected emptied category to be removed, got %+v", updated.Categories)
	}

	if _, err := m.DeleteItemByID("missing"); err == nil {
		t.Fatal("expected error for unknown item id")
	}
}

func TestGroupByCategoryDefaultsUncategorized(t *testing.T) {
	m := flatMenu()

	groups := m.GroupByCategory()
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].CategoryName != "Beverages" {
		t.Fatalf("expected first-seen order, got %+v", groups)
	}
	if groups[1].CategoryName != DefaultCategory {
		t.Fatalf("expected %q for the uncategorized item, got %q", DefaultCategory, groups[1].CategoryName)
	}
	if groups[1].Items[0].Name != "Scone" {
		t.Fatalf("wrong item grouped: %+v", groups[1].Items)
	}
}

func TestFlatItemsAndItemCount(t *testing.T) {
	flat := flatMenu()
	nested := nestedMenu()

	if flat.ItemCount() != 3 || nested.ItemCount() != 3 {
		t.Fatalf("wrong item counts: %d, %d", flat.ItemCount(), nested.ItemCount())
	}

	items := nested.FlatItems()
	if len(items) != 3 || items[2].Name != "Cake" {
		t.Fatalf("FlatItems did not preserve menu order: %+v", items)
	}
}

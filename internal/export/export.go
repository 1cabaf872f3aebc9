package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"menulens.app/menu-digitalizer/internal/menu"
)

var csvHeader = []string{"Category", "Item Name", "Price", "Description", "Ingredients", "Allergens", "Dietary Tags"}

// ToJSON serializes the whole menu as pretty-printed JSON.
func ToJSON(m menu.Menu) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal menu: %w", err)
	}
	return data, nil
}

// ToCSV flattens the menu into the 7-column export format. List-valued
// fields are joined with "; " and every data cell is quoted, with
// internal quotes doubled.
func ToCSV(m menu.Menu) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	b.WriteByte('\n')

	items := m.FlatItems()
	for i, item := range items {
		row := []string{
			item.Category,
			item.Name,
			item.Price,
			item.Description,
			strings.Join(item.Ingredients, "; "),
			strings.Join(item.Allergens, "; "),
			strings.Join(item.Dietary, "; "),
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		}
		if i < len(items)-1 {
			b.WriteByte('\n')
		}
	}
	return []byte(b.String())
}

func JSONFilename(m menu.Menu) string {
	return baseFilename(m) + "_data.json"
}

func CSVFilename(m menu.Menu) string {
	return baseFilename(m) + "_data.csv"
}

// baseFilename derives a download name from the restaurant name, falling
// back to "menu". Characters that would break a Content-Disposition
// header or a filesystem path are replaced.
func baseFilename(m menu.Menu) string {
	name := strings.TrimSpace(m.RestaurantName)
	if name == "" {
		return "menu"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "menu"
	}
	return b.String()
}

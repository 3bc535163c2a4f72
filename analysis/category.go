package analysis

import "strings"

// Category is the fixed category universe for generated listings.
type Category string

const (
	CategoryElectronics  Category = "electronics"
	CategoryFashion      Category = "fashion"
	CategoryFoodBeverage Category = "food_beverage"
	CategoryBeauty       Category = "beauty"
	CategoryHomeLiving   Category = "home_living"
	CategorySports       Category = "sports"
	CategoryAutomotive   Category = "automotive"
	CategoryBooks        Category = "books"
	CategoryToys         Category = "toys"
	CategoryOther        Category = "other"
)

// Categories in declaration order. Order matters: extraction picks the first
// category mentioned anywhere in the chain output.
var Categories = []Category{
	CategoryElectronics,
	CategoryFashion,
	CategoryFoodBeverage,
	CategoryBeauty,
	CategoryHomeLiving,
	CategorySports,
	CategoryAutomotive,
	CategoryBooks,
	CategoryToys,
	CategoryOther,
}

// categoryList renders the universe for prompts, e.g.
// "electronics, fashion, ...".
func categoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// matchCategory finds the first enumerated category mentioned in the text,
// case-insensitively. Falls back to the catch-all category.
func matchCategory(text string) Category {
	lower := strings.ToLower(text)
	for _, c := range Categories {
		if strings.Contains(lower, string(c)) {
			return c
		}
	}
	return CategoryOther
}

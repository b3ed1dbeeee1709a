package model

import (
	"fmt"
	"strings"
)

// Category is the closed set of spending categories a transaction can carry.
type Category string

// Category constants.
const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryHousing       Category = "housing"
	CategoryUtilities     Category = "utilities"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryShopping      Category = "shopping"
	CategoryEducation     Category = "education"
	CategoryTravel        Category = "travel"
	CategorySubscriptions Category = "subscriptions"
	// CategoryOther is the uncategorized bucket.
	CategoryOther Category = "other"
)

// AllCategories is the budget sentinel that matches every category.
const AllCategories = "all"

var knownCategories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryHealth,
	CategoryShopping,
	CategoryEducation,
	CategoryTravel,
	CategorySubscriptions,
	CategoryOther,
}

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, len(knownCategories))
	copy(out, knownCategories)
	return out
}

// ParseCategory resolves a user-supplied name to a Category, ignoring case.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range knownCategories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

package models

import (
	"errors"
	"strings"
)

// Category is an SFM board column a KPI, action, problem or note is filed under.
type Category string

const (
	CategorySafety      Category = "safety"
	CategoryQuality     Category = "quality"
	CategoryCost        Category = "cost"
	CategoryDelivery    Category = "delivery"
	CategoryPerformance Category = "performance"
	CategoryHuman       Category = "human"
)

// Categories lists the SFM categories in board order.
var Categories = []Category{
	CategorySafety,
	CategoryQuality,
	CategoryCost,
	CategoryDelivery,
	CategoryPerformance,
	CategoryHuman,
}

var categoryLabels = map[Category]string{
	CategorySafety:      "Safety",
	CategoryQuality:     "Quality",
	CategoryCost:        "Cost",
	CategoryDelivery:    "Delivery",
	CategoryPerformance: "Performance",
	CategoryHuman:       "Human",
}

// ErrInvalidCategory is returned for a category outside the SFM set.
var ErrInvalidCategory = errors.New("invalid SFM category")

// IsValid checks if the category is one of the SFM categories
func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCategory normalizes user input into a Category. An empty input yields
// an empty category, which list filters treat as "all".
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" || c.IsValid() {
		return c, nil
	}
	return "", ErrInvalidCategory
}

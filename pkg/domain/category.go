package domain

import dErrors "satudata/pkg/domain-errors"

// Category is one of the three fixed statistical domains. Every indicator
// belongs to exactly one, and role-based authorization fences on it.
type Category string

const (
	CategoryEkonomi    Category = "Statistik Ekonomi"
	CategorySosial     Category = "Statistik Demografi & Sosial"
	CategoryLingkungan Category = "Statistik Lingkungan Hidup & Multi Domain"
)

// validCategories is the single source of truth for the category domains.
var validCategories = map[Category]bool{
	CategoryEkonomi:    true,
	CategorySosial:     true,
	CategoryLingkungan: true,
}

// Categories lists the fixed category domains in presentation order.
func Categories() []Category {
	return []Category{CategoryEkonomi, CategorySosial, CategoryLingkungan}
}

// ParseCategory constructs a Category from external input.
// Errors with CodeInvalidInput when the value is empty or unsupported.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category cannot be empty")
	}
	c := Category(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown category: "+s)
	}
	return c, nil
}

// IsValid checks membership in the fixed category domains.
func (c Category) IsValid() bool {
	return validCategories[c]
}

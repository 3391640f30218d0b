package model

import (
	"fmt"
	"sort"
)

// Direction indicates whether money flows in or out.
type Direction string

const (
	// DirectionIncome represents money flowing in.
	DirectionIncome Direction = "income"
	// DirectionExpense represents money flowing out.
	DirectionExpense Direction = "expense"
)

// Valid reports whether the direction is a known value.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Category identifies what a transaction was for. Every category is tagged
// with the direction it belongs to; a transaction's direction must match its
// category's direction.
type Category string

// Expense categories.
const (
	CategoryGroceries     Category = "groceries"
	CategoryDining        Category = "dining"
	CategoryTransport     Category = "transport"
	CategoryRent          Category = "rent"
	CategoryUtilities     Category = "utilities"
	CategoryHealth        Category = "health"
	CategoryInsurance     Category = "insurance"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryTravel        Category = "travel"
	CategoryEducation     Category = "education"
	CategorySubscriptions Category = "subscriptions"
	CategoryPets          Category = "pets"
	CategoryGifts         Category = "gifts"
	CategoryTaxes         Category = "taxes"
	CategoryFees          Category = "fees"
	CategoryOtherExpense  Category = "other_expense"
)

// Income categories.
const (
	CategorySalary      Category = "salary"
	CategoryBonus       Category = "bonus"
	CategoryInterest    Category = "interest"
	CategoryInvestment  Category = "investment"
	CategoryRefund      Category = "refund"
	CategoryOtherIncome Category = "other_income"
)

var categoryDirections = map[Category]Direction{
	CategoryGroceries:     DirectionExpense,
	CategoryDining:        DirectionExpense,
	CategoryTransport:     DirectionExpense,
	CategoryRent:          DirectionExpense,
	CategoryUtilities:     DirectionExpense,
	CategoryHealth:        DirectionExpense,
	CategoryInsurance:     DirectionExpense,
	CategoryEntertainment: DirectionExpense,
	CategoryShopping:      DirectionExpense,
	CategoryTravel:        DirectionExpense,
	CategoryEducation:     DirectionExpense,
	CategorySubscriptions: DirectionExpense,
	CategoryPets:          DirectionExpense,
	CategoryGifts:         DirectionExpense,
	CategoryTaxes:         DirectionExpense,
	CategoryFees:          DirectionExpense,
	CategoryOtherExpense:  DirectionExpense,
	CategorySalary:        DirectionIncome,
	CategoryBonus:         DirectionIncome,
	CategoryInterest:      DirectionIncome,
	CategoryInvestment:    DirectionIncome,
	CategoryRefund:        DirectionIncome,
	CategoryOtherIncome:   DirectionIncome,
}

// Direction returns the direction this category is tagged with.
func (c Category) Direction() Direction {
	return categoryDirections[c]
}

// Valid reports whether the category is a known value.
func (c Category) Valid() bool {
	_, ok := categoryDirections[c]
	return ok
}

// ParseCategory converts a serialized category name back to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// DefaultCategory returns the fallback category for a direction, used when a
// remote document or imported statement carries no usable category.
func DefaultCategory(d Direction) Category {
	if d == DirectionIncome {
		return CategoryOtherIncome
	}
	return CategoryOtherExpense
}

// Categories returns all known categories sorted by name.
func Categories() []Category {
	out := make([]Category, 0, len(categoryDirections))
	for c := range categoryDirections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

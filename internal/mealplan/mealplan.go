package mealplan

import (
	"fmt"
	"strings"

	"meal-planner-dashboard/internal/shared"
)

// Days are the seven fixed slots of the plan, in week order.
var Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Recipe is the meal planned for a single day.
type Recipe struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Method      []string     `json:"method,omitempty"`
	Plants      []string     `json:"plants,omitempty"`
	PrepTime    string       `json:"prepTime,omitempty"`
	Cooked      bool         `json:"cooked"`
}

// Validate rejects recipes without a name or with unnamed ingredients.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: recipe name required", shared.ErrValidation)
	}
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("%w: ingredient name required", shared.ErrValidation)
		}
		if ing.Quantity < 0 {
			return fmt.Errorf("%w: ingredient quantity must not be negative", shared.ErrValidation)
		}
	}
	return nil
}

// Plan is the weekly meal plan document: one slot per weekday, each
// holding a recipe or null.
type Plan map[string]*Recipe

// Normalize ensures the plan has exactly the seven weekday slots, adding
// missing days as null and dropping unknown keys.
func (p Plan) Normalize() Plan {
	out := make(Plan, len(Days))
	for _, day := range Days {
		out[day] = p[day]
	}
	return out
}

// ValidDay reports whether day names one of the seven slots.
func ValidDay(day string) bool {
	for _, d := range Days {
		if d == day {
			return true
		}
	}
	return false
}

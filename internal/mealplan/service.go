package mealplan

import (
	"fmt"
	"strings"

	"meal-planner-dashboard/internal/document"
	"meal-planner-dashboard/internal/shared"
)

// StatusRefresher recomputes and persists derived status.
type StatusRefresher interface {
	Refresh() error
}

// Service provides CRUD over the weekly meal plan document.
type Service struct {
	store  *document.Store
	status StatusRefresher
}

// NewService creates a meal plan service.
func NewService(store *document.Store, status StatusRefresher) *Service {
	return &Service{store: store, status: status}
}

// Get returns the normalized weekly plan.
func (s *Service) Get() (Plan, error) {
	var plan Plan
	if err := s.store.Load(document.MealPlan, &plan); err != nil {
		return nil, err
	}
	return plan.Normalize(), nil
}

// GetDay returns the recipe for one day. A planned-but-empty day is not
// an error; an invalid day name is.
func (s *Service) GetDay(day string) (*Recipe, error) {
	day = normalizeDay(day)
	if !ValidDay(day) {
		return nil, fmt.Errorf("%w: unknown day %q", shared.ErrNotFound, day)
	}
	plan, err := s.Get()
	if err != nil {
		return nil, err
	}
	return plan[day], nil
}

// SetDay replaces the recipe in one day slot.
func (s *Service) SetDay(day string, recipe Recipe) error {
	day = normalizeDay(day)
	if !ValidDay(day) {
		return fmt.Errorf("%w: unknown day %q", shared.ErrNotFound, day)
	}
	if err := recipe.Validate(); err != nil {
		return err
	}

	var plan Plan
	err := s.store.Update(document.MealPlan, &plan, func() error {
		plan = plan.Normalize()
		plan[day] = &recipe
		return nil
	})
	if err != nil {
		return err
	}
	return s.refresh()
}

// ClearDay removes the recipe from one day slot.
func (s *Service) ClearDay(day string) error {
	day = normalizeDay(day)
	if !ValidDay(day) {
		return fmt.Errorf("%w: unknown day %q", shared.ErrNotFound, day)
	}

	var plan Plan
	err := s.store.Update(document.MealPlan, &plan, func() error {
		if plan[day] == nil {
			return fmt.Errorf("%w: no meal planned for %s", shared.ErrNotFound, day)
		}
		plan = plan.Normalize()
		plan[day] = nil
		return nil
	})
	if err != nil {
		return err
	}
	return s.refresh()
}

// MarkCooked sets the cooked flag on one day's recipe, leaving every
// other field and day untouched.
func (s *Service) MarkCooked(day string) error {
	day = normalizeDay(day)
	if !ValidDay(day) {
		return fmt.Errorf("%w: unknown day %q", shared.ErrNotFound, day)
	}

	var plan Plan
	err := s.store.Update(document.MealPlan, &plan, func() error {
		if plan[day] == nil {
			return fmt.Errorf("%w: no meal planned for %s", shared.ErrNotFound, day)
		}
		plan = plan.Normalize()
		plan[day].Cooked = true
		return nil
	})
	if err != nil {
		return err
	}
	return s.refresh()
}

// Replace overwrites the whole plan document.
func (s *Service) Replace(plan Plan) error {
	lowered := make(Plan, len(plan))
	for day, recipe := range plan {
		d := normalizeDay(day)
		if !ValidDay(d) {
			return fmt.Errorf("%w: unknown day %q", shared.ErrValidation, day)
		}
		if recipe != nil {
			if err := recipe.Validate(); err != nil {
				return err
			}
		}
		lowered[d] = recipe
	}
	if err := s.store.Save(document.MealPlan, lowered.Normalize()); err != nil {
		return err
	}
	return s.refresh()
}

func (s *Service) refresh() error {
	if s.status == nil {
		return nil
	}
	if err := s.status.Refresh(); err != nil {
		return fmt.Errorf("meal plan updated but status refresh failed: %w", err)
	}
	return nil
}

func normalizeDay(day string) string {
	return strings.ToLower(strings.TrimSpace(day))
}

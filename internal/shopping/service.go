package shopping

import (
	"fmt"
	"sort"
	"strings"

	"meal-planner-dashboard/internal/document"
	"meal-planner-dashboard/internal/inventory"
	"meal-planner-dashboard/internal/mealplan"
	"meal-planner-dashboard/internal/preferences"
	"meal-planner-dashboard/internal/shared"

	"github.com/google/uuid"
)

// Service provides tick-off and regeneration over the shopping list.
// Shopping changes never touch derived status.
type Service struct {
	store *document.Store
	prefs *preferences.Service
}

// NewService creates a shopping list service.
func NewService(store *document.Store, prefs *preferences.Service) *Service {
	return &Service{store: store, prefs: prefs}
}

// Get returns the whole shopping list.
func (s *Service) Get() (List, error) {
	var list List
	if err := s.store.Load(document.ShoppingList, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = List{}
	}
	return list, nil
}

// Toggle flips the checked flag on the entry with the given id inside
// the named delivery group.
func (s *Service) Toggle(group, id string) (Entry, error) {
	var toggled Entry
	var list List
	err := s.store.Update(document.ShoppingList, &list, func() error {
		entries, ok := list[group]
		if !ok {
			return fmt.Errorf("%w: delivery group %q", shared.ErrNotFound, group)
		}
		for i := range entries {
			if entries[i].ID == id {
				entries[i].Checked = !entries[i].Checked
				toggled = entries[i]
				return nil
			}
		}
		return fmt.Errorf("%w: entry %s in group %q", shared.ErrNotFound, id, group)
	})
	if err != nil {
		return Entry{}, err
	}
	return toggled, nil
}

// Remove deletes the entry with the given id from the named group.
func (s *Service) Remove(group, id string) error {
	var list List
	return s.store.Update(document.ShoppingList, &list, func() error {
		entries, ok := list[group]
		if !ok {
			return fmt.Errorf("%w: delivery group %q", shared.ErrNotFound, group)
		}
		for i := range entries {
			if entries[i].ID == id {
				list[group] = append(entries[:i], entries[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: entry %s in group %q", shared.ErrNotFound, id, group)
	})
}

// Replace overwrites the whole shopping list document. Entries without
// an id get one assigned so tick-off keeps working.
func (s *Service) Replace(list List) error {
	if list == nil {
		list = List{}
	}
	for group, entries := range list {
		for i := range entries {
			if entries[i].ID == "" {
				entries[i].ID = uuid.New().String()
			}
		}
		list[group] = entries
	}
	return s.store.Save(document.ShoppingList, list)
}

// Regenerate rebuilds the list from inventory gaps: for every uncooked
// planned recipe, any ingredient the inventory cannot cover becomes an
// entry in the delivery group covering that day. Duplicate ingredients
// within a group are summed.
func (s *Service) Regenerate() (List, error) {
	var items []inventory.Item
	if err := s.store.Load(document.Inventory, &items); err != nil {
		return nil, err
	}
	var plan mealplan.Plan
	if err := s.store.Load(document.MealPlan, &plan); err != nil {
		return nil, err
	}
	plan = plan.Normalize()

	dayGroups, groups := s.deliveryGroups()
	list := List{}
	for _, g := range groups {
		list[g] = []Entry{}
	}

	// index of group -> ingredient key -> entry position
	index := make(map[string]map[string]int)

	for _, day := range mealplan.Days {
		recipe := plan[day]
		if recipe == nil || recipe.Cooked {
			continue
		}
		group := dayGroups[day]
		for _, ing := range recipe.Ingredients {
			missing := shortfall(ing, items)
			if missing <= 0 {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(ing.Name)) + "|" + strings.ToLower(strings.TrimSpace(ing.Unit))
			if index[group] == nil {
				index[group] = make(map[string]int)
			}
			if pos, ok := index[group][key]; ok {
				list[group][pos].Quantity += missing
				continue
			}
			list[group] = append(list[group], Entry{
				ID:       uuid.New().String(),
				Name:     ing.Name,
				Quantity: missing,
				Unit:     ing.Unit,
			})
			index[group][key] = len(list[group]) - 1
		}
	}

	if err := s.store.Save(document.ShoppingList, list); err != nil {
		return nil, err
	}
	return list, nil
}

// shortfall returns how much of an ingredient the inventory is missing.
// Units are compared case-insensitively; an item held in a different
// unit counts as fully covering (amounts are not convertible).
func shortfall(ing mealplan.Ingredient, items []inventory.Item) float64 {
	name := strings.ToLower(strings.TrimSpace(ing.Name))
	var have float64
	for _, item := range items {
		if strings.ToLower(strings.TrimSpace(item.Name)) != name {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(item.Unit), strings.TrimSpace(ing.Unit)) {
			return 0
		}
		have += item.Quantity
	}
	if ing.Quantity == 0 && have == 0 {
		// Unquantified ingredient not in stock at all: buy one of it.
		return 1
	}
	return ing.Quantity - have
}

// deliveryGroups maps each weekday to the delivery group covering it,
// read from the preferences delivery schedule. Days no group claims fall
// to the last group of the week; with no schedule at all, a default
// sunday/midweek split applies.
func (s *Service) deliveryGroups() (map[string]string, []string) {
	fallback := map[string]string{
		"monday": "sunday", "tuesday": "sunday",
		"wednesday": "midweek", "thursday": "midweek", "friday": "midweek",
		"saturday": "midweek", "sunday": "midweek",
	}
	fallbackGroups := []string{"sunday", "midweek"}

	if s.prefs == nil {
		return fallback, fallbackGroups
	}
	prefs, err := s.prefs.Get()
	if err != nil {
		return fallback, fallbackGroups
	}
	schedule, ok := prefs["deliverySchedule"].(map[string]any)
	if !ok || len(schedule) == 0 {
		return fallback, fallbackGroups
	}

	dayGroups := make(map[string]string)
	var groups []string
	for name, raw := range schedule {
		groups = append(groups, name)
		cfg, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		covers, ok := cfg["coversDays"].([]any)
		if !ok {
			continue
		}
		for _, d := range covers {
			if day, ok := d.(string); ok {
				dayGroups[strings.ToLower(day)] = name
			}
		}
	}
	if len(groups) == 0 {
		return fallback, fallbackGroups
	}
	sort.Strings(groups)
	last := groups[len(groups)-1]
	for _, day := range mealplan.Days {
		if _, ok := dayGroups[day]; !ok {
			dayGroups[day] = last
		}
	}
	return dayGroups, groups
}

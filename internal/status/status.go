// Package status derives the dashboard's expiry and meal-readiness
// summary. Derivation is a pure function of the current inventory and
// meal plan; the Refresher persists the result to status.json.
package status

import (
	"fmt"
	"strings"
	"time"

	"meal-planner-dashboard/internal/inventory"
	"meal-planner-dashboard/internal/mealplan"
)

// Severity levels, ordered from least to most urgent.
const (
	SeverityGreen = "green"
	SeverityAmber = "amber"
	SeverityRed   = "red"
)

// Per-day meal readiness values.
const (
	ReadinessUnplanned = "unplanned"
	ReadinessReady     = "ready"
	ReadinessMissing   = "missing"
)

// nonPerishableDays stands in for items without an expiry date so they
// always classify green.
const nonPerishableDays = 999

// Alert describes one inventory item's expiry position.
type Alert struct {
	Item       string `json:"item"`
	Amount     string `json:"amount"`
	BestBefore string `json:"bestBefore"`
	DaysUntil  int    `json:"daysUntil"`
	Category   string `json:"category,omitempty"`
	Action     string `json:"action,omitempty"`
}

// ExpiryAlerts partitions inventory by severity.
type ExpiryAlerts struct {
	Red         []Alert `json:"red"`
	Amber       []Alert `json:"amber"`
	Green       []Alert `json:"green"`
	LastChecked string  `json:"lastChecked"`
}

// Status is the derived document. It is fully regenerated on every
// relevant write and never hand-edited.
type Status struct {
	Banner       string            `json:"banner"`
	ExpiryAlerts ExpiryAlerts      `json:"expiryAlerts"`
	Meals        map[string]string `json:"meals"`
	GeneratedAt  string            `json:"generatedAt"`
}

// Derive computes Status from the given inventory and plan. An item is
// red when its expiry date is today or past, amber when within amberDays,
// green otherwise. The banner carries the most severe item present.
func Derive(items []inventory.Item, plan mealplan.Plan, now time.Time, amberDays int) Status {
	st := Status{
		Banner: SeverityGreen,
		ExpiryAlerts: ExpiryAlerts{
			Red:         []Alert{},
			Amber:       []Alert{},
			Green:       []Alert{},
			LastChecked: now.Format(time.DateOnly),
		},
		Meals:       make(map[string]string, len(mealplan.Days)),
		GeneratedAt: now.Format(time.RFC3339),
	}

	for _, item := range items {
		d := daysUntil(item.BestBefore, now)
		alert := Alert{
			Item:       item.Name,
			Amount:     strings.TrimSpace(fmt.Sprintf("%g %s", item.Quantity, item.Unit)),
			BestBefore: item.BestBefore,
			DaysUntil:  d,
			Category:   item.Category,
		}
		switch {
		case d <= 0:
			alert.Action = "USE TODAY — cook, eat, or freeze immediately"
			st.ExpiryAlerts.Red = append(st.ExpiryAlerts.Red, alert)
			st.Banner = SeverityRed
		case d <= amberDays:
			alert.Action = "Plan to use in next 1-2 meals"
			st.ExpiryAlerts.Amber = append(st.ExpiryAlerts.Amber, alert)
			if st.Banner != SeverityRed {
				st.Banner = SeverityAmber
			}
		default:
			st.ExpiryAlerts.Green = append(st.ExpiryAlerts.Green, alert)
		}
	}

	for _, day := range mealplan.Days {
		st.Meals[day] = readiness(plan[day], items)
	}

	return st
}

// readiness reports whether a day's recipe could be cooked from the
// current inventory. Quantities are only compared when the units match;
// a unit mismatch counts as present since amounts are not convertible.
func readiness(recipe *mealplan.Recipe, items []inventory.Item) string {
	if recipe == nil {
		return ReadinessUnplanned
	}
	for _, ing := range recipe.Ingredients {
		if !covered(ing, items) {
			return ReadinessMissing
		}
	}
	return ReadinessReady
}

func covered(ing mealplan.Ingredient, items []inventory.Item) bool {
	name := strings.ToLower(strings.TrimSpace(ing.Name))
	var have float64
	found := false
	for _, item := range items {
		if strings.ToLower(strings.TrimSpace(item.Name)) != name {
			continue
		}
		found = true
		if !strings.EqualFold(strings.TrimSpace(item.Unit), strings.TrimSpace(ing.Unit)) {
			// Present in some other unit; treat as covered.
			return true
		}
		have += item.Quantity
	}
	return found && have >= ing.Quantity
}

// daysUntil parses an ISO date and returns whole days from today's date
// to it. Unparseable or empty dates read as far-future.
func daysUntil(date string, now time.Time) int {
	if date == "" {
		return nonPerishableDays
	}
	exp, err := time.ParseInLocation(time.DateOnly, date, now.Location())
	if err != nil {
		// Tolerate full timestamps the agent may write.
		exp, err = time.ParseInLocation(time.RFC3339, date, now.Location())
		if err != nil {
			return nonPerishableDays
		}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	expDay := time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, now.Location())
	return int(expDay.Sub(today).Hours() / 24)
}

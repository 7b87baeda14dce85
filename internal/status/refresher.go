package status

import (
	"time"

	"meal-planner-dashboard/internal/document"
	"meal-planner-dashboard/internal/inventory"
	"meal-planner-dashboard/internal/mealplan"
)

// Refresher recomputes status.json from the current documents. It is
// invoked after every inventory or meal plan mutation, and periodically
// so severities roll over at date boundaries without a write.
type Refresher struct {
	store     *document.Store
	amberDays int
	now       func() time.Time
}

// NewRefresher creates a Refresher with the given amber window in days.
func NewRefresher(store *document.Store, amberDays int) *Refresher {
	return &Refresher{store: store, amberDays: amberDays, now: time.Now}
}

// Refresh loads inventory and plan, derives status, and writes it back.
// The status write is its own atomic operation, independent of whichever
// document write triggered it.
func (r *Refresher) Refresh() error {
	var items []inventory.Item
	if err := r.store.Load(document.Inventory, &items); err != nil {
		return err
	}
	var plan mealplan.Plan
	if err := r.store.Load(document.MealPlan, &plan); err != nil {
		return err
	}

	st := Derive(items, plan.Normalize(), r.now(), r.amberDays)
	return r.store.Save(document.Status, st)
}

// Current returns the persisted status document, refreshing it first if
// it has never been generated.
func (r *Refresher) Current() (Status, error) {
	var st Status
	if err := r.store.Load(document.Status, &st); err != nil {
		return Status{}, err
	}
	if st.GeneratedAt == "" {
		if err := r.Refresh(); err != nil {
			return Status{}, err
		}
		if err := r.store.Load(document.Status, &st); err != nil {
			return Status{}, err
		}
	}
	return st, nil
}

package inventory

import (
	"fmt"
	"time"

	"meal-planner-dashboard/internal/document"
	"meal-planner-dashboard/internal/shared"

	"github.com/google/uuid"
)

// StatusRefresher recomputes and persists derived status. Implemented by
// the status package; a nil-safe no-op is used in tests.
type StatusRefresher interface {
	Refresh() error
}

// Service provides CRUD over the inventory document. Every mutation
// re-reads the document, applies the change under the store's
// per-document lock, and then refreshes derived status.
type Service struct {
	store  *document.Store
	status StatusRefresher
	now    func() time.Time
}

// NewService creates an inventory service.
func NewService(store *document.Store, status StatusRefresher) *Service {
	return &Service{store: store, status: status, now: time.Now}
}

// List returns all inventory items.
func (s *Service) List() ([]Item, error) {
	var items []Item
	if err := s.store.Load(document.Inventory, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Add assigns a new unique id, stamps the added date, and appends the
// item to the inventory.
func (s *Service) Add(item Item) (Item, error) {
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	item.ID = uuid.New().String()
	if item.AddedDate == "" {
		item.AddedDate = s.now().Format(time.DateOnly)
	}

	var items []Item
	err := s.store.Update(document.Inventory, &items, func() error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return item, s.refresh()
}

// Update replaces the fields of the item with the matching id.
func (s *Service) Update(id string, item Item) (Item, error) {
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	item.ID = id

	var items []Item
	err := s.store.Update(document.Inventory, &items, func() error {
		for i := range items {
			if items[i].ID == id {
				if item.AddedDate == "" {
					item.AddedDate = items[i].AddedDate
				}
				items[i] = item
				return nil
			}
		}
		return fmt.Errorf("%w: inventory item %s", shared.ErrNotFound, id)
	})
	if err != nil {
		return Item{}, err
	}
	return item, s.refresh()
}

// Delete removes the item with the matching id.
func (s *Service) Delete(id string) error {
	var items []Item
	err := s.store.Update(document.Inventory, &items, func() error {
		for i := range items {
			if items[i].ID == id {
				items = append(items[:i], items[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: inventory item %s", shared.ErrNotFound, id)
	})
	if err != nil {
		return err
	}
	return s.refresh()
}

// Replace overwrites the whole inventory document. Items without an id
// get one assigned; duplicate ids are rejected.
func (s *Service) Replace(items []Item) error {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		if _, dup := seen[items[i].ID]; dup {
			return fmt.Errorf("%w: duplicate item id %s", shared.ErrValidation, items[i].ID)
		}
		seen[items[i].ID] = struct{}{}
	}
	if items == nil {
		items = []Item{}
	}
	if err := s.store.Save(document.Inventory, items); err != nil {
		return err
	}
	return s.refresh()
}

func (s *Service) refresh() error {
	if s.status == nil {
		return nil
	}
	if err := s.status.Refresh(); err != nil {
		return fmt.Errorf("inventory updated but status refresh failed: %w", err)
	}
	return nil
}

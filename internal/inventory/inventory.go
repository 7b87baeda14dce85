package inventory

import (
	"fmt"
	"strings"

	"meal-planner-dashboard/internal/shared"
)

// Item is a single storecupboard entry.
type Item struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	BestBefore string  `json:"bestBefore,omitempty"`
	Location   string  `json:"location,omitempty"`
	AddedDate  string  `json:"addedDate,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// Validate rejects items that would be meaningless on the dashboard.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: item name required", shared.ErrValidation)
	}
	if i.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", shared.ErrValidation)
	}
	return nil
}

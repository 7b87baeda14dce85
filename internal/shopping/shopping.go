package shopping

// Entry is one line of a delivery group's shopping list.
type Entry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
	Checked  bool    `json:"checked"`
}

// List is the shopping list document: delivery-group name to entries.
type List map[string][]Entry

package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"meal-planner-dashboard/internal/inventory"
	"meal-planner-dashboard/internal/llm"
	"meal-planner-dashboard/internal/mealplan"
	"meal-planner-dashboard/internal/preferences"
	"meal-planner-dashboard/internal/shared"
	"meal-planner-dashboard/internal/shopping"
	"meal-planner-dashboard/internal/status"
)

const systemPrompt = `You are a meal planning AI built into a household dashboard.

YOUR ROLE:
- Generate weekly meal plans with full recipes
- Create individual recipes on demand
- Build shopping lists split by delivery schedule
- Alert users to expiring ingredients and suggest usage
- Track plant diversity and daily fruit/veg portions per the user preferences

RULES:
- Follow the dietary rules, day themes, and delivery schedule from the preferences below
- RED expiry items MUST be prioritised in meal planning
- When generating a meal plan, include FULL recipes with ingredients (name, quantity, unit) and step-by-step instructions

CRITICAL: You MUST use the provided tools to save your work. NEVER just describe a meal plan in text - always call update_meal_plan to save it. Similarly, always call update_shopping_list to save shopping lists. If you don't call the tools, the data won't be saved and the dashboard won't update.

The meal plan is an object keyed by lowercase day name (monday..sunday), each value a recipe object with name, ingredients, method, plants, prepTime. The shopping list is an object keyed by delivery group, each value an array of entries with name, quantity, unit.

After using tools, give a brief summary of what you saved.`

// Executor bridges model tool calls onto the domain services and builds
// the document context sent with every conversation.
type Executor struct {
	inventory *inventory.Service
	mealplan  *mealplan.Service
	shopping  *shopping.Service
	prefs     *preferences.Service
	status    *status.Refresher
	now       func() time.Time
}

// NewExecutor wires the tool executor to the domain services.
func NewExecutor(inv *inventory.Service, mp *mealplan.Service, shop *shopping.Service, prefs *preferences.Service, st *status.Refresher) *Executor {
	return &Executor{
		inventory: inv,
		mealplan:  mp,
		shopping:  shop,
		prefs:     prefs,
		status:    st,
		now:       time.Now,
	}
}

// BuildContext renders the current documents as a prompt preamble so the
// model always sees live state.
func (e *Executor) BuildContext() (string, error) {
	items, err := e.inventory.List()
	if err != nil {
		return "", err
	}
	plan, err := e.mealplan.Get()
	if err != nil {
		return "", err
	}
	prefs, err := e.prefs.Get()
	if err != nil {
		return "", err
	}
	st, err := e.status.Current()
	if err != nil {
		return "", err
	}

	today := e.now()

	var b strings.Builder
	fmt.Fprintf(&b, "TODAY: %s (%s)\n\n", today.Format(time.DateOnly), today.Weekday())

	b.WriteString("EXPIRY ALERTS:\n")
	fmt.Fprintf(&b, "RED (use immediately): %s\n", renderJSON(st.ExpiryAlerts.Red, "None"))
	fmt.Fprintf(&b, "AMBER (use soon): %s\n\n", renderJSON(st.ExpiryAlerts.Amber, "None"))

	fmt.Fprintf(&b, "CURRENT INVENTORY (%d items):\n%s\n\n", len(items), renderJSON(items, "Empty."))
	fmt.Fprintf(&b, "CURRENT MEAL PLAN:\n%s\n\n", renderJSON(plan, "No meal plan yet."))
	fmt.Fprintf(&b, "USER PREFERENCES:\n%s\n\n", renderJSON(prefs, "No preferences set yet - use sensible defaults."))
	fmt.Fprintf(&b, "CURRENT STATUS:\n%s\n", renderJSON(st, "No status data yet."))

	return b.String(), nil
}

// Execute runs a named tool call with the model-supplied arguments.
func (e *Executor) Execute(name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "update_meal_plan":
		var plan mealplan.Plan
		if err := decodeArg(args, "meal_plan", &plan); err != nil {
			return nil, err
		}
		if err := e.mealplan.Replace(plan); err != nil {
			return nil, err
		}
		return success("Meal plan updated"), nil

	case "update_shopping_list":
		var list shopping.List
		if err := decodeArg(args, "shopping_list", &list); err != nil {
			return nil, err
		}
		if err := e.shopping.Replace(list); err != nil {
			return nil, err
		}
		return success("Shopping list updated"), nil

	case "update_inventory":
		action, _ := args["action"].(string)
		var items []inventory.Item
		if err := decodeArg(args, "items", &items); err != nil {
			return nil, err
		}
		if err := e.applyInventory(action, items); err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Inventory %s: %d items", action, len(items))), nil

	case "update_preferences":
		var changes preferences.Preferences
		if err := decodeArg(args, "preferences", &changes); err != nil {
			return nil, err
		}
		if _, err := e.prefs.Merge(changes); err != nil {
			return nil, err
		}
		return success("Preferences updated"), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (e *Executor) applyInventory(action string, items []inventory.Item) error {
	switch action {
	case "add":
		for _, item := range items {
			if _, err := e.inventory.Add(item); err != nil {
				return err
			}
		}
		return nil

	case "remove":
		current, err := e.inventory.List()
		if err != nil {
			return err
		}
		drop := make(map[string]bool, len(items))
		for _, item := range items {
			drop[strings.ToLower(item.Name)] = true
		}
		kept := current[:0]
		for _, existing := range current {
			if !drop[strings.ToLower(existing.Name)] {
				kept = append(kept, existing)
			}
		}
		return e.inventory.Replace(kept)

	case "update":
		current, err := e.inventory.List()
		if err != nil {
			return err
		}
		for _, item := range items {
			found := false
			for i, existing := range current {
				if strings.EqualFold(existing.Name, item.Name) {
					current[i] = mergeItem(existing, item)
					found = true
					break
				}
			}
			if !found {
				current = append(current, item)
			}
		}
		return e.inventory.Replace(current)

	case "replace_all":
		return e.inventory.Replace(items)

	default:
		return fmt.Errorf("%w: unknown inventory action %q", shared.ErrValidation, action)
	}
}

// mergeItem overlays the non-zero fields of update onto existing. The id
// and added date always survive.
func mergeItem(existing, update inventory.Item) inventory.Item {
	merged := existing
	if update.Name != "" {
		merged.Name = update.Name
	}
	if update.Category != "" {
		merged.Category = update.Category
	}
	if update.Quantity != 0 {
		merged.Quantity = update.Quantity
	}
	if update.Unit != "" {
		merged.Unit = update.Unit
	}
	if update.BestBefore != "" {
		merged.BestBefore = update.BestBefore
	}
	if update.Location != "" {
		merged.Location = update.Location
	}
	if update.Notes != "" {
		merged.Notes = update.Notes
	}
	return merged
}

func toolDefs() []llm.ToolDef {
	return []llm.ToolDef{
		{
			Name:        "update_meal_plan",
			Description: "Write or update the weekly meal plan. Provide the complete plan object keyed by lowercase day name with full recipe objects.",
			Params: []llm.Param{
				{Name: "meal_plan", Type: "object", Description: "Complete meal plan object keyed by day name", Required: true},
			},
		},
		{
			Name:        "update_shopping_list",
			Description: "Write or update the shopping list. Provide the complete list keyed by delivery group with entry arrays.",
			Params: []llm.Param{
				{Name: "shopping_list", Type: "object", Description: "Complete shopping list object keyed by delivery group", Required: true},
			},
		},
		{
			Name:        "update_inventory",
			Description: "Add, remove, or modify items in the storecupboard inventory. add=append items, remove=delete by name, update=modify existing, replace_all=overwrite entire inventory.",
			Params: []llm.Param{
				{Name: "action", Type: "string", Description: "One of add, remove, update, replace_all", Required: true},
				{Name: "items", Type: "array", Description: "Item objects. For add/update: {name, quantity, unit, category, bestBefore?, notes?}. For remove: {name}.", Required: true},
			},
		},
		{
			Name:        "update_preferences",
			Description: "Update user preferences. Provide a partial object to merge with existing preferences.",
			Params: []llm.Param{
				{Name: "preferences", Type: "object", Description: "Partial preferences to merge", Required: true},
			},
		},
	}
}

func actionPrompt(action, day string) (string, error) {
	switch action {
	case "generate_meal_plan":
		return "Generate a complete weekly meal plan for this week. Include full recipes with ingredients and step-by-step instructions for every dinner. Respect the day themes, plant tracking, and 5-a-day tracking from the preferences. Use the update_meal_plan tool to save it.", nil
	case "update_shopping":
		return "Based on the current meal plan and inventory, generate a shopping list split by the delivery schedule in the preferences. Account for what's already in stock. Use the update_shopping_list tool to save it.", nil
	case "scan_expiry":
		return "Scan the current inventory for expiry dates. Report what needs using urgently and suggest which meals should use the expiring items first.", nil
	case "create_recipe":
		if day == "" {
			day = "today"
		}
		return fmt.Sprintf("Create a recipe for %s. It should fit the day theme, use expiring ingredients where possible, and respect all preferences. Update just that day in the meal plan using update_meal_plan.", day), nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", shared.ErrValidation, action)
	}
}

// decodeArg round-trips a model-supplied argument through JSON into a
// typed value, since tool arguments arrive as generic maps.
func decodeArg(args map[string]any, key string, out any) error {
	raw, ok := args[key]
	if !ok {
		return fmt.Errorf("%w: missing argument %q", shared.ErrValidation, key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid argument %q", shared.ErrValidation, key)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: invalid argument %q: %v", shared.ErrValidation, key, err)
	}
	return nil
}

func renderJSON(v any, empty string) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil || string(data) == "null" || string(data) == "{}" || string(data) == "[]" {
		return empty
	}
	return string(data)
}

func success(msg string) map[string]any {
	return map[string]any{"success": true, "message": msg}
}

package preferences

// Defaults returns the household preference set seeded on first run.
func Defaults() Preferences {
	return Preferences{
		"servings":    2,
		"healthGoals": []any{"perimenopause", "lowCholesterol", "weightLoss", "30PlantsPerWeek"},
		"dietaryRules": map[string]any{
			"proteinEveryMeal": true,
			"proteinTypes":     []any{"meat", "fish", "poultry"},
			"avoid":            []any{"prawns", "shrimp"},
		},
		"calorieTargets": map[string]any{
			"daily":   2100,
			"deficit": 250,
			"breakdown": map[string]any{
				"breakfast": 400,
				"lunch":     500,
				"dinner":    550,
				"snacks":    100,
				"drinks":    200,
				"buffer":    350,
			},
		},
		"plantGoal": map[string]any{
			"target":   30,
			"counting": "strict",
			"rules": map[string]any{
				"vegetables":     1.0,
				"fruits":         1.0,
				"wholegrains":    1.0,
				"legumes":        1.0,
				"nuts":           1.0,
				"seeds":          1.0,
				"herbsAndSpices": 0.25,
			},
			"notes": "Each unique plant = 1 full point. Herbs/spices = 0.25 each (need 4 to equal 1). Different varieties count separately.",
		},
		"fiveADay": map[string]any{
			"target":      5,
			"portionSize": "80g",
			"rules":       "Potatoes don't count. Beans/pulses max 1 portion. Juice/smoothie max 1 portion. Dried fruit = 30g per portion.",
		},
		"dayThemes": map[string]any{
			"monday":    "Asian",
			"tuesday":   "Mexican",
			"wednesday": "Indian",
			"thursday":  "Italian",
			"friday":    "Fish",
			"saturday":  "Flexible",
			"sunday":    "Flexible",
		},
		"deliverySchedule": map[string]any{
			"sunday": map[string]any{
				"coversDays": []any{"monday", "tuesday"},
				"notes":      "Sunday evening delivery — proteins and fresh produce for start of week",
			},
			"midweek": map[string]any{
				"day":        "Tuesday or Wednesday",
				"coversDays": []any{"wednesday", "thursday", "friday"},
				"notes":      "Midweek delivery — proteins and fresh produce for rest of week",
			},
		},
		"cookingStyle": map[string]any{
			"indian": map[string]any{
				"approach":     "Traditional and adventurous. Use proper spice builds — bloom whole spices in hot oil before building the dish.",
				"wholeSpices":  []any{"mustard seeds", "cumin seeds", "fenugreek seeds", "nigella seeds", "cardamom pods", "cloves", "cinnamon stick", "bay leaves", "dried red chillies", "curry leaves", "star anise"},
				"groundSpices": []any{"kashmiri chilli powder", "cumin", "coriander", "turmeric", "garam masala", "amchur", "asafoetida", "fenugreek powder", "black pepper"},
				"notes":        "User is well stocked on spices and wants authentic, bold flavour.",
			},
		},
		"expiryRules": map[string]any{
			"alertThresholds": map[string]any{
				"red":   "Expiring today or already past — MUST cook, freeze, or eat NOW.",
				"amber": "Expiring in the next few days — plan to use.",
				"green": "No action needed.",
			},
			"proteinPriority": "Sort proteins by expiry date — shortest shelf life cooks first.",
		},
		"defaultShelfLife": map[string]any{
			"produce":    7,
			"dairy":      14,
			"protein":    3,
			"pantry":     180,
			"spices":     365,
			"canned":     730,
			"condiments": 180,
			"frozen":     90,
		},
	}
}

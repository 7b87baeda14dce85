// Package clipper turns a recipe web page into a planned meal: it
// fetches the URL, strips the page down to readable text, and has the
// model extract a structured recipe which is saved into a day slot.
package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"meal-planner-dashboard/internal/llm"
	"meal-planner-dashboard/internal/mealplan"

	"github.com/PuerkitoBio/goquery"
)

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	plan    *mealplan.Service
	textGen llm.TextGenerator
	client  *http.Client
}

// NewClipper creates a new Clipper instance.
func NewClipper(plan *mealplan.Service, textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		plan:    plan,
		textGen: textGen,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL fetches the URL, extracts the recipe using AI, and saves it
// into the given day of the meal plan.
func (c *Clipper) ClipURL(ctx context.Context, url, day string) (mealplan.Recipe, error) {
	content, err := c.fetchAndCleanHTML(url)
	if err != nil {
		return mealplan.Recipe{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe details from the following page content.
Return the result strictly as a JSON object with this structure:
{
  "name": "Recipe Title",
  "ingredients": [{"name": "flour", "quantity": 200, "unit": "g"}, ...],
  "method": ["Step 1 description", "Step 2 description", ...],
  "plants": ["tomato", "onion", ...],
  "prepTime": "e.g. 30 mins"
}
Quantities must be numbers; use 0 when the page gives no amount.

Page content:
%s
`, content)

	response, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return mealplan.Recipe{}, fmt.Errorf("ai extraction failed: %w", err)
	}

	var recipe mealplan.Recipe
	raw := stripCodeFence(response.Content)
	if err := json.Unmarshal([]byte(raw), &recipe); err != nil {
		return mealplan.Recipe{}, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, response.Content)
	}

	if err := c.plan.SetDay(day, recipe); err != nil {
		return mealplan.Recipe{}, err
	}
	return recipe, nil
}

func (c *Clipper) fetchAndCleanHTML(url string) (string, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}

// stripCodeFence removes a surrounding markdown fence if the model
// wrapped its JSON in one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

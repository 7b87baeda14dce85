package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meal-planner-dashboard/internal/assistant"
	"meal-planner-dashboard/internal/document"
	"meal-planner-dashboard/internal/inventory"
	"meal-planner-dashboard/internal/llm"
	"meal-planner-dashboard/internal/mealplan"
	"meal-planner-dashboard/internal/preferences"
	"meal-planner-dashboard/internal/shopping"
	"meal-planner-dashboard/internal/status"

	"github.com/rs/zerolog"
)

type stubAgent struct {
	final string
}

func (a *stubAgent) Run(ctx context.Context, system, message string, tools []llm.ToolDef, exec llm.ToolExecutor) (llm.ContentResponse, error) {
	return llm.ContentResponse{Content: a.final}, nil
}

type serverOpts struct {
	agent      llm.ToolAgent
	authSecret string
}

func newTestServer(t *testing.T, opts serverOpts) (*Server, *document.Store) {
	t.Helper()
	store, err := document.New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	refresher := status.NewRefresher(store, 3)
	inv := inventory.NewService(store, refresher)
	mp := mealplan.NewService(store, refresher)
	prefs := preferences.NewService(store)
	shop := shopping.NewService(store, prefs)

	var assistantSvc *assistant.Service
	if opts.agent != nil {
		exec := assistant.NewExecutor(inv, mp, shop, prefs, refresher)
		assistantSvc = assistant.NewService(opts.agent, exec, nil, zerolog.Nop())
	}

	return NewServer(inv, mp, shop, prefs, refresher, assistantSvc, nil, opts.authSecret, zerolog.Nop()), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, w.Body.String())
	}
	return v
}

func TestInventoryEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, serverOpts{})
	h := srv.Router()

	t.Run("AddAndList", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/api/inventory", inventory.Item{Name: "Chickpeas", Quantity: 2, Unit: "can"})
		if w.Code != http.StatusCreated {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}
		added := decode[inventory.Item](t, w)
		if added.ID == "" {
			t.Fatal("expected id to be assigned")
		}

		w = doJSON(t, h, http.MethodGet, "/api/inventory", nil)
		items := decode[[]inventory.Item](t, w)
		if len(items) != 1 || items[0].Name != "Chickpeas" {
			t.Fatalf("items = %+v", items)
		}
	})

	t.Run("AddRejectsUnnamed", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/api/inventory", inventory.Item{Quantity: 1})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("InvalidBodyIs400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/inventory", strings.NewReader("{nope"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("UpdateUnknownIs404", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/inventory/ghost-id", inventory.Item{Name: "Beans"})
		if w.Code != http.StatusNotFound {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("ReplaceWholeDocument", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/inventory", []inventory.Item{
			{Name: "Oats", Quantity: 500, Unit: "g"},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}

		w = doJSON(t, h, http.MethodGet, "/api/inventory", nil)
		items := decode[[]inventory.Item](t, w)
		if len(items) != 1 || items[0].Name != "Oats" || items[0].ID == "" {
			t.Fatalf("items = %+v", items)
		}
	})

	t.Run("UpdateAndDelete", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/api/inventory", inventory.Item{Name: "Rice", Quantity: 1, Unit: "kg"})
		added := decode[inventory.Item](t, w)

		w = doJSON(t, h, http.MethodPut, "/api/inventory/"+added.ID, inventory.Item{Name: "Rice", Quantity: 2, Unit: "kg"})
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}
		updated := decode[inventory.Item](t, w)
		if updated.Quantity != 2 {
			t.Errorf("quantity = %v", updated.Quantity)
		}

		w = doJSON(t, h, http.MethodDelete, "/api/inventory/"+added.ID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("delete code = %d", w.Code)
		}
		w = doJSON(t, h, http.MethodDelete, "/api/inventory/"+added.ID, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("second delete code = %d", w.Code)
		}
	})
}

func TestMealEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, serverOpts{})
	h := srv.Router()

	recipe := mealplan.Recipe{
		Name:        "Dal",
		Ingredients: []mealplan.Ingredient{{Name: "Red lentils", Quantity: 200, Unit: "g"}},
		Method:      []string{"Simmer the lentils."},
	}

	t.Run("SetAndGetDay", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/meals/monday", recipe)
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}

		w = doJSON(t, h, http.MethodGet, "/api/meals/monday", nil)
		got := decode[*mealplan.Recipe](t, w)
		if got == nil || got.Name != "Dal" {
			t.Fatalf("got = %+v", got)
		}
	})

	t.Run("PlanHasSevenSlots", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, "/api/meals", nil)
		plan := decode[mealplan.Plan](t, w)
		if len(plan) != 7 {
			t.Fatalf("slots = %d", len(plan))
		}
		if plan["tuesday"] != nil {
			t.Error("tuesday should be empty")
		}
	})

	t.Run("ReplaceWholePlan", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/meals", mealplan.Plan{
			"Friday": &mealplan.Recipe{Name: "Baked cod"},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}
		plan := decode[mealplan.Plan](t, w)
		if plan["friday"] == nil || plan["friday"].Name != "Baked cod" {
			t.Fatalf("friday = %+v", plan["friday"])
		}
		if plan["monday"] != nil {
			t.Error("replace should drop the previous monday recipe")
		}

		// Put the Dal back for the following subtests.
		w = doJSON(t, h, http.MethodPut, "/api/meals/monday", recipe)
		if w.Code != http.StatusOK {
			t.Fatalf("restore code = %d", w.Code)
		}
	})

	t.Run("UnknownDayIs404", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/meals/someday", recipe)
		if w.Code != http.StatusNotFound {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("MarkCooked", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/meals/monday/cooked", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}
		got := decode[*mealplan.Recipe](t, w)
		if got == nil || !got.Cooked {
			t.Fatalf("got = %+v", got)
		}
	})

	t.Run("ClearDay", func(t *testing.T) {
		w := doJSON(t, h, http.MethodDelete, "/api/meals/monday", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d", w.Code)
		}
		w = doJSON(t, h, http.MethodDelete, "/api/meals/monday", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("clearing empty day code = %d", w.Code)
		}
	})
}

func TestShoppingEndpoints(t *testing.T) {
	srv, store := newTestServer(t, serverOpts{})
	h := srv.Router()

	seed := shopping.List{
		"sunday": []shopping.Entry{{ID: "e1", Name: "Tomatoes", Quantity: 3, Unit: "whole"}},
	}
	if err := store.Save(document.ShoppingList, seed); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Run("ToggleChecked", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/shopping/sunday/e1/checked", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}
		entry := decode[shopping.Entry](t, w)
		if !entry.Checked {
			t.Error("expected entry to be checked")
		}
	})

	t.Run("ToggleUnknownIs404", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPut, "/api/shopping/sunday/nope/checked", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		w := doJSON(t, h, http.MethodDelete, "/api/shopping/sunday/e1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("Regenerate", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/api/shopping/regenerate", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}
	})
}

func TestPreferencesEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, serverOpts{})
	h := srv.Router()

	w := doJSON(t, h, http.MethodGet, "/api/preferences", nil)
	prefs := decode[map[string]any](t, w)
	if prefs["dayThemes"] == nil {
		t.Fatal("expected seeded defaults")
	}

	w = doJSON(t, h, http.MethodPut, "/api/preferences", map[string]any{"servings": 4})
	merged := decode[map[string]any](t, w)
	if merged["servings"] != float64(4) {
		t.Errorf("servings = %v", merged["servings"])
	}
	if merged["dayThemes"] == nil {
		t.Error("merge dropped defaults")
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, store := newTestServer(t, serverOpts{})
	h := srv.Router()

	yesterday := time.Now().AddDate(0, 0, -1).Format(time.DateOnly)
	if err := store.Save(document.Inventory, []inventory.Item{{ID: "1", Name: "Milk", BestBefore: yesterday}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w := doJSON(t, h, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	st := decode[status.Status](t, w)
	if st.Banner != status.SeverityRed {
		t.Errorf("banner = %q, want red", st.Banner)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, serverOpts{})
	w := doJSON(t, srv.Router(), http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["status"] != "ok" || body["assistant"] != false {
		t.Errorf("body = %+v", body)
	}
}

func TestChatEndpoints(t *testing.T) {
	t.Run("UnavailableWithoutAssistant", func(t *testing.T) {
		srv, _ := newTestServer(t, serverOpts{})
		h := srv.Router()
		for _, tc := range []struct{ method, path string }{
			{http.MethodPost, "/api/chat"},
			{http.MethodPost, "/api/action"},
			{http.MethodPost, "/api/recipes/clip"},
		} {
			w := doJSON(t, h, tc.method, tc.path, map[string]string{"message": "hi", "action": "scan_expiry", "url": "http://x"})
			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("%s %s code = %d", tc.method, tc.path, w.Code)
			}
		}
	})

	t.Run("SubmitAndPoll", func(t *testing.T) {
		srv, _ := newTestServer(t, serverOpts{agent: &stubAgent{final: "All sorted."}})
		h := srv.Router()

		w := doJSON(t, h, http.MethodPost, "/api/chat", map[string]string{"message": "plan my week"})
		if w.Code != http.StatusAccepted {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}
		accepted := decode[map[string]string](t, w)
		id := accepted["response_id"]
		if id == "" {
			t.Fatal("missing response_id")
		}

		deadline := time.Now().Add(2 * time.Second)
		for {
			w = doJSON(t, h, http.MethodGet, "/api/chat/"+id, nil)
			resp := decode[map[string]any](t, w)
			if resp["status"] == "complete" {
				if resp["assistant_response"] != "All sorted." {
					t.Fatalf("resp = %+v", resp)
				}
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("never completed: %+v", resp)
			}
			time.Sleep(5 * time.Millisecond)
		}
	})

	t.Run("UnknownResponseIs404", func(t *testing.T) {
		srv, _ := newTestServer(t, serverOpts{agent: &stubAgent{}})
		w := doJSON(t, srv.Router(), http.MethodGet, "/api/chat/nope", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("EmptyMessageIs400", func(t *testing.T) {
		srv, _ := newTestServer(t, serverOpts{agent: &stubAgent{}})
		w := doJSON(t, srv.Router(), http.MethodPost, "/api/chat", map[string]string{})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("code = %d", w.Code)
		}
	})
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, serverOpts{agent: &stubAgent{final: "ok"}})
	h := srv.Router()

	limited := false
	for i := 0; i < 15; i++ {
		w := doJSON(t, h, http.MethodPost, "/api/chat", map[string]string{"message": fmt.Sprintf("msg %d", i)})
		if w.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected a 429 within 15 rapid requests")
	}
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t, serverOpts{authSecret: "s3cret"})
	h := srv.Router()

	t.Run("ReadsStayOpen", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, "/api/inventory", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("MutationWithoutTokenIs401", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/api/inventory", inventory.Item{Name: "Rice"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("BadTokenIs401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/inventory", strings.NewReader(`{"name":"Rice"}`))
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d", w.Code)
		}
	})

	t.Run("ValidTokenPasses", func(t *testing.T) {
		token, err := IssueToken("s3cret", "agent", time.Hour)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/api/inventory", strings.NewReader(`{"name":"Rice"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("WrongSecretIs401", func(t *testing.T) {
		token, err := IssueToken("other-secret", "agent", time.Hour)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/api/inventory", strings.NewReader(`{"name":"Rice"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d", w.Code)
		}
	})
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, serverOpts{})
	req := httptest.NewRequest(http.MethodOptions, "/api/inventory", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("code = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}

func TestDashboardPage(t *testing.T) {
	srv, _ := newTestServer(t, serverOpts{})
	w := doJSON(t, srv.Router(), http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Meal Planner") {
		t.Error("page missing title")
	}
}

package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"meal-planner-dashboard/internal/inventory"
	"meal-planner-dashboard/internal/mealplan"
	"meal-planner-dashboard/internal/preferences"
	"meal-planner-dashboard/internal/shared"

	"github.com/gorilla/mux"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.status.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// --- Inventory ---

func (s *Server) handleInventoryList(w http.ResponseWriter, r *http.Request) {
	items, err := s.inventory.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleInventoryAdd(w http.ResponseWriter, r *http.Request) {
	var item inventory.Item
	if err := decodeBody(r, &item); err != nil {
		s.writeError(w, err)
		return
	}
	added, err := s.inventory.Add(item)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleInventoryReplace(w http.ResponseWriter, r *http.Request) {
	var items []inventory.Item
	if err := decodeBody(r, &items); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.inventory.Replace(items); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleInventoryUpdate(w http.ResponseWriter, r *http.Request) {
	var item inventory.Item
	if err := decodeBody(r, &item); err != nil {
		s.writeError(w, err)
		return
	}
	updated, err := s.inventory.Update(mux.Vars(r)["id"], item)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleInventoryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.inventory.Delete(mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// --- Meal plan ---

func (s *Server) handleMealsGet(w http.ResponseWriter, r *http.Request) {
	plan, err := s.mealplan.Get()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleMealsReplace(w http.ResponseWriter, r *http.Request) {
	var plan mealplan.Plan
	if err := decodeBody(r, &plan); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.mealplan.Replace(plan); err != nil {
		s.writeError(w, err)
		return
	}
	saved, err := s.mealplan.Get()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleMealGet(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.mealplan.GetDay(mux.Vars(r)["day"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleMealSet(w http.ResponseWriter, r *http.Request) {
	var recipe mealplan.Recipe
	if err := decodeBody(r, &recipe); err != nil {
		s.writeError(w, err)
		return
	}
	day := mux.Vars(r)["day"]
	if err := s.mealplan.SetDay(day, recipe); err != nil {
		s.writeError(w, err)
		return
	}
	saved, err := s.mealplan.GetDay(day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleMealClear(w http.ResponseWriter, r *http.Request) {
	if err := s.mealplan.ClearDay(mux.Vars(r)["day"]); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (s *Server) handleMealCooked(w http.ResponseWriter, r *http.Request) {
	day := mux.Vars(r)["day"]
	if err := s.mealplan.MarkCooked(day); err != nil {
		s.writeError(w, err)
		return
	}
	recipe, err := s.mealplan.GetDay(day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

// --- Shopping list ---

func (s *Server) handleShoppingGet(w http.ResponseWriter, r *http.Request) {
	list, err := s.shopping.Get()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleShoppingRegenerate(w http.ResponseWriter, r *http.Request) {
	list, err := s.shopping.Regenerate()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleShoppingToggle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := s.shopping.Toggle(vars["group"], vars["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleShoppingRemove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.shopping.Remove(vars["group"], vars["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// --- Preferences ---

func (s *Server) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.prefs.Get()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePreferencesMerge(w http.ResponseWriter, r *http.Request) {
	var changes preferences.Preferences
	if err := decodeBody(r, &changes); err != nil {
		s.writeError(w, err)
		return
	}
	merged, err := s.prefs.Merge(changes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, merged)
}

// --- Assistant ---

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		s.writeAssistantUnavailable(w)
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id, err := s.assistant.Submit(req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"response_id": id, "status": "pending"})
}

func (s *Server) handleChatGet(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		s.writeAssistantUnavailable(w)
		return
	}
	resp, err := s.assistant.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		s.writeAssistantUnavailable(w)
		return
	}
	var req struct {
		Action string `json:"action"`
		Day    string `json:"day"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id, err := s.assistant.Action(req.Action, req.Day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"response_id": id, "status": "pending"})
}

func (s *Server) handleClip(w http.ResponseWriter, r *http.Request) {
	if s.clipper == nil {
		s.writeAssistantUnavailable(w)
		return
	}
	var req struct {
		URL string `json:"url"`
		Day string `json:"day"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.URL == "" {
		s.writeError(w, fmt.Errorf("%w: url required", shared.ErrValidation))
		return
	}
	recipe, err := s.clipper.ClipURL(r.Context(), req.URL, req.Day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) writeAssistantUnavailable(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"error": "assistant not configured - set GEMINI_API_KEY",
	})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", shared.ErrValidation, err)
	}
	return nil
}

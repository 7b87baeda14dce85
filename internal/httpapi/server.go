// Package httpapi exposes the dashboard's REST surface and serves the
// embedded web UI. All domain errors are mapped onto HTTP status codes
// here; handlers stay thin over the services.
package httpapi

import (
	"embed"
	"encoding/json"
	"errors"
	"net/http"

	"meal-planner-dashboard/internal/assistant"
	"meal-planner-dashboard/internal/clipper"
	"meal-planner-dashboard/internal/inventory"
	"meal-planner-dashboard/internal/mealplan"
	"meal-planner-dashboard/internal/preferences"
	"meal-planner-dashboard/internal/shared"
	"meal-planner-dashboard/internal/shopping"
	"meal-planner-dashboard/internal/status"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

//go:embed web/dashboard.html
var webFS embed.FS

// Server holds the services behind the REST API. Assistant and clipper
// may be nil when no model API key is configured; their endpoints then
// answer 503.
type Server struct {
	inventory *inventory.Service
	mealplan  *mealplan.Service
	shopping  *shopping.Service
	prefs     *preferences.Service
	status    *status.Refresher
	assistant *assistant.Service
	clipper   *clipper.Clipper

	authSecret string
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewServer wires the services into a Server.
func NewServer(
	inv *inventory.Service,
	mp *mealplan.Service,
	shop *shopping.Service,
	prefs *preferences.Service,
	st *status.Refresher,
	assistantSvc *assistant.Service,
	clip *clipper.Clipper,
	authSecret string,
	log zerolog.Logger,
) *Server {
	return &Server{
		inventory:  inv,
		mealplan:   mp,
		shopping:   shop,
		prefs:      prefs,
		status:     st,
		assistant:  assistantSvc,
		clipper:    clip,
		authSecret: authSecret,
		limiter:    rate.NewLimiter(rate.Limit(10.0/60.0), 10),
		log:        log,
	}
}

// Router builds the full route table with middleware applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	api.HandleFunc("/inventory", s.handleInventoryList).Methods(http.MethodGet)
	api.HandleFunc("/inventory", s.handleInventoryAdd).Methods(http.MethodPost)
	api.HandleFunc("/inventory", s.handleInventoryReplace).Methods(http.MethodPut)
	api.HandleFunc("/inventory/{id}", s.handleInventoryUpdate).Methods(http.MethodPut)
	api.HandleFunc("/inventory/{id}", s.handleInventoryDelete).Methods(http.MethodDelete)

	api.HandleFunc("/meals", s.handleMealsGet).Methods(http.MethodGet)
	api.HandleFunc("/meals", s.handleMealsReplace).Methods(http.MethodPut)
	api.HandleFunc("/meals/{day}", s.handleMealGet).Methods(http.MethodGet)
	api.HandleFunc("/meals/{day}", s.handleMealSet).Methods(http.MethodPut)
	api.HandleFunc("/meals/{day}", s.handleMealClear).Methods(http.MethodDelete)
	api.HandleFunc("/meals/{day}/cooked", s.handleMealCooked).Methods(http.MethodPut)

	api.HandleFunc("/shopping", s.handleShoppingGet).Methods(http.MethodGet)
	api.HandleFunc("/shopping/regenerate", s.handleShoppingRegenerate).Methods(http.MethodPost)
	api.HandleFunc("/shopping/{group}/{id}/checked", s.handleShoppingToggle).Methods(http.MethodPut)
	api.HandleFunc("/shopping/{group}/{id}", s.handleShoppingRemove).Methods(http.MethodDelete)

	api.HandleFunc("/preferences", s.handlePreferencesGet).Methods(http.MethodGet)
	api.HandleFunc("/preferences", s.handlePreferencesMerge).Methods(http.MethodPut)

	api.HandleFunc("/chat", s.rateLimited(s.handleChat)).Methods(http.MethodPost)
	api.HandleFunc("/chat/{id}", s.handleChatGet).Methods(http.MethodGet)
	api.HandleFunc("/action", s.rateLimited(s.handleAction)).Methods(http.MethodPost)
	api.HandleFunc("/recipes/clip", s.rateLimited(s.handleClip)).Methods(http.MethodPost)

	return corsMiddleware(r)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/dashboard.html")
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"assistant": s.assistant != nil,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps the domain sentinels onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, shared.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, shared.ErrStoreUnavailable):
		code = http.StatusServiceUnavailable
	}
	if code == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/touristsafety/identity-access-service/internal/core/services"
)

// AdminHandler serves administrator-only introspection endpoints.
type AdminHandler struct {
	registry *services.SessionRegistry
}

func NewAdminHandler(registry *services.SessionRegistry) *AdminHandler {
	return &AdminHandler{registry: registry}
}

// ActiveSessions reports how many client scopes currently hold a session
// manager. Gated to ADMINISTRATOR by the auth middleware.
func (h *AdminHandler) ActiveSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]int{
		"active_client_scopes": h.registry.Len(),
	}); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/core/services"
	"github.com/touristsafety/identity-access-service/internal/observability"
)

// clientIDHeader scopes requests to one device session. Clients without one
// get a fresh scope assigned and echoed back.
const clientIDHeader = "X-Client-ID"

// SessionHandler exposes the session manager over HTTP: login, signup,
// logout and session restore, one session per client scope.
type SessionHandler struct {
	registry *services.SessionRegistry
	tokens   *services.TokenService
}

func NewSessionHandler(registry *services.SessionRegistry, tokens *services.TokenService) *SessionHandler {
	return &SessionHandler{registry: registry, tokens: tokens}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Message  string           `json:"message"`
	Token    string           `json:"token,omitempty"`
	Identity *domain.Identity `json:"identity,omitempty"`
}

type SignupRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	AuthorityName string `json:"authority_name,omitempty"`
	AuthorityType string `json:"authority_type,omitempty"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	clientID := h.clientID(w, r)
	mgr := h.registry.Manager(r.Context(), clientID)

	identity, err := mgr.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		observability.Logins.WithLabelValues(loginOutcome(err)).Inc()
		writeSessionError(w, err)
		return
	}
	observability.Logins.WithLabelValues(observability.OutcomeSuccess).Inc()

	h.respondAuthenticated(w, identity, "Login successful")
}

func (h *SessionHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	clientID := h.clientID(w, r)
	mgr := h.registry.Manager(r.Context(), clientID)

	identity, err := mgr.Signup(r.Context(), services.SignupInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          domain.Role(req.Role),
		AuthorityName: req.AuthorityName,
		AuthorityType: domain.AuthorityType(req.AuthorityType),
	})
	if err != nil {
		observability.Signups.WithLabelValues(signupOutcome(err)).Inc()
		writeSessionError(w, err)
		return
	}
	observability.Signups.WithLabelValues(observability.OutcomeSuccess).Inc()

	h.respondAuthenticatedStatus(w, identity, "Account created", http.StatusCreated)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientID := h.clientID(w, r)
	mgr := h.registry.Manager(r.Context(), clientID)

	observability.Logouts.Inc()
	if err := mgr.Logout(r.Context()); err != nil {
		// The in-memory session is gone regardless; the persistence failure
		// is diagnostic only.
		log.Printf("logout: %v", err)
	}
	h.registry.Evict(clientID)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(SessionResponse{Message: "Logged out"}); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// Session restores and reports the client's current session status.
func (h *SessionHandler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientID := h.clientID(w, r)
	mgr := h.registry.Manager(r.Context(), clientID)

	identity := mgr.CurrentIdentity()
	if identity == nil {
		observability.Restores.WithLabelValues(observability.OutcomeAbsent).Inc()
		http.Error(w, "no active session", http.StatusUnauthorized)
		return
	}
	observability.Restores.WithLabelValues(observability.OutcomeSuccess).Inc()

	h.respondAuthenticated(w, identity, "Session active")
}

func (h *SessionHandler) respondAuthenticated(w http.ResponseWriter, identity *domain.Identity, msg string) {
	h.respondAuthenticatedStatus(w, identity, msg, http.StatusOK)
}

func (h *SessionHandler) respondAuthenticatedStatus(w http.ResponseWriter, identity *domain.Identity, msg string, status int) {
	token, err := h.tokens.IssueToken(identity)
	if err != nil {
		log.Printf("Failed to issue token for %s: %v", identity.ID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(SessionResponse{
		Message:  msg,
		Token:    token,
		Identity: identity,
	}); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (h *SessionHandler) clientID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(clientIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(clientIDHeader, id)
	return id
}

func writeSessionError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.As(err, &vErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "validation failed",
			"field":   vErr.Field,
			"reason":  vErr.Reason,
		})
	case errors.Is(err, domain.ErrEmailTaken):
		http.Error(w, "email already registered", http.StatusConflict)
	case errors.Is(err, domain.ErrStoreUnavailable):
		http.Error(w, "credential store unavailable, retry later", http.StatusServiceUnavailable)
	case errors.Is(err, domain.ErrPersistenceFailed):
		http.Error(w, "session could not be persisted, retry later", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return observability.OutcomeInvalid
	case errors.Is(err, domain.ErrPersistenceFailed):
		return observability.OutcomePersistence
	default:
		return observability.OutcomeUnavailable
	}
}

func signupOutcome(err error) string {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return observability.OutcomeValidation
	case errors.Is(err, domain.ErrEmailTaken):
		return observability.OutcomeConflict
	case errors.Is(err, domain.ErrPersistenceFailed):
		return observability.OutcomePersistence
	default:
		return observability.OutcomeUnavailable
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/client"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser origins are enforced by the CORS layer
		return true
	},
}

// ClientHub is the websocket hub as seen by the HTTP layer
type ClientHub interface {
	Register(c *client.Client) bool
	Unregister(c *client.Client)
	GetClientCount() int
	GetMetrics() map[string]interface{}
}

// SportRegistry resolves the sports this service simulates
type SportRegistry interface {
	GetModule(sportKey string) (contracts.SportModule, error)
	EnabledSports() []contracts.SportModule
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves health, metrics, team and websocket endpoints
type Handler struct {
	ctx      context.Context
	hub      ClientHub
	registry SportRegistry
	games    GameService
	archive  Pinger
}

// NewHandler creates a new handler instance. ctx bounds websocket
// connections; archive may be nil when results are not persisted.
func NewHandler(ctx context.Context, h ClientHub, reg SportRegistry, games GameService, archive Pinger) *Handler {
	return &Handler{
		ctx:      ctx,
		hub:      h,
		registry: reg,
		games:    games,
		archive:  archive,
	}
}

// HealthCheck returns service health
// GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.archive.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "archive unhealthy", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"service":        "game-simulator",
		"timestamp":      time.Now().UTC(),
		"active_games":   len(h.games.ActiveGames()),
		"active_clients": h.hub.GetClientCount(),
	})
}

// HandleMetrics returns hub and game metrics
// GET /metrics
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := h.hub.GetMetrics()
	metrics["active_games"] = len(h.games.ActiveGames())

	respondJSON(w, http.StatusOK, metrics)
}

// GetTeams lists the teams of a sport
// GET /api/v1/teams?sport={sport_key}
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	sportKey := r.URL.Query().Get("sport")
	if sportKey == "" {
		enabled := h.registry.EnabledSports()
		if len(enabled) == 0 {
			respondError(w, http.StatusServiceUnavailable, "no sports enabled", nil)
			return
		}
		sportKey = enabled[0].GetSportKey()
	}

	module, err := h.registry.GetModule(sportKey)
	if err != nil {
		respondError(w, http.StatusNotFound, "sport not available", err)
		return
	}

	teams := module.Teams()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport":        module.GetSportKey(),
		"display_name": module.GetDisplayName(),
		"teams":        teams,
		"count":        len(teams),
	})
}

// HandleWebSocket upgrades HTTP connections to WebSocket
// GET /ws
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("⚠️  WebSocket upgrade error: %v\n", err)
		return
	}

	clientID := uuid.New().String()
	c := client.NewClient(clientID, conn, h.hub)

	if !h.hub.Register(c) {
		conn.Close()
		return
	}

	// pumps outlive the request, so they run on the handler context
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	fmt.Printf("✓ WebSocket connection established: %s\n", clientID)
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("error encoding response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		fmt.Printf("error: %s - %v\n", message, err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		fmt.Printf("error encoding error response: %v\n", err)
	}
}

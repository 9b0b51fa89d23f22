package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mafiabot/internal/bot"
	"mafiabot/internal/game"
)

// SecretHeader carries the shared secret for the command webhook
const SecretHeader = "X-Webhook-Secret"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service       *bot.Service
	botUsername   string
	webhookSecret string
	qr            *qrCache
}

// New creates a new handler. An empty webhookSecret disables the command
// endpoint.
func New(service *bot.Service, botUsername, webhookSecret string) *Handler {
	return &Handler{
		service:       service,
		botUsername:   botUsername,
		webhookSecret: webhookSecret,
		qr:            &qrCache{},
	}
}

// playerView is a player as shown publicly; roles are never exposed
type playerView struct {
	ID          game.PlayerID `json:"id"`
	Handle      string        `json:"handle"`
	DisplayName string        `json:"displayName,omitempty"`
	Seat        int           `json:"seat,omitempty"`
}

type sessionView struct {
	Phase       game.Phase   `json:"phase"`
	HasHost     bool         `json:"hasHost"`
	RoundID     string       `json:"roundId,omitempty"`
	StartedAt   *time.Time   `json:"startedAt,omitempty"`
	PlayerCount int          `json:"playerCount"`
	Players     []playerView `json:"players"`
}

// Session returns a snapshot of the current round without roles
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Session().Snapshot()

	view := sessionView{
		Phase:       snap.Phase,
		HasHost:     snap.HasHost,
		RoundID:     snap.RoundID,
		PlayerCount: len(snap.Players),
		Players:     make([]playerView, 0, len(snap.Players)),
	}
	if !snap.StartedAt.IsZero() {
		view.StartedAt = &snap.StartedAt
	}
	for _, e := range snap.Players {
		view.Players = append(view.Players, playerView{
			ID:          e.Player.ID,
			Handle:      e.Player.Handle,
			DisplayName: e.Player.DisplayName,
			Seat:        e.Seat,
		})
	}

	writeJSON(w, http.StatusOK, view)
}

// Command runs a bot command posted by a webhook-style transport
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" {
		http.NotFound(w, r)
		return
	}
	got := r.Header.Get(SecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
		http.Error(w, "Invalid webhook secret", http.StatusUnauthorized)
		return
	}

	var cmd bot.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid command body", http.StatusBadRequest)
		return
	}
	if cmd.Caller.ID == 0 {
		http.Error(w, "Missing caller", http.StatusBadRequest)
		return
	}
	cmd.Name = chi.URLParam(r, "command")

	resp, err := h.service.Handle(r.Context(), cmd)
	if errors.Is(err, bot.ErrUnknownCommand) {
		http.Error(w, "Unknown command", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("http: command %s: %v", cmd.Name, err)
		http.Error(w, "Command failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Live reports that the process is up
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Ready reports whether the session is available
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || h.service.Session() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Session not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

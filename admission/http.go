package admission

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"tablehost/engine"
	"tablehost/internal/registry"
	"tablehost/internal/roomactor"
	"tablehost/internal/session"
)

const defaultSeats = 9
const defaultHandIntervalSeconds = 30

// Handler is the HTTP surface for spec.md §4.5/§6: create/join/list rooms
// and resolve a device id to its stable player id and active room.
type Handler struct {
	registry *registry.Registry
	sessions *session.Manager
	identity Service
}

func NewHandler(reg *registry.Registry, sessions *session.Manager, identity Service) *Handler {
	return &Handler{registry: reg, sessions: sessions, identity: identity}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rooms", h.handleCreateRoom)
	mux.HandleFunc("GET /rooms", h.handleListRooms)
	mux.HandleFunc("POST /rooms/join", h.handleJoinRoom)
	mux.HandleFunc("GET /player-room/{player_id}", h.handlePlayerRoom)
	mux.HandleFunc("POST /rooms/{id}/leave/{player_id}", h.handleLeaveRoom)
	mux.HandleFunc("GET /random-profile", h.handleRandomProfile)
}

type createRoomRequest struct {
	PlayerName   string `json:"player_name"`
	PlayerEmoji  string `json:"player_emoji"`
	SBAmount     int64  `json:"sb_amount"`
	InitialChips int64  `json:"initial_chips"`
	RebuyMinimum int64  `json:"rebuy_minimum"`
	HandInterval int    `json:"hand_interval"`
	MaxChips     int64  `json:"max_chips"`
	DeviceID     string `json:"device_id"`
}

type joinRoomRequest struct {
	RoomID      string `json:"room_id"`
	PlayerName  string `json:"player_name"`
	PlayerEmoji string `json:"player_emoji"`
	DeviceID    string `json:"device_id"`
}

type roomIdentityResponse struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

type roomSummary struct {
	ID           string `json:"id"`
	OwnerName    string `json:"owner_name"`
	OwnerEmoji   string `json:"owner_emoji"`
	SBAmount     int64  `json:"sb_amount"`
	BBAmount     int64  `json:"bb_amount"`
	InitialChips int64  `json:"initial_chips"`
	PlayerCount  int    `json:"player_count"`
	Status       string `json:"status"`
}

type playerRoomResponse struct {
	RoomID *string `json:"room_id"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type profileResponse struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	ctx := r.Context()
	playerID, err := h.identity.ResolveIdentity(ctx, deviceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return
	}

	cfg := engine.RoomConfig{
		Seats:        defaultSeats,
		SBAmount:     req.SBAmount,
		InitialChips: req.InitialChips,
		RebuyMinimum: req.RebuyMinimum,
		MaxChips:     req.MaxChips,
		HandInterval: handIntervalOrDefault(req.HandInterval),
	}

	actor, err := h.registry.Create(playerID, req.PlayerName, req.PlayerEmoji, cfg, h.sessions.Broadcast)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	roomID := actor.Snapshot().ID
	if err := h.identity.SetActiveRoom(ctx, deviceID, roomID); err != nil {
		log.Printf("[Admission] failed to record active room for device after create: %v", err)
	}

	writeJSON(w, http.StatusOK, roomIdentityResponse{RoomID: roomID, PlayerID: playerID})
}

func (h *Handler) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	roomID := strings.TrimSpace(req.RoomID)
	deviceID := strings.TrimSpace(req.DeviceID)
	if roomID == "" || deviceID == "" {
		writeError(w, http.StatusBadRequest, "room_id and device_id are required")
		return
	}

	actor, ok := h.registry.Lookup(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	ctx := r.Context()
	playerID, err := h.identity.ResolveIdentity(ctx, deviceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return
	}

	res := actor.Submit(ctx, roomactor.Join(playerID, req.PlayerName, req.PlayerEmoji))
	if res.Err != nil {
		writeEngineError(w, res.Err)
		return
	}

	if err := h.identity.SetActiveRoom(ctx, deviceID, roomID); err != nil {
		log.Printf("[Admission] failed to record active room for device after join: %v", err)
	}

	writeJSON(w, http.StatusOK, roomIdentityResponse{RoomID: roomID, PlayerID: playerID})
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	ids := h.registry.List()
	summaries := make([]roomSummary, 0, len(ids))
	for _, id := range ids {
		actor, ok := h.registry.Lookup(id)
		if !ok {
			continue
		}
		room := actor.Snapshot()
		owner := room.Players[room.OwnerID]
		summary := roomSummary{
			ID:           room.ID,
			SBAmount:     room.SBAmount,
			BBAmount:     room.BBAmount,
			InitialChips: room.InitialChips,
			PlayerCount:  len(room.Players),
			Status:       string(room.Status),
		}
		if owner != nil {
			summary.OwnerName = owner.Name
			summary.OwnerEmoji = owner.Emoji
		}
		summaries = append(summaries, summary)
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handlePlayerRoom(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("player_id")
	roomID, ok, err := h.identity.ActiveRoomByPlayer(r.Context(), playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve active room")
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, playerRoomResponse{RoomID: nil})
		return
	}
	if _, ok := h.registry.Lookup(roomID); !ok {
		// The room closed since the association was recorded; forget it.
		_ = h.identity.ClearActiveRoomByPlayer(r.Context(), playerID)
		writeJSON(w, http.StatusOK, playerRoomResponse{RoomID: nil})
		return
	}
	writeJSON(w, http.StatusOK, playerRoomResponse{RoomID: &roomID})
}

func (h *Handler) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	playerID := r.PathValue("player_id")

	actor, ok := h.registry.Lookup(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	room := actor.Snapshot()
	player, ok := room.Players[playerID]
	if !ok {
		writeError(w, http.StatusNotFound, "player not found in room")
		return
	}

	ctx := r.Context()
	if player.Seat >= 0 {
		res := actor.Submit(ctx, roomactor.Stand(playerID))
		if res.Err != nil {
			writeEngineError(w, res.Err)
			return
		}
	}
	if err := h.identity.ClearActiveRoomByPlayer(ctx, playerID); err != nil {
		log.Printf("[Admission] failed to clear active room for player %s: %v", playerID, err)
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) handleRandomProfile(w http.ResponseWriter, r *http.Request) {
	name, emoji := RandomProfile()
	writeJSON(w, http.StatusOK, profileResponse{Name: name, Emoji: emoji})
}

func handIntervalOrDefault(seconds int) int {
	if seconds <= 0 {
		return defaultHandIntervalSeconds
	}
	return seconds
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch engine.KindOf(err) {
	case engine.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case engine.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case engine.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	case engine.KindIllegalAction, engine.KindNotYourTurn, engine.KindMustRebuy, engine.KindMustCashout:
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

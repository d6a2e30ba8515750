package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"arena-siege/internal/game"
	"arena-siege/internal/minimap"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = game.EventBufferSize

	defaultLeaderboardLimit = 10
)

func (h *routerHandlers) status() *game.Status {
	if s := h.engine.Snapshot(); s != nil {
		return s
	}
	s := h.engine.Status()
	return &s
}

func (h *routerHandlers) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.status())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"eventLog":  h.engine.GetEventLogStats(),
		"rateLimit": h.limiter.Stats(),
	})
}

func (h *routerHandlers) handleGetWeapons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Weapons())
}

func (h *routerHandlers) handleGetNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.ResourceNodes())
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r, defaultEventLimit)
	if !ok {
		return
	}
	writeJSON(w, h.engine.Events(min(limit, maxEventLimit)))
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r, defaultLeaderboardLimit)
	if !ok {
		return
	}
	writeJSON(w, h.engine.Leaderboard(limit))
}

func (h *routerHandlers) handleGetMinimap(w http.ResponseWriter, r *http.Request) {
	png, err := h.minimap.render(h.status(), h.engine.ResourceNodes())
	if err != nil {
		h.logger.Error().Err(err).Msg("minimap render failed")
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

func (h *routerHandlers) handlePause(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Pause() {
		writeError(w, "match is already paused or over", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleResume(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Resume() {
		writeError(w, "match is not paused", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleTeamJoin(w http.ResponseWriter, r *http.Request) {
	team, ok := teamParam(w, r)
	if !ok {
		return
	}
	var req struct {
		PlayerID string `json:"playerId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.PlayerID == "" {
		writeError(w, "playerId is required", http.StatusBadRequest)
		return
	}
	if !h.engine.AddPlayer(team, req.PlayerID) {
		writeError(w, "player cannot join this team", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true, "team": team, "playerId": req.PlayerID})
}

func (h *routerHandlers) handleTeamScore(w http.ResponseWriter, r *http.Request) {
	team, ok := teamParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Points float64 `json:"points"`
	}
	if !decode(w, r, &req) {
		return
	}
	total, ok := h.engine.AddScore(team, req.Points)
	if !ok {
		writeError(w, "score rejected", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"team": team, "score": total})
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

func (h *routerHandlers) handleBaseDamage(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	health, ok := h.engine.DamageBase(id, req.Amount)
	if !ok {
		writeError(w, "damage rejected", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"baseId": id, "health": health})
}

func (h *routerHandlers) handleBaseRepair(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	health, ok := h.engine.RepairBase(id, req.Amount)
	if !ok {
		writeError(w, "repair rejected", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"baseId": id, "health": health})
}

func (h *routerHandlers) handleGarrison(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	count, ok := h.engine.Garrison(id)
	if !ok {
		writeError(w, "garrison full or base unavailable", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"baseId": id, "garrison": count})
}

func (h *routerHandlers) handleUngarrison(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	count, ok := h.engine.Ungarrison(id)
	if !ok {
		writeError(w, "garrison empty or base unavailable", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"baseId": id, "garrison": count})
}

func (h *routerHandlers) handleGetPlayerWeapon(w http.ResponseWriter, r *http.Request) {
	state, ok := h.engine.PlayerWeapon(chi.URLParam(r, "player"))
	if !ok {
		writeError(w, "no weapon equipped", http.StatusNotFound)
		return
	}
	writeJSON(w, state)
}

func (h *routerHandlers) handleEquip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeaponID string `json:"weaponId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.WeaponID == "" {
		writeError(w, "weaponId is required", http.StatusBadRequest)
		return
	}
	player := chi.URLParam(r, "player")
	if !h.engine.Equip(player, req.WeaponID) {
		writeError(w, "unknown weapon or player not on a team", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true, "playerId": player, "weaponId": req.WeaponID})
}

func (h *routerHandlers) handleAttack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BaseID    string          `json:"baseId"`
		Mode      game.AttackMode `json:"mode"`
		DirectHit *bool           `json:"directHit"`
		Distance  float64         `json:"distance"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.BaseID == "" {
		writeError(w, "baseId is required", http.StatusBadRequest)
		return
	}
	switch req.Mode {
	case "":
		req.Mode = game.AttackFire
	case game.AttackFire, game.AttackQuick, game.AttackHeavy:
	default:
		writeError(w, "mode must be fire, quick or heavy", http.StatusBadRequest)
		return
	}
	direct := true
	if req.DirectHit != nil {
		direct = *req.DirectHit
	}

	hit, ok := h.engine.Attack(chi.URLParam(r, "player"), req.BaseID, req.Mode, direct, req.Distance)
	if !ok {
		writeError(w, "attack had no effect", http.StatusConflict)
		return
	}
	writeJSON(w, hit)
}

// minimapHandler serializes access to a single renderer
type minimapHandler struct {
	mu       sync.Mutex
	renderer *minimap.Renderer
}

func newMinimapHandler(cfg minimap.Config) *minimapHandler {
	return &minimapHandler{renderer: minimap.New(cfg)}
}

func (m *minimapHandler) render(s *game.Status, nodes []game.ResourceNode) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renderer.RenderBytes(s, nodes)
}

// Helper functions (package-level for reuse)

func teamParam(w http.ResponseWriter, r *http.Request) (game.TeamType, bool) {
	team := game.TeamType(chi.URLParam(r, "team"))
	if !team.Valid() {
		writeError(w, "team must be red or blue", http.StatusBadRequest)
		return "", false
	}
	return team, true
}

func limitParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, "limit must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

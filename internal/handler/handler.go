package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/voltz-checkout/cycle-ladder/internal/console"
	"github.com/voltz-checkout/cycle-ladder/internal/ladder"
	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

// SaveSuccessMessage is shown to the operator after an accepted save.
const SaveSuccessMessage = "Configurações salvas com sucesso"

// Handler holds HTTP handler dependencies.
type Handler struct {
	console *console.Console
}

// New creates a new Handler.
func New(c *console.Console) *Handler {
	return &Handler{console: c}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ladders/{account}", h.GetLadder)
	mux.HandleFunc("POST /ladders/{account}/bands", h.AddBand)
	mux.HandleFunc("DELETE /ladders/{account}/bands/{id}", h.RemoveBand)
	mux.HandleFunc("PATCH /ladders/{account}/bands/{id}", h.UpdateBand)
	mux.HandleFunc("POST /ladders/{account}/save", h.SaveLadder)
	mux.HandleFunc("POST /ladders/{account}/reload", h.ReloadLadder)
	mux.HandleFunc("GET /ladders/{account}/cycle", h.GetCycle)
	mux.HandleFunc("POST /cycles/evaluate", h.EvaluateCycles)
	mux.HandleFunc("GET /health/saves", h.GetSaveHealth)
}

type ladderResponse struct {
	AccountID string       `json:"account_id"`
	Bands     model.Ladder `json:"bands"`
}

type errorResponse struct {
	Error string          `json:"error"`
	Kind  model.ErrorKind `json:"kind,omitempty"`
}

// GetLadder handles GET /ladders/{account}
func (h *Handler) GetLadder(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	l, err := h.console.Ladder(r.Context(), account)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ladderResponse{AccountID: account, Bands: l})
}

// AddBand handles POST /ladders/{account}/bands
func (h *Handler) AddBand(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	l, err := h.console.AddBand(r.Context(), account)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ladderResponse{AccountID: account, Bands: l})
}

// RemoveBand handles DELETE /ladders/{account}/bands/{id}
func (h *Handler) RemoveBand(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	l, err := h.console.RemoveBand(r.Context(), account, r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ladderResponse{AccountID: account, Bands: l})
}

// updateBandRequest is the request body for PATCH /ladders/{account}/bands/{id}.
// Value is the raw operator input: a JSON string, a number or null.
type updateBandRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// UpdateBand handles PATCH /ladders/{account}/bands/{id}
func (h *Handler) UpdateBand(w http.ResponseWriter, r *http.Request) {
	var req updateBandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	field, err := ladder.ParseField(req.Field)
	if err != nil {
		writeFailure(w, err)
		return
	}

	account := r.PathValue("account")
	l, err := h.console.UpdateBand(r.Context(), account, r.PathValue("id"), field, rawValue(req.Value))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ladderResponse{AccountID: account, Bands: l})
}

type saveResponse struct {
	Message string            `json:"message"`
	Receipt model.SaveReceipt `json:"receipt"`
}

// SaveLadder handles POST /ladders/{account}/save
func (h *Handler) SaveLadder(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.console.Save(r.Context(), r.PathValue("account"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Message: SaveSuccessMessage, Receipt: receipt})
}

// ReloadLadder handles POST /ladders/{account}/reload
func (h *Handler) ReloadLadder(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	l, err := h.console.Reload(r.Context(), account)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ladderResponse{AccountID: account, Bands: l})
}

// GetCycle handles GET /ladders/{account}/cycle?revenue=N
func (h *Handler) GetCycle(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("revenue")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "revenue is required")
		return
	}
	revenue, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "revenue must be a number")
		return
	}

	account := r.PathValue("account")
	band, err := h.console.CycleFor(r.Context(), account, revenue)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.CycleAssignment{
		AccountID:  account,
		Revenue:    revenue,
		BandID:     band.ID,
		CycleValue: band.CycleValue,
	})
}

// evaluateRequest is the request body for POST /cycles/evaluate
type evaluateRequest struct {
	Queries []model.RevenueQuery `json:"queries"`
}

// EvaluateCycles handles POST /cycles/evaluate
func (h *Handler) EvaluateCycles(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "queries must not be empty")
		return
	}
	for _, q := range req.Queries {
		if q.AccountID == "" {
			writeError(w, http.StatusBadRequest, "account_id is required for every query")
			return
		}
	}

	results, err := h.console.EvaluateBatch(r.Context(), req.Queries)
	if err != nil {
		writeFailure(w, err)
		return
	}

	failed := 0
	for _, a := range results {
		if a.Error != "" {
			failed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":       len(results),
		"failed":      failed,
		"assignments": results,
	})
}

// GetSaveHealth handles GET /health/saves
func (h *Handler) GetSaveHealth(w http.ResponseWriter, r *http.Request) {
	monitor := h.console.HealthMonitor()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    monitor.Worst(),
		"persister": h.console.PersisterName(),
		"accounts":  monitor.GetAllHealth(),
	})
}

// rawValue turns the JSON value of an update into operator text. Strings
// are used as typed, null clears the field and numbers keep their literal.
func rawValue(msg json.RawMessage) string {
	trimmed := strings.TrimSpace(string(msg))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return trimmed
}

// writeFailure maps console errors to status codes.
func writeFailure(w http.ResponseWriter, err error) {
	var le *model.LadderError
	switch {
	case errors.As(err, &le):
		writeJSON(w, ladderErrorStatus(le.Kind), errorResponse{Error: le.Error(), Kind: le.Kind})
	case errors.Is(err, console.ErrInvalidRevenue), errors.Is(err, console.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("persistence_error", "error", err)
		writeError(w, http.StatusBadGateway, "ladder storage unavailable")
	}
}

func ladderErrorStatus(kind model.ErrorKind) int {
	switch {
	case kind.IsValidation():
		return http.StatusUnprocessableEntity
	case kind == model.KindBandNotFound:
		return http.StatusNotFound
	case kind == model.KindMinimumBand:
		return http.StatusConflict
	case kind == model.KindUnknownField:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

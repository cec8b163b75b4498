package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lightech/balance-beam/internal/repos/accounts"
	"github.com/lightech/balance-beam/internal/repos/ledger"
	"github.com/lightech/balance-beam/internal/services/engine"
)

// HandlerProvider wraps the balance engine and exposes HTTP handlers.
type HandlerProvider struct {
	svc *engine.Engine
}

// NewHandler returns a new handler provider.
func NewHandler(svc *engine.Engine) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps the engine's typed errors to transport responses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounts.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, engine.ErrSelfTransfer):
		writeError(w, http.StatusBadRequest, "cannot transfer to self")
	case errors.Is(err, engine.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "insufficient balance")
	case errors.Is(err, engine.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, engine.ErrOverflow):
		writeError(w, http.StatusConflict, "balance overflow")
	case errors.Is(err, engine.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		slog.Error("engine call failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseAccountIDFromPath reads `{accountId}` from routes like
// GET /account/{accountId}/balance.
func parseAccountIDFromPath(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "accountId")
	if idStr == "" {
		return 0, fmt.Errorf("missing accountId")
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid accountId: %w", err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid accountId: must be positive")
	}

	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

type operationResponse struct {
	ID           int64     `json:"id"`
	Counterparty string    `json:"counterparty,omitempty"`
	Amount       int64     `json:"amount"`
	Kind         string    `json:"operationType"`
	Success      bool      `json:"success"`
	ErrorText    string    `json:"errorText,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func toOperationResponses(entries []ledger.Entry) []operationResponse {
	out := make([]operationResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, operationResponse{
			ID:           e.ID,
			Counterparty: e.Counterparty,
			Amount:       e.Amount,
			Kind:         string(e.Kind),
			Success:      e.Success,
			ErrorText:    e.ErrorText,
			Timestamp:    e.CreatedAt,
		})
	}

	return out
}

// --- Handlers ---

// CheckBalanceHandler handles GET /account/{accountId}/balance
func (h *HandlerProvider) CheckBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseAccountIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	balance, err := h.svc.CheckBalance(r.Context(), accountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"balance":   balance,
	})
}

// CheckBalanceMajorHandler handles GET /account/{accountId}/balance/major
func (h *HandlerProvider) CheckBalanceMajorHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseAccountIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	balance, err := h.svc.CheckBalanceMajor(r.Context(), accountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"balance":   balance.StringFixed(2),
	})
}

// RecentHistoryHandler handles GET /account/{accountId}/operations?limit=N
func (h *HandlerProvider) RecentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseAccountIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	entries, err := h.svc.RecentHistory(r.Context(), accountID, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId":  accountID,
		"operations": toOperationResponses(entries),
	})
}

type creditRequest struct {
	Amount int64 `json:"amount"` // minor units
}

// CreditHandler handles POST /account/{accountId}/credit
func (h *HandlerProvider) CreditHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseAccountIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	var req creditRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	balance, err := h.svc.Credit(r.Context(), accountID, req.Amount, "")
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"accountId": accountID,
		"balance":   balance,
	})
}

type transferRequest struct {
	RecipientID uint64 `json:"recipientId"`
	Amount      int64  `json:"amount"` // minor units
}

// TransferHandler handles POST /account/{accountId}/transfer
func (h *HandlerProvider) TransferHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseAccountIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	var req transferRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if req.RecipientID == 0 {
		writeError(w, http.StatusBadRequest, "recipientId required")
		return
	}

	balance, err := h.svc.Transfer(r.Context(), accountID, req.RecipientID, req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"balance":   balance,
	})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nvqhuy/tablebill/internal/billing"
	"github.com/nvqhuy/tablebill/internal/domain"
	repo "github.com/nvqhuy/tablebill/internal/repository/redis"
	"github.com/nvqhuy/tablebill/internal/service"
	"github.com/nvqhuy/tablebill/pkg/logger"
)

type HTTPHandler struct {
	tableService service.TableService
	sessionRepo  repo.SessionRepository
	logger       logger.Logger
	validator    *validator.Validate
}

func NewHTTPHandler(tableService service.TableService, sessionRepo repo.SessionRepository, logger logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		tableService: tableService,
		sessionRepo:  sessionRepo,
		logger:       logger,
		validator:    validator.New(),
	}
}

// Routes mounts the table command surface.
func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Route("/api/v1/tables/{tableId}", func(r chi.Router) {
		r.Get("/", h.GetTable)
		r.Get("/remaining", h.RemainingTime)
		r.Get("/sessions", h.ListSessions)
		r.Post("/play", h.SetPlay)
		r.Post("/standby", h.SetStandby)
		r.Post("/off", h.SetOff)
		r.Post("/switch", h.SetStateBySwitch)
		r.Post("/tags", h.TagSession)
	})
}

// HealthCheck handles health check requests
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "tablebill",
		"tables":  h.tableService.TableIDs(),
	}
	h.respondJSON(w, http.StatusOK, response)
}

type setPlayRequest struct {
	TimedSeconds int `json:"timed_seconds" validate:"gte=0"`
}

// SetPlay starts or resumes play on a table.
func (h *HTTPHandler) SetPlay(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableId")

	req := setPlayRequest{}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	out, err := h.tableService.SetPlay(r.Context(), tableID, req.TimedSeconds)
	if err != nil {
		h.respondCommandError(w, r, tableID, err)
		return
	}

	h.respondJSON(w, http.StatusOK, out)
}

// SetStandby parks a table in standby.
func (h *HTTPHandler) SetStandby(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableId")

	state, err := h.tableService.SetStandby(r.Context(), tableID)
	if err != nil {
		h.respondCommandError(w, r, tableID, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"table_id": tableID,
		"state":    state,
	})
}

// SetOff applies the off signal (play enters the grace window, standby
// archives).
func (h *HTTPHandler) SetOff(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableId")

	out, err := h.tableService.SetOff(r.Context(), tableID)
	if err != nil {
		h.respondCommandError(w, r, tableID, err)
		return
	}

	h.respondJSON(w, http.StatusOK, out)
}

type switchRequest struct {
	State string `json:"state" validate:"required,oneof=off play paused standby"`
}

// SetStateBySwitch models the physical on/off toggle.
func (h *HTTPHandler) SetStateBySwitch(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableId")

	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	out, err := h.tableService.SetStateBySwitch(r.Context(), tableID, domain.TableState(req.State))
	if err != nil {
		h.respondCommandError(w, r, tableID, err)
		return
	}

	h.respondJSON(w, http.StatusOK, out)
}

// GetTable returns state, active session and last-3 history.
func (h *HTTPHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableId")

	out, err := h.tableService.GetTable(r.Context(), tableID)
	if err != nil {
		h.respondCommandError(w, r, tableID, err)
		return
	}

	h.respondJSON(w, http.StatusOK, out)
}

// RemainingTime polls a timed session's remaining span; the poll itself
// enforces expiry.
func (h *HTTPHandler) RemainingTime(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableId")

	out, err := h.tableService.RemainingTime(r.Context(), tableID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrSessionNotTimed):
			h.respondError(w, http.StatusConflict, "Session has no time limit", err)
		default:
			h.respondCommandError(w, r, tableID, err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, out)
}

// ListSessions returns recently persisted sessions for a table.
func (h *HTTPHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableId")

	sessions, err := h.sessionRepo.ListByTable(r.Context(), tableID, 20)
	if err != nil {
		h.logger.Errorf(r.Context(), "delivery.http.HTTPHandler.ListSessions: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"table_id": tableID,
		"sessions": sessions,
	})
}

type tagRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// TagSession attaches an opaque attribute to the active session.
func (h *HTTPHandler) TagSession(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "tableId")

	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	if err := h.tableService.TagSession(r.Context(), tableID, req.Key, req.Value); err != nil {
		h.respondCommandError(w, r, tableID, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"table_id": tableID,
		"key":      req.Key,
	})
}

func (h *HTTPHandler) respondCommandError(w http.ResponseWriter, r *http.Request, tableID string, err error) {
	switch {
	case errors.Is(err, service.ErrTableNotFound):
		h.respondError(w, http.StatusNotFound, "Table not found", err)
	case errors.Is(err, billing.ErrNoActiveSession):
		h.respondError(w, http.StatusConflict, "Table has no active session", err)
	default:
		h.logger.Errorf(r.Context(), "delivery.http.HTTPHandler: table %s: %v", tableID, err)
		h.respondError(w, http.StatusInternalServerError, "Command failed", err)
	}
}

// Helper functions

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorf(context.Background(), "delivery.http.HTTPHandler.respondJSON: %v", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"error": message,
		"code":  statusCode,
	}

	if err != nil {
		h.logger.Debugf(context.Background(), "error response: %s: %v", message, err)
	}

	h.respondJSON(w, statusCode, response)
}

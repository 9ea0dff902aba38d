// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/hotel-ops-console/internal/middleware"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/internal/session"
	"github.com/capitalize-ai/hotel-ops-console/internal/workspace"
	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
)

// Workspaces resolves the caller's workspace.
type Workspaces interface {
	Get(operatorID string) *workspace.Workspace
}

// MessageRequest is the body of POST /messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// EndRequest is the body of POST /end.
type EndRequest struct {
	Satisfaction *float64 `json:"satisfaction"`
}

// MessageResponse is returned by POST /messages.
type MessageResponse struct {
	Exchange session.Exchange `json:"exchange"`
	Session  session.Snapshot `json:"session"`
}

// EndResponse is returned by POST /end.
type EndResponse struct {
	Ended   bool              `json:"ended"`
	Record  *model.CallRecord `json:"record,omitempty"`
	Session session.Snapshot  `json:"session"`
}

// SessionHandler serves one channel's console: chat or call center.
type SessionHandler struct {
	workspaces Workspaces
	channel    model.Channel
	logger     *logger.Logger
}

// NewSessionHandler creates a handler for the given channel.
func NewSessionHandler(ws Workspaces, channel model.Channel, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		workspaces: ws,
		channel:    channel,
		logger:     log.Named("handler").With(zap.String("channel", string(channel))),
	}
}

func (h *SessionHandler) console(r *http.Request) *session.Console {
	ws := h.workspaces.Get(middleware.GetOperatorID(r.Context()))
	if h.channel == model.ChannelChat {
		return ws.Chat
	}
	return ws.Calls
}

// Get handles GET /api/v1/{chat,calls}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.console(r).Snapshot())
}

// Start handles POST /api/v1/{chat,calls}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req session.StartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateName(req.CustomerName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	console := h.console(r)
	if _, err := console.Start(r.Context(), req); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, console.Snapshot())
}

// Message handles POST /api/v1/{chat,calls}/messages
func (h *SessionHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	console := h.console(r)
	ex, err := console.Submit(r.Context(), req.Message)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("failed to submit message",
				zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
				zap.Error(err),
			)
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Exchange: ex, Session: console.Snapshot()})
}

// End handles POST /api/v1/{chat,calls}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	var req EndRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	console := h.console(r)
	rec, ended, err := console.End(r.Context(), req.Satisfaction)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := EndResponse{Ended: ended, Session: console.Snapshot()}
	if ended {
		resp.Record = &rec
	}
	writeJSON(w, http.StatusOK, resp)
}

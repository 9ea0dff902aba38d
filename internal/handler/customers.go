package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/hotel-ops-console/internal/middleware"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/internal/workspace"
	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
)

// CustomerHandler handles customer analytics endpoints.
type CustomerHandler struct {
	workspaces Workspaces
	logger     *logger.Logger
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(ws Workspaces, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		workspaces: ws,
		logger:     log.Named("handler").With(zap.String("resource", "customers")),
	}
}

func (h *CustomerHandler) workspace(r *http.Request) *workspace.Workspace {
	return h.workspaces.Get(middleware.GetOperatorID(r.Context()))
}

// List handles GET /api/v1/customers?search=&segment=
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	if err := middleware.ValidateSearch(search); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	segment := model.Segment(strings.TrimSpace(r.URL.Query().Get("segment")))

	writeJSON(w, http.StatusOK, h.workspace(r).Customers.View(search, segment))
}

// Create handles POST /api/v1/customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c model.Customer
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateCustomerID(c.ID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateName(c.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.workspace(r).AddCustomer(r.Context(), c)
	if err != nil {
		h.logFailure(r, "failed to create customer", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/v1/customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateCustomerID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.workspace(r).Customers.Get(id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Update handles PATCH /api/v1/customers/{id}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateCustomerID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var u model.CustomerUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if u.Name != nil {
		if err := middleware.ValidateName(*u.Name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	updated, err := h.workspace(r).UpdateCustomer(r.Context(), id, u)
	if err != nil {
		h.logFailure(r, "failed to update customer", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *CustomerHandler) logFailure(r *http.Request, msg string, err error) {
	h.logger.Info(msg,
		zap.String("operator_id", middleware.GetOperatorID(r.Context())),
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		zap.Error(err),
	)
}

// internal/handler/order.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/osfield/osfield/internal/audit"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/middleware"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/repository"
	"github.com/osfield/osfield/internal/service"
)

type OrderHandler struct {
	orders   *service.OrderService
	timeline *service.TimelineService
	audit    audit.Logger
}

func NewOrderHandler(orders *service.OrderService, timeline *service.TimelineService, auditLogger audit.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		timeline: timeline,
		audit:    auditLogger,
	}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	order, err := h.orders.Create(r.Context(), middleware.CurrentUser(r.Context()), input)
	if err != nil {
		h.respondError(w, r, err, "service_order", "", "create")
		return
	}
	respondWithJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.OrderFilter{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = model.Status(status)
	}
	if customer := r.URL.Query().Get("customer_id"); customer != "" {
		id, err := uuid.Parse(customer)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid customer_id", "invalid_input")
			return
		}
		filter.CustomerID = &id
	}

	orders, err := h.orders.List(r.Context(), middleware.CurrentUser(r.Context()), filter)
	if err != nil {
		h.respondError(w, r, err, "service_order", "", "list")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), middleware.CurrentUser(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "read")
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var input service.UpdateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	order, err := h.orders.Update(r.Context(), middleware.CurrentUser(r.Context()), id, input)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "edit")
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	actor := middleware.CurrentUser(r.Context())
	if err := h.orders.Delete(r.Context(), actor, id); err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "delete")
		return
	}

	if actor != nil {
		if err := h.audit.LogDeleted(r.Context(), actor.ID, "service_order", id.String(), r); err != nil {
			slog.WarnContext(r.Context(), "audit write failed", "error", err)
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "service order deleted"})
}

// UpdateStatus drives the lifecycle state machine.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var input service.UpdateStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	order, err := h.orders.UpdateStatus(r.Context(), middleware.CurrentUser(r.Context()), id, input)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "status")
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var input service.TransferInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	order, err := h.orders.Transfer(r.Context(), middleware.CurrentUser(r.Context()), id, input)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "transfer")
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	events, err := h.timeline.List(r.Context(), middleware.CurrentUser(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "read")
		return
	}
	respondWithJSON(w, http.StatusOK, events)
}

func (h *OrderHandler) TransferHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	history, err := h.timeline.TransferHistory(r.Context(), middleware.CurrentUser(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "read")
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

type commentRequest struct {
	Text string `json:"texto"`
}

func (h *OrderHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var input commentRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	event, err := h.timeline.AddComment(r.Context(), middleware.CurrentUser(r.Context()), id, input.Text)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "comment")
		return
	}
	respondWithJSON(w, http.StatusCreated, event)
}

type timeEntryRequest struct {
	Minutes     int    `json:"tempo"`
	Description string `json:"descricao"`
}

func (h *OrderHandler) AddTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var input timeEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	event, err := h.timeline.AddTimeEntry(r.Context(), middleware.CurrentUser(r.Context()), id, input.Minutes, input.Description)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "time")
		return
	}
	respondWithJSON(w, http.StatusCreated, event)
}

type attachmentRequest struct {
	Name string `json:"nome"`
	URL  string `json:"url"`
}

func (h *OrderHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var input attachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	event, err := h.timeline.AddAttachment(r.Context(), middleware.CurrentUser(r.Context()), id, input.Name, input.URL)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "attachment")
		return
	}
	respondWithJSON(w, http.StatusCreated, event)
}

func (h *OrderHandler) Billing(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	summary, err := h.timeline.Billing(r.Context(), middleware.CurrentUser(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err, "service_order", id.String(), "read")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// respondError maps the error and records authorization denials in the
// audit trail.
func (h *OrderHandler) respondError(w http.ResponseWriter, r *http.Request, err error, resource, resourceID, operation string) {
	var denied *domain.AccessDenied
	if errors.As(err, &denied) && denied.Reason != domain.ReasonNotAuthenticated {
		actor := middleware.CurrentUser(r.Context())
		if actor != nil {
			if auditErr := h.audit.LogDenied(r.Context(), actor.ID, resource, resourceID, operation, denied.Reason, r); auditErr != nil {
				slog.WarnContext(r.Context(), "audit write failed", "error", auditErr)
			}
		}
	}

	if isInternal(err) {
		slog.ErrorContext(r.Context(), "order operation failed",
			"error", err,
			"resource", resource, "resourceID", resourceID, "operation", operation,
			"requestID", chimw.GetReqID(r.Context()))
	}
	respondDomainError(w, err)
}

// isInternal reports whether the error has no mapping in the domain
// taxonomy and will surface as a 500.
func isInternal(err error) bool {
	var denied *domain.AccessDenied
	if errors.As(err, &denied) {
		return false
	}
	for _, known := range []error{
		domain.ErrInvalidCredentials, domain.ErrOrderNotFound, domain.ErrCustomerNotFound,
		domain.ErrUserNotFound, domain.ErrOrganizationNotFound, domain.ErrNotFound,
		domain.ErrAssigneeInvalid, domain.ErrInvalidStatus, domain.ErrInvalidTransition,
		domain.ErrClosingReasonRequired, domain.ErrReopenReasonRequired,
		domain.ErrRejectionReasonRequired, domain.ErrSameAssignee,
		domain.ErrTransferReasonRequired, domain.ErrInvalidRole, domain.ErrCustomerOtherOrg,
		domain.ErrInvalidInput, domain.ErrEmailAlreadyExists, domain.ErrDocumentAlreadyExists,
		domain.ErrVersionConflict, domain.ErrStorage,
	} {
		if errors.Is(err, known) {
			return false
		}
	}
	return true
}

func orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid service order id", "invalid_input")
		return uuid.Nil, false
	}
	return id, true
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/services"
)

// OrderHandlers serves the post-checkout order lifecycle.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers builds the order handlers.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Register mounts the order routes on the given router.
func (h *OrderHandlers) Register(r chi.Router) {
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Get("/{orderID}/history", h.statusHistory)
	r.Post("/{orderID}/status", h.transitionStatus)
	r.Post("/{orderID}/cancel", h.cancelOrder)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(r)
	if !ok {
		writeBadRequest(ctx, w, "X-User-ID header is required")
		return
	}

	var status *domain.OrderStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed := domain.OrderStatus(raw)
		if !domain.ValidOrderStatus(parsed) {
			writeBadRequest(ctx, w, "unknown order status "+raw)
			return
		}
		status = &parsed
	}

	orders, err := h.orders.ListOrders(ctx, userID, status)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, renderOrder(order))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderOrder(order))
}

func (h *OrderHandlers) statusHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	updates, err := h.orders.StatusHistory(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": renderStatusUpdates(updates)})
}

type transitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *OrderHandlers) transitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req transitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		writeBadRequest(ctx, w, "status is required")
		return
	}

	order, err := h.orders.TransitionStatus(ctx, services.TransitionOrderCommand{
		OrderID:      chi.URLParam(r, "orderID"),
		TargetStatus: domain.OrderStatus(req.Status),
		ActorID:      actorFrom(r),
		Note:         req.Note,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderOrder(order))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req cancelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	order, err := h.orders.Cancel(ctx, services.CancelOrderCommand{
		OrderID: chi.URLParam(r, "orderID"),
		ActorID: actorFrom(r),
		Reason:  req.Reason,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderOrder(order))
}

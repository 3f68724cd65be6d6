package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/laptopstore/api/internal/services"
)

// CartHandlers serves cart lifecycle endpoints. The owner is derived from the
// X-User-ID or X-Session-Token header on every request.
type CartHandlers struct {
	carts services.CartService
}

// NewCartHandlers builds the cart handlers.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Register mounts the cart routes on the given router.
func (h *CartHandlers) Register(r chi.Router) {
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Get("/aggregate", h.getAggregate)
	r.Post("/items", h.addItem)
	r.Patch("/items/{lineID}", h.updateItem)
	r.Delete("/items/{lineID}", h.removeItem)
	r.Post("/merge", h.mergeCart)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := resolveOrMintOwner(w, r)
	if err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	cart, err := h.carts.GetOrCreate(ctx, owner)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderCart(cart))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := resolveOwner(r)
	if err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	cart, err := h.carts.GetOrCreate(ctx, owner)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if err := h.carts.Clear(ctx, cart.ID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) getAggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := resolveOwner(r)
	if err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	cart, err := h.carts.GetOrCreate(ctx, owner)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	aggregate, err := h.carts.Aggregate(ctx, cart.ID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderAggregate(aggregate))
}

type addItemRequest struct {
	ProductID string  `json:"product_id"`
	ColorID   *string `json:"color_id"`
	Quantity  int     `json:"quantity"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := resolveOrMintOwner(w, r)
	if err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		writeBadRequest(ctx, w, "product_id is required")
		return
	}

	cart, err := h.carts.AddLine(ctx, services.AddCartLineCommand{
		Owner:     owner,
		ProductID: req.ProductID,
		ColorID:   req.ColorID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderCart(cart))
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := resolveOwner(r)
	if err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	cart, err := h.carts.GetOrCreate(ctx, owner)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	updated, err := h.carts.UpdateLineQuantity(ctx, services.UpdateCartLineCommand{
		CartID:   cart.ID,
		LineID:   chi.URLParam(r, "lineID"),
		Quantity: req.Quantity,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderCart(updated))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := resolveOwner(r)
	if err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	cart, err := h.carts.GetOrCreate(ctx, owner)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	updated, err := h.carts.RemoveLine(ctx, cart.ID, chi.URLParam(r, "lineID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderCart(updated))
}

// mergeCart folds the anonymous session cart into the signed-in user's cart.
// Requires both the session token and user id headers.
func (h *CartHandlers) mergeCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(r)
	if !ok {
		writeBadRequest(ctx, w, "X-User-ID header is required")
		return
	}
	token := strings.TrimSpace(r.Header.Get(headerSessionToken))
	if token == "" {
		writeBadRequest(ctx, w, "X-Session-Token header is required")
		return
	}

	cart, err := h.carts.MergeSessionCart(ctx, token, userID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderCart(cart))
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/services"
)

// AddressHandlers serves the user address book.
type AddressHandlers struct {
	addresses services.AddressService
}

// NewAddressHandlers builds the address handlers.
func NewAddressHandlers(addresses services.AddressService) *AddressHandlers {
	return &AddressHandlers{addresses: addresses}
}

// Register mounts the address routes on the given router.
func (h *AddressHandlers) Register(r chi.Router) {
	r.Get("/", h.listAddresses)
	r.Post("/", h.createAddress)
	r.Post("/{addressID}/default", h.setDefault)
}

func (h *AddressHandlers) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(r)
	if !ok {
		writeBadRequest(ctx, w, "X-User-ID header is required")
		return
	}

	addresses, err := h.addresses.ListByUser(ctx, userID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	out := make([]addressResponse, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, renderAddress(address))
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": out})
}

type createAddressRequest struct {
	Kind         string `json:"kind"`
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"is_default"`
}

func (h *AddressHandlers) createAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(r)
	if !ok {
		writeBadRequest(ctx, w, "X-User-ID header is required")
		return
	}

	var req createAddressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	address, err := h.addresses.Create(ctx, services.CreateAddressCommand{
		UserID:       userID,
		Kind:         domain.AddressKind(req.Kind),
		FullName:     req.FullName,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Phone:        req.Phone,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderAddress(address))
}

func (h *AddressHandlers) setDefault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(r)
	if !ok {
		writeBadRequest(ctx, w, "X-User-ID header is required")
		return
	}

	address, err := h.addresses.SetDefault(ctx, userID, chi.URLParam(r, "addressID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderAddress(address))
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/laptopstore/api/internal/domain"
)

const (
	headerUserID       = "X-User-ID"
	headerSessionToken = "X-Session-Token"
)

var errOwnerMissing = errors.New("request carries neither a user id nor a session token")

// resolveOwner derives the cart owner from request headers. A user id wins
// over a session token when both are present.
func resolveOwner(r *http.Request) (domain.CartOwner, error) {
	if userID := strings.TrimSpace(r.Header.Get(headerUserID)); userID != "" {
		return domain.UserOwner(userID), nil
	}
	if token := strings.TrimSpace(r.Header.Get(headerSessionToken)); token != "" {
		return domain.SessionOwner(token), nil
	}
	return domain.CartOwner{}, errOwnerMissing
}

// resolveOrMintOwner behaves like resolveOwner but mints a fresh session
// token for first-contact anonymous requests. The minted token is echoed on
// the response so the client can persist it.
func resolveOrMintOwner(w http.ResponseWriter, r *http.Request) (domain.CartOwner, error) {
	owner, err := resolveOwner(r)
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, errOwnerMissing) {
		return domain.CartOwner{}, err
	}
	token := uuid.NewString()
	w.Header().Set(headerSessionToken, token)
	return domain.SessionOwner(token), nil
}

// requireUserID extracts the acting user from headers, failing when absent.
func requireUserID(r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(headerUserID))
	return userID, userID != ""
}

// actorFrom returns the acting user as an optional pointer for audit fields.
func actorFrom(r *http.Request) *string {
	if userID, ok := requireUserID(r); ok {
		return &userID
	}
	return nil
}

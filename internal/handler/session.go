package handler

import (
	"net/http"

	"github.com/dukerupert/larder/internal/catalog"
)

type SessionHandler struct {
	catalog *catalog.Service
}

func NewSessionHandler(svc *catalog.Service) *SessionHandler {
	return &SessionHandler{catalog: svc}
}

// Get returns the catalogs a client loads when it starts.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.catalog.Session(r.Context(), subscriptionID(r)))
}

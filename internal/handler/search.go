package handler

import (
	"net/http"

	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/model"
)

type SearchHandler struct {
	catalog *catalog.Service
}

func NewSearchHandler(svc *catalog.Service) *SearchHandler {
	return &SearchHandler{catalog: svc}
}

func (h *SearchHandler) decode(w http.ResponseWriter, r *http.Request) (model.Query, bool) {
	var q model.Query
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return q, false
	}
	return q, true
}

// Search matches search_term against items, groups, tags and lists.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decode(w, r)
	if !ok {
		return
	}
	writeResponse(w, h.catalog.Search(r.Context(), subscriptionID(r), q))
}

// ByGroup returns the items in any of the groups in id_collection.
func (h *SearchHandler) ByGroup(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decode(w, r)
	if !ok {
		return
	}
	writeResponse(w, h.catalog.ItemsByGroup(r.Context(), subscriptionID(r), q))
}

// ByTag returns the items tagged with any of the tags in id_collection.
func (h *SearchHandler) ByTag(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decode(w, r)
	if !ok {
		return
	}
	writeResponse(w, h.catalog.ItemsByTag(r.Context(), subscriptionID(r), q))
}

// LowQuantity returns the items running low as search results.
func (h *SearchHandler) LowQuantity(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decode(w, r)
	if !ok {
		return
	}
	writeResponse(w, h.catalog.LowQuantitySearch(r.Context(), subscriptionID(r), q))
}

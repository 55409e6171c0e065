package handler

import (
	"net/http"
	"strings"

	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/model"
)

type ItemHandler struct {
	catalog *catalog.Service
}

func NewItemHandler(svc *catalog.Service) *ItemHandler {
	return &ItemHandler{catalog: svc}
}

// Get returns one item with its tag, group and shopping-list catalogs.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	resp := h.catalog.GetItem(r.Context(), subscriptionID(r), id)
	if resp.Success && resp.Item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeResponse(w, resp)
}

func (h *ItemHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var item model.Item
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	resp := h.catalog.UpsertItem(r.Context(), subscriptionID(r), item)
	if resp.Success && resp.Item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeResponse(w, resp)
}

// Query returns one page of the subscription's items.
func (h *ItemHandler) Query(w http.ResponseWriter, r *http.Request) {
	var q model.Query
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeResponse(w, h.catalog.ItemCollection(r.Context(), subscriptionID(r), q))
}

// ByID returns the items listed in id_collection.
func (h *ItemHandler) ByID(w http.ResponseWriter, r *http.Request) {
	var q model.Query
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeResponse(w, h.catalog.ItemsByID(r.Context(), subscriptionID(r), q))
}

// LowQuantity returns one page of the items running low.
func (h *ItemHandler) LowQuantity(w http.ResponseWriter, r *http.Request) {
	var q model.Query
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeResponse(w, h.catalog.LowQuantityItems(r.Context(), subscriptionID(r), q))
}

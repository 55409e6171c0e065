package handler

import (
	"net/http"
	"strings"

	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/model"
)

type ShoppingListHandler struct {
	catalog *catalog.Service
}

func NewShoppingListHandler(svc *catalog.Service) *ShoppingListHandler {
	return &ShoppingListHandler{catalog: svc}
}

// Query returns one page of shopping lists with their item counts.
func (h *ShoppingListHandler) Query(w http.ResponseWriter, r *http.Request) {
	var q model.Query
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeResponse(w, h.catalog.ShoppingListCollection(r.Context(), subscriptionID(r), q))
}

func (h *ShoppingListHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var list model.ShoppingList
	if err := decodeJSON(w, r, &list); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	list.Name = strings.TrimSpace(list.Name)
	if list.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	resp := h.catalog.UpsertShoppingList(r.Context(), subscriptionID(r), list)
	if resp.Success && resp.Item == nil {
		writeError(w, http.StatusNotFound, "shopping list not found")
		return
	}
	writeResponse(w, resp)
}

// Items returns the items on the list with their tags and groups.
func (h *ShoppingListHandler) Items(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var q model.Query
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeResponse(w, h.catalog.ShoppingListItems(r.Context(), subscriptionID(r), listID, q))
}

// UpsertItems adds items to or removes them from the list in the path.
func (h *ShoppingListHandler) UpsertItems(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var rows []model.CheckoutRow
	if err := decodeJSON(w, r, &rows); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	for i := range rows {
		if rows[i].ShoppingListID == 0 {
			rows[i].ShoppingListID = listID
		}
		if rows[i].ShoppingListID != listID {
			writeError(w, http.StatusBadRequest, "row belongs to another list")
			return
		}
	}
	writeResponse(w, h.catalog.UpsertShoppingListItems(r.Context(), subscriptionID(r), rows))
}

package handler

import (
	"net/http"

	"github.com/dukerupert/larder/internal/checkout"
	"github.com/dukerupert/larder/internal/model"
)

type CheckoutHandler struct {
	coordinator *checkout.Coordinator
}

func NewCheckoutHandler(c *checkout.Coordinator) *CheckoutHandler {
	return &CheckoutHandler{coordinator: c}
}

type selectionRequest struct {
	ShoppingListID int64 `json:"shopping_list_id"`
	ItemID         int64 `json:"item_id"`
	Selected       bool  `json:"is_selected"`
}

func (h *CheckoutHandler) decodeRows(w http.ResponseWriter, r *http.Request) ([]model.CheckoutRow, bool) {
	var rows []model.CheckoutRow
	if err := decodeJSON(w, r, &rows); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "at least one row is required")
		return nil, false
	}
	for _, row := range rows {
		if row.ShoppingListID <= 0 || row.ItemID <= 0 {
			writeError(w, http.StatusBadRequest, "shopping_list_id and item_id are required")
			return nil, false
		}
	}
	return rows, true
}

// Init starts or joins the checkout of the lists in the batch.
func (h *CheckoutHandler) Init(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.decodeRows(w, r)
	if !ok {
		return
	}
	writeResponse(w, h.coordinator.InitCheckout(r.Context(), subscriptionID(r), rows))
}

// UpdateItem checks or unchecks one item.
func (h *CheckoutHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ShoppingListID <= 0 || req.ItemID <= 0 {
		writeError(w, http.StatusBadRequest, "shopping_list_id and item_id are required")
		return
	}
	writeResponse(w, h.coordinator.UpdateItemSelection(
		r.Context(), subscriptionID(r), req.ShoppingListID, req.ItemID, req.Selected, clientID(r),
	))
}

// Sync returns the full checkout state of a list.
func (h *CheckoutHandler) Sync(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r, "list_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	writeResponse(w, h.coordinator.SyncAll(r.Context(), subscriptionID(r), listID))
}

// Commit finishes the checkout of the lists in the batch.
func (h *CheckoutHandler) Commit(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.decodeRows(w, r)
	if !ok {
		return
	}
	writeResponse(w, h.coordinator.Commit(r.Context(), subscriptionID(r), rows, clientID(r)))
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/dukerupert/larder/internal/catalog"
	"github.com/dukerupert/larder/internal/model"
)

// AttributeHandler serves one attribute catalog, tags or groups.
type AttributeHandler struct {
	list   func(ctx context.Context, subscriptionID int64) model.Response[[]model.Attribute]
	page   func(ctx context.Context, subscriptionID int64, q model.Query) model.Response[[]model.Attribute]
	upsert func(ctx context.Context, subscriptionID int64, a model.Attribute) model.Response[*model.Attribute]

	links       func(ctx context.Context, subscriptionID, itemID int64) model.Response[[]model.ItemAttribute]
	upsertLinks func(ctx context.Context, subscriptionID int64, rows []model.ItemAttribute) model.Response[bool]
}

func NewTagHandler(svc *catalog.Service) *AttributeHandler {
	return &AttributeHandler{
		list:        svc.Tags,
		page:        svc.TagCollection,
		upsert:      svc.UpsertTag,
		links:       svc.ItemTags,
		upsertLinks: svc.UpsertItemTags,
	}
}

func NewGroupHandler(svc *catalog.Service) *AttributeHandler {
	return &AttributeHandler{
		list:        svc.Groups,
		page:        svc.GroupCollection,
		upsert:      svc.UpsertGroup,
		links:       svc.ItemGroups,
		upsertLinks: svc.UpsertItemGroups,
	}
}

// List returns the whole catalog.
func (h *AttributeHandler) List(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.list(r.Context(), subscriptionID(r)))
}

// Query returns one page of the catalog with item counts.
func (h *AttributeHandler) Query(w http.ResponseWriter, r *http.Request) {
	var q model.Query
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeResponse(w, h.page(r.Context(), subscriptionID(r), q))
}

func (h *AttributeHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var a model.Attribute
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	resp := h.upsert(r.Context(), subscriptionID(r), a)
	if resp.Success && resp.Item == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeResponse(w, resp)
}

// ItemLinks returns the attributes linked to the item in the path.
func (h *AttributeHandler) ItemLinks(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "item_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	writeResponse(w, h.links(r.Context(), subscriptionID(r), id))
}

// UpsertItemLinks links or unlinks a batch of item/attribute pairs.
func (h *AttributeHandler) UpsertItemLinks(w http.ResponseWriter, r *http.Request) {
	var rows []model.ItemAttribute
	if err := decodeJSON(w, r, &rows); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "at least one row is required")
		return
	}
	for _, row := range rows {
		if row.ItemID <= 0 || row.AttributeID <= 0 {
			writeError(w, http.StatusBadRequest, "item_id and attribute_id are required")
			return
		}
	}
	writeResponse(w, h.upsertLinks(r.Context(), subscriptionID(r), rows))
}

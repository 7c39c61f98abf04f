package handler

import (
	catalogapp "github.com/clinicrx/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// ItemHandler serves the item catalog
type ItemHandler struct {
	BaseHandler
	itemService *catalogapp.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService *catalogapp.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// Create registers an item. POST /items
func (h *ItemHandler) Create(c *gin.Context) {
	var req catalogapp.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	item, err := h.itemService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Update replaces an item's descriptive fields and prices. PUT /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete removes an item no invoice refers to. DELETE /items/:id
func (h *ItemHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.itemService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetByID GET /items/:id
func (h *ItemHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.itemService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// List returns the catalog in insertion order, optionally narrowed to
// matching, low-stock or expiring items. GET /items
func (h *ItemHandler) List(c *gin.Context) {
	var filter catalogapp.ItemListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	items, err := h.itemService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, items, len(items))
}

// Lookup finds items by trade name, case-insensitively.
// GET /items/lookup?trade_name=
func (h *ItemHandler) Lookup(c *gin.Context) {
	name := c.Query("trade_name")
	if name == "" {
		h.BadRequest(c, "trade_name is required")
		return
	}

	items, err := h.itemService.FindByTradeName(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, items, len(items))
}

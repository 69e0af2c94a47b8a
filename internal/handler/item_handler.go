package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/canopyhq/canopy-api/internal/dto"
	"github.com/canopyhq/canopy-api/internal/service"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
	"github.com/canopyhq/canopy-api/pkg/response"
)

// ItemHandler wires HTTP endpoints to the item service.
type ItemHandler struct {
	service *service.ItemService
}

// NewItemHandler constructs an item handler.
func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{service: svc}
}

// Routes registers item endpoints on the group.
func (h *ItemHandler) Routes(rg *gin.RouterGroup) {
	rg.POST("/items", h.Create)
	rg.GET("/items/:id", h.Get)
	rg.PATCH("/items/:id", h.Update)
	rg.DELETE("/items/:id", h.Delete)
	rg.GET("/items/:id/children", h.ListChildren)
	rg.GET("/items/:id/descendants", h.ListDescendants)
	rg.POST("/items/:id/move", h.Move)
	rg.POST("/items/:id/copy", h.Copy)
	rg.POST("/items/:id/reorder", h.Reorder)
	rg.POST("/items/:id/like", h.Like)
	rg.DELETE("/items/:id/like", h.Unlike)
	rg.GET("/items/:id/audit", h.Audit)
}

// Create godoc
// @Summary Create item
// @Description Create a folder, document, or link under an optional parent
// @Tags Items
// @Accept json
// @Produce json
// @Param payload body dto.CreateItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid item payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Get godoc
// @Summary Get item by id
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /items/{id} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Update godoc
// @Summary Update item metadata or publication status
// @Tags Items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.UpdateItemRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /items/{id} [patch]
func (h *ItemHandler) Update(c *gin.Context) {
	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete item and its subtree
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /items/{id} [delete]
func (h *ItemHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if _, err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListChildren godoc
// @Summary List readable direct children
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Param type query string false "Filter by type"
// @Param keyword query string false "Name keyword"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /items/{id}/children [get]
func (h *ItemHandler) ListChildren(c *gin.Context) {
	h.list(c, false)
}

// ListDescendants godoc
// @Summary List readable subtree items
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Param type query string false "Filter by type"
// @Param keyword query string false "Name keyword"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /items/{id}/descendants [get]
func (h *ItemHandler) ListDescendants(c *gin.Context) {
	h.list(c, true)
}

func (h *ItemHandler) list(c *gin.Context, deep bool) {
	var query dto.ListItemsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid list query"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var (
		items interface{}
		err   error
	)
	if deep {
		items, err = h.service.ListDescendants(c.Request.Context(), c.Param("id"), claims.UserID, query)
	} else {
		items, err = h.service.ListChildren(c.Request.Context(), c.Param("id"), claims.UserID, query)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Move godoc
// @Summary Move item to a new parent
// @Tags Items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.BulkItemRequest false "Destination payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /items/{id}/move [post]
func (h *ItemHandler) Move(c *gin.Context) {
	var req struct {
		DestinationID string `json:"destination_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Move(c.Request.Context(), c.Param("id"), req.DestinationID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Copy godoc
// @Summary Copy item subtree to a new parent
// @Tags Items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /items/{id}/copy [post]
func (h *ItemHandler) Copy(c *gin.Context) {
	var req struct {
		DestinationID string `json:"destination_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid copy payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Copy(c.Request.Context(), c.Param("id"), req.DestinationID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Reorder godoc
// @Summary Reorder item among its siblings
// @Tags Items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.ReorderItemRequest true "Reorder payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /items/{id}/reorder [post]
func (h *ItemHandler) Reorder(c *gin.Context) {
	var req dto.ReorderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reorder payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Reorder(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Like godoc
// @Summary Like an item
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 204
// @Router /items/{id}/like [post]
func (h *ItemHandler) Like(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.LikeItem(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Audit godoc
// @Summary Get item audit trail
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Param limit query int false "Max records"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /items/{id}/audit [get]
func (h *ItemHandler) Audit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.service.History(c.Request.Context(), c.Param("id"), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Unlike godoc
// @Summary Remove a like
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 204
// @Router /items/{id}/like [delete]
func (h *ItemHandler) Unlike(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.UnlikeItem(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

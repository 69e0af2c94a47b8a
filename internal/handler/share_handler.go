package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/canopyhq/canopy-api/internal/dto"
	"github.com/canopyhq/canopy-api/internal/service"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
	"github.com/canopyhq/canopy-api/pkg/response"
)

// ShareHandler wires HTTP endpoints to the membership service.
type ShareHandler struct {
	service *service.MembershipService
}

// NewShareHandler constructs a share handler.
func NewShareHandler(svc *service.MembershipService) *ShareHandler {
	return &ShareHandler{service: svc}
}

// Routes registers share endpoints on the group.
func (h *ShareHandler) Routes(rg *gin.RouterGroup) {
	rg.GET("/items/:id/shares", h.List)
	rg.POST("/items/:id/shares", h.Share)
	rg.DELETE("/items/:id/shares/:subject", h.Revoke)
}

// List godoc
// @Summary List grants on an item
// @Tags Shares
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /items/{id}/shares [get]
func (h *ShareHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	memberships, err := h.service.List(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, memberships, nil)
}

// Share godoc
// @Summary Grant a subject access to an item subtree
// @Tags Shares
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.ShareItemRequest true "Share payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /items/{id}/shares [post]
func (h *ShareHandler) Share(c *gin.Context) {
	var req dto.ShareItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid share payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Share(c.Request.Context(), c.Param("id"), req, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Revoke godoc
// @Summary Revoke a subject's explicit grant on an item
// @Tags Shares
// @Produce json
// @Param id path string true "Item ID"
// @Param subject path string true "Subject"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /items/{id}/shares/{subject} [delete]
func (h *ShareHandler) Revoke(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Revoke(c.Request.Context(), c.Param("id"), c.Param("subject"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

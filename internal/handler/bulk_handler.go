package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/canopyhq/canopy-api/internal/dto"
	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/service"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
	"github.com/canopyhq/canopy-api/pkg/response"
)

// BulkHandler wires HTTP endpoints to the bulk coordinator.
type BulkHandler struct {
	service *service.BulkService
}

// NewBulkHandler constructs a bulk handler.
func NewBulkHandler(svc *service.BulkService) *BulkHandler {
	return &BulkHandler{service: svc}
}

// Routes registers bulk endpoints on the group.
func (h *BulkHandler) Routes(rg *gin.RouterGroup) {
	rg.POST("/items/bulk/move", h.Move)
	rg.POST("/items/bulk/copy", h.Copy)
	rg.POST("/items/bulk/delete", h.Delete)
	rg.GET("/bulk/operations/:id", h.GetReport)
}

// Move godoc
// @Summary Bulk move items
// @Tags Bulk
// @Accept json
// @Produce json
// @Param payload body dto.BulkItemRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /items/bulk/move [post]
func (h *BulkHandler) Move(c *gin.Context) {
	h.submit(c, models.BulkActionMove)
}

// Copy godoc
// @Summary Bulk copy items
// @Tags Bulk
// @Accept json
// @Produce json
// @Param payload body dto.BulkItemRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /items/bulk/copy [post]
func (h *BulkHandler) Copy(c *gin.Context) {
	h.submit(c, models.BulkActionCopy)
}

// Delete godoc
// @Summary Bulk delete items
// @Tags Bulk
// @Accept json
// @Produce json
// @Param payload body dto.BulkItemRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /items/bulk/delete [post]
func (h *BulkHandler) Delete(c *gin.Context) {
	h.submit(c, models.BulkActionDelete)
}

func (h *BulkHandler) submit(c *gin.Context, action models.BulkAction) {
	var req dto.BulkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Submit(c.Request.Context(), action, req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if report.State == models.BulkStateCompleted {
		response.JSON(c, http.StatusOK, report, nil)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.BulkAccepted{
		OperationID: report.ID,
		State:       string(report.State),
	}, nil)
}

// GetReport godoc
// @Summary Get bulk operation report
// @Tags Bulk
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bulk/operations/{id} [get]
func (h *BulkHandler) GetReport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.GetReport(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

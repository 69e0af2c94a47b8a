package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/canopyhq/canopy-api/internal/service"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
	"github.com/canopyhq/canopy-api/pkg/response"
)

// ExportHandler serves subtree inventory downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Routes registers export endpoints on the group.
func (h *ExportHandler) Routes(rg *gin.RouterGroup) {
	rg.GET("/items/:id/export", h.Export)
}

// Export godoc
// @Summary Export subtree inventory
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Item ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /items/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.Generate(c.Request.Context(), c.Param("id"), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(200, result.ContentType, result.Payload)
}

package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/tree"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
	"github.com/canopyhq/canopy-api/pkg/export"
)

// ExportFormat enumerates supported inventory renderings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered subtree inventory.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders a subtree inventory for download. Read access on the
// subtree root is required; rows the caller cannot read are omitted.
type ExportService struct {
	items       itemStore
	memberships membershipStore
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(items itemStore, memberships membershipStore, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{items: items, memberships: memberships, csv: csv, pdf: pdf, logger: logger}
}

var inventoryHeaders = []string{"ID", "Name", "Type", "Status", "Depth", "Path", "Public", "Created By", "Created At"}

// Generate builds the inventory dataset for the item's subtree and renders it
// in the requested format.
func (s *ExportService) Generate(ctx context.Context, itemID, actor string, format ExportFormat) (*ExportResult, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapTreeErr(err)
	}
	covering, err := s.memberships.ListCovering(ctx, actor, item.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve permissions")
	}
	if !tree.CanRead(actor, item.Path, models.Grants(covering)) && !item.IsPublic {
		return nil, appErrors.ErrMemberCannotAccess
	}

	subtree, err := s.items.ListSubtree(ctx, item.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subtree")
	}

	dataset := export.Dataset{Headers: inventoryHeaders}
	for i := range subtree {
		it := subtree[i]
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         it.ID,
			"Name":       it.Name,
			"Type":       string(it.Type),
			"Status":     string(it.Status),
			"Depth":      strconv.Itoa(it.Path.Depth()),
			"Path":       string(it.Path),
			"Public":     strconv.FormatBool(it.IsPublic),
			"Created By": it.CreatedBy,
			"Created At": it.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}

	base := sanitizeFilename(item.Name)
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Filename: base + ".csv", ContentType: "text/csv", Payload: payload}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, item.Name+" inventory")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Filename: base + ".pdf", ContentType: "application/pdf", Payload: payload}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, use csv or pdf")
	}
}

func sanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
	if cleaned == "" {
		cleaned = "inventory"
	}
	return strings.ToLower(cleaned)
}

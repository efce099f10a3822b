package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cdmworks/golden-keys-api/internal/models"
	appErrors "github.com/cdmworks/golden-keys-api/pkg/errors"
	"github.com/cdmworks/golden-keys-api/pkg/export"
)

// ExportFilename is the download name offered for JSON exports.
const ExportFilename = "golden-keys.json"

// Export formats accepted by the transfer endpoints.
const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
)

type jsonRenderer interface {
	Render(value interface{}) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// TransferService is the import/export codec for the catalog: it serialises
// the collection to interchange documents and normalises inbound ones.
type TransferService struct {
	json   jsonRenderer
	csv    csvRenderer
	pdf    pdfRenderer
	idgen  IDGenerator
	logger *zap.Logger
}

// TransferServiceOption configures the service.
type TransferServiceOption func(*TransferService)

// WithTransferIDGenerator overrides the id generator used for imported
// records lacking one.
func WithTransferIDGenerator(gen IDGenerator) TransferServiceOption {
	return func(s *TransferService) {
		if gen != nil {
			s.idgen = gen
		}
	}
}

// NewTransferService constructs the codec with default renderers.
func NewTransferService(logger *zap.Logger, opts ...TransferServiceOption) *TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &TransferService{
		json:   export.NewJSONExporter(),
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		idgen:  defaultIDGenerator(),
		logger: logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// importedGoldenKey is the lenient wire shape of an import element: dates
// arrive as strings and the id may be absent.
type importedGoldenKey struct {
	ID             string                `json:"id"`
	Key            string                `json:"key"`
	Label          string                `json:"label"`
	Description    string                `json:"description"`
	DataType       string                `json:"dataType"`
	Required       bool                  `json:"required"`
	Owner          string                `json:"owner"`
	Version        string                `json:"version"`
	ApprovalStatus models.ApprovalStatus `json:"approvalStatus"`
	CreatedAt      string                `json:"createdAt"`
	UpdatedAt      string                `json:"updatedAt"`
	ApprovedAt     string                `json:"approvedAt"`
}

// ParseImport decodes a JSON import document. The top-level value must be an
// array; anything else aborts the import entirely with no partial merge.
// Each element is normalised: a generated id when absent, createdAt/updatedAt
// parsed as dates, approvedAt parsed only when present.
func (s *TransferService) ParseImport(raw []byte) ([]models.GoldenKey, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import document must be a JSON array")
	}

	var elements []importedGoldenKey
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "import document is not valid JSON")
	}

	keys := make([]models.GoldenKey, 0, len(elements))
	for i, el := range elements {
		key := models.GoldenKey{
			ID:             el.ID,
			Key:            el.Key,
			Label:          el.Label,
			Description:    el.Description,
			DataType:       el.DataType,
			Required:       el.Required,
			Owner:          el.Owner,
			Version:        el.Version,
			ApprovalStatus: el.ApprovalStatus,
		}
		if key.ID == "" {
			key.ID = s.idgen.NewID()
		}

		var err error
		if key.CreatedAt, err = parseImportDate(el.CreatedAt); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("element %d: invalid createdAt %q", i, el.CreatedAt))
		}
		if key.UpdatedAt, err = parseImportDate(el.UpdatedAt); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("element %d: invalid updatedAt %q", i, el.UpdatedAt))
		}
		if el.ApprovedAt != "" {
			approvedAt, err := parseImportDate(el.ApprovedAt)
			if err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("element %d: invalid approvedAt %q", i, el.ApprovedAt))
			}
			key.ApprovedAt = &approvedAt
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Render serialises the collection in the requested format, returning the
// payload, its content type, and the suggested download filename.
func (s *TransferService) Render(keys []models.GoldenKey, format string) ([]byte, string, string, error) {
	switch format {
	case "", ExportFormatJSON:
		payload, err := s.json.Render(keys)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return payload, "application/json", ExportFilename, nil
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset(keys))
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return payload, "text/csv", "golden-keys.csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset(keys), "Golden Keys Catalog")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return payload, "application/pdf", "golden-keys.pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format: %s", format))
	}
}

func dataset(keys []models.GoldenKey) export.Dataset {
	headers := []string{"Key", "Label", "Description", "Type", "Required", "Version", "Status", "Owner"}
	rows := make([]map[string]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, map[string]string{
			"Key":         key.Key,
			"Label":       key.Label,
			"Description": key.Description,
			"Type":        key.DataType,
			"Required":    strconv.FormatBool(key.Required),
			"Version":     key.Version,
			"Status":      string(key.ApprovalStatus),
			"Owner":       key.Owner,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

var importDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseImportDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range importDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %s", raw)
}

package service

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cdmworks/golden-keys-api/internal/models"
	appErrors "github.com/cdmworks/golden-keys-api/pkg/errors"
)

func TestParseImportRejectsNonArray(t *testing.T) {
	service := NewTransferService(zap.NewNop())

	for _, raw := range []string{`{"id":"x"}`, `"hello"`, `42`, ``, `   `} {
		_, err := service.ParseImport([]byte(raw))
		require.Error(t, err, "payload %q", raw)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestParseImportGeneratesMissingIDs(t *testing.T) {
	service := NewTransferService(zap.NewNop(), WithTransferIDGenerator(sequentialIDs("imp")))

	keys, err := service.ParseImport([]byte(`[
		{"key": "customer_id", "label": "Customer ID", "dataType": "string", "owner": "Alice", "approvalStatus": "pending"},
		{"id": "kept", "key": "order_total", "label": "Order Total", "dataType": "decimal", "owner": "Bob", "approvalStatus": "approved"}
	]`))
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "imp-1", keys[0].ID)
	assert.Equal(t, "kept", keys[1].ID)
}

func TestParseImportDateHandling(t *testing.T) {
	service := NewTransferService(zap.NewNop())

	keys, err := service.ParseImport([]byte(`[
		{"id": "a", "key": "k", "createdAt": "2026-01-15T10:30:00Z", "updatedAt": "2026-01-16", "approvedAt": "2026-01-17 08:00:00"},
		{"id": "b", "key": "k2"}
	]`))
	require.NoError(t, err)
	require.Len(t, keys, 2)

	assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), keys[0].CreatedAt)
	assert.Equal(t, time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC), keys[0].UpdatedAt)
	require.NotNil(t, keys[0].ApprovedAt)
	assert.Equal(t, time.Date(2026, 1, 17, 8, 0, 0, 0, time.UTC), *keys[0].ApprovedAt)

	// No approvedAt in the document means none on the record.
	assert.Nil(t, keys[1].ApprovedAt)
	assert.True(t, keys[1].CreatedAt.IsZero())
}

func TestParseImportInvalidDateAbortsWholeImport(t *testing.T) {
	service := NewTransferService(zap.NewNop())

	_, err := service.ParseImport([]byte(`[
		{"id": "a", "key": "k", "createdAt": "2026-01-15T10:30:00Z"},
		{"id": "b", "key": "k2", "createdAt": "not-a-date"}
	]`))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "element 1")
}

func TestRenderJSONRoundTrip(t *testing.T) {
	service := NewTransferService(zap.NewNop())
	approvedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	keys := []models.GoldenKey{
		{
			ID: "gk-1", Key: "customer_id", Label: "Customer ID", DataType: "string",
			Owner: "Alice", Version: "1.0", ApprovalStatus: models.ApprovalStatusApproved,
			CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt:  time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			ApprovedAt: &approvedAt,
		},
		{
			ID: "gk-2", Key: "order_total", Label: "Order Total", DataType: "decimal",
			Required: true, Owner: "Bob", Version: "1.1", ApprovalStatus: models.ApprovalStatusPending,
			CreatedAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	payload, contentType, filename, err := service.Render(keys, "json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, ExportFilename, filename)

	reimported, err := service.ParseImport(payload)
	require.NoError(t, err)
	assert.Equal(t, keys, reimported)
}

func TestRenderDefaultsToJSON(t *testing.T) {
	service := NewTransferService(zap.NewNop())

	payload, contentType, _, err := service.Render(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.True(t, json.Valid(payload))
}

func TestRenderCSV(t *testing.T) {
	service := NewTransferService(zap.NewNop())

	payload, contentType, filename, err := service.Render([]models.GoldenKey{
		{Key: "customer_id", Label: "Customer ID", DataType: "string", Required: true, Version: "1.0", ApprovalStatus: models.ApprovalStatusPending, Owner: "Alice"},
	}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, "golden-keys.csv", filename)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Key,Label,Description,Type,Required,Version,Status,Owner", lines[0])
	assert.Equal(t, "customer_id,Customer ID,,string,true,1.0,pending,Alice", lines[1])
}

func TestRenderPDF(t *testing.T) {
	service := NewTransferService(zap.NewNop())

	payload, contentType, filename, err := service.Render([]models.GoldenKey{
		{Key: "customer_id", Label: "Customer ID", DataType: "string", Owner: "Alice", ApprovalStatus: models.ApprovalStatusPending},
	}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, "golden-keys.pdf", filename)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestRenderUnsupportedFormat(t *testing.T) {
	service := NewTransferService(zap.NewNop())

	_, _, _, err := service.Render(nil, "xml")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdmworks/golden-keys-api/internal/dto"
	"github.com/cdmworks/golden-keys-api/internal/models"
	appErrors "github.com/cdmworks/golden-keys-api/pkg/errors"
)

type goldenKeyServiceMock struct {
	listResp    []models.GoldenKey
	listMeta    dto.ListMeta
	listErr     error
	ownersResp  []string
	createResp  *models.GoldenKey
	createErr   error
	updateResp  *models.GoldenKey
	updateErr   error
	deleteErr   error
	importResp  dto.ImportSummary
	importErr   error
	lastFilters models.GoldenKeyFilters
	lastCreate  dto.CreateGoldenKeyRequest
	lastImport  []models.GoldenKey
	cleared     bool
}

func (m *goldenKeyServiceMock) List(ctx context.Context, filters models.GoldenKeyFilters) ([]models.GoldenKey, dto.ListMeta, error) {
	m.lastFilters = filters
	return m.listResp, m.listMeta, m.listErr
}

func (m *goldenKeyServiceMock) Owners(ctx context.Context) ([]string, error) {
	return m.ownersResp, nil
}

func (m *goldenKeyServiceMock) Collection(ctx context.Context) ([]models.GoldenKey, error) {
	return m.listResp, m.listErr
}

func (m *goldenKeyServiceMock) Create(ctx context.Context, req dto.CreateGoldenKeyRequest) (*models.GoldenKey, error) {
	m.lastCreate = req
	return m.createResp, m.createErr
}

func (m *goldenKeyServiceMock) Update(ctx context.Context, id string, req dto.UpdateGoldenKeyRequest) (*models.GoldenKey, error) {
	return m.updateResp, m.updateErr
}

func (m *goldenKeyServiceMock) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func (m *goldenKeyServiceMock) Import(ctx context.Context, keys []models.GoldenKey) (dto.ImportSummary, error) {
	m.lastImport = keys
	return m.importResp, m.importErr
}

func (m *goldenKeyServiceMock) ClearSession(ctx context.Context) {
	m.cleared = true
}

type transferCodecMock struct {
	parseResp   []models.GoldenKey
	parseErr    error
	payload     []byte
	contentType string
	filename    string
	renderErr   error
	lastFormat  string
}

func (m *transferCodecMock) ParseImport(raw []byte) ([]models.GoldenKey, error) {
	return m.parseResp, m.parseErr
}

func (m *transferCodecMock) Render(keys []models.GoldenKey, format string) ([]byte, string, string, error) {
	m.lastFormat = format
	return m.payload, m.contentType, m.filename, m.renderErr
}

func newHandlerTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestGoldenKeyHandlerListPassesFilters(t *testing.T) {
	mockSvc := &goldenKeyServiceMock{
		listResp: []models.GoldenKey{{ID: "gk-1", Owner: "Alice"}},
		listMeta: dto.ListMeta{Total: 1, Filtered: 1, Pending: 1},
	}
	handler := NewGoldenKeyHandler(mockSvc, &transferCodecMock{}, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodGet, "/golden-keys?search=alice&dataType=string&approvalStatus=pending", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", mockSvc.lastFilters.Search)
	assert.Equal(t, "string", mockSvc.lastFilters.DataType)
	assert.Equal(t, "pending", mockSvc.lastFilters.ApprovalStatus)

	var envelope struct {
		Data []models.GoldenKey     `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.EqualValues(t, 1, envelope.Meta["pending"])
}

func TestGoldenKeyHandlerListPaginates(t *testing.T) {
	keys := []models.GoldenKey{{ID: "gk-1"}, {ID: "gk-2"}, {ID: "gk-3"}}
	mockSvc := &goldenKeyServiceMock{listResp: keys, listMeta: dto.ListMeta{Total: 3, Filtered: 3}}
	handler := NewGoldenKeyHandler(mockSvc, &transferCodecMock{}, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodGet, "/golden-keys?page=2&limit=2", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data       []models.GoldenKey `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "gk-3", envelope.Data[0].ID)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.Page)
	assert.Equal(t, 3, envelope.Pagination.TotalCount)
}

func TestGoldenKeyHandlerCreate(t *testing.T) {
	mockSvc := &goldenKeyServiceMock{
		createResp: &models.GoldenKey{ID: "gk-1", Key: "customer_id", ApprovalStatus: models.ApprovalStatusPending},
	}
	handler := NewGoldenKeyHandler(mockSvc, &transferCodecMock{}, nil)

	payload, _ := json.Marshal(dto.CreateGoldenKeyRequest{
		Key: "customer_id", Label: "Customer ID", DataType: "string", Owner: "Alice",
	})
	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodPost, "/golden-keys", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "customer_id", mockSvc.lastCreate.Key)
}

func TestGoldenKeyHandlerCreateInvalidBody(t *testing.T) {
	handler := NewGoldenKeyHandler(&goldenKeyServiceMock{}, &transferCodecMock{}, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodPost, "/golden-keys", bytes.NewReader([]byte("{not json")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoldenKeyHandlerUpdatePolicyViolation(t *testing.T) {
	mockSvc := &goldenKeyServiceMock{
		updateErr: appErrors.Clone(appErrors.ErrPolicyViolation, "only pending golden keys can be updated"),
	}
	handler := NewGoldenKeyHandler(mockSvc, &transferCodecMock{}, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodPut, "/golden-keys/gk-1", bytes.NewReader([]byte(`{"label":"x"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "gk-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrPolicyViolation.Code, envelope.Error.Code)
}

func TestGoldenKeyHandlerDelete(t *testing.T) {
	handler := NewGoldenKeyHandler(&goldenKeyServiceMock{}, &transferCodecMock{}, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodDelete, "/golden-keys/gk-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "gk-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestGoldenKeyHandlerDeleteNotFound(t *testing.T) {
	mockSvc := &goldenKeyServiceMock{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "golden key not found")}
	handler := NewGoldenKeyHandler(mockSvc, &transferCodecMock{}, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodDelete, "/golden-keys/gk-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "gk-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoldenKeyHandlerImport(t *testing.T) {
	codec := &transferCodecMock{parseResp: []models.GoldenKey{{ID: "i1"}}}
	mockSvc := &goldenKeyServiceMock{importResp: dto.ImportSummary{Imported: 1}}
	handler := NewGoldenKeyHandler(mockSvc, codec, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodPost, "/golden-keys/import", bytes.NewReader([]byte(`[{"id":"i1"}]`)))

	handler.Import(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mockSvc.lastImport, 1)
	assert.Equal(t, "i1", mockSvc.lastImport[0].ID)
}

func TestGoldenKeyHandlerImportRejectedDocument(t *testing.T) {
	codec := &transferCodecMock{parseErr: appErrors.Clone(appErrors.ErrValidation, "import document must be a JSON array")}
	mockSvc := &goldenKeyServiceMock{}
	handler := NewGoldenKeyHandler(mockSvc, codec, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodPost, "/golden-keys/import", bytes.NewReader([]byte(`{"id":"i1"}`)))

	handler.Import(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, mockSvc.lastImport)
}

func TestGoldenKeyHandlerExportHeaders(t *testing.T) {
	codec := &transferCodecMock{
		payload:     []byte(`[]`),
		contentType: "application/json",
		filename:    "golden-keys.json",
	}
	handler := NewGoldenKeyHandler(&goldenKeyServiceMock{}, codec, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodGet, "/golden-keys/export?format=json", nil)

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "json", codec.lastFormat)
	assert.Equal(t, `attachment; filename="golden-keys.json"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestGoldenKeyHandlerClearSession(t *testing.T) {
	mockSvc := &goldenKeyServiceMock{}
	handler := NewGoldenKeyHandler(mockSvc, &transferCodecMock{}, nil)

	c, w := newHandlerTestContext(t)
	c.Request = httptest.NewRequest(http.MethodDelete, "/golden-keys/session", nil)

	handler.ClearSession(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.cleared)
}

package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cdmworks/golden-keys-api/internal/dto"
	"github.com/cdmworks/golden-keys-api/internal/models"
	appErrors "github.com/cdmworks/golden-keys-api/pkg/errors"
	"github.com/cdmworks/golden-keys-api/pkg/response"
)

// importBodyLimit caps inbound import documents at 8 MiB.
const importBodyLimit = 8 << 20

type goldenKeyService interface {
	List(ctx context.Context, filters models.GoldenKeyFilters) ([]models.GoldenKey, dto.ListMeta, error)
	Owners(ctx context.Context) ([]string, error)
	Collection(ctx context.Context) ([]models.GoldenKey, error)
	Create(ctx context.Context, req dto.CreateGoldenKeyRequest) (*models.GoldenKey, error)
	Update(ctx context.Context, id string, req dto.UpdateGoldenKeyRequest) (*models.GoldenKey, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, keys []models.GoldenKey) (dto.ImportSummary, error)
	ClearSession(ctx context.Context)
}

type transferCodec interface {
	ParseImport(raw []byte) ([]models.GoldenKey, error)
	Render(keys []models.GoldenKey, format string) ([]byte, string, string, error)
}

// GoldenKeyHandler exposes the catalog endpoints.
type GoldenKeyHandler struct {
	service  goldenKeyService
	transfer transferCodec
	logger   *zap.Logger
}

// NewGoldenKeyHandler builds a new handler.
func NewGoldenKeyHandler(service goldenKeyService, transfer transferCodec, logger *zap.Logger) *GoldenKeyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoldenKeyHandler{service: service, transfer: transfer, logger: logger}
}

// List godoc
// @Summary List golden keys
// @Tags Golden Keys
// @Produce json
// @Param search query string false "Free text search over key, label, description, owner"
// @Param dataType query string false "Exact data type"
// @Param owner query string false "Exact owner"
// @Param approvalStatus query string false "Exact approval status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /golden-keys [get]
func (h *GoldenKeyHandler) List(c *gin.Context) {
	var query dto.GoldenKeyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	keys, meta, err := h.service.List(c.Request.Context(), query.Filters())
	if err != nil {
		response.Error(c, err)
		return
	}

	var pagination *models.Pagination
	if query.Limit > 0 {
		page := query.Page
		if page < 1 {
			page = 1
		}
		pagination = &models.Pagination{Page: page, PageSize: query.Limit, TotalCount: len(keys)}
		start := (page - 1) * query.Limit
		if start >= len(keys) {
			keys = []models.GoldenKey{}
		} else {
			end := start + query.Limit
			if end > len(keys) {
				end = len(keys)
			}
			keys = keys[start:end]
		}
	}

	response.JSON(c, http.StatusOK, keys, pagination, map[string]interface{}{
		"total":    meta.Total,
		"filtered": meta.Filtered,
		"pending":  meta.Pending,
	})
}

// Owners godoc
// @Summary List distinct golden key owners
// @Tags Golden Keys
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /golden-keys/owners [get]
func (h *GoldenKeyHandler) Owners(c *gin.Context) {
	owners, err := h.service.Owners(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, owners, nil)
}

// Options godoc
// @Summary List data type and approval status options
// @Tags Golden Keys
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /golden-keys/options [get]
func (h *GoldenKeyHandler) Options(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"dataTypes":        models.DataTypes,
		"approvalStatuses": models.ApprovalStatuses,
	}, nil)
}

// Create godoc
// @Summary Define a new golden key
// @Tags Golden Keys
// @Accept json
// @Produce json
// @Param payload body dto.CreateGoldenKeyRequest true "Golden key payload"
// @Success 201 {object} response.Envelope
// @Router /golden-keys [post]
func (h *GoldenKeyHandler) Create(c *gin.Context) {
	var req dto.CreateGoldenKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid golden key payload"))
		return
	}

	key, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logMutation(c, "created", key.ID)
	response.Created(c, key)
}

// Update godoc
// @Summary Edit a pending golden key
// @Tags Golden Keys
// @Accept json
// @Produce json
// @Param id path string true "Golden key id"
// @Param payload body dto.UpdateGoldenKeyRequest true "Partial golden key payload"
// @Success 200 {object} response.Envelope
// @Router /golden-keys/{id} [put]
func (h *GoldenKeyHandler) Update(c *gin.Context) {
	var req dto.UpdateGoldenKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid golden key payload"))
		return
	}

	key, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logMutation(c, "updated", key.ID)
	response.JSON(c, http.StatusOK, key, nil)
}

// Delete godoc
// @Summary Delete a pending golden key
// @Tags Golden Keys
// @Produce json
// @Param id path string true "Golden key id"
// @Success 204 {object} nil
// @Router /golden-keys/{id} [delete]
func (h *GoldenKeyHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	h.logMutation(c, "deleted", id)
	response.NoContent(c)
}

// Import godoc
// @Summary Import golden keys from a JSON document
// @Tags Golden Keys
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /golden-keys/import [post]
func (h *GoldenKeyHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, importBodyLimit))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read import document"))
		return
	}

	keys, err := h.transfer.ParseImport(raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.service.Import(c.Request.Context(), keys)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logMutation(c, "imported", "")
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export the golden key collection
// @Tags Golden Keys
// @Produce json
// @Param format query string false "json, csv or pdf" default(json)
// @Success 200 {file} file
// @Router /golden-keys/export [get]
func (h *GoldenKeyHandler) Export(c *gin.Context) {
	keys, err := h.service.Collection(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, contentType, filename, err := h.transfer.Render(keys, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// ClearSession godoc
// @Summary Clear locally imported golden keys
// @Tags Golden Keys
// @Success 204 {object} nil
// @Router /golden-keys/session [delete]
func (h *GoldenKeyHandler) ClearSession(c *gin.Context) {
	h.service.ClearSession(c.Request.Context())
	h.logMutation(c, "cleared session", "")
	response.NoContent(c)
}

func (h *GoldenKeyHandler) logMutation(c *gin.Context, verb, id string) {
	fields := []zap.Field{zap.String("action", verb)}
	if id != "" {
		fields = append(fields, zap.String("golden_key_id", id))
	}
	if claims := claimsFromContext(c); claims != nil {
		fields = append(fields, zap.String("actor", claims.Email))
	}
	h.logger.Info("golden_key_mutation", fields...)
}

package dto

import "github.com/cdmworks/golden-keys-api/internal/models"

// CreateGoldenKeyRequest is the payload for defining a new golden key. Any
// id or approvalStatus supplied by the caller is discarded: the service
// assigns a fresh id and every new definition enters the workflow pending.
type CreateGoldenKeyRequest struct {
	Key         string `json:"key" validate:"required"`
	Label       string `json:"label" validate:"required"`
	Description string `json:"description"`
	DataType    string `json:"dataType" validate:"required"`
	Required    bool   `json:"required"`
	Owner       string `json:"owner" validate:"required"`
	Version     string `json:"version"`
}

// UpdateGoldenKeyRequest carries a partial edit of a pending golden key.
// Nil fields are left unchanged. Approval status is not editable here.
type UpdateGoldenKeyRequest struct {
	Key         *string `json:"key,omitempty"`
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
	DataType    *string `json:"dataType,omitempty"`
	Required    *bool   `json:"required,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	Version     *string `json:"version,omitempty"`
}

// GoldenKeyQuery mirrors the catalog view filters plus optional pagination.
type GoldenKeyQuery struct {
	Search         string `form:"search"`
	DataType       string `form:"dataType"`
	Owner          string `form:"owner"`
	ApprovalStatus string `form:"approvalStatus"`
	Page           int    `form:"page"`
	Limit          int    `form:"limit"`
}

// Filters converts the query into the engine's filter state.
func (q GoldenKeyQuery) Filters() models.GoldenKeyFilters {
	return models.GoldenKeyFilters{
		Search:         q.Search,
		DataType:       q.DataType,
		Owner:          q.Owner,
		ApprovalStatus: q.ApprovalStatus,
	}
}

// ListMeta carries the catalog counters shown in the table header.
type ListMeta struct {
	Total    int `json:"total"`
	Filtered int `json:"filtered"`
	Pending  int `json:"pending"`
}

// ImportSummary reports the outcome of an import merge.
type ImportSummary struct {
	Imported  int  `json:"imported"`
	Persisted bool `json:"persisted"`
}

package models

import "time"

// ApprovalStatus captures workflow states for golden key definitions.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// DefaultVersion is assigned to newly defined keys.
const DefaultVersion = "1.0"

// GoldenKey is a canonical, owner-attributed field definition in the data
// catalog. New definitions start out pending and become read-only once an
// external review marks them approved or rejected.
type GoldenKey struct {
	ID             string         `db:"id" json:"id"`
	Key            string         `db:"key" json:"key"`
	Label          string         `db:"label" json:"label"`
	Description    string         `db:"description" json:"description"`
	DataType       string         `db:"data_type" json:"dataType"`
	Required       bool           `db:"required" json:"required"`
	Owner          string         `db:"owner" json:"owner"`
	Version        string         `db:"version" json:"version"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approvalStatus"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
	ApprovedAt     *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`
}

// GoldenKeyFilters holds the transient query state of the catalog view.
// An empty string means "no constraint" for every field.
type GoldenKeyFilters struct {
	Search         string
	DataType       string
	Owner          string
	ApprovalStatus string
}

// IsZero reports whether no filter constrains the view.
func (f GoldenKeyFilters) IsZero() bool {
	return f.Search == "" && f.DataType == "" && f.Owner == "" && f.ApprovalStatus == ""
}

// Option pairs a machine value with presentation metadata. The color is a CSS
// class hint consumed by the admin UI badge rendering.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// DataTypes enumerates the legal dataType values for golden keys.
var DataTypes = []Option{
	{Value: "string", Label: "String"},
	{Value: "number", Label: "Number"},
	{Value: "decimal", Label: "Decimal"},
	{Value: "boolean", Label: "Boolean"},
	{Value: "date", Label: "Date"},
	{Value: "enum", Label: "Enum"},
}

// ApprovalStatuses enumerates the legal approvalStatus values.
var ApprovalStatuses = []Option{
	{Value: string(ApprovalStatusPending), Label: "Pending", Color: "bg-amber-100 text-amber-800"},
	{Value: string(ApprovalStatusApproved), Label: "Approved", Color: "bg-emerald-100 text-emerald-800"},
	{Value: string(ApprovalStatusRejected), Label: "Rejected", Color: "bg-red-100 text-red-800"},
}

// ValidDataType reports whether value appears in DataTypes.
func ValidDataType(value string) bool {
	for _, opt := range DataTypes {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// ValidApprovalStatus reports whether value appears in ApprovalStatuses.
func ValidApprovalStatus(value ApprovalStatus) bool {
	for _, opt := range ApprovalStatuses {
		if opt.Value == string(value) {
			return true
		}
	}
	return false
}

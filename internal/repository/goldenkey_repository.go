package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cdmworks/golden-keys-api/internal/models"
)

// Sentinel errors shared by every gateway driver.
var (
	// ErrDuplicateID signals an AddPending collision on id.
	ErrDuplicateID = errors.New("golden key id already exists")
	// ErrPendingNotFound signals that no pending record carries the id.
	ErrPendingNotFound = errors.New("pending golden key not found")
)

// GoldenKeyStore is the persistence gateway for the catalog. It is the single
// source of truth: callers re-fetch both record sets after every successful
// mutation instead of trusting a local copy. There is deliberately no write
// path for approved or rejected records; the external review process owns
// transitions out of pending.
type GoldenKeyStore interface {
	FetchPending(ctx context.Context) ([]models.GoldenKey, error)
	FetchApproved(ctx context.Context) ([]models.GoldenKey, error)
	AddPending(ctx context.Context, key *models.GoldenKey) error
	UpdatePending(ctx context.Context, id string, params UpdateGoldenKeyParams) (*models.GoldenKey, error)
	DeletePending(ctx context.Context, id string) error
}

// UpdateGoldenKeyParams carries a partial edit of a pending record. Nil
// fields are left unchanged; UpdatedAt is always applied.
type UpdateGoldenKeyParams struct {
	Key         *string
	Label       *string
	Description *string
	DataType    *string
	Required    *bool
	Owner       *string
	Version     *string
	UpdatedAt   time.Time
}

func (p UpdateGoldenKeyParams) apply(key *models.GoldenKey) {
	if p.Key != nil {
		key.Key = *p.Key
	}
	if p.Label != nil {
		key.Label = *p.Label
	}
	if p.Description != nil {
		key.Description = *p.Description
	}
	if p.DataType != nil {
		key.DataType = *p.DataType
	}
	if p.Required != nil {
		key.Required = *p.Required
	}
	if p.Owner != nil {
		key.Owner = *p.Owner
	}
	if p.Version != nil {
		key.Version = *p.Version
	}
	key.UpdatedAt = p.UpdatedAt
}

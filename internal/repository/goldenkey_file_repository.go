package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/cdmworks/golden-keys-api/internal/models"
	"github.com/cdmworks/golden-keys-api/pkg/storage"
)

// Document names under the catalog data directory. The rejected set lives in
// its own document maintained by the review process; this gateway never reads
// or writes it.
const (
	pendingDocument  = "pending_golden_keys.json"
	approvedDocument = "approved_golden_keys.json"
)

// GoldenKeyFileRepository is the default gateway driver: pending and approved
// record sets as JSON documents on disk. Writes are last-write-wins at the
// document level, serialised by a process-wide mutex.
type GoldenKeyFileRepository struct {
	store *storage.JSONStore
	mu    sync.Mutex
}

// NewGoldenKeyFileRepository constructs the repository.
func NewGoldenKeyFileRepository(store *storage.JSONStore) *GoldenKeyFileRepository {
	return &GoldenKeyFileRepository{store: store}
}

// FetchPending loads the pending record set.
func (r *GoldenKeyFileRepository) FetchPending(ctx context.Context) ([]models.GoldenKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readDocument(pendingDocument)
}

// FetchApproved loads the approved record set.
func (r *GoldenKeyFileRepository) FetchApproved(ctx context.Context) ([]models.GoldenKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readDocument(approvedDocument)
}

// AddPending appends a record to the pending document. Fails with
// ErrDuplicateID when the id is already present in either set.
func (r *GoldenKeyFileRepository) AddPending(ctx context.Context, key *models.GoldenKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.readDocument(pendingDocument)
	if err != nil {
		return err
	}
	approved, err := r.readDocument(approvedDocument)
	if err != nil {
		return err
	}
	if containsID(pending, key.ID) || containsID(approved, key.ID) {
		return fmt.Errorf("add pending %s: %w", key.ID, ErrDuplicateID)
	}

	pending = append(pending, *key)
	return r.store.Write(pendingDocument, pending)
}

// UpdatePending applies a partial edit to the pending record with the given
// id and returns the updated record.
func (r *GoldenKeyFileRepository) UpdatePending(ctx context.Context, id string, params UpdateGoldenKeyParams) (*models.GoldenKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.readDocument(pendingDocument)
	if err != nil {
		return nil, err
	}
	idx := indexOfID(pending, id)
	if idx < 0 {
		return nil, fmt.Errorf("update pending %s: %w", id, ErrPendingNotFound)
	}

	params.apply(&pending[idx])
	if err := r.store.Write(pendingDocument, pending); err != nil {
		return nil, err
	}
	updated := pending[idx]
	return &updated, nil
}

// DeletePending removes the pending record with the given id.
func (r *GoldenKeyFileRepository) DeletePending(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.readDocument(pendingDocument)
	if err != nil {
		return err
	}
	idx := indexOfID(pending, id)
	if idx < 0 {
		return fmt.Errorf("delete pending %s: %w", id, ErrPendingNotFound)
	}

	pending = append(pending[:idx], pending[idx+1:]...)
	return r.store.Write(pendingDocument, pending)
}

func (r *GoldenKeyFileRepository) readDocument(name string) ([]models.GoldenKey, error) {
	keys := []models.GoldenKey{}
	if err := r.store.Read(name, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func containsID(keys []models.GoldenKey, id string) bool {
	return indexOfID(keys, id) >= 0
}

func indexOfID(keys []models.GoldenKey, id string) int {
	for i := range keys {
		if keys[i].ID == id {
			return i
		}
	}
	return -1
}

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdmworks/golden-keys-api/internal/models"
	"github.com/cdmworks/golden-keys-api/pkg/storage"
)

func newFileRepo(t *testing.T) (*GoldenKeyFileRepository, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewJSONStore(dir)
	require.NoError(t, err)
	return NewGoldenKeyFileRepository(store), dir
}

func pendingKey(id string) *models.GoldenKey {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return &models.GoldenKey{
		ID: id, Key: "key_" + id, Label: "Label " + id, DataType: "string",
		Owner: "Alice", Version: "1.0", ApprovalStatus: models.ApprovalStatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestFileRepositoryFetchEmptyDirectory(t *testing.T) {
	repo, _ := newFileRepo(t)

	pending, err := repo.FetchPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	approved, err := repo.FetchApproved(context.Background())
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestFileRepositoryAddAndFetchPending(t *testing.T) {
	repo, dir := newFileRepo(t)

	require.NoError(t, repo.AddPending(context.Background(), pendingKey("gk-1")))
	require.NoError(t, repo.AddPending(context.Background(), pendingKey("gk-2")))

	pending, err := repo.FetchPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "gk-1", pending[0].ID)
	assert.Equal(t, "gk-2", pending[1].ID)

	// The document lands on disk under the expected name.
	_, err = os.Stat(filepath.Join(dir, "pending_golden_keys.json"))
	require.NoError(t, err)
}

func TestFileRepositoryAddPendingDuplicate(t *testing.T) {
	repo, _ := newFileRepo(t)

	require.NoError(t, repo.AddPending(context.Background(), pendingKey("gk-1")))
	err := repo.AddPending(context.Background(), pendingKey("gk-1"))
	require.ErrorIs(t, err, ErrDuplicateID)

	pending, err := repo.FetchPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestFileRepositoryUpdatePending(t *testing.T) {
	repo, _ := newFileRepo(t)
	require.NoError(t, repo.AddPending(context.Background(), pendingKey("gk-1")))

	label := "Renamed"
	required := true
	updatedAt := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	updated, err := repo.UpdatePending(context.Background(), "gk-1", UpdateGoldenKeyParams{
		Label:     &label,
		Required:  &required,
		UpdatedAt: updatedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Label)
	assert.True(t, updated.Required)
	assert.Equal(t, updatedAt, updated.UpdatedAt)
	// Untouched fields survive the edit.
	assert.Equal(t, "key_gk-1", updated.Key)

	pending, err := repo.FetchPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Renamed", pending[0].Label)
}

func TestFileRepositoryUpdatePendingMissing(t *testing.T) {
	repo, _ := newFileRepo(t)

	label := "Renamed"
	_, err := repo.UpdatePending(context.Background(), "nope", UpdateGoldenKeyParams{Label: &label, UpdatedAt: time.Now()})
	require.ErrorIs(t, err, ErrPendingNotFound)
}

func TestFileRepositoryDeletePending(t *testing.T) {
	repo, _ := newFileRepo(t)
	require.NoError(t, repo.AddPending(context.Background(), pendingKey("gk-1")))
	require.NoError(t, repo.AddPending(context.Background(), pendingKey("gk-2")))

	require.NoError(t, repo.DeletePending(context.Background(), "gk-1"))

	pending, err := repo.FetchPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "gk-2", pending[0].ID)

	require.ErrorIs(t, repo.DeletePending(context.Background(), "gk-1"), ErrPendingNotFound)
}

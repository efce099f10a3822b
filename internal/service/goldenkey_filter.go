package service

import (
	"strings"

	"github.com/cdmworks/golden-keys-api/internal/models"
)

// Visible computes the filtered catalog view. All four predicates must hold:
// free-text search matches key, label, description or owner case-insensitively,
// while dataType, owner and approvalStatus are exact matches. Empty filter
// fields impose no constraint. Input order is preserved.
func Visible(keys []models.GoldenKey, filters models.GoldenKeyFilters) []models.GoldenKey {
	if filters.IsZero() {
		out := make([]models.GoldenKey, len(keys))
		copy(out, keys)
		return out
	}

	search := strings.ToLower(filters.Search)
	out := make([]models.GoldenKey, 0, len(keys))
	for _, key := range keys {
		if search != "" && !matchesSearch(key, search) {
			continue
		}
		if filters.DataType != "" && key.DataType != filters.DataType {
			continue
		}
		if filters.Owner != "" && key.Owner != filters.Owner {
			continue
		}
		if filters.ApprovalStatus != "" && string(key.ApprovalStatus) != filters.ApprovalStatus {
			continue
		}
		out = append(out, key)
	}
	return out
}

func matchesSearch(key models.GoldenKey, search string) bool {
	return strings.Contains(strings.ToLower(key.Key), search) ||
		strings.Contains(strings.ToLower(key.Label), search) ||
		strings.Contains(strings.ToLower(key.Description), search) ||
		strings.Contains(strings.ToLower(key.Owner), search)
}

// DistinctOwners returns the unique owners across the full collection in
// order of first appearance. It feeds the owner filter dropdown.
func DistinctOwners(keys []models.GoldenKey) []string {
	seen := make(map[string]struct{}, len(keys))
	owners := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key.Owner]; ok {
			continue
		}
		seen[key.Owner] = struct{}{}
		owners = append(owners, key.Owner)
	}
	return owners
}

// Package reconcile merges freshly parsed accounts into the persisted
// account list without creating duplicates or invalidating account ids.
package reconcile

import (
	"time"

	"github.com/google/uuid"

	"github.com/dreslan/tapfi/internal/models"
)

// Result summarizes one merge.
type Result struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// Merge folds each candidate into accounts. An existing account matches by
// account-number equality, or by exact name for accounts imported before
// numbers were tracked. Matches keep their id so downstream references
// (deletion, history) stay valid across re-imports; everything else about
// the matched account is replaced. Unmatched candidates are inserted with
// the vendor account number as id, or a freshly minted token when there is
// none. Merging the same statement twice is a no-op the second time apart
// from timestamps.
func Merge(accounts []models.Account, candidates []models.Account, now time.Time) ([]models.Account, Result) {
	var res Result
	for _, candidate := range candidates {
		idx := findMatch(accounts, candidate)
		if idx < 0 {
			candidate.ID = candidate.Number
			if candidate.ID == "" {
				candidate.ID = uuid.NewString()
			}
			candidate.LastUpdated = now
			accounts = append(accounts, candidate)
			res.Added++
			continue
		}

		existing := &accounts[idx]
		existing.Name = candidate.Name
		existing.Type = candidate.Type
		existing.Source = candidate.Source
		existing.Holdings = candidate.Holdings
		existing.Balance = candidate.Balance
		existing.LastUpdated = now
		if existing.Number == "" {
			existing.Number = candidate.Number
		}
		res.Updated++
	}
	return accounts, res
}

func findMatch(accounts []models.Account, candidate models.Account) int {
	if candidate.Number != "" {
		for i := range accounts {
			if accounts[i].Number == candidate.Number {
				return i
			}
		}
	}
	for i := range accounts {
		if accounts[i].Name == candidate.Name {
			return i
		}
	}
	return -1
}

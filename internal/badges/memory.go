package badges

import (
	"context"
	"sort"
	"sync"
)

// MemoryRecorder is an in-process Recorder. Uniqueness is enforced under a
// mutex, so concurrent awards of the same pair commit once.
type MemoryRecorder struct {
	mu     sync.Mutex
	byPair map[[2]string]CompanyBadge
}

// NewMemoryRecorder returns an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{byPair: make(map[[2]string]CompanyBadge)}
}

// Record stores cb or returns ErrAlreadyAwarded.
func (r *MemoryRecorder) Record(_ context.Context, cb CompanyBadge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{cb.CompanyID, cb.BadgeID}
	if _, ok := r.byPair[key]; ok {
		return ErrAlreadyAwarded
	}
	r.byPair[key] = cb
	return nil
}

// Earned returns the company's badges, oldest first.
func (r *MemoryRecorder) Earned(_ context.Context, companyID string) ([]CompanyBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []CompanyBadge{}
	for key, cb := range r.byPair {
		if key[0] == companyID {
			out = append(out, cb)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.Before(out[j].EarnedAt)
		}
		return out[i].BadgeID < out[j].BadgeID
	})
	return out, nil
}

package badges

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyAwarded is returned by a Recorder when the company already
// holds the badge. The Awarder treats it as a no-op.
var ErrAlreadyAwarded = errors.New("badge already awarded to company")

// Badge is a badge definition from the rule catalog.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	Condition   Condition `json:"condition"`
}

// CompanyBadge records that a company earned a badge. At most one exists
// per (CompanyID, BadgeID).
type CompanyBadge struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	BadgeID       string    `json:"badge_id"`
	EarnedAt      time.Time `json:"earned_at"`
	EarnedByEvent string    `json:"earned_by_event"`
}

// Recorder persists CompanyBadges. Record must enforce uniqueness on
// (company, badge) and return ErrAlreadyAwarded on conflict.
type Recorder interface {
	Record(ctx context.Context, cb CompanyBadge) error
	Earned(ctx context.Context, companyID string) ([]CompanyBadge, error)
}

// Awarder runs the award procedure: match, then record at most once.
type Awarder struct {
	matcher  *Matcher
	recorder Recorder
}

// NewAwarder wires a matcher to a recorder.
func NewAwarder(m *Matcher, r Recorder) *Awarder {
	return &Awarder{matcher: m, recorder: r}
}

// Award evaluates every active badge, in ID order, against evctx and
// records the matches. Badges the company already holds are skipped
// silently. It returns the IDs newly awarded; on a recorder failure it
// returns the IDs awarded so far together with the error.
func (a *Awarder) Award(ctx context.Context, companyID, event string, evctx EventContext, candidates []Badge) ([]string, error) {
	if companyID == "" {
		return nil, fmt.Errorf("company id is required")
	}

	sorted := append([]Badge(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	awarded := []string{}
	for _, b := range sorted {
		if !b.Active || !a.matcher.Matches(b.Condition, evctx) {
			continue
		}
		cb := CompanyBadge{
			ID:            uuid.NewString(),
			CompanyID:     companyID,
			BadgeID:       b.ID,
			EarnedAt:      timeNow().UTC(),
			EarnedByEvent: event,
		}
		err := a.recorder.Record(ctx, cb)
		switch {
		case errors.Is(err, ErrAlreadyAwarded):
			continue
		case err != nil:
			return awarded, fmt.Errorf("recording badge %q for company %q: %w", b.ID, companyID, err)
		}
		awarded = append(awarded, b.ID)
	}
	return awarded, nil
}

// Earned lists the badges a company holds.
func (a *Awarder) Earned(ctx context.Context, companyID string) ([]CompanyBadge, error) {
	return a.recorder.Earned(ctx, companyID)
}

package actionplan

import (
	"fmt"
	"time"
)

// Config holds the tunable thresholds of the generator. None of these are
// embedded in the logic as literals.
type Config struct {
	// DominantWeight marks a block as dominant: any gap in it is high priority.
	DominantWeight float64
	// HighBelow: a gap scoring below this is high priority.
	HighBelow float64
	// MediumBelow: a gap scoring below this (and not high) is medium priority.
	MediumBelow float64
	// MaxPerGap caps the items emitted for a single gap.
	MaxPerGap int
	// MaxItems caps the whole plan. Zero means no global cap.
	MaxItems int
	// DueIn maps a priority to its due-date horizon. A missing entry
	// leaves DueDate empty.
	DueIn map[Priority]time.Duration
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		DominantWeight: 0.25,
		HighBelow:      50,
		MediumBelow:    80,
		MaxPerGap:      3,
		MaxItems:       10,
		DueIn: map[Priority]time.Duration{
			PriorityHigh:   7 * 24 * time.Hour,
			PriorityMedium: 14 * 24 * time.Hour,
			PriorityLow:    30 * 24 * time.Hour,
		},
	}
}

// Validate rejects configurations that would make priorities meaningless.
func (c Config) Validate() error {
	if c.DominantWeight <= 0 || c.DominantWeight > 1 {
		return fmt.Errorf("dominant weight %v must be in (0,1]", c.DominantWeight)
	}
	if c.HighBelow < 0 || c.MediumBelow > 100 || c.HighBelow >= c.MediumBelow {
		return fmt.Errorf("priority cut-offs must satisfy 0 <= high (%v) < medium (%v) <= 100", c.HighBelow, c.MediumBelow)
	}
	if c.MaxPerGap <= 0 {
		return fmt.Errorf("max items per gap must be positive, got %d", c.MaxPerGap)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max items must not be negative, got %d", c.MaxItems)
	}
	return nil
}

// PriorityFor classifies a gap.
func (c Config) PriorityFor(g Gap) Priority {
	switch {
	case g.Weight >= c.DominantWeight || g.Score < c.HighBelow:
		return PriorityHigh
	case g.Score < c.MediumBelow:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

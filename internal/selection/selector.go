// Package selection picks clips from a ranked list under a duration budget.
package selection

import (
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// DefaultEarlyStopFraction stops selection once this share of the target
// duration is filled.
const DefaultEarlyStopFraction = 0.8

// Selector is a greedy, duration-budgeted clip picker.
type Selector struct {
	earlyStopFraction float64
	logger            *zap.Logger
}

// NewSelector creates a selector. A fraction outside (0, 1] means
// DefaultEarlyStopFraction.
func NewSelector(earlyStopFraction float64, logger *zap.Logger) *Selector {
	if earlyStopFraction <= 0 || earlyStopFraction > 1 {
		earlyStopFraction = DefaultEarlyStopFraction
	}
	return &Selector{
		earlyStopFraction: earlyStopFraction,
		logger:            logging.WithComponent(logger, "clip_selector"),
	}
}

// Select walks ranked in order and accepts every clip that still fits in
// targetDurationSeconds. Clips that do not fit are skipped, not fatal.
// It stops once the accepted duration reaches the early-stop threshold,
// or once maxClips clips are accepted, so some budget may remain unused.
// maxClips <= 0 means no count limit. The output keeps relevance order.
func (s *Selector) Select(ranked []model.ClipCandidate, targetDurationSeconds float64, maxClips int) []model.ClipCandidate {
	selected := Select(ranked, targetDurationSeconds, s.earlyStopFraction, maxClips)

	s.logger.Debug("clips selected",
		zap.Int("candidates", len(ranked)),
		zap.Int("selected", len(selected)),
		zap.Float64("target_seconds", targetDurationSeconds),
		zap.Int("max_clips", maxClips),
		zap.Float64("selected_seconds", model.TotalDuration(selected)))

	return selected
}

// Select is the stateless form of Selector.Select.
func Select(ranked []model.ClipCandidate, targetDurationSeconds, earlyStopFraction float64, maxClips int) []model.ClipCandidate {
	selected := []model.ClipCandidate{}
	if len(ranked) == 0 || targetDurationSeconds <= 0 {
		return selected
	}

	stopAt := targetDurationSeconds * earlyStopFraction
	var acc float64
	for _, c := range ranked {
		if acc >= stopAt || (maxClips > 0 && len(selected) >= maxClips) {
			break
		}
		d := c.Duration()
		if d <= 0 {
			continue
		}
		if acc+d <= targetDurationSeconds {
			selected = append(selected, c)
			acc += d
		}
	}
	return selected
}

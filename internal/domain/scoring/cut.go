// Package scoring judges cuts and runs the combo, multiplier and fever state
// machine of a level.
package scoring

import (
	"math"

	"github.com/okian/beatcore/internal/domain/model"
	"github.com/okian/beatcore/pkg/mutils"
)

// Cut score bounds.
const (
	MaxBeforeCutSwingScore = 70
	MaxCenterDistanceScore = 10
	MaxAfterCutSwingScore  = 30
	MaxCutScore            = MaxBeforeCutSwingScore + MaxCenterDistanceScore + MaxAfterCutSwingScore

	// distance from the centre at which the accuracy points reach zero
	centerDistanceRange = 0.2
)

// BeforeCutScore scores the swing into the note and the cut accuracy.
func BeforeCutScore(info model.NoteCutInfo) int {
	swing := math.Round(MaxBeforeCutSwingScore * mutils.Clamp01(info.SwingRating))
	center := math.Round(MaxCenterDistanceScore * mutils.Clamp01(1-info.CutDistanceToCenter/centerDistanceRange))
	return int(swing + center)
}

// AfterCutScore scores the follow-through. It is zero without a counter.
func AfterCutScore(rating float64, present bool) int {
	if !present {
		return 0
	}
	return int(math.Round(MaxAfterCutSwingScore * mutils.Clamp01(rating)))
}

// CutScore is the total score of one cut before the multiplier.
func CutScore(info model.NoteCutInfo, afterRating float64, present bool) int {
	return BeforeCutScore(info) + AfterCutScore(afterRating, present)
}

// RawScore splits the current score of a cut, reading the after-cut rating
// from the attached counter if any.
func RawScore(info model.NoteCutInfo) (before, after int) {
	before = BeforeCutScore(info)
	if info.AfterCut != nil {
		after = AfterCutScore(info.AfterCut.AfterCutRating(), true)
	}
	return before, after
}

// MaxScoreForNumberOfNotes is the score of n perfect cuts without fever,
// obtained by running the multiplier ladder.
func MaxScoreForNumberOfNotes(n int) int {
	var ladder multiplierLadder
	ladder.reset()
	score := 0
	for i := 0; i < n; i++ {
		score += MaxCutScore * ladder.multiplier
		ladder.increase()
	}
	return score
}

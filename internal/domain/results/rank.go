package results

import "github.com/okian/beatcore/internal/domain/types"

// RankFor grades score against maxScore. Reaching the maximum is always the
// top rank, also for a level without notes.
func RankFor(score, maxScore int) types.Rank {
	if score == maxScore || (maxScore <= 0 && score > 0) {
		return types.RankSSS
	}
	if maxScore <= 0 {
		return types.RankE
	}
	ratio := float64(score) / float64(maxScore)
	switch {
	case ratio >= 1:
		return types.RankSSS
	case ratio > 0.9:
		return types.RankSS
	case ratio > 0.8:
		return types.RankS
	case ratio > 0.65:
		return types.RankA
	case ratio > 0.5:
		return types.RankB
	case ratio > 0.35:
		return types.RankC
	case ratio > 0.2:
		return types.RankD
	}
	return types.RankE
}

// Package model contains domain values passed between layers.
package model

// SwingRatingCounter tracks the follow-through of a saber after it cut a
// note. It is polled once per tick until Finished reports true.
type SwingRatingCounter interface {
	AfterCutRating() float64 // in [0,1]
	Finished() bool
}

// NoteCutInfo is the fact sheet for one cut attempt.
type NoteCutInfo struct {
	DirectionOK bool
	SpeedOK     bool
	SaberTypeOK bool

	SwingRating         float64 // before-cut rating in [0,1]
	CutDistanceToCenter float64 // metres from the note centre
	CutDirDeviation     float64 // degrees off the required direction
	TimeDeviation       float64 // seconds from the note time
	SaberSpeed          float64

	// AfterCut is nil when no after-cut counter is attached.
	AfterCut SwingRatingCounter
}

// AllIsOK reports a good cut.
func (i NoteCutInfo) AllIsOK() bool {
	return i.DirectionOK && i.SpeedOK && i.SaberTypeOK
}

// FixedRating is a SwingRatingCounter that is already resolved.
type FixedRating float64

func (r FixedRating) AfterCutRating() float64 { return float64(r) }
func (r FixedRating) Finished() bool          { return true }

package scoring

const maxMultiplier = 8

// multiplierLadder doubles the multiplier after multiplier*2 consecutive good
// cuts, up to maxMultiplier.
type multiplierLadder struct {
	multiplier  int
	progress    int
	maxProgress int
}

func (l *multiplierLadder) reset() {
	l.multiplier = 1
	l.progress = 0
	l.maxProgress = 2
}

// increase counts a good cut and reports whether the ladder state changed.
func (l *multiplierLadder) increase() bool {
	if l.multiplier >= maxMultiplier {
		return false
	}
	l.progress++
	if l.progress >= l.maxProgress {
		l.multiplier *= 2
		l.maxProgress = l.multiplier * 2
		l.progress = 0
	}
	return true
}

// lose zeroes progress and halves the multiplier. It reports whether
// anything changed.
func (l *multiplierLadder) lose() bool {
	changed := false
	if l.progress > 0 {
		l.progress = 0
		changed = true
	}
	if l.multiplier > 1 {
		l.multiplier /= 2
		l.maxProgress = l.multiplier * 2
		changed = true
	}
	return changed
}

// ratio is the fill level of the progress bar; a maxed ladder reports 1.
func (l *multiplierLadder) ratio() float64 {
	if l.multiplier >= maxMultiplier {
		return 1
	}
	return float64(l.progress) / float64(l.maxProgress)
}

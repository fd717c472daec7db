package engine

// Drought counts consecutive subject-side plate appearances without anything worth posting
// about. Distinct plate appearances are told apart by sequence index; repeated calls for the
// same index (retried polls, intermediate feed updates within one at-bat) are no-ops.
type Drought struct {
	threshold int
	count     int
	lastSeq   int
	seenAny   bool
}

// A threshold of zero (or less) disables escalation; the count is still tracked.
func NewDrought(threshold int) *Drought {
	return &Drought{threshold: threshold}
}

// OnPlateAppearance registers a plate appearance and returns true once the count has reached
// the threshold.
func (d *Drought) OnPlateAppearance(seq int) bool {
	if d.seenAny && seq == d.lastSeq {
		return false
	}
	d.count++
	d.lastSeq = seq
	d.seenAny = true
	return d.threshold > 0 && d.count >= d.threshold
}

// Reset zeroes the count after any emission. The last sequence index is kept, so the same
// plate appearance can't start a new drought.
func (d *Drought) Reset() {
	d.count = 0
}

// Clears everything, for restarting a replay pass.
func (d *Drought) ResetAll() {
	d.count = 0
	d.lastSeq = 0
	d.seenAny = false
}

func (d *Drought) Count() int {
	return d.count
}

func (d *Drought) Threshold() int {
	return d.threshold
}

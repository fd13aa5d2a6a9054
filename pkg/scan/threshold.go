package scan

// Threshold is the scanner's own squelch estimate, in raw RSSI units. It
// starts uninitialized at zero and follows the measured signal down
// quickly and up slowly.
type Threshold struct {
	level       uint16
	dropPercent uint16
}

// NewThreshold returns an uninitialized threshold that snaps down when a
// sample falls dropPercent below it.
func NewThreshold(dropPercent uint16) Threshold {
	return Threshold{dropPercent: dropPercent}
}

func (t *Threshold) Level() uint16 { return t.level }

// Set forces the level, for restoring a saved estimate.
func (t *Threshold) Set(level uint16) { t.level = level }

// Observe folds one RSSI sample into the estimate and reports whether the
// sample is above it.
func (t *Threshold) Observe(rssi uint16) bool {
	if t.level == 0 && rssi != 0 {
		t.level = rssi - 1
	}

	if t.level > rssi {
		avg := (uint32(t.level) + uint32(rssi)) / 2
		if avg > 0 && uint32(t.level-rssi)*100/avg >= uint32(t.dropPercent) {
			t.level = sub1(rssi)
		}
	}

	return rssi >= t.level
}

// Bump raises the level by one after a false alarm.
func (t *Threshold) Bump() {
	if t.level < ^uint16(0) {
		t.level++
	}
}

// Decay lowers the level by one, stopping at zero.
func (t *Threshold) Decay() {
	t.level = sub1(t.level)
}

// SnapTo drops the level onto a fresh noise floor estimate.
func (t *Threshold) SnapTo(floor uint16) {
	t.level = floor
}

func sub1(v uint16) uint16 {
	if v == 0 {
		return 0
	}
	return v - 1
}

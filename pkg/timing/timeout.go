package timing

// Deadline is an absolute point on a Clock's counter. Cancelling one is
// simply never checking it again.
type Deadline uint32

// SetTimeout arms d to expire ms from now. A duration of Never arms a
// deadline that never expires. Durations must stay below half the counter
// range (about 24 days) to survive the 32-bit wrap.
func SetTimeout(c Clock, d *Deadline, ms uint32) {
	if ms == Never {
		*d = Deadline(Never)
		return
	}
	at := c.Now() + ms
	// 0 and Never are reserved; a deadline landing on them moves by a
	// millisecond in whichever direction keeps its meaning.
	switch {
	case at == 0 && ms > 0:
		at = 1
	case at == Never:
		at = Never - 1
	}
	*d = Deadline(at)
}

// CheckTimeout reports whether d has passed, comparing across the wrap of
// the counter. A zero deadline counts as already expired.
func CheckTimeout(c Clock, d *Deadline) bool {
	switch uint32(*d) {
	case Never:
		return false
	case 0:
		return true
	}
	return int32(c.Now()-uint32(*d)) >= 0
}

// Elapsed returns the milliseconds from since to now, tolerating wrap of
// the 32-bit counter.
func Elapsed(c Clock, since uint32) uint32 {
	return c.Now() - since
}

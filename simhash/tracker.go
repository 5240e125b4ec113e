package simhash

// DefaultThreshold is the distance at or below which two captures of the
// same site are treated as the same page.
const DefaultThreshold = 3

// Match describes the earlier capture a new one collided with.
type Match struct {
	Label    string
	Distance int
}

// Tracker remembers the last capture per key. It is not safe for
// concurrent use.
type Tracker struct {
	threshold int
	last      map[string]entry
}

type entry struct {
	label string
	fp    Fingerprint
}

// NewTracker returns a Tracker flagging captures within threshold bits.
func NewTracker(threshold int) *Tracker {
	return &Tracker{threshold: threshold, last: make(map[string]entry)}
}

// Observe records text under key and reports whether it is near the
// previous capture recorded under the same key. Empty text is ignored.
func (t *Tracker) Observe(key, label, text string) (Match, bool) {
	fp := Of(text)
	if fp == 0 {
		return Match{}, false
	}

	prev, seen := t.last[key]
	t.last[key] = entry{label: label, fp: fp}
	if !seen {
		return Match{}, false
	}

	if !prev.fp.Near(fp, t.threshold) {
		return Match{}, false
	}
	return Match{Label: prev.label, Distance: prev.fp.Distance(fp)}, true
}

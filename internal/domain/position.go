package domain

// PositionStep is the gap left between appended items, and between all items
// after a stream is respaced.
const PositionStep = 1.0

// PositionBetween returns the position halfway into the gap between prev and
// next. A nil bound means the item goes at that end of the stream. There is
// no ceiling: appends grow by PositionStep and inserts take the midpoint.
// Repeated inserts into one gap eventually exhaust float64 precision; callers
// check the result with PositionFits and respace the stream when it fails.
func PositionBetween(prev, next *float64) float64 {
	switch {
	case prev == nil && next == nil:
		return PositionStep
	case prev == nil:
		return *next - PositionStep
	case next == nil:
		return *prev + PositionStep
	default:
		return *prev + (*next-*prev)/2
	}
}

// PositionFits reports whether pos lies strictly between prev and next.
func PositionFits(pos float64, prev, next *float64) bool {
	if prev != nil && pos <= *prev {
		return false
	}
	if next != nil && pos >= *next {
		return false
	}
	return true
}

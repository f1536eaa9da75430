package stats

// SafeDivide returns num/den, or 0 when den is zero
func SafeDivide(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ArgMax returns the index of the largest value, preferring the lowest index
// on ties. It returns -1 when every value is zero or the slice is empty.
func ArgMax(values []float64) int {
	best := -1
	for i, v := range values {
		if v <= 0 {
			continue
		}
		if best == -1 || v > values[best] {
			best = i
		}
	}
	return best
}

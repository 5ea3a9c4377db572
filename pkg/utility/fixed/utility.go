package fixed

func MinPoint(a, b Point) Point {
	if a.Lt(b) {
		return a
	}
	return b
}

func MaxPoint(a, b Point) Point {
	if a.Gt(b) {
		return a
	}
	return b
}

func ClampPoint(p, low, high Point) Point {
	if p.Lt(low) {
		return low
	}
	if p.Gt(high) {
		return high
	}
	return p
}

// PowerOfTen returns 10^exp as a Point. Negative exponents yield fractional
// points, e.g. PowerOfTen(-4) = 0.0001.
func PowerOfTen(exp int) Point {
	if exp >= 0 {
		v := int64(1)
		for i := 0; i < exp; i++ {
			v *= 10
		}
		return New(v, 0)
	}
	return New(1, -exp)
}

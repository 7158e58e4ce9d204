package burn

// olsSlope fits y = a + b*x by ordinary least squares over evenly spaced
// x = 0..n-1 and returns b. Fewer than two points, or a degenerate
// denominator, yield zero.
func olsSlope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	den := fn*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / den
}

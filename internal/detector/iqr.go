package detector

import "sort"

// filterOutliers applies the §4.5 IQR outlier filter: with 4 or more
// records, pairwise spreads are computed, Q1/Q3 of the spread
// distribution set the fence at Q3+1.5*IQR, and any record whose
// majority of spreads against the others exceeds the fence is
// dropped. If that would drop every record, the originals are kept
// unfiltered.
func filterOutliers(prices []float64) []int {
	n := len(prices)
	keep := make([]int, n)
	for i := range keep {
		keep[i] = i
	}
	if n < 4 {
		return keep
	}

	spreads := make([][]float64, n)
	var all []float64
	for i := 0; i < n; i++ {
		spreads[i] = make([]float64, 0, n-1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			avg := (prices[i] + prices[j]) / 2
			if avg == 0 {
				continue
			}
			s := abs(prices[i]-prices[j]) / avg
			spreads[i] = append(spreads[i], s)
			all = append(all, s)
		}
	}

	fence := fenceFromSpreads(all)

	var surviving []int
	for i := 0; i < n; i++ {
		exceeding := 0
		for _, s := range spreads[i] {
			if s > fence {
				exceeding++
			}
		}
		if exceeding*2 <= len(spreads[i]) {
			surviving = append(surviving, i)
		}
	}

	if len(surviving) == 0 {
		return keep
	}
	return surviving
}

func fenceFromSpreads(spreads []float64) float64 {
	sorted := append([]float64(nil), spreads...)
	sort.Float64s(sorted)
	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1
	return q3 + 1.5*iqr
}

// percentile uses linear interpolation between closest ranks, the
// common convention for small statistical samples.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

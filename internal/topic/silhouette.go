package topic

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Silhouette returns the mean silhouette coefficient of labels over the rows
// of data, using Euclidean distance. Points in singleton clusters score 0.
// With fewer than two clusters the score is 0.
func Silhouette(data *mat.Dense, labels []int) float64 {
	n, _ := data.Dims()
	k := ClusterCount(labels)
	if n == 0 || k < 2 {
		return 0
	}
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	total := 0.0
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := range sums {
			sums[c] = 0
		}
		pi := data.RawRowView(i)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sums[labels[j]] += floats.Distance(pi, data.RawRowView(j), 2)
		}
		own := labels[i]
		if sizes[own] <= 1 {
			continue
		}
		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if m := sums[c] / float64(sizes[c]); m < b {
				b = m
			}
		}
		if den := math.Max(a, b); den > 0 && !math.IsInf(b, 1) {
			total += (b - a) / den
		}
	}
	return total / float64(n)
}

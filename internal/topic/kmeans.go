package topic

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	maxIterations = 300
	tolerance     = 1e-4
)

// KMeans partitions the rows of data into k clusters with k-means++
// seeding and Lloyd iterations under Euclidean distance. The same rng
// state always yields the same labels. Labels are renumbered so that
// cluster 0 holds row 0 and new labels appear in row order.
func KMeans(data *mat.Dense, k int, rng *rand.Rand) []int {
	n, _ := data.Dims()
	if k > n {
		k = n
	}
	if k <= 1 {
		return make([]int, n)
	}
	centroids := initPlusPlus(data, k, rng)
	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	for iter := 0; iter < maxIterations; iter++ {
		next := assign(data, centroids)
		converged := true
		for i := range assignments {
			if assignments[i] != next[i] {
				converged = false
				break
			}
		}
		assignments = next
		if converged {
			break
		}
		updated := update(data, assignments, centroids)
		shift := 0.0
		for c := 0; c < k; c++ {
			d := floats.Distance(centroids.RawRowView(c), updated.RawRowView(c), 2)
			shift += d * d
		}
		centroids = updated
		if shift < tolerance {
			assignments = assign(data, centroids)
			break
		}
	}
	return relabel(assignments)
}

func initPlusPlus(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, data.RawRowView(rng.Intn(n)))

	dist := make([]float64, n)
	for i := 1; i < k; i++ {
		total := 0.0
		for j := 0; j < n; j++ {
			point := data.RawRowView(j)
			best := math.Inf(1)
			for c := 0; c < i; c++ {
				if dd := floats.Distance(point, centroids.RawRowView(c), 2); dd < best {
					best = dd
				}
			}
			dist[j] = best * best
			total += dist[j]
		}
		if total == 0 {
			// all points coincide with chosen centroids
			centroids.SetRow(i, data.RawRowView(rng.Intn(n)))
			continue
		}
		target := rng.Float64() * total
		cum := 0.0
		chosen := n - 1
		for j, w := range dist {
			cum += w
			if cum >= target && w > 0 {
				chosen = j
				break
			}
		}
		centroids.SetRow(i, data.RawRowView(chosen))
	}
	return centroids
}

func assign(data, centroids *mat.Dense) []int {
	n, _ := data.Dims()
	k, _ := centroids.Dims()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		point := data.RawRowView(i)
		best := math.Inf(1)
		for c := 0; c < k; c++ {
			if d := floats.Distance(point, centroids.RawRowView(c), 2); d < best {
				best = d
				out[i] = c
			}
		}
	}
	return out
}

// update recomputes centroids as member means. An empty cluster keeps its
// previous centroid.
func update(data *mat.Dense, assignments []int, prev *mat.Dense) *mat.Dense {
	k, d := prev.Dims()
	next := mat.NewDense(k, d, nil)
	counts := make([]int, k)
	for i, c := range assignments {
		floats.Add(next.RawRowView(c), data.RawRowView(i))
		counts[c]++
	}
	for c := 0; c < k; c++ {
		row := next.RawRowView(c)
		if counts[c] == 0 {
			copy(row, prev.RawRowView(c))
			continue
		}
		floats.Scale(1/float64(counts[c]), row)
	}
	return next
}

func relabel(assignments []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(assignments))
	for i, c := range assignments {
		id, ok := mapping[c]
		if !ok {
			id = len(mapping)
			mapping[c] = id
		}
		out[i] = id
	}
	return out
}

// ClusterCount returns the number of clusters in labels numbered from 0.
func ClusterCount(labels []int) int {
	hi := -1
	for _, l := range labels {
		if l > hi {
			hi = l
		}
	}
	return hi + 1
}

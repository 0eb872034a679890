// Package projection reduces a batch of feature vectors to 3-D points.
package projection

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Components is the output dimensionality.
const Components = 3

var (
	ErrEmptyBatch  = errors.New("projection: empty batch")
	ErrRaggedBatch = errors.New("projection: rows differ in length")
)

// Project standardises each column (population statistics; constant
// columns become 0) and projects rows onto the top principal components.
// Each component's sign is fixed so its largest-magnitude loading is
// positive. Coordinates beyond the available components are 0. Row order
// is preserved.
func Project(rows [][]float64) ([][Components]float64, error) {
	n := len(rows)
	if n == 0 {
		return nil, ErrEmptyBatch
	}
	d := len(rows[0])
	for i, r := range rows {
		if len(r) != d {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRaggedBatch, i, len(r), d)
		}
	}
	out := make([][Components]float64, n)
	if d == 0 {
		return out, nil
	}

	x := Standardize(rows)
	// PCA needs at least two observations
	if n < 2 {
		return out, nil
	}
	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, errors.New("projection: principal component analysis failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, avail := vecs.Dims()
	var vars []float64
	vars = pc.VarsTo(vars)
	k := Components
	if avail < k {
		k = avail
	}
	// components with no variance carry no information
	for k > 0 && vars[k-1] <= 1e-12 {
		k--
	}
	if k == 0 {
		return out, nil
	}
	basis := mat.NewDense(d, k, nil)
	for c := 0; c < k; c++ {
		col := mat.Col(nil, c, &vecs)
		fixSign(col)
		basis.SetCol(c, col)
	}
	var proj mat.Dense
	proj.Mul(x, basis)
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			out[i][c] = proj.At(i, c)
		}
	}
	return out, nil
}

// Standardize returns the z-scored matrix of rows using population
// standard deviation. Zero-variance columns are centred only.
func Standardize(rows [][]float64) *mat.Dense {
	n, d := len(rows), len(rows[0])
	x := mat.NewDense(n, d, nil)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			col[i] = rows[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := 0; i < n; i++ {
			x.Set(i, j, (col[i]-mean)/std)
		}
	}
	return x
}

func fixSign(v []float64) {
	idx := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[idx]) {
			idx = i
		}
	}
	if v[idx] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}

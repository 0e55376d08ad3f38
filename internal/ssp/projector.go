// Package ssp implements signal-space projection for multichannel sensor
// data. A Projector holds orthonormal spatial patterns estimated from
// artifact data; a Set combines the active projectors into one projection
// that removes those patterns from recordings.
package ssp

import (
	"fmt"
	"math"

	"github.com/banshee-data/ssp.report/internal/monitoring"
	"github.com/banshee-data/ssp.report/internal/projection"
	"gonum.org/v1/gonum/mat"
)

// RankTolerance is the singular value, relative to the largest, below which
// combined projection vectors are treated as linearly dependent.
const RankTolerance = 1e-10

// Projector is a set of orthonormal spatial patterns to remove.
type Projector struct {
	Name string
	// Vectors has one orthonormal column per component (channels x k).
	Vectors *mat.Dense
	// ExplainedVariance is the fraction of the artifact data's power
	// captured by each component.
	ExplainedVariance []float64
	Active            bool
}

// ComputeProjector estimates n spatial components from artifact data laid
// out as channels x samples. The components are the leading left singular
// vectors of data.
func ComputeProjector(name string, data mat.Matrix, n int) (*Projector, error) {
	channels, samples := data.Dims()
	if channels == 0 || samples == 0 {
		return nil, fmt.Errorf("%w: empty artifact data", projection.ErrInvalidArgument)
	}
	if n < 1 || n > min(channels, samples) {
		return nil, fmt.Errorf("%w: %d components requested from %dx%d data", projection.ErrInvalidArgument, n, channels, samples)
	}
	if err := checkFinite(data); err != nil {
		return nil, err
	}

	var svd mat.SVD
	if ok := svd.Factorize(data, mat.SVDThin); !ok {
		return nil, fmt.Errorf("failed to factorize %q artifact data: SVD did not converge", name)
	}
	values := svd.Values(nil)
	if values[0] <= projection.DegenerateTolerance {
		return nil, fmt.Errorf("%w: artifact data for %q is all zero", projection.ErrDegenerateInput, name)
	}

	var u mat.Dense
	svd.UTo(&u)
	vectors := mat.DenseCopyOf(u.Slice(0, channels, 0, n))

	var total float64
	for _, s := range values {
		total += s * s
	}
	explained := make([]float64, n)
	for i := range explained {
		explained[i] = values[i] * values[i] / total
	}

	monitoring.Logf("ssp: computed projector %q: %d of %d components, %d channels, explained variance %.3f",
		name, n, len(values), channels, sum(explained))

	return &Projector{
		Name:              name,
		Vectors:           vectors,
		ExplainedVariance: explained,
		Active:            true,
	}, nil
}

// Channels returns the sensor count the projector applies to.
func (p *Projector) Channels() int {
	r, _ := p.Vectors.Dims()
	return r
}

// Components returns the number of spatial patterns.
func (p *Projector) Components() int {
	_, c := p.Vectors.Dims()
	return c
}

// Matrix returns I - V·Vᵗ for this projector alone.
func (p *Projector) Matrix() *mat.Dense {
	return complement(p.Vectors)
}

// complement returns I - V·Vᵗ for V with orthonormal columns.
func complement(v mat.Matrix) *mat.Dense {
	r, _ := v.Dims()
	var outer mat.Dense
	outer.Mul(v, v.T())

	var out mat.Dense
	out.Sub(identity(r), &outer)
	return &out
}

func identity(n int) *mat.DiagDense {
	eye := mat.NewDiagDense(n, nil)
	for i := 0; i < n; i++ {
		eye.SetDiag(i, 1)
	}
	return eye
}

func checkFinite(m mat.Matrix) error {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value at (%d,%d)", projection.ErrInvalidArgument, i, j)
			}
		}
	}
	return nil
}

func sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

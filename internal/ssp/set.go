package ssp

import (
	"fmt"

	"github.com/banshee-data/ssp.report/internal/projection"
	"gonum.org/v1/gonum/mat"
)

// Set is an ordered collection of projectors over the same channels.
type Set struct {
	projectors []*Projector
	channels   int
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{}
}

// Add appends p. All projectors in a set must share a channel count and have
// distinct names.
func (s *Set) Add(p *Projector) error {
	if p == nil || p.Vectors == nil {
		return fmt.Errorf("%w: nil projector", projection.ErrInvalidArgument)
	}
	if s.channels != 0 && p.Channels() != s.channels {
		return fmt.Errorf("%w: projector %q has %d channels, set has %d",
			projection.ErrInvalidArgument, p.Name, p.Channels(), s.channels)
	}
	for _, q := range s.projectors {
		if q.Name == p.Name {
			return fmt.Errorf("%w: duplicate projector %q", projection.ErrInvalidArgument, p.Name)
		}
	}
	s.channels = p.Channels()
	s.projectors = append(s.projectors, p)
	return nil
}

// Projectors returns the projectors in insertion order.
func (s *Set) Projectors() []*Projector {
	return s.projectors
}

// SetActive toggles the named projector.
func (s *Set) SetActive(name string, active bool) error {
	for _, p := range s.projectors {
		if p.Name == name {
			p.Active = active
			return nil
		}
	}
	return fmt.Errorf("%w: no projector named %q", projection.ErrInvalidArgument, name)
}

// Matrix combines the active projectors into a single projection and
// returns it with its rank (the number of removed dimensions). The active
// vectors are re-orthonormalised through an SVD so overlapping projectors do
// not remove a direction twice.
func (s *Set) Matrix() (*mat.Dense, int, error) {
	if s.channels == 0 {
		return nil, 0, fmt.Errorf("%w: empty projector set", projection.ErrInvalidArgument)
	}

	var active []*Projector
	total := 0
	for _, p := range s.projectors {
		if p.Active {
			active = append(active, p)
			total += p.Components()
		}
	}
	if total == 0 {
		return mat.DenseCopyOf(identity(s.channels)), 0, nil
	}

	stacked := mat.NewDense(s.channels, total, nil)
	col := 0
	for _, p := range active {
		for j := 0; j < p.Components(); j++ {
			stacked.SetCol(col, mat.Col(nil, j, p.Vectors))
			col++
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(stacked, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("failed to combine projection vectors: SVD did not converge")
	}
	values := svd.Values(nil)
	rank := 0
	for _, v := range values {
		if v > RankTolerance*values[0] {
			rank++
		}
	}

	var u mat.Dense
	svd.UTo(&u)
	return complement(u.Slice(0, s.channels, 0, rank)), rank, nil
}

// Apply returns data (channels x samples) with the active projectors
// applied. With proj false the data is returned unchanged, as a copy.
func (s *Set) Apply(data mat.Matrix, proj bool) (*mat.Dense, error) {
	r, _ := data.Dims()
	if r != s.channels {
		return nil, fmt.Errorf("%w: data has %d channels, set has %d", projection.ErrInvalidArgument, r, s.channels)
	}
	if !proj {
		return mat.DenseCopyOf(data), nil
	}
	p, _, err := s.Matrix()
	if err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Mul(p, data)
	return &out, nil
}

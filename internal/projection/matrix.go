// Package projection builds 3x3 projection matrices and applies them to
// points and vectors.
//
// Two constructions are supported. An axis-aligned projection keeps a subset
// of the coordinate axes and zeroes the rest. An orthogonal-complement
// projection removes the contribution of a single direction, mapping every
// point onto the plane orthogonal to it. Both are idempotent.
package projection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DegenerateTolerance is the norm at or below which a direction is
// treated as zero.
const DegenerateTolerance = 1e-12

// DefaultTolerance is the element-wise tolerance used by property checks.
const DefaultTolerance = 1e-9

// Matrix is a row-major 3x3 matrix. Values returned by the Build functions
// are projection matrices (M·M = M).
type Matrix [3][3]float64

// Identity returns the 3x3 identity matrix.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// BuildAxisProjection returns the diagonal projection that keeps the given
// axes and zeroes the others. keep must be a non-empty set of distinct axes.
func BuildAxisProjection(keep ...Axis) (Matrix, error) {
	if err := validateAxes(keep); err != nil {
		return Matrix{}, err
	}
	var m Matrix
	for _, a := range keep {
		m[a][a] = 1
	}
	return m, nil
}

// BuildOrthogonalProjection returns I - u·uᵗ where u is the unit vector along
// direction. The result maps direction to the origin and leaves every vector
// orthogonal to it unchanged.
//
// u is taken from the thin SVD of direction as a 3x1 column, so the sign of
// the singular vector does not matter.
func BuildOrthogonalProjection(direction Point3) (Matrix, error) {
	if !isFinite(direction) {
		return Matrix{}, fmt.Errorf("%w: non-finite direction %v", ErrInvalidArgument, direction)
	}
	if r3.Norm(direction) <= DegenerateTolerance {
		return Matrix{}, fmt.Errorf("%w: zero-length direction %v", ErrDegenerateInput, direction)
	}

	col := mat.NewDense(3, 1, toSlice(direction))
	var svd mat.SVD
	if ok := svd.Factorize(col, mat.SVDThin); !ok {
		return Matrix{}, fmt.Errorf("%w: SVD of direction %v failed", ErrDegenerateInput, direction)
	}
	var u mat.Dense
	svd.UTo(&u)

	var outer mat.Dense
	outer.Mul(&u, u.T())

	var p mat.Dense
	p.Sub(Identity().Dense(), &outer)
	return FromDense(&p)
}

// BuildOrthogonalProjectionVector is BuildOrthogonalProjection for a
// vector given as tail and head.
func BuildOrthogonalProjectionVector(v Vector3) (Matrix, error) {
	return BuildOrthogonalProjection(v.Offset())
}

// Apply returns m·p.
func Apply(m Matrix, p Point3) Point3 {
	return Point3{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z,
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z,
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z,
	}
}

// ApplyToVector projects tail and head independently. For the linear
// projections built here the origin always maps to itself.
func ApplyToVector(m Matrix, tail, head Point3) (Point3, Point3) {
	return Apply(m, tail), Apply(m, head)
}

// ApplyAll projects each point in ps.
func ApplyAll(m Matrix, ps []Point3) []Point3 {
	out := make([]Point3, len(ps))
	for i, p := range ps {
		out[i] = Apply(m, p)
	}
	return out
}

// FromDense copies a 3x3 gonum matrix into a Matrix.
func FromDense(d mat.Matrix) (Matrix, error) {
	if r, c := d.Dims(); r != 3 || c != 3 {
		return Matrix{}, fmt.Errorf("%w: expected 3x3 matrix, got %dx%d", ErrInvalidArgument, r, c)
	}
	var m Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m, nil
}

// At returns the element at row i, column j.
func (m Matrix) At(i, j int) float64 {
	return m[i][j]
}

// Dense returns m as a gonum matrix.
func (m Matrix) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

// Mul returns m·o.
func (m Matrix) Mul(o Matrix) Matrix {
	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return r
}

// EqualApprox reports whether every element of m and o differs by at most tol.
func (m Matrix) EqualApprox(o Matrix, tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(m[i][j]-o[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// IsIdempotent reports whether m·m equals m within tol.
func (m Matrix) IsIdempotent(tol float64) bool {
	return m.Mul(m).EqualApprox(m, tol)
}

// IsSymmetric reports whether m equals its transpose within tol.
func (m Matrix) IsSymmetric(tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if math.Abs(m[i][j]-m[j][i]) > tol {
				return false
			}
		}
	}
	return true
}

// Eigenvalues returns the eigenvalues of a symmetric m in ascending order.
func (m Matrix) Eigenvalues() ([]float64, error) {
	for i := range m {
		if !isFinite(Point3{X: m[i][0], Y: m[i][1], Z: m[i][2]}) {
			return nil, fmt.Errorf("%w: matrix row %d is not finite", ErrInvalidArgument, i)
		}
	}
	if !m.IsSymmetric(DefaultTolerance) {
		return nil, fmt.Errorf("%w: matrix is not symmetric", ErrInvalidArgument)
	}
	sym := mat.NewSymDense(3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
	var es mat.EigenSym
	if ok := es.Factorize(sym, false); !ok {
		return nil, fmt.Errorf("failed to compute eigenvalues of %v: decomposition did not converge", m)
	}
	return es.Values(nil), nil
}

// Rank returns the number of singular values of m greater than tol.
func (m Matrix) Rank(tol float64) int {
	var svd mat.SVD
	if ok := svd.Factorize(m.Dense(), mat.SVDNone); !ok {
		return 0
	}
	rank := 0
	for _, s := range svd.Values(nil) {
		if s > tol {
			rank++
		}
	}
	return rank
}

func (m Matrix) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g; %g %g %g]",
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2])
}

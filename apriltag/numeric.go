package apriltag

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// gaussEliminate8x9 solves the homogeneous 8x9 system produced by the DLT
// homography derivation, fixing the ninth unknown to 1.0. a is row-major,
// 8 rows by 9 columns, and is left unchanged. The 8x8 system is solved by
// gonum's LU factorization; it returns false when the factorization's
// condition estimate is infinite or above 1e12, or the solve fails. No
// absolute pivot-magnitude threshold is applied.
func gaussEliminate8x9(a *[8][9]float64) ([9]float64, bool) {
	rows := mat.NewDense(8, 8, nil)
	rhs := mat.NewVecDense(8, nil)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			rows.Set(r, c, a[r][c])
		}
		rhs.SetVec(r, -a[r][8])
	}

	var lu mat.LU
	lu.Factorize(rows)
	if cond := lu.Cond(); math.IsInf(cond, 1) || cond > 1e12 {
		return [9]float64{}, false
	}

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, rhs); err != nil {
		return [9]float64{}, false
	}

	var h [9]float64
	for i := 0; i < 8; i++ {
		h[i] = x.AtVec(i)
	}
	h[8] = 1.0
	return h, true
}

// eigenSym2x2 returns the eigenvalues (descending) and the unit eigenvector
// of the smaller eigenvalue for a symmetric 2x2 matrix [[cxx, cxy], [cxy, cyy]].
func eigenSym2x2(cxx, cxy, cyy float64) (lambdaMax, lambdaMin, nx, ny float64) {
	disc := math.Sqrt((cxx-cyy)*(cxx-cyy) + 4*cxy*cxy)
	lambdaMin = 0.5 * (cxx + cyy - disc)
	lambdaMax = 0.5 * (cxx + cyy + disc)

	nx0 := cxy
	ny0 := lambdaMin - cxx
	length := math.Hypot(nx0, ny0)
	if length > 1e-10 {
		nx, ny = nx0/length, ny0/length
		return
	}
	// cxy ~= 0: matrix already diagonal, eigenvectors are axis-aligned.
	if cxx > cyy {
		return lambdaMax, lambdaMin, 0, 1
	}
	return lambdaMax, lambdaMin, 1, 0
}

// svd3x3 computes the singular value decomposition of a 3x3 matrix m
// (row-major), returning orthogonal U, V and the non-negative singular
// values in descending order.
func svd3x3(m [3][3]float64) (u, v [3][3]float64, sigma [3]float64) {
	dense := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			dense.Set(r, c, m[r][c])
		}
	}

	var svd mat.SVD
	svd.Factorize(dense, mat.SVDFull)

	values := svd.Values(nil)
	var um, vm mat.Dense
	svd.UTo(&um)
	svd.VTo(&vm)

	for r := 0; r < 3; r++ {
		sigma[r] = values[r]
		for c := 0; c < 3; c++ {
			u[r][c] = um.At(r, c)
			v[r][c] = vm.At(r, c)
		}
	}
	return u, v, sigma
}

// matMul3x3 computes a*b for 3x3 row-major matrices.
func matMul3x3(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// transpose3x3 returns the transpose of a 3x3 row-major matrix.
func transpose3x3(a [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[j][i] = a[i][j]
		}
	}
	return out
}

// det3x3 returns the determinant of a 3x3 row-major matrix.
func det3x3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// invert3x3 returns the inverse of a 3x3 row-major matrix via the
// adjugate-over-determinant method, and reports whether det was far
// enough from zero for the result to be trustworthy.
func invert3x3(m [3][3]float64) (inv [3][3]float64, ok bool) {
	d := det3x3(m)
	if d > -1e-12 && d < 1e-12 {
		return inv, false
	}
	invD := 1 / d
	inv[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * invD
	inv[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * invD
	inv[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * invD
	inv[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * invD
	inv[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * invD
	inv[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * invD
	inv[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * invD
	inv[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * invD
	inv[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * invD
	return inv, true
}

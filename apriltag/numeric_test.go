package apriltag

import (
	"math"
	"testing"
)

func TestEigenSym2x2Diagonal(t *testing.T) {
	lambdaMax, lambdaMin, nx, ny := eigenSym2x2(4, 0, 1)
	if math.Abs(lambdaMax-4) > 1e-9 || math.Abs(lambdaMin-1) > 1e-9 {
		t.Fatalf("eigenvalues = %v, %v, want 4, 1", lambdaMax, lambdaMin)
	}
	if math.Abs(nx) > 1e-9 || math.Abs(math.Abs(ny)-1) > 1e-9 {
		t.Errorf("eigenvector (%v, %v) not axis-aligned along y", nx, ny)
	}
}

func TestEigenSym2x2Isotropic(t *testing.T) {
	_, _, nx, ny := eigenSym2x2(2, 0, 2)
	if math.Hypot(nx, ny) < 0.99 || math.Hypot(nx, ny) > 1.01 {
		t.Errorf("eigenvector should still be a unit vector in the degenerate case, got length %v", math.Hypot(nx, ny))
	}
}

func TestGaussEliminate8x9Singular(t *testing.T) {
	var a [8][9]float64 // all zero: singular
	_, ok := gaussEliminate8x9(&a)
	if ok {
		t.Error("expected singular system to be rejected")
	}
}

func TestDet3x3Identity(t *testing.T) {
	m := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if got := det3x3(m); math.Abs(got-1) > 1e-9 {
		t.Errorf("det(I) = %v, want 1", got)
	}
}

func TestMatMul3x3Identity(t *testing.T) {
	id := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	m := [3][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	got := matMul3x3(id, m)
	if got != m {
		t.Errorf("I*m = %v, want %v", got, m)
	}
}

func TestInvert3x3RoundTrip(t *testing.T) {
	m := [3][3]float64{{2, 1, 0}, {0, 3, 1}, {1, 0, 4}}
	inv, ok := invert3x3(m)
	if !ok {
		t.Fatal("expected a non-degenerate matrix to invert")
	}
	prod := matMul3x3(m, inv)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(prod[i][j]-want) > 1e-9 {
				t.Errorf("M*Minv[%d][%d] = %v, want %v", i, j, prod[i][j], want)
			}
		}
	}
}

func TestInvert3x3RejectsSingular(t *testing.T) {
	var m [3][3]float64 // all zero: singular
	if _, ok := invert3x3(m); ok {
		t.Error("expected singular matrix to be rejected")
	}
}

func TestSVD3x3Orthogonality(t *testing.T) {
	m := [3][3]float64{{2, 0, 0}, {0, 3, 0}, {0, 0, 1}}
	u, _, sigma := svd3x3(m)
	if sigma[0] < sigma[1] || sigma[1] < sigma[2] {
		t.Errorf("singular values not descending: %v", sigma)
	}
	// u should be orthogonal: u * u^T == I.
	ut := transpose3x3(u)
	prod := matMul3x3(u, ut)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(prod[i][j]-want) > 1e-6 {
				t.Errorf("U*U^T[%d][%d] = %v, want %v", i, j, prod[i][j], want)
			}
		}
	}
}

package recommend

import (
	"math"
	"math/rand"
)

// svdSeed fixes the randomized projection so repeated pipeline runs over the
// same corpus produce identical embeddings.
const svdSeed = 1729

// TruncatedSVD reduces the TF-IDF matrix to k dimensions via randomized
// subspace iteration, returning one dense k-vector per document (the
// equivalent of U*Sigma, i.e. the LSA document embedding).
func TruncatedSVD(rows []SparseVec, terms, k int) [][]float64 {
	n := len(rows)
	if n == 0 || terms == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if k > terms {
		k = terms
	}

	// Oversampled subspace dimension.
	r := k + 10
	if r > n {
		r = n
	}
	if r > terms {
		r = terms
	}

	rng := rand.New(rand.NewSource(svdSeed))

	// Random projection: Y = A * G, G ~ N(0,1) of shape terms x r.
	g := make([][]float64, terms)
	for t := range g {
		g[t] = make([]float64, r)
		for c := range g[t] {
			g[t][c] = rng.NormFloat64()
		}
	}
	y := mulSparse(rows, g, r)
	orthonormalize(y)

	// Power iterations sharpen the subspace for slowly decaying spectra.
	for iter := 0; iter < 4; iter++ {
		z := mulSparseT(rows, y, terms, r)
		orthonormalize(z)
		y = mulSparse(rows, z, r)
		orthonormalize(y)
	}

	// B = Q^T A has shape r x terms; we only need B*B^T = Z^T Z where
	// Z = A^T Q (terms x r).
	z := mulSparseT(rows, y, terms, r)
	bbt := make([][]float64, r)
	for i := range bbt {
		bbt[i] = make([]float64, r)
	}
	for t := 0; t < terms; t++ {
		for i := 0; i < r; i++ {
			zi := z[t][i]
			if zi == 0 {
				continue
			}
			for j := i; j < r; j++ {
				bbt[i][j] += zi * z[t][j]
			}
		}
	}
	for i := 0; i < r; i++ {
		for j := 0; j < i; j++ {
			bbt[i][j] = bbt[j][i]
		}
	}

	eigvals, eigvecs := jacobiEigen(bbt)
	order := sortEigenDesc(eigvals)

	// T = Q * W * Sigma, truncated to the top k components.
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, k)
		for c := 0; c < k; c++ {
			col := order[c]
			sigma := math.Sqrt(math.Max(eigvals[col], 0))
			var dot float64
			for j := 0; j < r; j++ {
				dot += y[i][j] * eigvecs[j][col]
			}
			out[i][c] = dot * sigma
		}
	}
	return out
}

// mulSparse computes A * M where A is sparse n x terms and M is terms x r.
func mulSparse(rows []SparseVec, m [][]float64, r int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, r)
		for k, t := range row.Idx {
			v := row.Val[k]
			mt := m[t]
			for c := 0; c < r; c++ {
				out[i][c] += v * mt[c]
			}
		}
	}
	return out
}

// mulSparseT computes A^T * M where A is sparse n x terms and M is n x r.
func mulSparseT(rows []SparseVec, m [][]float64, terms, r int) [][]float64 {
	out := make([][]float64, terms)
	for t := range out {
		out[t] = make([]float64, r)
	}
	for i, row := range rows {
		mi := m[i]
		for k, t := range row.Idx {
			v := row.Val[k]
			ot := out[t]
			for c := 0; c < r; c++ {
				ot[c] += v * mi[c]
			}
		}
	}
	return out
}

// orthonormalize applies modified Gram-Schmidt to the columns of m in place.
// Columns with negligible norm are zeroed.
func orthonormalize(m [][]float64) {
	if len(m) == 0 {
		return
	}
	rows := len(m)
	cols := len(m[0])
	for c := 0; c < cols; c++ {
		for prev := 0; prev < c; prev++ {
			var dot float64
			for i := 0; i < rows; i++ {
				dot += m[i][c] * m[i][prev]
			}
			for i := 0; i < rows; i++ {
				m[i][c] -= dot * m[i][prev]
			}
		}
		var norm float64
		for i := 0; i < rows; i++ {
			norm += m[i][c] * m[i][c]
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			for i := 0; i < rows; i++ {
				m[i][c] = 0
			}
			continue
		}
		for i := 0; i < rows; i++ {
			m[i][c] /= norm
		}
	}
}

// jacobiEigen computes the eigendecomposition of a symmetric matrix via the
// cyclic Jacobi method. Returns eigenvalues and the matrix of eigenvectors
// (column j corresponds to eigenvalue j).
func jacobiEigen(a [][]float64) ([]float64, [][]float64) {
	n := len(a)
	// Work on a copy; a stays untouched.
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		copy(m[i], a[i])
	}
	v := identity(n)

	for sweep := 0; sweep < 50; sweep++ {
		off := offDiagNorm(m)
		if off < 1e-12 {
			break
		}
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(m[p][q]) < 1e-15 {
					continue
				}
				theta := (m[q][q] - m[p][p]) / (2 * m[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				s := t * c
				rotate(m, v, p, q, c, s)
			}
		}
	}

	eig := make([]float64, n)
	for i := 0; i < n; i++ {
		eig[i] = m[i][i]
	}
	return eig, v
}

func identity(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}

func offDiagNorm(m [][]float64) float64 {
	var sum float64
	for i := range m {
		for j := range m[i] {
			if i != j {
				sum += m[i][j] * m[i][j]
			}
		}
	}
	return sum
}

// rotate applies the Jacobi rotation G(p,q,c,s) to m (two-sided) and
// accumulates it into the eigenvector matrix v.
func rotate(m, v [][]float64, p, q int, c, s float64) {
	n := len(m)
	for i := 0; i < n; i++ {
		mip, miq := m[i][p], m[i][q]
		m[i][p] = c*mip - s*miq
		m[i][q] = s*mip + c*miq
	}
	for j := 0; j < n; j++ {
		mpj, mqj := m[p][j], m[q][j]
		m[p][j] = c*mpj - s*mqj
		m[q][j] = s*mpj + c*mqj
	}
	for i := 0; i < n; i++ {
		vip, viq := v[i][p], v[i][q]
		v[i][p] = c*vip - s*viq
		v[i][q] = s*vip + c*viq
	}
}

// sortEigenDesc returns column indices ordered by descending eigenvalue.
func sortEigenDesc(eig []float64) []int {
	order := make([]int, len(eig))
	for i := range order {
		order[i] = i
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if eig[order[j]] > eig[order[i]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}
	return order
}

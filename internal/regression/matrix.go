package regression

import (
	"fmt"
	"math"

	"incidentcli/internal/errors"
)

// solveOLS solves the normal equations (XᵀX)β = Xᵀy and returns the
// coefficient vector together with (XᵀX)⁻¹, which scaled by the residual
// variance is the coefficient covariance matrix. A singular cross-product
// matrix names the first term whose pivot collapses.
func solveOLS(x [][]float64, y []float64, terms []term) ([]float64, [][]float64, error) {
	n := len(x)
	p := len(x[0])

	xtx := make([][]float64, p)
	xty := make([]float64, p)
	for j := 0; j < p; j++ {
		xtx[j] = make([]float64, p)
		for k := 0; k < p; k++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += x[i][j] * x[i][k]
			}
			xtx[j][k] = sum
		}
		var sum float64
		for i := 0; i < n; i++ {
			sum += x[i][j] * y[i]
		}
		xty[j] = sum
	}

	inv, err := invert(xtx, terms)
	if err != nil {
		return nil, nil, err
	}

	beta := make([]float64, p)
	for j := 0; j < p; j++ {
		for k := 0; k < p; k++ {
			beta[j] += inv[j][k] * xty[k]
		}
	}
	return beta, inv, nil
}

// invert computes the inverse of a symmetric positive matrix by Gauss-Jordan
// elimination with partial pivoting.
func invert(m [][]float64, terms []term) ([][]float64, error) {
	p := len(m)

	// Augment [m | I].
	aug := make([][]float64, p)
	for i := 0; i < p; i++ {
		aug[i] = make([]float64, 2*p)
		copy(aug[i], m[i])
		aug[i][p+i] = 1
	}

	const pivotTol = 1e-10

	for col := 0; col < p; col++ {
		pivot := col
		for row := col + 1; row < p; row++ {
			if math.Abs(aug[row][col]) > math.Abs(aug[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(aug[pivot][col]) < pivotTol {
			return nil, singularError(col, terms)
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		scale := aug[col][col]
		for k := 0; k < 2*p; k++ {
			aug[col][k] /= scale
		}
		for row := 0; row < p; row++ {
			if row == col {
				continue
			}
			factor := aug[row][col]
			if factor == 0 {
				continue
			}
			for k := 0; k < 2*p; k++ {
				aug[row][k] -= factor * aug[col][k]
			}
		}
	}

	inv := make([][]float64, p)
	for i := 0; i < p; i++ {
		inv[i] = aug[i][p:]
	}
	return inv, nil
}

// singularError maps a collapsed pivot column back to the encoded term so
// the failure names the predictor level, not a matrix index.
func singularError(col int, terms []term) error {
	if col == 0 || col-1 >= len(terms) {
		return fmt.Errorf("normal equations are singular at the intercept")
	}
	tm := terms[col-1]
	return errors.DegenerateFactor(tm.predictor, tm.level)
}

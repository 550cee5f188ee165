package services

import (
	"context"
	"errors"
	"fmt"

	"van-route-service/internal/domain"
	"van-route-service/internal/platform/obs"
	"van-route-service/internal/ports"
)

// MatrixError means the travel oracle failed and no usable cost model
// could be built; the whole optimization call must abort.
type MatrixError struct {
	Err error
}

func (e *MatrixError) Error() string { return fmt.Sprintf("travel matrix: %v", e.Err) }
func (e *MatrixError) Unwrap() error { return e.Err }

// MatrixBuilder assembles the full pairwise travel matrix for a point
// set, chunking requests so no single oracle call exceeds its element
// limit. It performs no caching of its own: address-level caching lives
// in the resolver, and matrix entries are not reusable across calls
// because the point set differs each time.
type MatrixBuilder struct {
	oracle ports.TravelOracle
}

func NewMatrixBuilder(oracle ports.TravelOracle) *MatrixBuilder {
	return &MatrixBuilder{oracle: oracle}
}

// maxRowsPerBlock keeps chunks square-ish rather than degenerate
// 1 x maxElements strips, which the provider handles poorly.
const maxRowsPerBlock = 25

// Build queries the oracle for every (origin, destination) pair in
// points and stitches the sub-blocks into one matrix. points[0] is the
// depot. Pairs the oracle reports unreachable stay nil in the result;
// assigning them a penalty is the optimizer's decision, not ours.
func (b *MatrixBuilder) Build(ctx context.Context, points []domain.Coordinates) (_ *domain.TravelMatrix, err error) {
	defer obs.Time(ctx, "matrix.Build")(&err)

	n := len(points)
	if n == 0 {
		return nil, &MatrixError{Err: errors.New("no points")}
	}

	matrix := domain.NewTravelMatrix(n)

	maxElements := b.oracle.MaxElements()
	if maxElements < 1 {
		return nil, &MatrixError{Err: fmt.Errorf("oracle reports max elements %d", maxElements)}
	}

	rows := maxRowsPerBlock
	if rows > n {
		rows = n
	}
	if rows > maxElements {
		rows = maxElements
	}
	cols := maxElements / rows
	if cols > n {
		cols = n
	}
	if cols < 1 {
		cols = 1
	}

	for rowStart := 0; rowStart < n; rowStart += rows {
		rowEnd := rowStart + rows
		if rowEnd > n {
			rowEnd = n
		}

		for colStart := 0; colStart < n; colStart += cols {
			colEnd := colStart + cols
			if colEnd > n {
				colEnd = n
			}

			block, err := b.oracle.MatrixBlock(ctx, points[rowStart:rowEnd], points[colStart:colEnd])
			if err != nil {
				return nil, &MatrixError{Err: fmt.Errorf("block [%d:%d)x[%d:%d): %w", rowStart, rowEnd, colStart, colEnd, err)}
			}

			if len(block) != rowEnd-rowStart {
				return nil, &MatrixError{Err: fmt.Errorf("block row count %d, want %d", len(block), rowEnd-rowStart)}
			}

			for i, row := range block {
				if len(row) != colEnd-colStart {
					return nil, &MatrixError{Err: fmt.Errorf("block column count %d, want %d", len(row), colEnd-colStart)}
				}
				for j, leg := range row {
					matrix.Legs[rowStart+i][colStart+j] = leg
				}
			}
		}
	}

	return matrix, nil
}

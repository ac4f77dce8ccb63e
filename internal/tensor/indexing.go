package tensor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// GetItem gathers rows (and optionally columns) of a 2-D tensor by index.
//
// With cols == nil every column is kept and the result has shape
// [len(rows), hidden]. Indices may repeat.
//
// Example:
//
//	w := [[1,2],[3,4],[5,6]]
//	GetItem(w, []int{2, 0, 2}, nil) == [[5,6],[1,2],[5,6]]
func GetItem(t *Tensor, rows, cols []int) (*Tensor, error) {
	if t.Rank() != 2 {
		return nil, errors.Wrapf(ErrShapeMismatch, "getitem: need rank 2, got shape %v", t.shape)
	}
	nRows, nCols := t.shape[0], t.shape[1]
	if err := checkIndices("getitem rows", rows, nRows); err != nil {
		return nil, err
	}
	if cols == nil {
		out := &Tensor{shape: Shape{len(rows), nCols}, data: make([]float64, len(rows)*nCols)}
		for i, r := range rows {
			copy(out.data[i*nCols:(i+1)*nCols], t.data[r*nCols:(r+1)*nCols])
		}
		return out, nil
	}

	if err := checkIndices("getitem cols", cols, nCols); err != nil {
		return nil, err
	}
	out := &Tensor{shape: Shape{len(rows), len(cols)}, data: make([]float64, len(rows)*len(cols))}
	for i, r := range rows {
		for j, c := range cols {
			out.data[i*len(cols)+j] = t.data[r*nCols+c]
		}
	}
	return out, nil
}

// ScatterAddRows adds row i of src into row rows[i] of t, in place.
//
// This is the inverse of GetItem with cols == nil and is the only mutating
// op besides the gradient-buffer helpers. Repeated indices accumulate:
//
//	rows = [0, 0, 2], src = [[1,1],[2,2],[3,3]]
//	t[0] += [1,1] + [2,2]; t[2] += [3,3]
func (t *Tensor) ScatterAddRows(rows []int, src *Tensor) error {
	if t.Rank() != 2 || src.Rank() != 2 || src.shape[1] != t.shape[1] || src.shape[0] != len(rows) {
		return shapeMismatch("scatter_add_rows", t.shape, src.shape)
	}
	if err := checkIndices("scatter_add_rows", rows, t.shape[0]); err != nil {
		return err
	}
	cols := t.shape[1]
	for i, r := range rows {
		floats.Add(t.data[r*cols:(r+1)*cols], src.data[i*cols:(i+1)*cols])
	}
	return nil
}

func checkIndices(op string, idx []int, limit int) error {
	for i, v := range idx {
		if v < 0 || v >= limit {
			return errors.Wrapf(ErrInvalidIndex, "%s: index %d at position %d out of range [0, %d)", op, v, i, limit)
		}
	}
	return nil
}

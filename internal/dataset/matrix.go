package dataset

import "fmt"

// Matrix holds small integer codes in row-major order.
// One flat array, so a row is a sub-slice and scans stay cache friendly.
type Matrix struct {
	rows int
	cols int
	data []int32
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([]int32, rows*cols)}
}

// FromRows copies a slice of equally sized rows into a matrix.
func FromRows(rows [][]int32) (*Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), nil
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(r), cols, ErrNonRectangular)
		}
		copy(m.data[i*cols:], r)
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Columns returns the number of columns.
func (m *Matrix) Columns() int { return m.cols }

// Row returns row i as a sub-slice of the backing array.
func (m *Matrix) Row(i int) []int32 {
	off := i * m.cols
	return m.data[off : off+m.cols : off+m.cols]
}

// Get returns the code at (row, col).
func (m *Matrix) Get(row, col int) int32 { return m.data[row*m.cols+col] }

// Set writes the code at (row, col).
func (m *Matrix) Set(row, col int, v int32) { m.data[row*m.cols+col] = v }

// Data exposes the backing array.
func (m *Matrix) Data() []int32 { return m.data }

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]int32, len(m.data))}
	copy(c.data, m.data)
	return c
}

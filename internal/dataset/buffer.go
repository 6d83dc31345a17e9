package dataset

import "github.com/arx-deidentifier/arx-sub007/internal/lattice"

// Buffer is the generalized output matrix shared by successive evaluations.
//
// It is exclusively owned by one checker and overwritten in place by every
// full transformation. Its content is valid until the next apply call;
// callers that need it longer must Clone the matrix.
type Buffer struct {
	*Matrix
	reflects *lattice.Transformation
}

// NewBuffer allocates a buffer for rows x cols generalized codes.
func NewBuffer(rows, cols int) *Buffer {
	return &Buffer{Matrix: NewMatrix(rows, cols)}
}

// Transformation returns the transformation whose rows the buffer currently
// holds, or nil when the last evaluation did not materialize rows.
func (b *Buffer) Transformation() *lattice.Transformation { return b.reflects }

// MarkWritten records that every row was written for t.
func (b *Buffer) MarkWritten(t *lattice.Transformation) { b.reflects = t }

// Invalidate records that the rows no longer match any transformation.
func (b *Buffer) Invalidate() { b.reflects = nil }

package dataset

import "fmt"

// SuppressedValue is registered in every quasi-identifier dictionary and
// written over the rows of suppressed equivalence classes.
const SuppressedValue = "*"

// Raw holds parsed, dictionary encoded columns before hierarchies are attached.
type Raw struct {
	// Quasi-identifiers (generalized through hierarchies)
	Header       []string
	Input        *Matrix
	Dictionaries []*Dictionary

	// Analyzed columns (sensitive and microaggregated attributes)
	AnalyzedHeader       []string
	Analyzed             *Matrix
	AnalyzedDictionaries []*Dictionary
}

// Dataset is the read-only encoded input of a search.
type Dataset struct {
	raw         *Raw
	hierarchies []*Hierarchy
	suppressed  []int32
	maxLevels   []int
}

// New validates raw against the hierarchies and registers the suppression
// code of every quasi-identifier column.
func New(raw *Raw, hierarchies []*Hierarchy) (*Dataset, error) {
	cols := raw.Input.Columns()
	if len(hierarchies) != cols || len(raw.Dictionaries) != cols {
		return nil, fmt.Errorf("%d columns, %d hierarchies, %d dictionaries: %w",
			cols, len(hierarchies), len(raw.Dictionaries), ErrHierarchyCount)
	}
	if raw.Analyzed != nil && raw.Analyzed.Columns() > 0 && raw.Analyzed.Rows() != raw.Input.Rows() {
		return nil, fmt.Errorf("%d analyzed rows, %d input rows: %w", raw.Analyzed.Rows(), raw.Input.Rows(), ErrRowCount)
	}

	for row := 0; row < raw.Input.Rows(); row++ {
		for col, code := range raw.Input.Row(row) {
			if !hierarchies[col].Covers(code) {
				return nil, fmt.Errorf("column %q value %q: %w",
					headerName(raw.Header, col), raw.Dictionaries[col].Value(code), ErrUncoveredValue)
			}
		}
	}

	d := &Dataset{
		raw:         raw,
		hierarchies: hierarchies,
		suppressed:  make([]int32, cols),
		maxLevels:   make([]int, cols),
	}
	for col, h := range hierarchies {
		d.suppressed[col] = raw.Dictionaries[col].Register(SuppressedValue)
		d.maxLevels[col] = h.Height()
	}
	if d.raw.Analyzed == nil {
		d.raw.Analyzed = NewMatrix(raw.Input.Rows(), 0)
	}
	return d, nil
}

func headerName(header []string, col int) string {
	if col < len(header) {
		return header[col]
	}
	return fmt.Sprintf("#%d", col)
}

// Rows returns the number of records.
func (d *Dataset) Rows() int { return d.raw.Input.Rows() }

// Dimensions returns the number of quasi-identifiers.
func (d *Dataset) Dimensions() int { return d.raw.Input.Columns() }

// Input returns the encoded quasi-identifier matrix.
func (d *Dataset) Input() *Matrix { return d.raw.Input }

// Analyzed returns the encoded analyzed matrix (may have zero columns).
func (d *Dataset) Analyzed() *Matrix { return d.raw.Analyzed }

// Hierarchy returns the hierarchy of quasi-identifier col.
func (d *Dataset) Hierarchy(col int) *Hierarchy { return d.hierarchies[col] }

// Hierarchies returns all hierarchies. Callers must not modify it.
func (d *Dataset) Hierarchies() []*Hierarchy { return d.hierarchies }

// MaxLevels returns the hierarchy height per quasi-identifier.
func (d *Dataset) MaxLevels() []int { return d.maxLevels }

// SuppressionCode returns the code written for suppressed cells of col.
func (d *Dataset) SuppressionCode(col int) int32 { return d.suppressed[col] }

// SuppressionCodes returns the suppression code of every quasi-identifier.
func (d *Dataset) SuppressionCodes() []int32 { return d.suppressed }

// Header returns the quasi-identifier names.
func (d *Dataset) Header() []string { return d.raw.Header }

// AnalyzedHeader returns the analyzed column names.
func (d *Dataset) AnalyzedHeader() []string { return d.raw.AnalyzedHeader }

// Dictionary returns the dictionary of quasi-identifier col.
func (d *Dataset) Dictionary(col int) *Dictionary { return d.raw.Dictionaries[col] }

// AnalyzedDictionary returns the dictionary of analyzed column col.
func (d *Dataset) AnalyzedDictionary(col int) *Dictionary { return d.raw.AnalyzedDictionaries[col] }

// AnalyzedDictionaries returns all analyzed dictionaries. Callers must not modify it.
func (d *Dataset) AnalyzedDictionaries() []*Dictionary { return d.raw.AnalyzedDictionaries }

// AnalyzedIndex returns the position of an analyzed column by name.
func (d *Dataset) AnalyzedIndex(name string) (int, bool) {
	for i, h := range d.raw.AnalyzedHeader {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Package dataset provides the column-addressable numeric matrix evaluated
// trees run against, with hash-based variable lookup, row ranges and the
// usual column transforms.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"

	"symreg/internal/genotype"
	"symreg/internal/stats"
)

// ErrViewNotMutable reports a mutating operation on a dataset that borrows
// its storage.
var ErrViewNotMutable = errors.New("dataset is a view and cannot be mutated")

// Variable binds a column name to its index and the hash of its name.
// Lookups go through the hash so hot paths never touch strings.
type Variable struct {
	Name  string
	Hash  uint64
	Index int
}

// Range is a half-open [Start, Start+Size) interval over rows.
type Range struct {
	Start int
	Size  int
}

func (r Range) End() int { return r.Start + r.Size }

// Dataset is a column-major float32 matrix with a variable table sorted by
// hash. A dataset either owns its columns or borrows them (view mode); view
// datasets reject mutating operations.
type Dataset struct {
	variables []Variable
	columns   [][]float32
	rows      int
	view      bool
}

func defaultVariables(count int) []Variable {
	vars := make([]Variable, count)
	for i := range vars {
		name := fmt.Sprintf("X%d", i+1)
		vars[i] = Variable{Name: name, Hash: genotype.HashBytes(genotype.HashXXHash, []byte(name)), Index: i}
	}
	sortByHash(vars)
	return vars
}

func sortByHash(vars []Variable) {
	sort.Slice(vars, func(a, b int) bool { return vars[a].Hash < vars[b].Hash })
}

// FromRows copies a row-major matrix into an owning dataset with auto-named
// variables X1..Xn.
func FromRows(rows [][]float32) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.New("dataset: no rows")
	}
	ncol := len(rows[0])
	columns := make([][]float32, ncol)
	for j := range columns {
		columns[j] = make([]float32, len(rows))
	}
	for i, row := range rows {
		if len(row) != ncol {
			return nil, fmt.Errorf("dataset: row %d has %d fields, want %d", i, len(row), ncol)
		}
		for j, v := range row {
			columns[j][i] = v
		}
	}
	return &Dataset{variables: defaultVariables(ncol), columns: columns, rows: len(rows)}, nil
}

// FromColumns wraps existing column storage without copying. The resulting
// dataset is a view: shuffle and the normalization transforms fail with
// ErrViewNotMutable.
func FromColumns(columns [][]float32) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, errors.New("dataset: no columns")
	}
	rows := len(columns[0])
	for j, col := range columns {
		if len(col) != rows {
			return nil, fmt.Errorf("dataset: column %d has %d rows, want %d", j, len(col), rows)
		}
	}
	return &Dataset{variables: defaultVariables(len(columns)), columns: columns, rows: rows, view: true}, nil
}

func (d *Dataset) Rows() int { return d.rows }

func (d *Dataset) Cols() int { return len(d.columns) }

func (d *Dataset) IsView() bool { return d.view }

// Variables returns the variable table, sorted by hash.
func (d *Dataset) Variables() []Variable { return d.variables }

// VariableNames returns the column names in hash order.
func (d *Dataset) VariableNames() []string {
	names := make([]string, len(d.variables))
	for i, v := range d.variables {
		names[i] = v.Name
	}
	return names
}

// SetVariableNames rebinds column names, rehashing and resorting the
// variable table.
func (d *Dataset) SetVariableNames(names []string) error {
	if len(names) != len(d.columns) {
		return fmt.Errorf("dataset: %d names for %d columns", len(names), len(d.columns))
	}
	vars := make([]Variable, len(names))
	for i, name := range names {
		vars[i] = Variable{Name: name, Hash: genotype.HashBytes(genotype.HashXXHash, []byte(name)), Index: i}
	}
	sortByHash(vars)
	d.variables = vars
	return nil
}

// GetVariable looks a variable up by name.
func (d *Dataset) GetVariable(name string) (Variable, bool) {
	return d.GetVariableByHash(genotype.HashBytes(genotype.HashXXHash, []byte(name)))
}

// GetVariableByHash looks a variable up by name hash via binary search.
func (d *Dataset) GetVariableByHash(hash uint64) (Variable, bool) {
	i := sort.Search(len(d.variables), func(i int) bool { return d.variables[i].Hash >= hash })
	if i < len(d.variables) && d.variables[i].Hash == hash {
		return d.variables[i], true
	}
	return Variable{}, false
}

// Values returns the column bound to the named variable.
func (d *Dataset) Values(name string) ([]float32, bool) {
	return d.ValuesByHash(genotype.HashBytes(genotype.HashXXHash, []byte(name)))
}

// ValuesByHash returns the column bound to the given variable hash.
func (d *Dataset) ValuesByHash(hash uint64) ([]float32, bool) {
	v, ok := d.GetVariableByHash(hash)
	if !ok {
		return nil, false
	}
	return d.columns[v.Index], true
}

// Column returns column storage by index.
func (d *Dataset) Column(index int) []float32 { return d.columns[index] }

// Shuffle permutes the rows in place.
func (d *Dataset) Shuffle(rng *rand.Rand) error {
	if d.view {
		return ErrViewNotMutable
	}
	rng.Shuffle(d.rows, func(i, j int) {
		for _, col := range d.columns {
			col[i], col[j] = col[j], col[i]
		}
	})
	return nil
}

// Normalize rescales column i to [0, 1] using the min and max observed over
// the given row range.
func (d *Dataset) Normalize(i int, r Range) error {
	if d.view {
		return ErrViewNotMutable
	}
	if err := d.checkRange(r); err != nil {
		return err
	}
	col := d.columns[i]
	min, max := col[r.Start], col[r.Start]
	for _, v := range col[r.Start:r.End()] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	for k := range col {
		col[k] = (col[k] - min) / span
	}
	return nil
}

// Standardize centers column i on the mean and divides by the standard
// deviation, both computed over the given row range.
func (d *Dataset) Standardize(i int, r Range) error {
	if d.view {
		return ErrViewNotMutable
	}
	if err := d.checkRange(r); err != nil {
		return err
	}
	col := d.columns[i]
	var calc stats.MeanVarianceCalculator
	vals := make([]float64, r.Size)
	for k, v := range col[r.Start:r.End()] {
		vals[k] = float64(v)
	}
	calc.AddSlice(vals)
	mean := calc.Mean()
	stddev := calc.StandardDeviation()
	for k := range col {
		col[k] = float32((float64(col[k]) - mean) / stddev)
	}
	return nil
}

// StandardizeAll standardizes every column concurrently.
func (d *Dataset) StandardizeAll(r Range) error {
	if d.view {
		return ErrViewNotMutable
	}
	var g errgroup.Group
	for i := range d.columns {
		g.Go(func() error { return d.Standardize(i, r) })
	}
	return g.Wait()
}

// NormalizeAll normalizes every column concurrently.
func (d *Dataset) NormalizeAll(r Range) error {
	if d.view {
		return ErrViewNotMutable
	}
	var g errgroup.Group
	for i := range d.columns {
		g.Go(func() error { return d.Normalize(i, r) })
	}
	return g.Wait()
}

func (d *Dataset) checkRange(r Range) error {
	if r.Start < 0 || r.Size < 0 || r.End() > d.rows {
		return fmt.Errorf("dataset: range [%d, %d) outside %d rows", r.Start, r.End(), d.rows)
	}
	return nil
}

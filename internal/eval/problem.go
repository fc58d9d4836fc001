package eval

import (
	"fmt"

	"symreg/internal/dataset"
	"symreg/internal/genotype"
)

// Problem binds a dataset, a primitive set, the target variable and the
// training/test row ranges into the context an evolutionary run operates in.
// Immutable during a run; read-shared by every worker.
type Problem struct {
	Dataset    *dataset.Dataset
	Primitives *genotype.PrimitiveSet
	Training   dataset.Range
	Test       dataset.Range

	target dataset.Variable
	inputs []dataset.Variable
}

// NewProblem validates ranges and resolves the target column. Every other
// column becomes an input variable available to tree synthesis.
func NewProblem(ds *dataset.Dataset, pset *genotype.PrimitiveSet, target string, training, test dataset.Range) (*Problem, error) {
	if ds == nil || pset == nil {
		return nil, fmt.Errorf("problem: dataset and primitive set are required")
	}
	for _, r := range []dataset.Range{training, test} {
		if r.Start < 0 || r.Size < 0 || r.End() > ds.Rows() {
			return nil, fmt.Errorf("problem: range [%d, %d) outside %d rows", r.Start, r.End(), ds.Rows())
		}
	}
	tv, ok := ds.GetVariable(target)
	if !ok {
		return nil, fmt.Errorf("problem: target variable %q not in dataset", target)
	}
	var inputs []dataset.Variable
	for _, v := range ds.Variables() {
		if v.Hash != tv.Hash {
			inputs = append(inputs, v)
		}
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("problem: no input variables besides the target")
	}
	return &Problem{
		Dataset:    ds,
		Primitives: pset,
		Training:   training,
		Test:       test,
		target:     tv,
		inputs:     inputs,
	}, nil
}

// Target returns the target variable.
func (p *Problem) Target() dataset.Variable { return p.target }

// Inputs returns the input variables, sorted by hash.
func (p *Problem) Inputs() []dataset.Variable { return p.inputs }

// TargetValues returns the target column restricted to a row range.
func (p *Problem) TargetValues(r dataset.Range) []float32 {
	col, _ := p.Dataset.ValuesByHash(p.target.Hash)
	return col[r.Start:r.End()]
}

// VariableNames maps variable hashes to names, for rendering expressions.
func (p *Problem) VariableNames() map[uint64]string {
	names := make(map[uint64]string, len(p.inputs)+1)
	for _, v := range p.Dataset.Variables() {
		names[v.Hash] = v.Name
	}
	return names
}

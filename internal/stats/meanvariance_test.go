package stats

import (
	"math"
	"math/rand"
	"testing"
)

func naiveMeanVar(vals []float64) (mean, variance float64) {
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(vals))
	return mean, variance
}

func TestScalarAddMatchesTwoPass(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	vals := make([]float64, 1000)
	for i := range vals {
		vals[i] = rng.NormFloat64()*3 + 7
	}
	var c MeanVarianceCalculator
	for _, v := range vals {
		c.Add(v)
	}
	mean, variance := naiveMeanVar(vals)
	if math.Abs(c.Mean()-mean) > 1e-9 {
		t.Fatalf("mean mismatch: %g vs %g", c.Mean(), mean)
	}
	if math.Abs(c.NaiveVariance()-variance) > 1e-9 {
		t.Fatalf("variance mismatch: %g vs %g", c.NaiveVariance(), variance)
	}
}

func TestAddSliceMatchesScalarAdds(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	vals := make([]float64, 500)
	for i := range vals {
		vals[i] = rng.Float64() * 100
	}
	var a, b MeanVarianceCalculator
	for _, v := range vals {
		a.Add(v)
	}
	b.AddSlice(vals)
	if math.Abs(a.Mean()-b.Mean()) > 1e-9 {
		t.Fatalf("mean mismatch: %g vs %g", a.Mean(), b.Mean())
	}
	if math.Abs(a.SampleVariance()-b.SampleVariance()) > 1e-6 {
		t.Fatalf("variance mismatch: %g vs %g", a.SampleVariance(), b.SampleVariance())
	}
}

func TestCombineIsAssociative(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	parts := make([][]float64, 4)
	var all []float64
	for i := range parts {
		parts[i] = make([]float64, 100+i*13)
		for j := range parts[i] {
			parts[i][j] = rng.NormFloat64()
		}
		all = append(all, parts[i]...)
	}

	// left fold
	var left MeanVarianceCalculator
	for _, p := range parts {
		var c MeanVarianceCalculator
		c.AddSlice(p)
		left.Combine(c)
	}

	// pairwise
	var c0, c1, c2, c3 MeanVarianceCalculator
	c0.AddSlice(parts[0])
	c1.AddSlice(parts[1])
	c2.AddSlice(parts[2])
	c3.AddSlice(parts[3])
	c0.Combine(c1)
	c2.Combine(c3)
	c0.Combine(c2)

	var whole MeanVarianceCalculator
	whole.AddSlice(all)

	if math.Abs(left.Mean()-whole.Mean()) > 1e-9 || math.Abs(c0.Mean()-whole.Mean()) > 1e-9 {
		t.Fatalf("combined means diverge: %g %g %g", left.Mean(), c0.Mean(), whole.Mean())
	}
	if math.Abs(left.NaiveVariance()-whole.NaiveVariance()) > 1e-8 ||
		math.Abs(c0.NaiveVariance()-whole.NaiveVariance()) > 1e-8 {
		t.Fatalf("combined variances diverge: %g %g %g", left.NaiveVariance(), c0.NaiveVariance(), whole.NaiveVariance())
	}
}

func TestWeightedAdd(t *testing.T) {
	var a MeanVarianceCalculator
	a.AddWeighted(2, 3) // three observations of value 2
	a.AddWeighted(5, 1)
	var b MeanVarianceCalculator
	b.AddSlice([]float64{2, 2, 2, 5})
	if math.Abs(a.Mean()-b.Mean()) > 1e-9 {
		t.Fatalf("weighted mean mismatch: %g vs %g", a.Mean(), b.Mean())
	}
	if a.Count() != 4 {
		t.Fatalf("weighted count: got %g", a.Count())
	}
}

func TestZeroWeightIsNoop(t *testing.T) {
	var c MeanVarianceCalculator
	c.Add(1)
	c.AddWeighted(100, 0)
	if c.Count() != 1 || c.Mean() != 1 {
		t.Fatalf("zero weight mutated the accumulator: n=%g mean=%g", c.Count(), c.Mean())
	}
}

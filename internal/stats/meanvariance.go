// Package stats provides streaming statistical accumulators used by the
// evaluation pipeline and run diagnostics.
package stats

import "math"

// MeanVarianceCalculator accumulates mean and variance in a numerically
// stable way. The zero value is ready to use. Combine is associative, so
// per-worker instances can be merged at a barrier without changing the
// result beyond floating-point reassociation.
type MeanVarianceCalculator struct {
	m2  float64
	sum float64
	n   float64
}

func (c *MeanVarianceCalculator) Reset() {
	c.m2 = 0
	c.sum = 0
	c.n = 0
}

// Add accumulates a single observation.
func (c *MeanVarianceCalculator) Add(val float64) {
	if c.n <= 0 {
		c.n = 1
		c.sum = val
		c.m2 = 0
		return
	}
	tmp := c.n*val - c.sum
	oldn := c.n
	c.n++
	c.sum += val
	c.m2 += tmp * tmp / (c.n * oldn)
}

// AddWeighted accumulates an observation with the given weight. A zero
// weight is a no-op.
func (c *MeanVarianceCalculator) AddWeighted(val, weight float64) {
	if weight == 0 {
		return
	}
	if c.n <= 0 {
		c.n = weight
		c.sum = val * weight
		return
	}
	val *= weight
	tmp := c.n*val - c.sum*weight
	oldn := c.n
	c.n += weight
	c.sum += val
	c.m2 += tmp * tmp / (weight * c.n * oldn)
}

// AddSlice accumulates a batch of observations using a two-pass update for
// better accuracy than repeated scalar adds.
func (c *MeanVarianceCalculator) AddSlice(vals []float64) {
	l := len(vals)
	if l < 2 {
		if l == 1 {
			c.Add(vals[0])
		}
		return
	}
	var s1 float64
	for _, v := range vals {
		s1 += v
	}
	om1 := s1 / float64(l)
	var om2, err float64
	for _, v := range vals {
		d := v - om1
		om2 += d * d
		err += d
	}
	s1 += err
	om2 += err / float64(l)
	if c.n <= 0 {
		c.n = float64(l)
		c.sum = s1
		c.m2 = om2
		return
	}
	tmp := c.n*s1 - c.sum*float64(l)
	oldn := c.n
	c.n += float64(l)
	c.sum += s1 + err
	c.m2 += om2 + tmp*tmp/(float64(l)*c.n*oldn)
}

// Combine merges the accumulated state of another calculator into this one.
func (c *MeanVarianceCalculator) Combine(other MeanVarianceCalculator) {
	if other.n <= 0 {
		return
	}
	if c.n <= 0 {
		*c = other
		return
	}
	tmp := c.n*other.sum - c.sum*other.n
	oldn := c.n
	c.n += other.n
	c.sum += other.sum
	c.m2 += other.m2 + tmp*tmp/(other.n*c.n*oldn)
}

func (c *MeanVarianceCalculator) Count() float64 { return c.n }

func (c *MeanVarianceCalculator) Mean() float64 { return c.sum / c.n }

// NaiveVariance is the population variance m2/n.
func (c *MeanVarianceCalculator) NaiveVariance() float64 { return c.m2 / c.n }

// SampleVariance is the bias-corrected variance m2/(n-1).
func (c *MeanVarianceCalculator) SampleVariance() float64 { return c.m2 / (c.n - 1) }

func (c *MeanVarianceCalculator) SumOfSquares() float64 { return c.m2 }

func (c *MeanVarianceCalculator) StandardDeviation() float64 {
	return math.Sqrt(c.SampleVariance())
}

// Package matutils provides utilities for working with gonum matrices
// and vectors
package matutils

import (
	"gonum.org/v1/gonum/mat"
)

// VecData returns the data backing a vector as a []float64. If the
// vector is a *mat.VecDense with unit stride, the backing slice is
// returned directly; otherwise the data is copied.
func VecData(v mat.Vector) []float64 {
	if dense, ok := v.(*mat.VecDense); ok {
		if raw := dense.RawVector(); raw.Inc == 1 {
			return raw.Data
		}
	}

	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}

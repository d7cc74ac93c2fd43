package domain

import (
	"fmt"
	"math"
)

// Vector is an immutable fixed-length embedding.
// The zero value is a vector of dimension 0.
type Vector struct {
	data []float32
}

// NewVector copies values into a new Vector.
func NewVector(values []float32) Vector {
	data := make([]float32, len(values))
	copy(data, values)
	return Vector{data: data}
}

// NewVector64 converts float64 values into a new Vector.
func NewVector64(values []float64) Vector {
	data := make([]float32, len(values))
	for i, v := range values {
		data[i] = float32(v)
	}
	return Vector{data: data}
}

// Dim returns the number of components.
func (v Vector) Dim() int { return len(v.data) }

// At returns the i-th component.
func (v Vector) At(i int) float32 { return v.data[i] }

// Values returns a copy of the components.
func (v Vector) Values() []float32 {
	out := make([]float32, len(v.data))
	copy(out, v.data)
	return out
}

// Dot returns the dot product, accumulated in float64.
// It panics if the dimensions differ.
func (v Vector) Dot(o Vector) float64 {
	if len(v.data) != len(o.data) {
		panic(fmt.Sprintf("vector dimension mismatch: %d vs %d", len(v.data), len(o.data)))
	}
	sum := 0.0
	for i := range v.data {
		sum += float64(v.data[i]) * float64(o.data[i])
	}
	return sum
}

// Norm returns the Euclidean length.
func (v Vector) Norm() float64 {
	sum := 0.0
	for _, x := range v.data {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// IsZero reports whether every component is zero.
func (v Vector) IsZero() bool {
	for _, x := range v.data {
		if x != 0 {
			return false
		}
	}
	return true
}

// Cosine returns dot(v,o) / (|v|·|o|), or 0 when either norm is zero.
func (v Vector) Cosine(o Vector) float64 {
	return CosineWithNorms(v, o, v.Norm(), o.Norm())
}

// CosineWithNorms is Cosine with precomputed norms.
func CosineWithNorms(a, b Vector, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return a.Dot(b) / (normA * normB)
}

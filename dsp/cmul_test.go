package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// The unrolled kernel matches the scalar reference elementwise.
func TestMulVecMatchesScalar(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 257).Draw(t, "n")
		x0 := make([]complex128, n)
		x1 := make([]complex128, n)
		for i := 0; i < n; i++ {
			x0[i] = complex(
				rapid.Float64Range(-1e3, 1e3).Draw(t, "re0"),
				rapid.Float64Range(-1e3, 1e3).Draw(t, "im0"))
			x1[i] = complex(
				rapid.Float64Range(-1e3, 1e3).Draw(t, "re1"),
				rapid.Float64Range(-1e3, 1e3).Draw(t, "im1"))
		}

		got := make([]complex128, n)
		want := make([]complex128, n)
		MulVec(got, x0, x1)
		mulVecScalar(want, x0, x1)

		for i := 0; i < n; i++ {
			if real(want[i]) != 0 || imag(want[i]) != 0 {
				assert.InDelta(t, real(want[i]), real(got[i]), 1e-6)
				assert.InDelta(t, imag(want[i]), imag(got[i]), 1e-6)
			} else {
				assert.Equal(t, want[i], got[i])
			}
		}
	})
}

func TestMulVecValues(t *testing.T) {
	x0 := []complex128{1 + 2i, 3 - 1i, -2 + 0i, 0 + 1i, 5 + 5i}
	x1 := []complex128{2 + 0i, 1 + 1i, 4 - 3i, 0 - 1i, 1 + 0i}
	dst := make([]complex128, len(x0))
	MulVec(dst, x0, x1)

	want := []complex128{2 + 4i, 4 + 2i, -8 + 6i, 1 + 0i, 5 + 5i}
	assert.Equal(t, want, dst)
}

func TestMulVecLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		MulVec(make([]complex128, 4), make([]complex128, 3), make([]complex128, 4))
	})
}

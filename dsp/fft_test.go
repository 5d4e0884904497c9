package dsp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Inverse(Forward(x)) equals N*x under the unnormalized convention.
func TestFFTRoundTrip(t *testing.T) {
	const n = 2048
	fft, err := NewFFT(n)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}

	freq := make([]complex128, n)
	back := make([]complex128, n)
	fft.Forward(freq, x)
	fft.Inverse(back, freq)

	for i := range x {
		got := back[i] / complex(float64(n), 0)
		assert.InDelta(t, real(x[i]), real(got), 1e-4)
		assert.InDelta(t, imag(x[i]), imag(got), 1e-4)
	}
}

// The transform is linear: Forward(a*x + y) == a*Forward(x) + Forward(y).
func TestFFTLinearity(t *testing.T) {
	const n = 256
	fft, err := NewFFT(n)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	x := make([]complex128, n)
	y := make([]complex128, n)
	mixed := make([]complex128, n)
	a := complex(1.5, -0.25)
	for i := range x {
		x[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		y[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		mixed[i] = a*x[i] + y[i]
	}

	fx := make([]complex128, n)
	fy := make([]complex128, n)
	fmixed := make([]complex128, n)
	fft.Forward(fx, x)
	fft.Forward(fy, y)
	fft.Forward(fmixed, mixed)

	for i := range fmixed {
		want := a*fx[i] + fy[i]
		assert.InDelta(t, real(want), real(fmixed[i]), 1e-8)
		assert.InDelta(t, imag(want), imag(fmixed[i]), 1e-8)
	}
}

func TestFFTImpulse(t *testing.T) {
	const n = 64
	fft, err := NewFFT(n)
	require.NoError(t, err)

	x := make([]complex128, n)
	x[0] = 1
	freq := make([]complex128, n)
	fft.Forward(freq, x)

	// A unit impulse transforms to an all-ones spectrum.
	for i := range freq {
		assert.InDelta(t, 1.0, real(freq[i]), 1e-10)
		assert.InDelta(t, 0.0, imag(freq[i]), 1e-10)
	}
}

func TestNewFFTValidation(t *testing.T) {
	_, err := NewFFT(0)
	assert.Error(t, err)
	_, err = NewFFT(-4)
	assert.Error(t, err)
}

func TestFFTLengthMismatchPanics(t *testing.T) {
	fft, err := NewFFT(16)
	require.NoError(t, err)
	assert.Panics(t, func() { fft.Forward(make([]complex128, 16), make([]complex128, 8)) })
	assert.Panics(t, func() { fft.Inverse(make([]complex128, 8), make([]complex128, 16)) })
}

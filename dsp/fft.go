package dsp

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT wraps a gonum complex FFT plan for a fixed block size.
//
// The inverse transform is unnormalized: Inverse(Forward(x)) == N*x.
// Callers that need unit round trips divide by N (the correlator folds
// its own scaling into the magnitude step instead).
//
// A plan carries internal scratch state and is not safe for concurrent
// use; every goroutine that transforms must own its own FFT.
type FFT struct {
	n    int
	plan *fourier.CmplxFFT
}

// NewFFT creates a plan for blocks of n complex samples.
func NewFFT(n int) (*FFT, error) {
	if n <= 0 {
		return nil, fmt.Errorf("fft: invalid block size %d", n)
	}
	return &FFT{
		n:    n,
		plan: fourier.NewCmplxFFT(n),
	}, nil
}

// N returns the block size the plan was built for.
func (f *FFT) N() int {
	return f.n
}

// Forward computes the forward transform of src into dst.
// Both slices must have length N.
func (f *FFT) Forward(dst, src []complex128) {
	if len(src) != f.n || len(dst) != f.n {
		panic(fmt.Sprintf("fft: forward length mismatch dst=%d src=%d want=%d", len(dst), len(src), f.n))
	}
	f.plan.Coefficients(dst, src)
}

// Inverse computes the unnormalized inverse transform of src into dst.
// Both slices must have length N.
func (f *FFT) Inverse(dst, src []complex128) {
	if len(src) != f.n || len(dst) != f.n {
		panic(fmt.Sprintf("fft: inverse length mismatch dst=%d src=%d want=%d", len(dst), len(src), f.n))
	}
	f.plan.Sequence(dst, src)
}

package dsp

import "math/cmplx"

// FFTShift cyclically rotates x by floor(N/2) in place so the zero-lag
// bin lands in the center of the array.
//
// The even-N case is a pairwise half swap with no allocation; the
// default acquisition configuration produces even N (2048). The odd-N
// case allocates a scratch buffer.
func FFTShift(x []complex128) {
	n := len(x)
	if n < 2 {
		return
	}
	half := n / 2
	if n%2 == 0 {
		for i := 0; i < half; i++ {
			x[i], x[i+half] = x[i+half], x[i]
		}
		return
	}
	// Odd N: element i moves to (i + half) mod N.
	tmp := make([]complex128, n)
	for i := 0; i < n; i++ {
		tmp[(i+half)%n] = x[i]
	}
	copy(x, tmp)
}

// MagnitudeScaled writes |src[i]| * scale into dst.
func MagnitudeScaled(dst []float64, src []complex128, scale float64) {
	if len(dst) != len(src) {
		panic("dsp: MagnitudeScaled length mismatch")
	}
	for i := range src {
		dst[i] = cmplx.Abs(src[i]) * scale
	}
}

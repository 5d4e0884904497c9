package dsp

import "math"

// ApplyFrequencyShift multiplies src by a complex exponential of
// normalized rate k (cycles per sample), writing the result into dst.
//
// The phase accumulator is reduced mod 2*pi at every sample. Without the
// reduction the accumulated phase loses precision over long blocks and
// the late samples of the shifted replica drift off frequency.
func ApplyFrequencyShift(dst, src []complex128, k float64) {
	if len(dst) != len(src) {
		panic("dsp: ApplyFrequencyShift length mismatch")
	}
	step := 2.0 * math.Pi * k
	phase := 0.0
	for i := range src {
		s, c := math.Sincos(phase)
		phase = math.Mod(phase+step, 2.0*math.Pi)
		dst[i] = src[i] * complex(c, s)
	}
}

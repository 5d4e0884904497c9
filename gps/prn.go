package gps

import "fmt"

// Gold code generation for the GPS L1 C/A PRN codes.
// Reference: https://natronics.github.io/blag/2014/gps-prn/

const (
	// CodeLength is the number of chips in one C/A code period.
	CodeLength = 1023
	// TotalPRNCodes is the number of satellite codes generated.
	TotalPRNCodes = 32

	totalRegisterBits = 10
)

// LFSR feedback and output masks over the 10-bit registers.
const (
	feedbackTapsG1 = 0b0010000001
	feedbackTapsG2 = 0b0110010111
	outputTapsO1   = 0b0000000001
)

// prnOutputTaps selects, per PRN, the pair of G2 register bits that are
// summed into the output. Tap t contributes the bit at shift 10-t.
var prnOutputTaps = [TotalPRNCodes][2]int{
	{2, 6},
	{3, 7},
	{4, 8},
	{5, 9},
	{1, 9},
	{2, 10},
	{1, 8},
	{2, 9},
	{3, 10},
	{2, 3},
	{3, 4},
	{5, 6},
	{6, 7},
	{7, 8},
	{8, 9},
	{9, 10},
	{1, 4},
	{2, 5},
	{3, 6},
	{4, 7},
	{5, 8},
	{6, 9},
	{1, 3},
	{4, 6},
	{5, 7},
	{6, 8},
	{7, 9},
	{8, 10},
	{1, 6},
	{2, 7},
	{3, 8},
	{4, 9},
}

// parityLUT maps a 10-bit register value to its mod-2 bit sum, so the
// generator loop avoids a per-sample popcount.
var parityLUT = generateParityLUT(totalRegisterBits)

func generateParityLUT(totalBits int) []uint8 {
	totalStates := 1 << totalBits
	lut := make([]uint8, totalStates)
	for i := 0; i < totalStates; i++ {
		reg := uint16(i)
		sum := uint16(0)
		for j := 0; j < totalBits; j++ {
			sum ^= reg & 0b1
			reg >>= 1
		}
		lut[i] = uint8(sum)
	}
	return lut
}

// GeneratePRNCode returns the 1023-chip Gold code for prnID in [0, 32).
// The sequence is deterministic; chips are 0 or 1.
func GeneratePRNCode(prnID int) []uint8 {
	if prnID < 0 || prnID >= TotalPRNCodes {
		panic(fmt.Sprintf("gps: prn id %d out of range [0,%d)", prnID, TotalPRNCodes))
	}

	var outputTapsO2 uint16
	for _, tap := range prnOutputTaps[prnID] {
		shift := totalRegisterBits - tap
		outputTapsO2 |= 1 << shift
	}
	outputTapsO2 &= (1 << totalRegisterBits) - 1

	// Both registers start all ones.
	r1 := uint16(1<<totalRegisterBits) - 1
	r2 := uint16(1<<totalRegisterBits) - 1

	code := make([]uint8, CodeLength)
	for i := range code {
		code[i] = parityLUT[r1&outputTapsO1] ^ parityLUT[r2&outputTapsO2]

		f1 := uint16(parityLUT[r1&feedbackTapsG1])
		f2 := uint16(parityLUT[r2&feedbackTapsG2])
		r1 = (r1 >> 1) | (f1 << (totalRegisterBits - 1))
		r2 = (r2 >> 1) | (f2 << (totalRegisterBits - 1))
	}
	return code
}

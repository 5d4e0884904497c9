package gps

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamyang98/GPS-Correlation/dsp"
)

// synthesizeSignal builds what an ideal zero-delay receiver would see:
// the PRN code nearest-neighbour upsampled (without the correlator's
// time reversal), mapped to +/-1 and shifted by offsetHz.
func synthesizeSignal(code []uint8, blockSize, fs int, offsetHz float64) []complex128 {
	base := make([]complex128, blockSize)
	xScale := float64(len(code)-1) / float64(blockSize-1)
	for i := range base {
		v := 2.0*float64(code[int(float64(i)*xScale)]) - 1.0
		base[i] = complex(v, 0)
	}
	out := make([]complex128, blockSize)
	dsp.ApplyFrequencyShift(out, base, offsetHz/float64(fs))
	return out
}

func TestCorrelatorDopplerGrid(t *testing.T) {
	code := GeneratePRNCode(0)
	c, err := NewCorrelator(code, 2000, 1000, 2000000, 6000)
	require.NoError(t, err)

	offsets := c.FrequencyOffsets()
	require.Len(t, offsets, 25)
	assert.Equal(t, -6000.0, offsets[0])
	assert.Equal(t, 0.0, offsets[12])
	assert.Equal(t, 500.0, offsets[13])
	assert.Equal(t, 6000.0, offsets[24])
}

// A clean replica at a grid offset wins its own Doppler bin with the
// peak at zero delay, i.e. the center sample after the fftshift.
func TestCorrelatorCleanSignalPeak(t *testing.T) {
	const (
		blockSize = 2000
		fs        = 2000000
	)
	code := GeneratePRNCode(0)
	c, err := NewCorrelator(code, blockSize, 1000, fs, 6000)
	require.NoError(t, err)

	fft, err := dsp.NewFFT(blockSize)
	require.NoError(t, err)
	inFFT := make([]complex128, blockSize)

	for _, wantBin := range []int{0, 12, 13, 24} {
		offsetHz := c.FrequencyOffsets()[wantBin]
		signal := synthesizeSignal(code, blockSize, fs, offsetHz)
		fft.Forward(inFFT, signal)
		c.Process(inFFT)

		require.Equal(t, wantBin, c.BestFrequencyOffsetIndex(), "offset %v Hz", offsetHz)

		snapshot := c.SnapshotBin(wantBin)
		assert.InDelta(t, blockSize/2, snapshot.PeakIndex, 1, "offset %v Hz", offsetHz)
		assert.Greater(t, snapshot.PeakValue, 0.0)
	}
}

// A circularly delayed signal moves the correlation peak by the same
// delay.
func TestCorrelatorDelayedSignalPeak(t *testing.T) {
	const (
		blockSize = 2000
		fs        = 2000000
		delay     = 321
	)
	code := GeneratePRNCode(3)
	c, err := NewCorrelator(code, blockSize, 1000, fs, 6000)
	require.NoError(t, err)

	signal := synthesizeSignal(code, blockSize, fs, 0)
	delayed := make([]complex128, blockSize)
	for i := range signal {
		delayed[(i+delay)%blockSize] = signal[i]
	}

	fft, err := dsp.NewFFT(blockSize)
	require.NoError(t, err)
	inFFT := make([]complex128, blockSize)
	fft.Forward(inFFT, delayed)
	c.Process(inFFT)

	require.Equal(t, 12, c.BestFrequencyOffsetIndex())
	snapshot := c.SnapshotBin(12)
	assert.InDelta(t, blockSize/2+delay, snapshot.PeakIndex, 1)
}

// Zero input leaves every magnitude at zero and the scan on its seeds.
func TestCorrelatorZeroInput(t *testing.T) {
	code := GeneratePRNCode(0)
	c, err := NewCorrelator(code, 2000, 1000, 2000000, 6000)
	require.NoError(t, err)

	inFFT := make([]complex128, 2000)
	c.Process(inFFT)

	assert.Equal(t, 0, c.BestFrequencyOffsetIndex())
	snapshot := c.SnapshotBin(-1)
	assert.Equal(t, 0, snapshot.PeakIndex)
	assert.Equal(t, 0.0, snapshot.PeakValue)
}

// Repeated processing of the same signal drives the histogram mode to
// the winning bin.
func TestCorrelatorModeTracksRepeatedWins(t *testing.T) {
	const (
		blockSize = 2000
		fs        = 2000000
	)
	code := GeneratePRNCode(7)
	c, err := NewCorrelator(code, blockSize, 1000, fs, 6000)
	require.NoError(t, err)

	signal := synthesizeSignal(code, blockSize, fs, -1500)
	fft, err := dsp.NewFFT(blockSize)
	require.NoError(t, err)
	inFFT := make([]complex128, blockSize)
	fft.Forward(inFFT, signal)

	for i := 0; i < 5; i++ {
		c.Process(inFFT)
	}
	assert.Equal(t, 9, c.ModeFrequencyOffsetIndex())
	assert.Equal(t, -1500.0, c.FrequencyOffsets()[c.ModeFrequencyOffsetIndex()])
}

func TestCorrelatorMagnitudeNormalization(t *testing.T) {
	const blockSize = 2000
	code := GeneratePRNCode(0)
	c, err := NewCorrelator(code, blockSize, 1000, 2000000, 6000)
	require.NoError(t, err)

	signal := synthesizeSignal(code, blockSize, 2000000, 0)
	fft, err := dsp.NewFFT(blockSize)
	require.NoError(t, err)
	inFFT := make([]complex128, blockSize)
	fft.Forward(inFFT, signal)
	c.Process(inFFT)

	// Zero-lag correlation of a +/-1 sequence with itself sums to about
	// N; the unnormalized IFFT contributes another factor of N, leaving
	// the peak near N*N / (2N+1) after scaling.
	snapshot := c.SnapshotBin(12)
	want := float64(blockSize) * float64(blockSize) / float64(2*blockSize+1)
	assert.InEpsilon(t, want, snapshot.PeakValue, 0.05)
}

func TestNewCorrelatorValidation(t *testing.T) {
	code := GeneratePRNCode(0)
	_, err := NewCorrelator(code, 0, 1000, 2000000, 6000)
	assert.Error(t, err)
	_, err = NewCorrelator(code, 2000, 0, 2000000, 6000)
	assert.Error(t, err)
	_, err = NewCorrelator(code, 2000, 1000, 0, 6000)
	assert.Error(t, err)
	_, err = NewCorrelator(code, 2000, 1000, 2000000, -1)
	assert.Error(t, err)
	_, err = NewCorrelator(code[:1], 2000, 1000, 2000000, 6000)
	assert.Error(t, err)
}

func TestFindCorrelationPeak(t *testing.T) {
	index, value := FindCorrelationPeak([]float64{0.5, 2.5, 2.5, 1.0})
	assert.Equal(t, 1, index, "ties resolve to the first occurrence")
	assert.Equal(t, 2.5, value)

	index, value = FindCorrelationPeak(nil)
	assert.Equal(t, 0, index)
	assert.Equal(t, 0.0, value)

	index, value = FindCorrelationPeak([]float64{math.Pi})
	assert.Equal(t, 0, index)
	assert.Equal(t, math.Pi, value)
}

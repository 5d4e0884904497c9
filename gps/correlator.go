package gps

import (
	"fmt"
	"sync"

	"github.com/williamyang98/GPS-Correlation/dsp"
)

// Correlator owns the replica bank for one PRN code and produces, per
// input block, the correlation magnitude profile over every candidate
// Doppler offset.
//
// The replica for each offset is the PRN code nearest-neighbour
// upsampled to the block size, time reversed, mapped to +/-1 and
// multiplied by the offset's complex exponential. The reversal makes
// the frequency-domain multiply compute correlation rather than
// convolution, so the peak of a zero-delay signal lands at the center
// after the fftshift (N/2+1 with the nearest-neighbour upsampling).
type Correlator struct {
	blockSize int
	fcode     int
	fs        int
	fdevMax   int

	freqOffsets  []float64
	replicas     [][]complex128
	replicaFFTs  [][]complex128
	correlations [][]float64

	corrBuf []complex128
	ifftBuf []complex128
	fft     *dsp.FFT

	bestIndex int
	hist      *Histogram

	// Guards bestIndex, hist and correlations between Process and the
	// snapshot readers. Readers that skip the lock see torn values at
	// worst; the streaming layer takes snapshots instead.
	mu sync.RWMutex
}

// Snapshot is a consistent view of one correlator taken between blocks.
type Snapshot struct {
	BestIndex  int
	ModeIndex  int
	BinIndex   int
	Magnitudes []float64
	PeakIndex  int
	PeakValue  float64
}

// NewCorrelator builds the Doppler grid and replica bank for code.
// fdevMax is the one-sided Doppler search range in Hz; the grid steps by
// fcode/2.
func NewCorrelator(code []uint8, blockSize, fcode, fs, fdevMax int) (*Correlator, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("gps: invalid block size %d", blockSize)
	}
	if fcode <= 0 {
		return nil, fmt.Errorf("gps: invalid code rate %d", fcode)
	}
	if fs <= 0 {
		return nil, fmt.Errorf("gps: invalid sample rate %d", fs)
	}
	if fdevMax < 0 {
		return nil, fmt.Errorf("gps: invalid max doppler %d", fdevMax)
	}
	if len(code) < 2 {
		return nil, fmt.Errorf("gps: prn code too short (%d chips)", len(code))
	}

	fft, err := dsp.NewFFT(blockSize)
	if err != nil {
		return nil, err
	}

	c := &Correlator{
		blockSize: blockSize,
		fcode:     fcode,
		fs:        fs,
		fdevMax:   fdevMax,
		corrBuf:   make([]complex128, blockSize),
		ifftBuf:   make([]complex128, blockSize),
		fft:       fft,
	}

	shiftStep := fcode / 2
	for f := -fdevMax; f <= fdevMax; f += shiftStep {
		c.freqOffsets = append(c.freqOffsets, float64(f))
	}
	totalOffsets := len(c.freqOffsets)
	c.hist = NewHistogram(totalOffsets, defaultHistogramWindow)

	// Nearest-neighbour upsample of the code to the sampling rate, with
	// the source index reversed for correlation.
	baseReplica := make([]complex128, blockSize)
	srcLen := len(code)
	xScale := 0.0
	if blockSize > 1 {
		xScale = float64(srcLen-1) / float64(blockSize-1)
	}
	for i := 0; i < blockSize; i++ {
		iScaled := int(float64(i) * xScale)
		iReverse := (srcLen - 1) - iScaled
		v := 2.0*float64(code[iReverse]) - 1.0
		baseReplica[i] = complex(v, 0)
	}

	c.replicas = make([][]complex128, totalOffsets)
	c.replicaFFTs = make([][]complex128, totalOffsets)
	c.correlations = make([][]float64, totalOffsets)
	for i, offset := range c.freqOffsets {
		replica := make([]complex128, blockSize)
		replicaFFT := make([]complex128, blockSize)
		k := offset / float64(fs)
		dsp.ApplyFrequencyShift(replica, baseReplica, k)
		c.fft.Forward(replicaFFT, replica)

		c.replicas[i] = replica
		c.replicaFFTs[i] = replicaFFT
		c.correlations[i] = make([]float64, blockSize)
	}
	return c, nil
}

// Process correlates the forward FFT of one input block against every
// replica, selects the strongest Doppler bin and records it in the
// histogram. inFFT is read only.
func (c *Correlator) Process(inFFT []complex128) {
	if len(inFFT) != c.blockSize {
		panic(fmt.Sprintf("gps: correlator input length %d, want %d", len(inFFT), c.blockSize))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	normScale := 1.0 / float64(2*c.blockSize+1)
	for i := range c.freqOffsets {
		dsp.MulVec(c.corrBuf, inFFT, c.replicaFFTs[i])
		c.fft.Inverse(c.ifftBuf, c.corrBuf)
		dsp.FFTShift(c.ifftBuf)
		dsp.MagnitudeScaled(c.correlations[i], c.ifftBuf, normScale)
	}

	largestPeak := 0.0
	bestIndex := 0
	for i, corr := range c.correlations {
		vMax := 0.0
		for _, v := range corr {
			if v > vMax {
				vMax = v
			}
		}
		if vMax > largestPeak {
			largestPeak = vMax
			bestIndex = i
		}
	}

	c.bestIndex = bestIndex
	c.hist.PushIndex(bestIndex)
}

// BestFrequencyOffsetIndex returns the winning Doppler bin of the most
// recent block.
func (c *Correlator) BestFrequencyOffsetIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bestIndex
}

// ModeFrequencyOffsetIndex returns the most common winning bin over the
// histogram window.
func (c *Correlator) ModeFrequencyOffsetIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hist.Mode()
}

// FrequencyOffsets returns the Doppler grid in Hz. The slice is
// immutable after construction and shared.
func (c *Correlator) FrequencyOffsets() []float64 {
	return c.freqOffsets
}

// TotalFrequencyOffsets returns the number of Doppler bins.
func (c *Correlator) TotalFrequencyOffsets() int {
	return len(c.freqOffsets)
}

// SnapshotBin copies the magnitude vector of one Doppler bin together
// with the current best and mode bins under a single read lock. A bin
// outside [0, K) selects the current best bin.
func (c *Correlator) SnapshotBin(bin int) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if bin < 0 || bin >= len(c.freqOffsets) {
		bin = c.bestIndex
	}
	magnitudes := make([]float64, c.blockSize)
	copy(magnitudes, c.correlations[bin])
	peakIndex, peakValue := FindCorrelationPeak(magnitudes)
	return Snapshot{
		BestIndex:  c.bestIndex,
		ModeIndex:  c.hist.Mode(),
		BinIndex:   bin,
		Magnitudes: magnitudes,
		PeakIndex:  peakIndex,
		PeakValue:  peakValue,
	}
}

// FindCorrelationPeak scans a magnitude vector for its maximum. Ties
// resolve to the first occurrence.
func FindCorrelationPeak(x []float64) (index int, value float64) {
	if len(x) == 0 {
		return 0, 0
	}
	peakIndex := 0
	peakValue := x[0]
	for i, v := range x {
		if v > peakValue {
			peakValue = v
			peakIndex = i
		}
	}
	return peakIndex, peakValue
}

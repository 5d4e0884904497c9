package gps

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/williamyang98/GPS-Correlation/dsp"
)

// Default acquisition parameters. The code period is 1ms, so the block
// size is Fs divided by the code rate.
const (
	DefaultCodeRate   = 1000
	DefaultMaxDoppler = 6000
)

// Engine fans one input block out across the per-PRN correlators.
//
// Per block it computes the forward FFT once into a shared buffer, then
// dispatches every triggered correlator onto the worker pool and
// barriers before admitting the next block. The shared FFT buffer is
// read only from the workers' perspective for the duration of a block.
type Engine struct {
	blockSize int
	fs        int
	fcode     int
	fdevMax   int

	fftBuf      []complex128
	fft         *dsp.FFT
	correlators []*Correlator
	pool        *workerPool

	triggerFlags    []atomic.Int32
	alwaysCorrelate atomic.Bool
	totalBlocks     atomic.Int64
}

// NewEngine builds the 32 correlators and the worker pool for sample
// rate fs. A sample rate that is not a multiple of fcode still works
// but truncates the block to a partial code period, so it is warned
// about.
func NewEngine(fs, fcode, fdevMax int) (*Engine, error) {
	if fs <= 0 {
		return nil, fmt.Errorf("gps: invalid sample rate %d", fs)
	}
	if fcode <= 0 {
		return nil, fmt.Errorf("gps: invalid code rate %d", fcode)
	}
	blockSize := fs / fcode
	if blockSize <= 0 {
		return nil, fmt.Errorf("gps: block size %d from Fs=%d Fcode=%d", blockSize, fs, fcode)
	}
	if fs%fcode != 0 {
		log.Printf("WARNING: sample rate %d is not a multiple of the PRN code rate %d", fs, fcode)
	}

	fft, err := dsp.NewFFT(blockSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		blockSize:    blockSize,
		fs:           fs,
		fcode:        fcode,
		fdevMax:      fdevMax,
		fftBuf:       make([]complex128, blockSize),
		fft:          fft,
		triggerFlags: make([]atomic.Int32, TotalPRNCodes),
	}

	e.correlators = make([]*Correlator, 0, TotalPRNCodes)
	for prnID := 0; prnID < TotalPRNCodes; prnID++ {
		code := GeneratePRNCode(prnID)
		corr, err := NewCorrelator(code, blockSize, fcode, fs, fdevMax)
		if err != nil {
			return nil, fmt.Errorf("gps: prn %d: %w", prnID, err)
		}
		e.correlators = append(e.correlators, corr)
	}

	e.pool = newWorkerPool(defaultWorkerCount(TotalPRNCodes))
	return e, nil
}

// Process runs one acquisition block and returns the number of
// correlators dispatched. The block length must equal the engine block
// size. Process returns after every dispatched correlator has finished,
// so consumers synchronized with its return see a consistent per-PRN
// state.
func (e *Engine) Process(block []complex128) int {
	if len(block) != e.blockSize {
		panic(fmt.Sprintf("gps: engine input length %d, want %d", len(block), e.blockSize))
	}

	e.fft.Forward(e.fftBuf, block)

	totalDispatched := 0
	isAlways := e.alwaysCorrelate.Load()
	for i := range e.correlators {
		isCorrelate := false
		if e.triggerFlags[i].Load() > 0 {
			isCorrelate = true
			e.triggerFlags[i].Add(-1)
		}
		isCorrelate = isCorrelate || isAlways

		if isCorrelate {
			correlator := e.correlators[i]
			e.pool.Submit(func() {
				correlator.Process(e.fftBuf)
			})
			totalDispatched++
		}
	}

	e.pool.Barrier()
	e.totalBlocks.Add(1)
	return totalDispatched
}

// TriggerPRN requests that prnID be correlated for up to the next
// blocks blocks. Concurrent writers are tolerated; a stale value at
// worst delays or repeats a correlation.
func (e *Engine) TriggerPRN(prnID int, blocks int32) {
	if prnID < 0 || prnID >= len(e.correlators) {
		panic(fmt.Sprintf("gps: prn id %d out of range [0,%d)", prnID, len(e.correlators)))
	}
	e.triggerFlags[prnID].Store(blocks)
}

// SetAlwaysCorrelate switches correlation of every PRN on every block.
func (e *Engine) SetAlwaysCorrelate(v bool) {
	e.alwaysCorrelate.Store(v)
}

// AlwaysCorrelate reports whether every PRN runs on every block.
func (e *Engine) AlwaysCorrelate() bool {
	return e.alwaysCorrelate.Load()
}

// BlockSize returns the number of complex samples per block.
func (e *Engine) BlockSize() int {
	return e.blockSize
}

// SampleRate returns the configured input sample rate.
func (e *Engine) SampleRate() int {
	return e.fs
}

// TotalBlocks returns the number of blocks processed so far.
func (e *Engine) TotalBlocks() int64 {
	return e.totalBlocks.Load()
}

// TotalPRNs returns the number of correlators.
func (e *Engine) TotalPRNs() int {
	return len(e.correlators)
}

// Correlator returns the correlator for prnID in [0, TotalPRNs()).
func (e *Engine) Correlator(prnID int) *Correlator {
	return e.correlators[prnID]
}

// Close drains the worker pool. No Process call may follow.
func (e *Engine) Close() {
	e.pool.Close()
}

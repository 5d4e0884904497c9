package main

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"
)

// BlockReader reads raw interleaved IQ bytes and dequantizes them into
// complex blocks for the engine. One block is 2*N bytes for N complex
// samples; a short read terminates the stream.
type BlockReader struct {
	r         io.Reader
	format    string
	blockSize int
	rawBuf    []byte

	// Gain is adjustable at runtime from the control surface while the
	// producer is mid-stream, so it is stored as atomic float bits.
	gainBits atomic.Uint64
}

// NewBlockReader wraps r for blocks of blockSize complex samples in the
// given wire format ("u8" or "s8").
func NewBlockReader(r io.Reader, format string, blockSize int, gain float64) (*BlockReader, error) {
	if format != "u8" && format != "s8" {
		return nil, fmt.Errorf("unknown IQ format %q", format)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}
	br := &BlockReader{
		r:         r,
		format:    format,
		blockSize: blockSize,
		rawBuf:    make([]byte, 2*blockSize),
	}
	br.SetGain(gain)
	return br, nil
}

// SetGain updates the dequantization gain for subsequent blocks.
func (br *BlockReader) SetGain(gain float64) {
	br.gainBits.Store(math.Float64bits(gain))
}

// Gain returns the current dequantization gain.
func (br *BlockReader) Gain() float64 {
	return math.Float64frombits(br.gainBits.Load())
}

// ReadBlock fills dst with one dequantized block. It returns io.EOF on
// a clean end of stream and io.ErrUnexpectedEOF on a short read, along
// with the number of raw bytes read; dst is only valid when the error
// is nil.
func (br *BlockReader) ReadBlock(dst []complex128) (int, error) {
	if len(dst) != br.blockSize {
		panic(fmt.Sprintf("block reader output length %d, want %d", len(dst), br.blockSize))
	}

	n, err := io.ReadFull(br.r, br.rawBuf)
	if err != nil {
		return n, err
	}

	gain := br.Gain()
	if br.format == "u8" {
		convertUint8ToComplex(dst, br.rawBuf, gain)
	} else {
		convertInt8ToComplex(dst, br.rawBuf, gain)
	}
	return n, nil
}

// BlockBytes returns the number of raw bytes per block.
func (br *BlockReader) BlockBytes() int {
	return len(br.rawBuf)
}

// convertUint8ToComplex dequantizes interleaved unsigned 8-bit IQ with
// the zero point at 127.5.
func convertUint8ToComplex(dst []complex128, src []byte, gain float64) {
	scale := 1.0 / 127.5 * gain
	for i := range dst {
		re := (float64(src[2*i]) - 127.5) * scale
		im := (float64(src[2*i+1]) - 127.5) * scale
		dst[i] = complex(re, im)
	}
}

// convertInt8ToComplex dequantizes interleaved signed 8-bit IQ.
func convertInt8ToComplex(dst []complex128, src []byte, gain float64) {
	scale := 1.0 / 127.0 * gain
	for i := range dst {
		re := float64(int8(src[2*i])) * scale
		im := float64(int8(src[2*i+1])) * scale
		dst[i] = complex(re, im)
	}
}

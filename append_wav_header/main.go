// Command append_wav_header repackages raw IQ samples as a canonical
// WAVE file: 2 channels, 8 bits per sample, linear PCM. Signed input is
// converted to unsigned on the way through, and the header sizes are
// back-patched once the stream ends.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// wavHeader is the 44-byte canonical WAVE header.
// Source: http://soundfile.sapp.org/doc/WaveFormat/
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     int32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size int32
	AudioFormat   int16
	NumChannels   int16
	SampleRate    int32
	ByteRate      int32
	BlockAlign    int16
	BitsPerSample int16
	Subchunk2ID   [4]byte
	Subchunk2Size int32
}

const (
	chunkSizeOffset     = 4
	subchunk2SizeOffset = 40
)

func newWavHeader(totalDataBytes int, sampleRate int32) wavHeader {
	const (
		numChannels   = 2
		bitsPerSample = 8
	)
	return wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + int32(totalDataBytes),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16, // size of PCM format fields
		AudioFormat:   1,  // linear quantisation
		NumChannels:   numChannels,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * numChannels * bitsPerSample / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: int32(totalDataBytes),
	}
}

// updateWavHeader back-patches ChunkSize and Subchunk2Size in place.
func updateWavHeader(ws io.WriteSeeker, totalDataBytes int) error {
	if _, err := ws.Seek(chunkSizeOffset, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(36+totalDataBytes)); err != nil {
		return err
	}
	if _, err := ws.Seek(subchunk2SizeOffset, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(totalDataBytes)); err != nil {
		return err
	}
	_, err := ws.Seek(0, io.SeekEnd)
	return err
}

func usage() {
	fmt.Fprintf(os.Stderr,
		"append_wav_header, Adds wav header to raw IQ samples\n\n"+
			"\t[-i input filename (default: None)]\n"+
			"\t    If no file is provided then stdin is used\n"+
			"\t[-o output filename (default: None)]\n"+
			"\t    If no file is provided then stdout is used\n"+
			"\t[-f sample_rate (default: 2048000)]\n"+
			"\t[-F IQ format (default: s8) (options: u8, s8)]\n"+
			"\t[-b block_size (default: 8192*16)]\n"+
			"\t[-h (show usage)]\n",
	)
}

func main() {
	os.Exit(run())
}

func run() int {
	inputFile := flag.String("i", "", "Input filename (stdin if empty)")
	outputFile := flag.String("o", "", "Output filename (stdout if empty)")
	sampleRate := flag.Int("f", 2048000, "Sample rate in Hz")
	format := flag.String("F", "s8", "IQ format: u8 or s8")
	blockSize := flag.Int("b", 8192*16, "Read block size in bytes")
	flag.Usage = usage
	flag.Parse()

	if *sampleRate <= 0 {
		fmt.Fprintf(os.Stderr, "Got invalid sample rate %d <= 0\n", *sampleRate)
		return 1
	}
	if *blockSize <= 0 {
		fmt.Fprintf(os.Stderr, "Got invalid block size %d <= 0\n", *blockSize)
		return 1
	}
	if *format != "u8" && *format != "s8" {
		fmt.Fprintf(os.Stderr, "Got invalid IQ format %q\n", *format)
		return 1
	}
	isU8 := *format == "u8"

	var input io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open file for reading: %v\n", err)
			return 1
		}
		defer f.Close()
		input = f
	}

	output := os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open file for writing: %v\n", err)
			return 1
		}
		defer f.Close()
		output = f
	}

	header := newWavHeader(0, int32(*sampleRate))
	if err := binary.Write(output, binary.LittleEndian, &header); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write wav header: %v\n", err)
		return 1
	}

	reader := bufio.NewReader(input)
	buf := make([]byte, *blockSize)
	totalDataBytes := 0
	for {
		n, readErr := io.ReadFull(reader, buf)
		totalDataBytes += n

		if !isU8 {
			// In-place signed to unsigned conversion; -128 wraps, same
			// as the original tool.
			for i := 0; i < n; i++ {
				buf[i] = uint8(int(int8(buf[i])) + 127)
			}
		}

		if _, err := output.Write(buf[:n]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
			return 1
		}
		if readErr != nil {
			break
		}
	}

	// Stdout is usually a pipe; the sizes can only be patched when the
	// output seeks.
	if err := updateWavHeader(output, totalDataBytes); err != nil {
		log.Printf("WARNING: could not back-patch wav header sizes: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Wrote %d bytes with Fs=%d\n", totalDataBytes, *sampleRate)
	return 0
}

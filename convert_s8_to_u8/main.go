// Command convert_s8_to_u8 rebiases raw signed 8-bit IQ samples to
// unsigned 8-bit by adding 127. +127 maps to 254 and -128 wraps to 255,
// so the output is not symmetric; this mirrors the original tool and is
// pinned by test.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
)

func convertS8ToU8(dst, src []byte) {
	for i, v := range src {
		dst[i] = uint8(int(int8(v)) + 127)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr,
		"convert_s8_to_u8, Converts raw IQ signed 8bit values to unsigned 8bit values\n\n"+
			"\t[-i input filename (default: None)]\n"+
			"\t    If no file is provided then stdin is used\n"+
			"\t[-o output filename (default: None)]\n"+
			"\t    If no file is provided then stdout is used\n"+
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
	blockSize := flag.Int("b", 8192*16, "Read block size in bytes")
	flag.Usage = usage
	flag.Parse()

	if *blockSize <= 0 {
		fmt.Fprintf(os.Stderr, "Got invalid block size %d <= 0\n", *blockSize)
		return 1
	}

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

	var output io.Writer = os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open file for writing: %v\n", err)
			return 1
		}
		defer f.Close()
		output = f
	}

	reader := bufio.NewReader(input)
	writer := bufio.NewWriter(output)
	rdBuf := make([]byte, *blockSize)
	wrBuf := make([]byte, *blockSize)
	totalDataBytes := 0
	for {
		n, readErr := io.ReadFull(reader, rdBuf)
		totalDataBytes += n

		convertS8ToU8(wrBuf[:n], rdBuf[:n])
		if _, err := writer.Write(wrBuf[:n]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
			return 1
		}
		if readErr != nil {
			break
		}
	}
	if err := writer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "Wrote %d bytes\n", totalDataBytes)
	return 0
}

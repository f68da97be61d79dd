package ax25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// APRS>N0CALL,WIDE1-1:foo bar baz, as captured off the air.
var testFrameBody = []byte("\x82\xa0\xa4\xa6\x40\x40\x60\x9c\x60\x86\x82\x98\x98\x60\xae\x92\x88\x8a\x62\x40\x63\x03\xf0foo bar baz")

func TestFCS(t *testing.T) {
	assert.Equal(t, uint16(0xa960), FCS(testFrameBody))

	var digid = []byte("\x82\xa0\xb4\x60\x6c\x72\x60\x9c\x60\x86\x82\x98\x98\x60\xae\x92\x88\x8a\x62\x40\x62\x8c\x9e\x9e\x88\xa0\x40\xe1\x03\xf0digi'd 1")
	assert.Equal(t, uint16(0xcccf), FCS(digid))
}

func TestAppendFCS(t *testing.T) {
	var out = appendFCS(append([]byte(nil), testFrameBody...))

	assert.Equal(t, []byte{0x60, 0xa9}, out[len(out)-2:])

	var computed, received, ok = checkFCS(out)
	assert.True(t, ok)
	assert.Equal(t, computed, received)
}

func TestCheckFCS_DetectsSingleBitErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var body = rapid.SliceOfN(rapid.Byte(), 1, 300).Draw(t, "body")
		var span = appendFCS(append([]byte(nil), body...))

		var i = rapid.IntRange(0, len(span)-1).Draw(t, "i")
		var bit = rapid.IntRange(0, 7).Draw(t, "bit")
		span[i] ^= 1 << bit

		var _, _, ok = checkFCS(span)
		assert.False(t, ok)
	})
}

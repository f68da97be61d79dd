package ax25

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestKISSEncapsulate(t *testing.T) {
	var out = KISSEncapsulate([]byte{0x00, 'a', FEND, 'b', FESC, 'c'})

	assert.Equal(t, []byte{FEND, 0x00, 'a', FESC, TFEND, 'b', FESC, TFESC, 'c', FEND}, out)
}

func TestKISSUnwrap(t *testing.T) {
	var out, err = KISSUnwrap([]byte{FEND, 0x00, 'a', FESC, TFEND, 'b', FESC, TFESC, 'c', FEND})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 'a', FEND, 'b', FESC, 'c'}, out)

	// Leading FEND is optional.
	out, err = KISSUnwrap([]byte{0x00, 'a', FEND})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 'a'}, out)
}

func TestKISSUnwrap_Errors(t *testing.T) {
	var tests = []struct {
		name string
		in   []byte
		want error
	}{
		{"too short", []byte{FEND}, ErrFrameTooShort},
		{"no trailing FEND", []byte{FEND, 0x00, 'a'}, ErrMissingDelimiter},
		{"FEND in middle", []byte{FEND, 0x00, FEND, 'a', FEND}, ErrMissingDelimiter},
		{"bad escape", []byte{FEND, 0x00, FESC, 'x', FEND}, ErrKISSEscape},
		{"dangling escape", []byte{FEND, 0x00, FESC, FEND}, ErrKISSEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var _, err = KISSUnwrap(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestKISSRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var in = rapid.SliceOfN(rapid.Byte(), 1, 500).Draw(t, "in")

		var kissed = KISSEncapsulate(in)
		assert.Equal(t, byte(FEND), kissed[0])
		assert.Equal(t, byte(FEND), kissed[len(kissed)-1])
		assert.NotContains(t, kissed[1:len(kissed)-1], byte(FEND))

		var out, err = KISSUnwrap(kissed)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestKISSEncodeFrame(t *testing.T) {
	var f, err = FrameFromBinary(testFrameBody)
	require.NoError(t, err)

	var out, encErr = KISSEncodeFrame(2, f)
	require.NoError(t, encErr)

	var want = slices.Concat([]byte{FEND, 0x20}, testFrameBody, []byte{FEND})
	assert.Equal(t, want, out)
}

func TestKISSEncodeCommand_Range(t *testing.T) {
	var _, err = KISSEncodeCommand(16, KISS_CMD_DATA_FRAME, nil)
	require.Error(t, err)

	_, err = KISSEncodeCommand(0, 16, nil)
	require.Error(t, err)

	var out, okErr = KISSEncodeCommand(1, KISS_CMD_TXDELAY, []byte{30})
	require.NoError(t, okErr)
	assert.Equal(t, []byte{FEND, 0x11, 30, FEND}, out)
}

func TestKISSDecoder(t *testing.T) {
	var f, err = FrameFromBinary(testFrameBody)
	require.NoError(t, err)

	var a, _ = KISSEncodeFrame(0, f)
	var b, _ = KISSEncodeFrame(3, f)
	var hw, _ = KISSEncodeCommand(1, KISS_CMD_SET_HARDWARE, []byte("TNC:DIREWOLF 1.7"))
	var txd, _ = KISSEncodeCommand(0, KISS_CMD_TXDELAY, []byte{30})

	// Noise before the first FEND, a stray empty frame, and a command
	// which should only go to the TNC.
	var stream = slices.Concat([]byte("cmd:"), a, []byte{FEND, FEND}, txd, hw, b)

	var got, decErr = NewKISSDecoder().Update(stream)
	require.NoError(t, decErr)
	require.Len(t, got, 3)

	assert.Equal(t, 0, got[0].Channel)
	assert.Equal(t, f, got[0].Frame)

	assert.Equal(t, 1, got[1].Channel)
	assert.Equal(t, byte(KISS_CMD_SET_HARDWARE), got[1].Cmd)
	assert.Nil(t, got[1].Frame)
	assert.Equal(t, []byte("TNC:DIREWOLF 1.7"), got[1].Data)

	assert.Equal(t, 3, got[2].Channel)
	assert.Equal(t, f, got[2].Frame)
}

func TestKISSDecoder_SharedFEND(t *testing.T) {
	var f, err = FrameFromBinary(testFrameBody)
	require.NoError(t, err)

	var a, _ = KISSEncodeFrame(0, f)

	// C0 frame C0 frame C0
	var stream = slices.Concat(a, a[1:])

	var got, decErr = NewKISSDecoder().Update(stream)
	require.NoError(t, decErr)
	assert.Len(t, got, 2)
}

func TestKISSDecoder_Errors(t *testing.T) {
	var f, err = FrameFromBinary(testFrameBody)
	require.NoError(t, err)

	var good, _ = KISSEncodeFrame(0, f)
	var badEscape = []byte{FEND, 0x00, FESC, 'x', FEND}
	var badFrame = KISSEncapsulate([]byte{0x00, 0x82, 0xa0})

	var stream = slices.Concat(badEscape, good, badFrame, good)

	var got, decErr = NewKISSDecoder().Update(stream)
	assert.Len(t, got, 2)
	assert.ErrorIs(t, decErr, ErrKISSEscape)
	assert.ErrorIs(t, decErr, ErrFrameTooShort)
}

func TestKISSDecoder_TooLong(t *testing.T) {
	var huge = KISSEncapsulate(append([]byte{0x00}, make([]byte, MAX_KISS_LEN+10)...))

	var got, err = NewKISSDecoder().Update(huge)
	assert.Empty(t, got)
	assert.ErrorIs(t, err, ErrKISSTooLong)
}

func TestKISSDecoder_ChunkInvariance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var n = rapid.IntRange(1, 4).Draw(t, "n")
		var stream []byte
		var want []*RecvFrame

		for range n {
			var f = genFrame(t)
			var channel = rapid.IntRange(0, MAX_KISS_CHANNEL).Draw(t, "channel")

			var kissed, err = KISSEncodeFrame(channel, f)
			require.NoError(t, err)

			stream = append(stream, kissed...)
			want = append(want, &RecvFrame{Channel: channel, Cmd: KISS_CMD_DATA_FRAME, Frame: f, Data: nil})
		}

		var cuts = rapid.SliceOfN(rapid.IntRange(0, len(stream)), 0, 10).Draw(t, "cuts")

		var dec = NewKISSDecoder()
		var got []*RecvFrame

		slices.Sort(cuts)
		var prev = 0
		for _, c := range append(cuts, len(stream)) {
			var items, err = dec.Update(stream[prev:c])
			require.NoError(t, err)
			got = append(got, items...)
			prev = c
		}

		assert.Equal(t, want, got)
	})
}

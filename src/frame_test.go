package ax25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustAddress(t *testing.T, call string, ssid int, digi bool, hldc bool) Address {
	t.Helper()

	var a, err = NewAddress(call, ssid, digi, hldc)
	require.NoError(t, err)

	return a
}

func TestFrameFromBinary(t *testing.T) {
	var f, err = FrameFromBinary(testFrameBody)
	require.NoError(t, err)

	assert.Equal(t, mustAddress(t, "APRS", 0, false, false), f.Destination)
	assert.Equal(t, mustAddress(t, "N0CALL", 0, false, false), f.Source)
	assert.Equal(t, []Address{mustAddress(t, "WIDE1", 1, false, true)}, f.Path)
	assert.Equal(t, byte(0x03), f.Control)
	assert.Equal(t, byte(0xf0), f.PID)
	assert.Equal(t, []byte("foo bar baz"), f.Info)

	assert.True(t, f.IsAPRS())
	assert.Equal(t, FrameTypeUI, f.Type())
	assert.Equal(t, "N0CALL>APRS,WIDE1-1:foo bar baz", f.String())
}

func TestFrameFromBinary_CopiesInput(t *testing.T) {
	var data = append([]byte(nil), testFrameBody...)

	var f, err = FrameFromBinary(data)
	require.NoError(t, err)

	data[len(data)-1] = 'X'
	assert.Equal(t, []byte("foo bar baz"), f.Info)
}

func TestFrameFromBinary_NoPathNoInfo(t *testing.T) {
	// APRS>N0CALL with source marked last, control and PID only.
	var data = []byte{0x82, 0xa0, 0xa4, 0xa6, 0x40, 0x40, 0x60, 0x9c, 0x60, 0x86, 0x82, 0x98, 0x98, 0x61, 0x03, 0xf0}

	var f, err = FrameFromBinary(data)
	require.NoError(t, err)

	assert.Nil(t, f.Path)
	assert.Nil(t, f.Info)
	assert.True(t, f.Source.HLDC())
	assert.Equal(t, "N0CALL>APRS:", f.String())
}

func TestFrameFromBinary_Errors(t *testing.T) {
	var tests = []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrFrameTooShort},
		{"14 bytes", testFrameBody[:14], ErrFrameTooShort},
		// Path address not terminated, frame ends inside the next address.
		{"unterminated", testFrameBody[:15], ErrAddressNotTerminated},
		{"unterminated partial path", testFrameBody[:20], ErrAddressNotTerminated},
		// Address field complete, nothing after it.
		{"no control", testFrameBody[:21], ErrFrameTooShort},
		{"no pid", testFrameBody[:22], ErrFrameTooShort},
		{"bad callsign", append([]byte{0x42}, testFrameBody[1:]...), ErrCallsign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f, err = FrameFromBinary(tt.in)
			assert.Nil(t, f)

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFrameFromBinary_MissingControl(t *testing.T) {
	// Address field terminated at the source, then nothing.
	var data = []byte{0x82, 0xa0, 0xa4, 0xa6, 0x40, 0x40, 0x60, 0x9c, 0x60, 0x86, 0x82, 0x98, 0x98, 0x61, 0x03}

	var _, err = FrameFromBinary(data)
	assert.ErrorIs(t, err, ErrFrameTooShort)
}

func TestFrameEncodeBinary(t *testing.T) {
	var f, err = FrameFromBinary(testFrameBody)
	require.NoError(t, err)

	var out, encErr = f.EncodeBinary()
	require.NoError(t, encErr)
	assert.Equal(t, testFrameBody, out)
}

func TestFrameEncodeBinary_ForcesLastAddress(t *testing.T) {
	var f = &Frame{
		Destination: mustAddress(t, "APRS", 0, false, true),
		Source:      mustAddress(t, "N0CALL", 0, false, true),
		Path:        []Address{mustAddress(t, "WIDE1", 1, false, false)},
		Control:     0x03,
		PID:         0xf0,
		Info:        []byte("foo bar baz"),
	}

	var out, err = f.EncodeBinary()
	require.NoError(t, err)
	assert.Equal(t, testFrameBody, out)
}

func TestFrameEncodeBinary_LongCallsign(t *testing.T) {
	var f, err = FrameFromText("TOOLONGCALL>APRS:hello")
	require.NoError(t, err)

	var _, encErr = f.EncodeBinary()
	assert.ErrorIs(t, encErr, ErrCallsign)
}

func TestFrameFromText(t *testing.T) {
	var f, err = FrameFromText("IDIOTV>APN391,HEBOWX,qAR,KG7ZZA-10:!4539.11NF12344.39W#PHG4460/W3 HEBO PEAK - idiotville.net")
	require.NoError(t, err)

	assert.Equal(t, mustAddress(t, "APN391", 0, false, false), f.Destination)
	assert.Equal(t, mustAddress(t, "IDIOTV", 0, false, false), f.Source)
	assert.Equal(t, []Address{
		mustAddress(t, "HEBOWX", 0, false, false),
		mustAddress(t, "QAR", 0, false, false),
		mustAddress(t, "KG7ZZA", 10, false, true),
	}, f.Path)
	assert.Equal(t, byte(0x03), f.Control)
	assert.Equal(t, byte(0xf0), f.PID)
	assert.Equal(t, "!4539.11NF12344.39W#PHG4460/W3 HEBO PEAK - idiotville.net", string(f.Info))
}

func TestFrameFromText_NoPath(t *testing.T) {
	var f, err = FrameFromText("FOO>APRS:!4605.21N/12327.31W#RNG0125Foo comment")
	require.NoError(t, err)

	assert.Equal(t, mustAddress(t, "FOO", 0, false, true), f.Source)
	assert.Equal(t, mustAddress(t, "APRS", 0, false, false), f.Destination)
	assert.Nil(t, f.Path)
}

func TestFrameFromText_Digipeated(t *testing.T) {
	var f, err = FrameFromText("N0CALL>APRS,RPT1*,WIDE2-1:x")
	require.NoError(t, err)

	assert.Equal(t, mustAddress(t, "RPT1", 0, true, true), f.Path[0])
	assert.Equal(t, mustAddress(t, "WIDE2", 1, false, true), f.Path[1])
	assert.Equal(t, "RPT1*", f.Heard().String())
	assert.Equal(t, "N0CALL>APRS,RPT1*,WIDE2-1:x", f.String())
}

func TestFrameFromText_InfoMayContainColon(t *testing.T) {
	var f, err = FrameFromText("N0CALL>APRS::BLN1     :hello")
	require.NoError(t, err)
	assert.Equal(t, ":BLN1     :hello", string(f.Info))
}

func TestFrameFromText_Errors(t *testing.T) {
	var tests = []struct {
		in   string
		want error
	}{
		{"N0CALL>APRS", ErrMissingDelimiter},
		{"N0CALL APRS:hello", ErrMissingDelimiter},
		{">APRS:hello", ErrCallsign},
		{"N0CALL>:hello", ErrCallsign},
		{"N0CALL>APRS,,WIDE1-1:hello", ErrCallsign},
		{"N0CALL>APRS,WIDE1-16:hello", ErrSSID},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var _, err = FrameFromText(tt.in)

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFrameHeard(t *testing.T) {
	var f, err = FrameFromText("N0CALL>APRS,RPT1,RPT2:x")
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", f.Heard().String())
	assert.Equal(t, AX25_SOURCE, f.HeardIndex())

	var digid, digiErr = FrameFromBinary([]byte("\x82\xa0\xb4\x60\x6c\x72\x60\x9c\x60\x86\x82\x98\x98\x60\xae\x92\x88\x8a\x62\x40\x62\x8c\x9e\x9e\x88\xa0\x40\xe1\x03\xf0digi'd 1"))
	require.NoError(t, digiErr)
	assert.Equal(t, "FOODP*", digid.Heard().String())
	assert.Equal(t, AX25_REPEATER_1+1, digid.HeardIndex())
}

func TestFrameSafeInfo(t *testing.T) {
	var f = &Frame{Info: []byte("a\rb\x7fc\xffé ")} //nolint:exhaustruct

	assert.Equal(t, "a<0x0d>b<0x7f>c<0xff>é<0x20>", f.SafeInfo())
}

func TestFrameTypeOf(t *testing.T) {
	var tests = []struct {
		c    byte
		want FrameType
	}{
		{0x00, FrameTypeI},
		{0xfe, FrameTypeI},
		{0x01, FrameTypeRR},
		{0x05, FrameTypeRNR},
		{0x09, FrameTypeREJ},
		{0x0d, FrameTypeSREJ},
		{0x6f, FrameTypeSABME},
		{0x3f, FrameTypeSABM},
		{0x53, FrameTypeDISC},
		{0x0f, FrameTypeDM},
		{0x73, FrameTypeUA},
		{0x87, FrameTypeFRMR},
		{0x03, FrameTypeUI},
		{0x13, FrameTypeUI},
		{0xaf, FrameTypeXID},
		{0xe3, FrameTypeTEST},
		{0x07, FrameTypeU},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FrameTypeOf(tt.c), "control 0x%02x", tt.c)
	}

	assert.Equal(t, "SABME", FrameTypeSABME.String())
	assert.Equal(t, "FrameType(99)", FrameType(99).String())
}

func TestFrameDescribe(t *testing.T) {
	var f, err = FrameFromBinary(testFrameBody)
	require.NoError(t, err)

	assert.Equal(t, "UI p/f=0, No layer 3 protocol implemented., length = 11", f.Describe())
	assert.Equal(t, "I n(s)=2, n(r)=5, p=1", ControlDescription(0xb4))
	assert.Equal(t, "RR n(r)=3, p/f=0", ControlDescription(0x61))
	assert.Equal(t, "Unknown protocol id = 0x42", PIDDescription(0x42))
}

// Frames as they can appear on the air: only the last address has hldc,
// and only it may show the has-been-repeated flag.
func genFrame(t *rapid.T) *Frame {
	var nPath = rapid.IntRange(0, 8).Draw(t, "nPath")
	var chain = make([]Address, 2+nPath)

	for i := range chain {
		var call = genCallsign(t, AX25_MAX_CALL_LEN)
		var ssid = rapid.IntRange(0, AX25_MAX_SSID).Draw(t, "ssid")
		var last = i == len(chain)-1
		var digi = last && i >= AX25_REPEATER_1 && rapid.Bool().Draw(t, "digi")

		var a, err = NewAddress(call, ssid, digi, last)
		if err != nil {
			t.Fatalf("NewAddress: %v", err)
		}
		chain[i] = a
	}

	var f = &Frame{ //nolint:exhaustruct
		Destination: chain[0],
		Source:      chain[1],
		Control:     rapid.Byte().Draw(t, "control"),
		PID:         rapid.Byte().Draw(t, "pid"),
	}

	if nPath > 0 {
		f.Path = chain[2:]
	}

	if info := rapid.SliceOfN(rapid.Byte(), 0, 300).Draw(t, "info"); len(info) > 0 {
		f.Info = info
	}

	return f
}

func TestFrameBinaryRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var f = genFrame(t)

		var b, err = f.EncodeBinary()
		require.NoError(t, err)

		var back, decErr = FrameFromBinary(b)
		require.NoError(t, decErr)
		assert.Equal(t, f, back)
	})
}

func TestFrameTextRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var f = genFrame(t)

		// Text has no control, PID, or line breaks.
		f.Control = AX25_UI_FRAME
		f.PID = AX25_PID_NO_LAYER_3
		if f.Info != nil {
			f.Info = []byte(rapid.StringMatching(`[ -~]{1,80}`).Draw(t, "text"))
		}

		var back, err = FrameFromText(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, back)
	})
}

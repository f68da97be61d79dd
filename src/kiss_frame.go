package ax25

/*------------------------------------------------------------------
 *
 * Purpose:   	KISS framing between a host application and a TNC.
 *
 * Description: The KISS TNC protocol is described in http://www.ka9q.net/papers/kiss.html
 *
 * 		Briefly, a frame is composed of
 *
 *			* FEND (0xC0)
 *			* Contents - with special escape sequences so a 0xc0
 *				byte in the data is not taken as end of frame.
 *			* FEND
 *
 *		The first byte of the frame contains:
 *
 *			* radio channel in upper nybble.
 *				(KISS doc uses "port" but I don't like that because it has too many meanings.)
 *			* command in lower nybble.
 *
 *		Commands from application to TNC:
 *
 *			_0	Data Frame	AX.25 frame in raw format.
 *			_1	TXDELAY
 *			_2	Persistence
 *			_3 	SlotTime
 *			_4	TXtail
 *			_5	FullDuplex
 *			_6	SetHardware	TNC specific.
 *			FF	Return		Exit KISS mode.
 *
 *		Messages from the TNC:
 *
 *			_0	Data Frame	Received AX.25 frame in raw format.
 *			_6	SetHardware	TNC specific.
 *						Usually a response to a query.
 *
 *		Unlike the flag delimited stream, KISS carries no FCS.
 *		The TNC has already checked it.
 *
 *---------------------------------------------------------------*/

import (
	"bytes"
	"errors"
	"fmt"
)

const KISS_CMD_DATA_FRAME = 0
const KISS_CMD_TXDELAY = 1
const KISS_CMD_PERSISTENCE = 2
const KISS_CMD_SLOTTIME = 3
const KISS_CMD_TXTAIL = 4
const KISS_CMD_FULLDUPLEX = 5
const KISS_CMD_SET_HARDWARE = 6
const KISS_CMD_END_KISS = 15

/*
 * Special characters used by SLIP protocol.
 */

const FEND = 0xC0
const FESC = 0xDB
const TFEND = 0xDC
const TFESC = 0xDD

const MAX_KISS_LEN = 2048 /* The KISS protocol calls for at least 1024. */

const MAX_KISS_CHANNEL = 15

/*-------------------------------------------------------------------
 *
 * Name:        KISSEncapsulate
 *
 * Purpose:     Encapsulate a frame into KISS format.
 *
 * Inputs:	in	- First byte is the "type indicator" with command and
 *			  channel but we don't care about that here.
 *			  If it happens to be FEND or FESC, it is escaped, like any other byte.
 *
 * Returns:	The sequence is:
 *			FEND		- Magic frame separator.
 *			data		- with certain byte values replaced so
 *					  FEND will never occur here.
 *			FEND		- Magic frame separator.
 *
 *		Absolute max length (extremely unlikely) will be twice input plus 2.
 *
 *-----------------------------------------------------------------*/

func KISSEncapsulate(in []byte) []byte {
	var buf bytes.Buffer

	buf.Grow(len(in) + 2)
	buf.WriteByte(FEND)

	for _, b := range in {
		switch b {
		case FEND:
			buf.WriteByte(FESC)
			buf.WriteByte(TFEND)
		case FESC:
			buf.WriteByte(FESC)
			buf.WriteByte(TFESC)
		default:
			buf.WriteByte(b)
		}
	}

	buf.WriteByte(FEND)

	return buf.Bytes()
}

/*-------------------------------------------------------------------
 *
 * Name:        KISSUnwrap
 *
 * Purpose:     Extract original data from one KISS frame.
 *
 * Inputs:	in	- The sequence is:
 *				FEND		- Magic frame separator, optional.
 *				data		- with escapes.
 *				FEND		- Magic frame separator.
 *
 * Returns:	Type indicator followed by the contents, escapes removed.
 *
 *-----------------------------------------------------------------*/

func KISSUnwrap(in []byte) ([]byte, error) {
	if len(in) < 2 {
		/* Need at least the "type indicator" byte and FEND. */
		return nil, formatError(ErrFrameTooShort, "KISS message less than minimum length")
	}

	if in[len(in)-1] != FEND {
		return nil, formatError(ErrMissingDelimiter, "KISS frame should end with FEND")
	}
	in = in[:len(in)-1]

	if in[0] == FEND {
		in = in[1:] // Skip over optional leading FEND
	}

	if bytes.IndexByte(in, FEND) >= 0 {
		return nil, formatError(ErrMissingDelimiter, "KISS frame should not have FEND in the middle")
	}

	return kissUnescape(in)
}

func kissUnescape(in []byte) ([]byte, error) {
	var out = make([]byte, 0, len(in))
	var escapedMode = false

	for _, b := range in {
		if escapedMode {
			switch b {
			case TFESC:
				out = append(out, FESC)
			case TFEND:
				out = append(out, FEND)
			default:
				return nil, formatError(ErrKISSEscape, "found 0x%02x after FESC", b)
			}
			escapedMode = false
		} else if b == FESC {
			escapedMode = true
		} else {
			out = append(out, b)
		}
	}

	if escapedMode {
		return nil, formatError(ErrKISSEscape, "FESC at end of frame")
	}

	return out, nil
}

/*-------------------------------------------------------------------
 *
 * Name:        KISSEncodeCommand
 *
 * Purpose:     Build a complete KISS frame ready to send to the TNC.
 *
 * Inputs:	channel	- 0 thru 15.
 *		cmd	- KISS_CMD_DATA_FRAME, KISS_CMD_SET_HARDWARE, etc.
 *		data	- Information for KISS frame.
 *
 *--------------------------------------------------------------------*/

func KISSEncodeCommand(channel int, cmd byte, data []byte) ([]byte, error) {
	if channel < 0 || channel > MAX_KISS_CHANNEL {
		return nil, fmt.Errorf("invalid channel %d - must be in range 0 to %d", channel, MAX_KISS_CHANNEL)
	}

	if cmd > 15 {
		return nil, fmt.Errorf("invalid command %d - must be in range 0 to 15", cmd)
	}

	var temp = make([]byte, 0, len(data)+1)
	temp = append(temp, byte(channel)<<4|cmd) //nolint:gosec // G115 integer overflow
	temp = append(temp, data...)

	return KISSEncapsulate(temp), nil
}

// KISSEncodeFrame gives the KISS data frame to have the TNC transmit f on channel.
func KISSEncodeFrame(channel int, f *Frame) ([]byte, error) {
	var body, err = f.EncodeBinary()
	if err != nil {
		return nil, err
	}

	return KISSEncodeCommand(channel, KISS_CMD_DATA_FRAME, body)
}

type kiss_state_e int

const (
	KS_SEARCHING  kiss_state_e = 0 /* Looking for FEND to start KISS frame. */
	KS_COLLECTING kiss_state_e = 1 /* In process of collecting KISS frame. */
)

// KISSDecoder is a ChunkDecoder for the stream coming from a KISS TNC.
// Data frames come out with Frame set.  Set Hardware responses come
// out with Data set.  Anything else the TNC should not be sending is
// skipped.  It is not safe for concurrent use.
type KISSDecoder struct {
	state    kiss_state_e
	msg      []byte /* Contains escapes, no FEND. */
	overflow bool
}

func NewKISSDecoder() *KISSDecoder {
	return &KISSDecoder{state: KS_SEARCHING, msg: nil, overflow: false}
}

/*-------------------------------------------------------------------
 *
 * Name:        Update
 *
 * Purpose:     Process the next chunk from the TNC.
 *
 * Description:	Anything before the first FEND is noise, such as a
 *		command prompt from a TNC not yet in KISS mode.
 *		The FEND which ends one frame may also start the next.
 *		Several FENDs in a row are empty frames and ignored.
 *
 *-----------------------------------------------------------------*/

func (d *KISSDecoder) Update(chunk []byte) ([]*RecvFrame, error) {
	var frames []*RecvFrame
	var errs []error

	for _, ch := range chunk {
		switch d.state {
		case KS_SEARCHING:
			if ch == FEND {
				d.state = KS_COLLECTING
			}

		case KS_COLLECTING:
			if ch != FEND {
				if len(d.msg) < MAX_KISS_LEN {
					d.msg = append(d.msg, ch)
				} else {
					d.overflow = true
				}
				continue
			}

			if len(d.msg) == 0 {
				continue /* Empty frame.  Just go on collecting. */
			}

			var rf, err = d.processMsg()
			d.msg = d.msg[:0]
			d.overflow = false

			if err != nil {
				errs = append(errs, err)
			} else if rf != nil {
				frames = append(frames, rf)
			}
		}
	}

	return frames, errors.Join(errs...)
}

// Flush discards a partial frame with no closing FEND and starts over.
func (d *KISSDecoder) Flush() ([]*RecvFrame, error) {
	d.state = KS_SEARCHING
	d.msg = nil
	d.overflow = false

	return nil, nil
}

/*-------------------------------------------------------------------
 *
 * Name:        processMsg
 *
 * Purpose:     Process one complete frame from the TNC.
 *
 * Returns:	nil, nil for commands which are only expected in
 *		the other direction.
 *
 *-----------------------------------------------------------------*/

func (d *KISSDecoder) processMsg() (*RecvFrame, error) {
	if d.overflow {
		return nil, formatError(ErrKISSTooLong, "more than %d bytes", MAX_KISS_LEN)
	}

	var msg, err = kissUnescape(d.msg)
	if err != nil {
		return nil, err
	}

	var channel = int(msg[0]>>4) & 0xf
	var cmd = msg[0] & 0xf

	switch cmd {
	case KISS_CMD_DATA_FRAME: /* 0 = Data Frame */
		var f, err = FrameFromBinary(msg[1:])
		if err != nil {
			return nil, fmt.Errorf("KISS data frame from TNC, channel %d: %w", channel, err)
		}
		return &RecvFrame{Channel: channel, Cmd: cmd, Frame: f, Data: nil}, nil

	case KISS_CMD_SET_HARDWARE: /* 6 = TNC specific */
		return &RecvFrame{Channel: channel, Cmd: cmd, Frame: nil, Data: bytes.Clone(msg[1:])}, nil

	default:
		/* The rest should only go TO the TNC and not come FROM it. */
		return nil, nil
	}
}

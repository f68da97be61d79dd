package ax25

/********************************************************************************
 *
 * Purpose:	Extract frames from a stream of octets delimited by HDLC flags.
 *
 * Description:	This works on whole octets, after any bit stuffing has been
 *		undone, as delivered by a TNC in "raw" mode or read from a
 *		capture file:
 *
 *			7E  address control pid info  FCS  7E
 *
 *		The flag which ends one frame may also start the next.
 *		Several flags in a row are idle fill between frames.
 *
 *		Rules for what comes out:
 *
 *		- Octets before the first flag are discarded.  We probably
 *		  joined the stream part way through a frame.
 *
 *		- A span of fewer than MinSpanLen octets between flags is
 *		  noise and silently dropped.
 *
 *		- A span whose FCS does not match is reported as a
 *		  *ChecksumError.
 *
 *		- A span with good FCS but an address field which never
 *		  terminates is silently dropped.  Other format problems
 *		  are reported.
 *
 *		How the input is split into chunks makes no difference.
 *
 *******************************************************************************/

import (
	"bytes"
	"errors"
)

const HDLC_FLAG = 0x7e

// MinSpanLen is the shortest span between flags considered as a frame.
// Anything shorter can't hold two addresses and an FCS.
const MinSpanLen = 16

type hdlcRecState int

const (
	hdlcSeeking      hdlcRecState = iota // Haven't seen a flag yet.
	hdlcAccumulating                     // Collecting octets after a flag.
)

// HDLCDecoder is a ChunkDecoder for the flag delimited octet stream.
// It is not safe for concurrent use.
type HDLCDecoder struct {
	state hdlcRecState
	buf   []byte
}

func NewHDLCDecoder() *HDLCDecoder {
	return &HDLCDecoder{state: hdlcSeeking, buf: nil}
}

/***********************************************************************************
 *
 * Name:	Update
 *
 * Purpose:	Process the next chunk of the stream.
 *
 * Inputs:	chunk	- Any number of octets.  Not retained.
 *
 * Returns:	All frames completed by this chunk, in order, and the
 *		joined errors for any spans which could not be decoded.
 *		A bad span never hides the good frames after it.
 *
 ***********************************************************************************/

func (d *HDLCDecoder) Update(chunk []byte) ([]*Frame, error) {
	var frames []*Frame
	var errs []error

	for _, ch := range chunk {
		switch d.state {
		case hdlcSeeking:
			if ch == HDLC_FLAG {
				d.state = hdlcAccumulating
			}

		case hdlcAccumulating:
			if ch != HDLC_FLAG {
				d.buf = append(d.buf, ch)
				continue
			}

			if len(d.buf) == 0 {
				continue // idle fill
			}

			var f, err = decodeSpan(d.buf)
			d.buf = d.buf[:0]

			if err != nil {
				errs = append(errs, err)
			} else if f != nil {
				frames = append(frames, f)
			}
		}
	}

	return frames, errors.Join(errs...)
}

// Flush discards a partial frame with no closing flag and starts over.
func (d *HDLCDecoder) Flush() ([]*Frame, error) {
	d.state = hdlcSeeking
	d.buf = nil

	return nil, nil
}

/*-------------------------------------------------------------------
 *
 * Name:	decodeSpan
 *
 * Purpose:	Check the FCS of everything between two flags and decode.
 *
 * Returns:	nil frame and nil error when the span is to be silently dropped.
 *
 *--------------------------------------------------------------------*/

func decodeSpan(span []byte) (*Frame, error) {
	if len(span) < MinSpanLen {
		return nil, nil
	}

	var computed, received, ok = checkFCS(span)
	if !ok {
		return nil, &ChecksumError{Frame: bytes.Clone(span), Computed: computed, Received: received}
	}

	var f, err = FrameFromBinary(span[:len(span)-FCS_LEN])
	if errors.Is(err, ErrAddressNotTerminated) {
		return nil, nil
	}

	return f, err
}

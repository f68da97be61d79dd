package ax25

/*-------------------------------------------------------------
 *
 * Name:	EncodeHDLC
 *
 * Purpose:	Produce the octet stream form of a frame.
 *
 * Returns:	flag, frame, FCS low octet first, flag.
 *
 * Description:	This is the inverse of HDLCDecoder.  No bit stuffing
 *		is done.  Frames can be concatenated; the decoder treats
 *		the back to back flags as idle fill.
 *
 * Errors:	There is no escape at the octet level so a frame
 *		containing the flag value anywhere, FCS included,
 *		can't be sent this way.  That is ErrFlagInFrame.
 *		Note that an SSID 15 address which is not last
 *		encodes as 0x7e.
 *
 *--------------------------------------------------------------*/

import (
	"bytes"
)

func EncodeHDLC(f *Frame) ([]byte, error) {
	var body, err = f.EncodeBinary()
	if err != nil {
		return nil, err
	}

	var fcs = FCS(body)

	var out = make([]byte, 0, len(body)+FCS_LEN+2)
	out = append(out, HDLC_FLAG)
	out = append(out, body...)
	out = append(out, byte(fcs), byte(fcs>>8))

	if i := bytes.IndexByte(out[1:], HDLC_FLAG); i >= 0 {
		return nil, formatError(ErrFlagInFrame, "offset %d", i)
	}

	return append(out, HDLC_FLAG), nil
}

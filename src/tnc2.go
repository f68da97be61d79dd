package ax25

/*------------------------------------------------------------------
 *
 * Purpose:	Extract frames from a stream of TNC2 monitor format lines,
 *		as produced by many TNCs in terminal mode and by APRS-IS.
 *
 *			SOURCE>DEST,DIGI...:INFO<CR><LF>
 *
 * Description:	Leading and trailing white space, including a carriage
 *		return before the line feed, is removed.  Empty lines are
 *		ignored.  A bad line is reported but doesn't stop the
 *		lines after it.
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"errors"
)

// TNC2Decoder is a ChunkDecoder for newline separated TNC2 text.
// It is not safe for concurrent use.
type TNC2Decoder struct {
	buf []byte
}

func NewTNC2Decoder() *TNC2Decoder {
	return &TNC2Decoder{buf: nil}
}

func (d *TNC2Decoder) Update(chunk []byte) ([]*Frame, error) {
	d.buf = append(d.buf, chunk...)

	var frames []*Frame
	var errs []error

	for {
		var i = bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}

		var f, err = decodeLine(d.buf[:i])
		d.buf = d.buf[i+1:]

		if err != nil {
			errs = append(errs, err)
		} else if f != nil {
			frames = append(frames, f)
		}
	}

	// Don't keep the consumed lines reachable.
	if len(d.buf) == 0 {
		d.buf = nil
	}

	return frames, errors.Join(errs...)
}

// Flush decodes a last line which had no line feed.
func (d *TNC2Decoder) Flush() ([]*Frame, error) {
	var line = d.buf
	d.buf = nil

	var f, err = decodeLine(line)
	if err != nil {
		return nil, err
	}

	if f == nil {
		return nil, nil
	}

	return []*Frame{f}, nil
}

func decodeLine(line []byte) (*Frame, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	return FrameFromText(string(line))
}

package ax25

/*------------------------------------------------------------------
 *
 * Name:	frame
 *
 * Purpose:	In-memory form of one AX.25 frame and its two encodings.
 *
 * Description:	Binary, as found between the flags (FCS not included):
 *
 *		Destination	7 octets
 *		Source		7 octets
 *		Digipeaters	0 or more times 7 octets
 *		Control		1 octet
 *		PID		1 octet
 *		Info		whatever is left
 *
 *		The address field ends with the first address which has
 *		the low bit of its 7th octet set.
 *
 *		Text, commonly called "TNC2 monitor format":
 *
 *		SOURCE>DESTINATION[,DIGI...]:INFO
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"fmt"
	"strings"
)

const AX25_DESTINATION = 0 /* Address positions in the full chain. */
const AX25_SOURCE = 1
const AX25_REPEATER_1 = 2

/* Two addresses and control.  A missing PID is caught after the address field is parsed. */
const AX25_MIN_FRAME_LEN = 2*AX25_ADDR_LEN + 1

const AX25_UI_FRAME = 0x03  /* Control for Unnumbered Information. */
const AX25_PID_NO_LAYER_3 = 0xf0 /* APRS uses this. */

// Frame is a decoded AX.25 frame.
// Empty Path and Info are always nil, never zero length slices.
type Frame struct {
	Destination Address
	Source      Address
	Path        []Address
	Control     byte
	PID         byte
	Info        []byte
}

/*------------------------------------------------------------------------------
 *
 * Name:	FrameFromBinary
 *
 * Purpose:	Decode the octets between the flags, FCS already removed.
 *
 * Errors:	*FormatError wrapping ErrFrameTooShort, ErrAddressNotTerminated,
 *		or an address problem.
 *
 *------------------------------------------------------------------------------*/

func FrameFromBinary(data []byte) (*Frame, error) {
	if len(data) < AX25_MIN_FRAME_LEN {
		return nil, formatError(ErrFrameTooShort, "%d bytes, need at least %d", len(data), AX25_MIN_FRAME_LEN)
	}

	var dest, err = AddressFromBinary(data[0:AX25_ADDR_LEN])
	if err != nil {
		return nil, err
	}

	src, err := AddressFromBinary(data[AX25_ADDR_LEN : 2*AX25_ADDR_LEN])
	if err != nil {
		return nil, err
	}

	var f = &Frame{Destination: dest, Source: src} //nolint:exhaustruct
	var pos = 2 * AX25_ADDR_LEN
	var last = src

	for !last.HLDC() {
		if pos+AX25_ADDR_LEN > len(data) {
			return nil, formatError(ErrAddressNotTerminated, "%d addresses in %d bytes", 2+len(f.Path), len(data))
		}

		last, err = AddressFromBinary(data[pos : pos+AX25_ADDR_LEN])
		if err != nil {
			return nil, err
		}

		f.Path = append(f.Path, last)
		pos += AX25_ADDR_LEN
	}

	if pos+2 > len(data) {
		return nil, formatError(ErrFrameTooShort, "missing control or PID after %d addresses", 2+len(f.Path))
	}

	f.Control = data[pos]
	f.PID = data[pos+1]

	if info := data[pos+2:]; len(info) > 0 {
		f.Info = bytes.Clone(info)
	}

	return f, nil
}

/*------------------------------------------------------------------------------
 *
 * Name:	EncodeBinary
 *
 * Purpose:	Produce the octets to go between the flags, without FCS.
 *
 * Description:	The stored hldc flags are not trusted.  Only the last
 *		address of the chain gets the end marker.
 *
 *------------------------------------------------------------------------------*/

func (f *Frame) EncodeBinary() ([]byte, error) {
	var chain = f.Addresses()
	var out = make([]byte, 0, len(chain)*AX25_ADDR_LEN+2+len(f.Info))

	for i, a := range chain {
		var b, err = a.WithHLDC(i == len(chain)-1).EncodeBinary()
		if err != nil {
			return nil, fmt.Errorf("address %d: %w", i, err)
		}
		out = append(out, b...)
	}

	out = append(out, f.Control, f.PID)
	out = append(out, f.Info...)

	return out, nil
}

/*------------------------------------------------------------------------------
 *
 * Name:	FrameFromText
 *
 * Purpose:	Parse a frame in the TNC2 monitor format.
 *
 * Inputs:	line	- SOURCE>DEST[,DIGI...]:INFO
 *
 * Description:	The text form has no control or PID so we use those of
 *		a UI frame with no layer 3, as used by APRS.
 *
 *		The last address of the chain gets hldc.
 *
 *------------------------------------------------------------------------------*/

func FrameFromText(line string) (*Frame, error) {
	var addrs, info, found = strings.Cut(line, ":")
	if !found {
		return nil, formatError(ErrMissingDelimiter, "no ':' in %q", line)
	}

	var srcText, rest, foundGT = strings.Cut(addrs, ">")
	if !foundGT {
		return nil, formatError(ErrMissingDelimiter, "no '>' in %q", line)
	}

	var parts = strings.Split(rest, ",")

	src, err := AddressFromText(srcText)
	if err != nil {
		return nil, err
	}

	dest, err := AddressFromText(parts[0])
	if err != nil {
		return nil, err
	}

	var f = &Frame{ //nolint:exhaustruct
		Destination: dest,
		Source:      src,
		Control:     AX25_UI_FRAME,
		PID:         AX25_PID_NO_LAYER_3,
	}

	for _, p := range parts[1:] {
		var a, err = AddressFromText(p)
		if err != nil {
			return nil, err
		}
		f.Path = append(f.Path, a)
	}

	if n := len(f.Path); n > 0 {
		f.Path[n-1] = f.Path[n-1].WithHLDC(true)
	} else {
		f.Source = f.Source.WithHLDC(true)
	}

	if len(info) > 0 {
		f.Info = []byte(info)
	}

	return f, nil
}

// Addresses is the full chain: destination, source, then the path.
func (f *Frame) Addresses() []Address {
	var chain = make([]Address, 0, 2+len(f.Path))
	chain = append(chain, f.Destination, f.Source)
	return append(chain, f.Path...)
}

// FormatAddrs gives "SOURCE>DEST,DIGI...:".
func (f *Frame) FormatAddrs() string {
	var sb strings.Builder

	sb.WriteString(f.Source.String())
	sb.WriteString(">")
	sb.WriteString(f.Destination.String())

	for _, a := range f.Path {
		sb.WriteString(",")
		sb.WriteString(a.String())
	}

	sb.WriteString(":")

	return sb.String()
}

// EncodeText is the TNC2 monitor format, Info included as is.
func (f *Frame) EncodeText() string {
	return f.FormatAddrs() + string(f.Info)
}

func (f *Frame) String() string {
	return f.EncodeText()
}

/*------------------------------------------------------------------------------
 *
 * Name:	HeardIndex
 *
 * Purpose:	Which station did we hear over the radio?
 *
 * Returns:	Position in Addresses().  If any of the digipeaters have
 *		the has-been-repeated flag, the last one.  Otherwise
 *		AX25_SOURCE.
 *
 *------------------------------------------------------------------------------*/

func (f *Frame) HeardIndex() int {
	var h = AX25_SOURCE

	for i, a := range f.Path {
		if a.Digi() {
			h = AX25_REPEATER_1 + i
		}
	}

	return h
}

func (f *Frame) Heard() Address {
	return f.Addresses()[f.HeardIndex()]
}

// IsAPRS reports whether this is a UI frame with no layer 3 protocol.
func (f *Frame) IsAPRS() bool {
	return f.Control == AX25_UI_FRAME && f.PID == AX25_PID_NO_LAYER_3
}

const MAXSAFE = 500

/*------------------------------------------------------------------
 *
 * Name:	SafeInfo
 *
 * Purpose:	Info part in a form suitable for a terminal.
 *
 * Description:	Control characters, delete, and the 0xfe/0xff octets
 *		which UTF-8 never uses are shown as <0xNN>.
 *		So is a trailing space, which would otherwise be invisible.
 *		Everything else is let through so UTF-8 displays properly.
 *
 *		Output is limited to MAXSAFE octets of input.
 *
 *------------------------------------------------------------------*/

func (f *Frame) SafeInfo() string {
	var info = f.Info
	if len(info) > MAXSAFE {
		info = info[:MAXSAFE]
	}

	var sb strings.Builder

	for i, ch := range info {
		if (ch == ' ' && i == len(info)-1) || ch < ' ' || ch == 0x7f || ch == 0xfe || ch == 0xff {
			fmt.Fprintf(&sb, "<0x%02x>", ch)
		} else {
			sb.WriteByte(ch)
		}
	}

	return sb.String()
}

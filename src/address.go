package ax25

/*------------------------------------------------------------------
 *
 * Name:	address
 *
 * Purpose:	Encode and decode the AX.25 address field entries.
 *
 * Description:	Each address is 7 octets on the air:
 *
 *	* 6 upper case letters or digits, blank padded.
 *		These are shifted left one bit, leaving the LSB always 0.
 *
 *	* a 7th octet containing the SSID and flags:
 *
 *		H R R SSID L
 *
 *		H	For digipeaters, "has been repeated".  For source and
 *			destination it is called command/response.
 *			We only treat it as "has been repeated" when L is set.
 *
 *		R R	Reserved.  Ignored on receive, always sent as 1 1.
 *
 *		SSID	Substation ID.  Range of 0 - 15.
 *
 *		L	0 except for the last address of the address field.
 *
 *	In the text ("TNC2 monitor") format an address looks like
 *
 *		CALLSIGN[-SSID][*]
 *
 *	where the "*" marks a digipeater which has repeated the frame.
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"strconv"
	"strings"
)

const AX25_ADDR_LEN = 7    /* Octets per address on the air. */
const AX25_MAX_CALL_LEN = 6 /* Callsign characters which fit in an address. */

const SSID_H_MASK = 0x80
const SSID_H_SHIFT = 7

const SSID_RR_MASK = 0x60
const SSID_RR_SHIFT = 5

const SSID_SSID_MASK = 0x1e
const SSID_SSID_SHIFT = 1

const SSID_LAST_MASK = 0x01

const AX25_MAX_SSID = 15

// Address is one entry of the AX.25 address field.
// It is a value: the zero value is not a valid address, and the
// With* methods return a modified copy.
type Address struct {
	callsign string
	ssid     uint8
	digi     bool // Digipeater has repeated the frame ("H" bit, when last).
	hldc     bool // Low bit of the 7th octet: end of the address field.
}

/*------------------------------------------------------------------------------
 *
 * Name:	NewAddress
 *
 * Purpose:	Construct an address from its parts.
 *
 * Inputs:	callsign	- Letters and digits.  Lower case is converted to upper.
 *				  Length is not limited here because text sources
 *				  such as APRS-IS can carry longer names; only the
 *				  binary encoding is limited to 6 characters.
 *
 *		ssid		- 0 thru 15.
 *
 *		digi		- Has been repeated.
 *
 *		hldc		- Last address in the address field.
 *
 * Returns:	Address or a *FormatError.
 *
 *------------------------------------------------------------------------------*/

func NewAddress(callsign string, ssid int, digi bool, hldc bool) (Address, error) {
	callsign = asciiUpper(callsign)

	if !validCallsign(callsign) {
		return Address{}, formatError(ErrCallsign, "%q does not match ^[A-Z0-9]+$", callsign)
	}

	if ssid < 0 || ssid > AX25_MAX_SSID {
		return Address{}, formatError(ErrSSID, "%d not in range of 0 to %d", ssid, AX25_MAX_SSID)
	}

	return Address{
		callsign: callsign,
		ssid:     uint8(ssid), //nolint:gosec // G115 integer overflow
		digi:     digi,
		hldc:     hldc,
	}, nil
}

/*------------------------------------------------------------------------------
 *
 * Name:	AddressFromBinary
 *
 * Purpose:	Decode one 7 octet address as found in a frame.
 *
 *------------------------------------------------------------------------------*/

func AddressFromBinary(b []byte) (Address, error) {
	if len(b) != AX25_ADDR_LEN {
		return Address{}, formatError(ErrAddressLength, "got %d", len(b))
	}

	var call [AX25_MAX_CALL_LEN]byte
	for i := range AX25_MAX_CALL_LEN {
		call[i] = b[i] >> 1
	}

	var a7 = b[AX25_ADDR_LEN-1]
	var hldc = a7&SSID_LAST_MASK != 0
	var ssid = int(a7&SSID_SSID_MASK) >> SSID_SSID_SHIFT

	// The H bit of an address which is not last is the C bit or reserved.
	var digi = hldc && a7&SSID_H_MASK != 0

	return NewAddress(string(bytes.TrimRight(call[:], " ")), ssid, digi, hldc)
}

/*------------------------------------------------------------------------------
 *
 * Name:	AddressFromText
 *
 * Purpose:	Parse an address in the text form CALLSIGN[-SSID][*].
 *
 * Description:	A "*" marks the digipeater as used.  Such an address also
 *		gets the hldc flag because on the air a repeated digipeater
 *		is only recognized when it is the last one.
 *
 *		Callers building the last address of a chain can set hldc
 *		afterwards with WithHLDC.
 *
 *------------------------------------------------------------------------------*/

func AddressFromText(token string) (Address, error) {
	var digi = strings.Contains(token, "*")
	var call, ssidText, _ = strings.Cut(strings.Trim(token, "*"), "-")

	var ssid = 0
	if ssidText != "" {
		var n, err = strconv.ParseUint(ssidText, 10, 8)
		if err != nil || n > AX25_MAX_SSID {
			return Address{}, formatError(ErrSSID, "%q in %q", ssidText, token)
		}
		ssid = int(n)
	}

	return NewAddress(call, ssid, digi, digi)
}

func (a Address) Callsign() string { return a.callsign }

func (a Address) SSID() int { return int(a.ssid) }

func (a Address) Digi() bool { return a.digi }

func (a Address) HLDC() bool { return a.hldc }

func (a Address) WithDigi(digi bool) Address {
	a.digi = digi
	return a
}

func (a Address) WithHLDC(hldc bool) Address {
	a.hldc = hldc
	return a
}

func (a Address) WithSSID(ssid int) (Address, error) {
	return NewAddress(a.callsign, ssid, a.digi, a.hldc)
}

// String gives the text form, e.g. "N0CALL-1*".
func (a Address) String() string {
	var s = a.callsign

	if a.ssid != 0 {
		s += "-" + strconv.Itoa(int(a.ssid))
	}

	if a.digi {
		s += "*"
	}

	return s
}

// CallsignWithSSID is the text form without the "*".
func (a Address) CallsignWithSSID() string {
	return a.WithDigi(false).String()
}

/*------------------------------------------------------------------------------
 *
 * Name:	EncodeBinary
 *
 * Purpose:	Produce the 7 octet form of an address.
 *
 * Errors:	Callsign longer than 6 characters can't be represented.
 *
 *------------------------------------------------------------------------------*/

func (a Address) EncodeBinary() ([]byte, error) {
	if !validCallsign(a.callsign) {
		return nil, formatError(ErrCallsign, "%q does not match ^[A-Z0-9]+$", a.callsign)
	}

	if len(a.callsign) > AX25_MAX_CALL_LEN {
		return nil, formatError(ErrCallsign, "cannot encode callsign longer than %d bytes: %s", AX25_MAX_CALL_LEN, a.callsign)
	}

	var out = make([]byte, AX25_ADDR_LEN)
	for i := range AX25_MAX_CALL_LEN {
		var ch byte = ' '
		if i < len(a.callsign) {
			ch = a.callsign[i]
		}
		out[i] = ch << 1
	}

	var a7 = a.ssid<<SSID_SSID_SHIFT | SSID_RR_MASK
	if a.digi && a.hldc {
		a7 |= SSID_H_MASK
	}
	if a.hldc {
		a7 |= SSID_LAST_MASK
	}
	out[AX25_ADDR_LEN-1] = a7

	return out, nil
}

func validCallsign(s string) bool {
	if len(s) == 0 {
		return false
	}

	for i := range len(s) {
		var c = s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}

	return true
}

// Only ASCII letters are folded; anything else is left for validCallsign to reject.
func asciiUpper(s string) string {
	var b = []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}

	return string(b)
}

package ax25

/*-------------------------------------------------------------
 *
 * Purpose:	Frame Check Sequence for the binary frame stream.
 *
 * Description:	16 bit CCITT polynomial x^16 + x^12 + x^5 + 1 (0x1021),
 *		preset to all ones.  Octets are fed most significant
 *		bit first.  The remainder is bit reversed and
 *		complemented, then transmitted least significant
 *		octet first.
 *
 *--------------------------------------------------------------*/

import (
	"math/bits"
)

const FCS_LEN = 2

var ccitt_table = func() [256]uint16 {
	var t [256]uint16
	for i := range 256 {
		var crc = uint16(i) << 8 //nolint:gosec // G115 integer overflow
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// FCS computes the frame check sequence over an encoded frame,
// flags and FCS excluded.
func FCS(data []byte) uint16 {
	var crc uint16 = 0xffff

	for _, b := range data {
		crc = crc<<8 ^ ccitt_table[byte(crc>>8)^b]
	}

	return bits.Reverse16(crc) ^ 0xffff
}

// appendFCS adds the FCS, low octet first.
func appendFCS(frame []byte) []byte {
	var fcs = FCS(frame)
	return append(frame, byte(fcs), byte(fcs>>8))
}

// checkFCS compares the trailing two octets of span with the FCS of the rest.
func checkFCS(span []byte) (computed uint16, received uint16, ok bool) {
	var n = len(span) - FCS_LEN
	computed = FCS(span[:n])
	received = uint16(span[n]) | uint16(span[n+1])<<8
	return computed, received, computed == received
}

package ax25

/*------------------------------------------------------------------
 *
 * Purpose:	Classify the control octet for display.
 *
 * Description:	Only the modulo 8 form with a single control octet is
 *		understood.  There is no data link state machine here so
 *		sequence numbers are reported but never acted upon.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
)

type FrameType int

const (
	FrameTypeI     FrameType = iota // Information
	FrameTypeRR                     // Receive Ready - System Ready To Receive
	FrameTypeRNR                    // Receive Not Ready - TNC Buffer Full
	FrameTypeREJ                    // Reject Frame - Out of Sequence or Duplicate
	FrameTypeSREJ                   // Selective Reject - Request single frame repeat
	FrameTypeSABME                  // Set Async Balanced Mode, Extended
	FrameTypeSABM                   // Set Async Balanced Mode
	FrameTypeDISC                   // Disconnect
	FrameTypeDM                     // Disconnect Mode
	FrameTypeUA                     // Unnumbered Acknowledge
	FrameTypeFRMR                   // Frame Reject
	FrameTypeUI                     // Unnumbered Information
	FrameTypeXID                    // Exchange Identification
	FrameTypeTEST                   // Test
	FrameTypeU                      // other Unnumbered, not used by AX.25.
)

var frameTypeNames = [...]string{
	FrameTypeI:     "I",
	FrameTypeRR:    "RR",
	FrameTypeRNR:   "RNR",
	FrameTypeREJ:   "REJ",
	FrameTypeSREJ:  "SREJ",
	FrameTypeSABME: "SABME",
	FrameTypeSABM:  "SABM",
	FrameTypeDISC:  "DISC",
	FrameTypeDM:    "DM",
	FrameTypeUA:    "UA",
	FrameTypeFRMR:  "FRMR",
	FrameTypeUI:    "UI",
	FrameTypeXID:   "XID",
	FrameTypeTEST:  "TEST",
	FrameTypeU:     "U",
}

func (t FrameType) String() string {
	if t < 0 || int(t) >= len(frameTypeNames) {
		return fmt.Sprintf("FrameType(%d)", int(t))
	}
	return frameTypeNames[t]
}

func FrameTypeOf(c byte) FrameType {
	if c&1 == 0 {
		// Information 			rrr p sss 0
		return FrameTypeI
	}

	if c&2 == 0 {
		// Supervisory			rrr p/f ss 0 1
		switch (c >> 2) & 3 {
		case 0:
			return FrameTypeRR
		case 1:
			return FrameTypeRNR
		case 2:
			return FrameTypeREJ
		default:
			return FrameTypeSREJ
		}
	}

	// Unnumbered			mmm p/f mm 1 1
	switch c & 0xef {
	case 0x6f:
		return FrameTypeSABME
	case 0x2f:
		return FrameTypeSABM
	case 0x43:
		return FrameTypeDISC
	case 0x0f:
		return FrameTypeDM
	case 0x63:
		return FrameTypeUA
	case 0x87:
		return FrameTypeFRMR
	case 0x03:
		return FrameTypeUI
	case 0xaf:
		return FrameTypeXID
	case 0xe3:
		return FrameTypeTEST
	default:
		return FrameTypeU
	}
}

func (f *Frame) Type() FrameType {
	return FrameTypeOf(f.Control)
}

/*------------------------------------------------------------------
 *
 * Name:	ControlDescription
 *
 * Purpose:	Text description of the control octet, such as
 *		"I n(s)=2, n(r)=5, p=0" or "UI p/f=0".
 *
 *------------------------------------------------------------------*/

func ControlDescription(c byte) string {
	var t = FrameTypeOf(c)
	var pf = (c >> 4) & 1
	var nr = (c >> 5) & 7

	switch t {
	case FrameTypeI:
		return fmt.Sprintf("I n(s)=%d, n(r)=%d, p=%d", (c>>1)&7, nr, pf)
	case FrameTypeRR, FrameTypeRNR, FrameTypeREJ, FrameTypeSREJ:
		return fmt.Sprintf("%s n(r)=%d, p/f=%d", t, nr, pf)
	case FrameTypeU:
		return fmt.Sprintf("U other, control=0x%02x", c)
	default:
		return fmt.Sprintf("%s p/f=%d", t, pf)
	}
}

/* Text description of protocol id octet. */

func PIDDescription(p byte) string {

	switch {
	case p&0x30 == 0x10, p&0x30 == 0x20:
		return "AX.25 layer 3 implemented."
	case p == 0x01:
		return "ISO 8208/CCITT X.25 PLP"
	case p == 0x06:
		return "Compressed TCP/IP packet. Van Jacobson (RFC 1144)"
	case p == 0x07:
		return "Uncompressed TCP/IP packet. Van Jacobson (RFC 1144)"
	case p == 0x08:
		return "Segmentation fragment"
	case p == 0xC3:
		return "TEXNET datagram protocol"
	case p == 0xC4:
		return "Link Quality Protocol"
	case p == 0xCA:
		return "Appletalk"
	case p == 0xCB:
		return "Appletalk ARP"
	case p == 0xCC:
		return "ARPA Internet Protocol"
	case p == 0xCD:
		return "ARPA Address resolution"
	case p == 0xCE:
		return "FlexNet"
	case p == 0xCF:
		return "NET/ROM"
	case p == 0xF0:
		return "No layer 3 protocol implemented."
	case p == 0xFF:
		return "Escape character. Next octet contains more Level 3 protocol information."
	default:
		return fmt.Sprintf("Unknown protocol id = 0x%02x", p)
	}
}

// Describe is a one line summary of control, PID, and length for verbose output.
func (f *Frame) Describe() string {
	var desc = ControlDescription(f.Control)

	// Only I and UI frames have a PID.
	if f.Control&0x01 == 0 || f.Control&0xef == AX25_UI_FRAME {
		desc += ", " + PIDDescription(f.PID)
	}

	return fmt.Sprintf("%s, length = %d", desc, len(f.Info))
}

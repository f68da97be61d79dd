package ax25

import (
	"fmt"
	"io"
)

// HexDump writes p 16 octets per line, offset first and printable
// ASCII at the end, like:
//
//	000:  c0 00 82 a0 88 ae 62 6a e0 ae 84 64 9e a6 b4 ff  ......bj...d....
func HexDump(w io.Writer, p []byte) {
	var offset = 0

	for len(p) > 0 {
		var n = min(len(p), 16)

		fmt.Fprintf(w, "  %03x: ", offset)

		for i := range n {
			fmt.Fprintf(w, " %02x", p[i])
		}

		for range 16 - n {
			fmt.Fprint(w, "   ")
		}

		fmt.Fprint(w, "  ")

		for i := range n {
			if p[i] >= 0x20 && p[i] <= 0x7E {
				fmt.Fprintf(w, "%c", p[i])
			} else {
				fmt.Fprint(w, ".")
			}
		}

		fmt.Fprint(w, "\n")

		p = p[n:]
		offset += n
	}
}

// hexDumpWriter dumps everything written through it, for verbose mode.
type hexDumpWriter struct {
	w     io.Writer
	label string
}

func (h hexDumpWriter) Write(p []byte) (int, error) {
	fmt.Fprintf(h.w, "%s %d bytes\n", h.label, len(p))
	HexDump(h.w, p)

	return len(p), nil
}

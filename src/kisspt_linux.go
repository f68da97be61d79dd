//go:build linux

package ax25

import (
	"os"

	"golang.org/x/sys/unix"
)

// setRawMode is cfmakeraw for the slave side, so KISS bytes pass
// through the line discipline untouched.
func setRawMode(f *os.File) error {
	var fd = int(f.Fd()) //nolint:gosec // G115 integer overflow

	var ts, err = unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	ts.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	ts.Oflag &^= unix.OPOST
	ts.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	ts.Cflag &^= unix.CSIZE | unix.PARENB
	ts.Cflag |= unix.CS8

	ts.Cc[unix.VMIN] = 1  /* wait for at least one character */
	ts.Cc[unix.VTIME] = 0 /* no fancy timing. */

	return unix.IoctlSetTermios(fd, unix.TCSETS, ts)
}

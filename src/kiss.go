package ax25

/*------------------------------------------------------------------
 *
 * Purpose:   	Act as a virtual KISS TNC for use by other packet radio applications.
 *
 * Description: This provides a pseudo terminal for communication with a client application.
 *
 *		Some applications only know how to talk to a TNC on a
 *		serial port.  They can open the pseudo terminal, or the
 *		symlink to it, as if it were one.  What they send comes
 *		out of Read here, and what is written here goes to them.
 *
 *		The device name is not the same every time.
 *		This is inconvenient for the application because it might
 *		be necessary to change the device name in the configuration.
 *		A symlink, /tmp/kisstnc, is created so the application
 *		configuration does not need to change when the pseudo
 *		terminal name changes.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"os"

	"github.com/creack/pty"
)

/*
 * Symlink to pseudo terminal name which changes.
 */

const TMP_KISSTNC_SYMLINK = "/tmp/kisstnc"

type VirtualTNC struct {
	master  *os.File
	slave   *os.File
	symlink string
}

/*-------------------------------------------------------------------
 *
 * Name:        OpenVirtualTNC
 *
 * Purpose:     Create the pseudo terminal.
 *
 * Inputs:	symlink	- Where to point at the slave side.
 *			  Empty for none.
 *
 *--------------------------------------------------------------------*/

func OpenVirtualTNC(symlink string) (*VirtualTNC, error) {
	var ptmx, pts, err = pty.Open()
	if err != nil {
		return nil, fmt.Errorf("could not create pseudo terminal for KISS TNC: %w", err)
	}

	// The slave stays open here.  On Debian based systems it
	// disappears after a few seconds if no one has it open.

	if err := setRawMode(pts); err != nil {
		ptmx.Close()
		pts.Close()
		return nil, fmt.Errorf("pseudo terminal raw mode: %w", err)
	}

	var vt = &VirtualTNC{master: ptmx, slave: pts, symlink: ""}

	logger.Info("Virtual KISS TNC is available", "device", pts.Name())

	if symlink != "" {
		os.Remove(symlink)

		if err := os.Symlink(pts.Name(), symlink); err != nil {
			vt.Close()
			return nil, fmt.Errorf("failed to create symlink %s: %w", symlink, err)
		}

		vt.symlink = symlink
		logger.Info("Created symlink", "link", symlink, "target", pts.Name())
	}

	return vt, nil
}

// Name is the slave device for the application to open.
func (vt *VirtualTNC) Name() string {
	return vt.slave.Name()
}

func (vt *VirtualTNC) Read(p []byte) (int, error) {
	return vt.master.Read(p)
}

func (vt *VirtualTNC) Write(p []byte) (int, error) {
	return vt.master.Write(p)
}

// Close removes the symlink if it still points at our device.
func (vt *VirtualTNC) Close() error {
	var errs []error

	if vt.symlink != "" {
		if target, err := os.Readlink(vt.symlink); err == nil && target == vt.slave.Name() {
			errs = append(errs, os.Remove(vt.symlink))
		}
	}

	errs = append(errs, vt.master.Close(), vt.slave.Close())

	return errors.Join(errs...)
}

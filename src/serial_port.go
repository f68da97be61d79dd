package ax25

/*------------------------------------------------------------------
 *
 * Purpose:   	Interface to serial port, hiding operating system differences.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"slices"

	"github.com/pkg/term"
)

/*-------------------------------------------------------------------
 *
 * Name:	OpenSerialPort
 *
 * Purpose:	Open serial port for a hardware KISS TNC.
 *
 * Inputs:	devicename	- Usually like /dev/ttyUSB0.
 *				  Could be /dev/rfcomm0 for Bluetooth.
 *
 *		baud		- Speed.  1200, 4800, 9600 bps, etc.
 *				  If 0, leave it alone.
 *
 * Returns 	Handle for serial port in raw mode.
 *
 *---------------------------------------------------------------*/

func OpenSerialPort(devicename string, baud int) (*term.Term, error) {
	if !slices.Contains(validSpeeds, baud) {
		return nil, fmt.Errorf("serial port %s: unsupported speed %d", devicename, baud)
	}

	var opts = []func(*term.Term) error{term.RawMode}
	if baud != 0 {
		opts = append(opts, term.Speed(baud))
	}

	var fd, err = term.Open(devicename, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", devicename, err)
	}

	logger.Info("Opened serial port", "device", devicename, "speed", baud)

	return fd, nil
}

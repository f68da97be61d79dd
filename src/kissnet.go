package ax25

/*------------------------------------------------------------------
 *
 * Purpose:   	Connect to a network KISS TNC, and open whichever
 *		transport the configuration asks for.
 *
 * Description:	Dire Wolf, and most other software TNCs, offer KISS over
 *		TCP, by default on port 8001.  Hardware TNCs are usually
 *		on a serial port.  A pseudo terminal lets an application
 *		which only knows about serial ports talk to us instead.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"
)

const DIAL_TIMEOUT = 6 * time.Second

var ErrReadOnly = errors.New("transport is receive only")

/*-------------------------------------------------------------------
 *
 * Name:        DialKISS
 *
 * Purpose:     Connect to network KISS TNC.
 *
 * Inputs:	host	- Name or address.
 *		port	- Usually 8001.
 *
 *--------------------------------------------------------------------*/

func DialKISS(ctx context.Context, host string, port int) (net.Conn, error) {
	var addr = net.JoinHostPort(host, strconv.Itoa(port))
	var dialer = net.Dialer{Timeout: DIAL_TIMEOUT} //nolint:exhaustruct

	logger.Debug("Connecting to KISS TNC", "addr", addr)

	var conn, err = dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %w", addr, err)
	}

	logger.Info("Connected to KISS TNC", "remote", conn.RemoteAddr().String())

	return conn, nil
}

// readOnly is a transport for recorded input.  Writes fail.
type readOnly struct {
	io.ReadCloser
}

func (readOnly) Write([]byte) (int, error) {
	return 0, ErrReadOnly
}

/*-------------------------------------------------------------------
 *
 * Name:        OpenTransport
 *
 * Purpose:     Open the byte stream described by the configuration.
 *
 * Returns:	Stream to read from, and write to if cfg.Bidirectional().
 *		The caller must Close it.
 *
 * Description:	With Discover set, the TCP host and port come from
 *		DNS-SD instead of the configuration.
 *
 *--------------------------------------------------------------------*/

func OpenTransport(ctx context.Context, cfg *Config) (io.ReadWriteCloser, error) {
	switch cfg.Transport {
	case TRANSPORT_TCP:
		var host, port = cfg.Host, cfg.Port

		if cfg.Discover {
			var tnc, err = DiscoverKISSTNC(ctx, cfg.DiscoverTimeout)
			if err != nil {
				return nil, err
			}
			logger.Info("Found KISS TNC", "name", tnc.Name, "host", tnc.Host, "port", tnc.Port)
			host, port = tnc.Host, tnc.Port
		}

		return DialKISS(ctx, host, port)

	case TRANSPORT_SERIAL:
		var fd, err = OpenSerialPort(cfg.Device, cfg.Speed)
		if err != nil {
			return nil, err
		}
		return fd, nil

	case TRANSPORT_PTY:
		var vt, err = OpenVirtualTNC(TMP_KISSTNC_SYMLINK)
		if err != nil {
			return nil, err
		}
		return vt, nil

	case TRANSPORT_STDIN:
		return readOnly{io.NopCloser(os.Stdin)}, nil

	case TRANSPORT_FILE:
		var f, err = os.Open(cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		return readOnly{f}, nil

	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

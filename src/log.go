package ax25

/*------------------------------------------------------------------
 *
 * Purpose:	Save received packets to a log file.
 *
 * Description: Rather than saving the raw, sometimes rather cryptic and
 *		unreadable, format, write separated properties into
 *		CSV format for easy reading and later processing.
 *
 *		There are two alternatives here.
 *
 *		-L logfile		Specify full file path.
 *
 *		-l logdir		Daily names will be created here.
 *
 *		Use one or the other but not both.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var packetLogHeader = []string{
	"chan", "utime", "isotime", "source", "heard", "destination", "path",
	"control", "pid", "frame_type", "info",
}

type PacketLog struct {
	daily bool
	path  string // Directory for daily names, otherwise the file.

	fp       *os.File // Kept open.  We don't open/close for every new item.
	w        *csv.Writer
	openName string // Applicable only for daily names.
}

/*------------------------------------------------------------------
 *
 * Function:	NewPacketLog
 *
 * Inputs:	daily	- True if daily names should be generated.
 *			  In this case path is a directory.
 *			  When false, path would be the file name.
 *
 *		path	- Log file name or just directory.
 *			  Use "." for current directory.
 *
 * Description:	A missing directory is created, but not multiple levels
 *		like "mkdir -p".  If that fails, or the location is not
 *		a directory, the current working directory is used instead.
 *
 *------------------------------------------------------------------*/

func NewPacketLog(daily bool, path string) *PacketLog {
	var pl = &PacketLog{daily: daily, path: path, fp: nil, w: nil, openName: ""}

	if !daily {
		// Typically logrotate would be used to keep size under control.
		logger.Info("Log file", "path", path)
		return pl
	}

	var stat, statErr = os.Stat(path)

	switch {
	case statErr == nil && stat.IsDir():
	case statErr == nil:
		logger.Error("Log file location is not a directory.  Using current working directory instead.", "path", path)
		pl.path = "."
	default:
		if err := os.Mkdir(path, 0o755); err != nil {
			logger.Error("Failed to create log file location.  Using current working directory instead.", "path", path, "err", err)
			pl.path = "."
		} else {
			logger.Info("Log file location has been created", "path", path)
		}
	}

	return pl
}

func (pl *PacketLog) open(fullPath string) error {
	var _, statErr = os.Stat(fullPath)
	var alreadyThere = statErr == nil

	logger.Info("Opening log file", "path", fullPath)

	var f, err = os.OpenFile(fullPath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("can't open log file %s for write: %w", fullPath, err)
	}

	pl.fp = f
	pl.w = csv.NewWriter(f)

	// Write a header suitable for importing into a spreadsheet
	// only if this will be the first line.

	if !alreadyThere {
		if err := pl.w.Write(packetLogHeader); err != nil {
			return fmt.Errorf("log header: %w", err)
		}
	}

	return nil
}

/*------------------------------------------------------------------
 *
 * Function:	Write
 *
 * Purpose:	Save information to log file.
 *
 * Inputs:	channel	- Radio channel where heard.
 *
 *		f	- Received frame.
 *
 *		now	- Time received.
 *
 *------------------------------------------------------------------*/

func (pl *PacketLog) Write(channel int, f *Frame, now time.Time) error {
	now = now.UTC()

	if pl.daily {
		// Generate the file name from current date, UTC.
		var fname = now.Format("2006-01-02.log")

		// Close current file if name has changed.
		if pl.fp != nil && fname != pl.openName {
			if err := pl.Close(); err != nil {
				return err
			}
		}

		if pl.fp == nil {
			if err := pl.open(filepath.Join(pl.path, fname)); err != nil {
				return err
			}
			pl.openName = fname
		}
	} else if pl.fp == nil {
		if err := pl.open(pl.path); err != nil {
			return err
		}
	}

	/* Who are we hearing?   Original station or digipeater? */

	var h = f.HeardIndex()
	var heard = f.Addresses()[h].CallsignWithSSID()

	// Digipeater which doesn't insert its own callsign.
	// Guess the one before it.
	if h >= AX25_REPEATER_1+1 && isWIDEn(f.Addresses()[h].Callsign()) {
		heard = f.Addresses()[h-1].CallsignWithSSID() + "?"
	}

	var record = []string{
		strconv.Itoa(channel),
		strconv.FormatInt(now.Unix(), 10),
		now.Format("2006-01-02T15:04:05Z"),
		f.Source.CallsignWithSSID(),
		heard,
		f.Destination.CallsignWithSSID(),
		formatVia(f.Path),
		fmt.Sprintf("0x%02x", f.Control),
		fmt.Sprintf("0x%02x", f.PID),
		f.Type().String(),
		f.SafeInfo(),
	}

	if err := pl.w.Write(record); err != nil {
		return fmt.Errorf("log write: %w", err)
	}

	pl.w.Flush()

	return pl.w.Error()
}

func (pl *PacketLog) Close() error {
	if pl.fp == nil {
		return nil
	}

	pl.w.Flush()
	var flushErr = pl.w.Error()
	var closeErr = pl.fp.Close()

	pl.fp = nil
	pl.w = nil
	pl.openName = ""

	if flushErr != nil {
		return flushErr
	}

	return closeErr
}

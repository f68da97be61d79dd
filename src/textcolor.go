package ax25

// Console logging.  The codec itself never logs; the readers, transports
// and the monitor application do.

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{ //nolint:exhaustruct
	Level:      log.InfoLevel,
	TimeFormat: time.TimeOnly,
})

/*-------------------------------------------------------------------
 *
 * Name:        LogInit
 *
 * Purpose:     Set up the package logger.
 *
 * Inputs:	level		- "debug", "info", "warn", or "error".
 *		timestamps	- Precede each line with the time.
 *
 *--------------------------------------------------------------------*/

func LogInit(level string, timestamps bool) error {
	var lvl, err = log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}

	logger.SetLevel(lvl)
	logger.SetReportTimestamp(timestamps)

	return nil
}

// SetLogOutput redirects log messages, e.g. to a test buffer.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

func Logger() *log.Logger {
	return logger
}

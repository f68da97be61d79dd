package ax25

/*------------------------------------------------------------------
 *
 * Purpose:   	Packet monitor.
 *
 * Description:	Convert between the stream from a TNC and the usual text
 *		representation.  The TNC can be attached by TCP or a
 *		serial port, or we can pretend to be one on a pseudo
 *		terminal.  A capture in KISS, HDLC, or TNC2 form can also
 *		be decoded from a file or stdin.
 *
 *		Received frames are printed, and optionally saved to a
 *		packet log, a heard station database, and a directory
 *		with one file per frame.  Lines typed in, or files placed
 *		in a directory, are sent to the TNC.
 *
 * Usage:	ax25mon  [ options ]
 *
 *		Default is to connect to localhost:8001.
 *		See the "usage" functions at the bottom for details.
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode"

	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"
)

// Defaults for the KISS commands which may be typed in.
const (
	DEFAULT_TXDELAY  = 30
	DEFAULT_PERSIST  = 63
	DEFAULT_SLOTTIME = 10
	DEFAULT_TXTAIL   = 10
)

const TRANSMIT_POLL = time.Second

var ErrBadInput = errors.New("expected a frame in monitor format or a command")

// syncWriter lets the reader and the input goroutines share stdout.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}

// NewDecoder picks the ChunkDecoder for a stream format.
func NewDecoder(format string, channel int) (ChunkDecoder[*RecvFrame], error) {
	switch format {
	case FORMAT_KISS:
		return NewKISSDecoder(), nil
	case FORMAT_HDLC:
		return OnChannel(NewHDLCDecoder(), channel), nil
	case FORMAT_TNC2:
		return OnChannel(NewTNC2Decoder(), channel), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

type Monitor struct {
	cfg   *Config
	out   io.Writer
	tnc   io.Writer // nil when receive only.
	ts    *strftime.Strftime
	plog  *PacketLog
	heard *HeardDB
	now   func() time.Time
}

/*-------------------------------------------------------------------
 *
 * Name:        OpenMonitor
 *
 * Purpose:     Set up everything received frames go to.
 *
 * Inputs:	cfg	- Validated configuration.
 *		out	- Where frames are printed.
 *		tnc	- Where frames and commands are sent.  nil if the
 *			  transport is receive only.
 *
 *--------------------------------------------------------------------*/

func OpenMonitor(ctx context.Context, cfg *Config, out io.Writer, tnc io.Writer) (*Monitor, error) {
	var m = &Monitor{cfg: cfg, out: out, tnc: tnc, ts: nil, plog: nil, heard: nil, now: time.Now}

	if cfg.TimestampFormat != "" {
		var ts, err = compileTimestamp(cfg.TimestampFormat)
		if err != nil {
			return nil, fmt.Errorf("timestamp format: %w", err)
		}
		m.ts = ts
	}

	/*
	 * If receive queue directory was specified, make sure that it exists.
	 */
	if cfg.ReceiveOutput != "" {
		var s, err = os.Stat(cfg.ReceiveOutput)
		if err != nil {
			return nil, fmt.Errorf("receive queue location: %w", err)
		}
		if !s.IsDir() {
			return nil, fmt.Errorf("receive queue location, %s, is not a directory", cfg.ReceiveOutput)
		}
	}

	if cfg.HeardDB != "" {
		var db, err = OpenHeardDB(ctx, cfg.HeardDB)
		if err != nil {
			return nil, err
		}
		m.heard = db
	}

	if cfg.PacketLog != "" {
		m.plog = NewPacketLog(cfg.DailyLog, cfg.PacketLog)
	}

	if tnc != nil && cfg.Verbose {
		m.tnc = io.MultiWriter(tnc, hexDumpWriter{w: out, label: ">>>"})
	}

	return m, nil
}

func (m *Monitor) Close() error {
	var errs []error

	if m.plog != nil {
		errs = append(errs, m.plog.Close())
	}

	if m.heard != nil {
		errs = append(errs, m.heard.Close())
	}

	return errors.Join(errs...)
}

// Channel and optional timestamp.  Like [0] or [2 12:34:56]
func (m *Monitor) prefix(channel int, now time.Time) string {
	if m.ts != nil {
		return fmt.Sprintf("[%d %s]", channel, m.ts.FormatString(now))
	}

	return fmt.Sprintf("[%d]", channel)
}

/*-------------------------------------------------------------------
 *
 * Name:        HandleFrame
 *
 * Purpose:     Process something from the TNC.
 *		In this case, we simply print it, and save it where asked.
 *
 *-----------------------------------------------------------------*/

func (m *Monitor) HandleFrame(ctx context.Context, rf *RecvFrame) {
	switch rf.Cmd {
	case KISS_CMD_DATA_FRAME:
		var now = m.now()
		var prefix = m.prefix(rf.Channel, now)
		var f = rf.Frame

		// Safe print will replace any unprintable characters with
		// hexadecimal representation.
		fmt.Fprintf(m.out, "%s %s%s\n", prefix, f.FormatAddrs(), f.SafeInfo())

		if m.cfg.Verbose {
			fmt.Fprintf(m.out, "  %s\n", f.Describe())
		}

		if m.cfg.ReceiveOutput != "" {
			m.saveReceived(prefix, f, now)
		}

		if m.plog != nil {
			if err := m.plog.Write(rf.Channel, f, now); err != nil {
				logger.Warn("packet log", "err", err)
			}
		}

		if m.heard != nil {
			if err := m.heard.Record(ctx, rf.Channel, f, now); err != nil {
				logger.Warn("heard station database", "err", err)
			}
		}

	case KISS_CMD_SET_HARDWARE:
		// Display as "h ..." for in/out symmetry.
		fmt.Fprintf(m.out, "[%d] h %s\n", rf.Channel, rf.Data)
	}
}

/*------------------------------------------------------------------
 *
 * Name:	timestampFilename
 *
 * Purpose:   	Generate unique file name based on the time.
 *		The format will be:
 *
 *			YYYYMMDD-HHMMSS-mmm
 *
 *		It is possible to have two packets arrive in less
 *		than a second so we need more than one second resolution.
 *
 *		Local time.  For UTC, run with TZ=UTC.
 *
 *---------------------------------------------------------------*/

func timestampFilename(t time.Time) string {
	return t.Format("20060102-150405") + fmt.Sprintf("-%03d", t.Nanosecond()/int(time.Millisecond))
}

func (m *Monitor) saveReceived(prefix string, f *Frame, now time.Time) {
	var fullpath = filepath.Join(m.cfg.ReceiveOutput, timestampFilename(now))

	logger.Info("Save received frame", "path", fullpath)

	var content = prefix + " " + f.FormatAddrs() + string(f.Info) + "\n"

	if err := os.WriteFile(fullpath, []byte(content), 0o644); err != nil { //nolint:gosec
		logger.Error("Unable to open for write", "path", fullpath, "err", err)
	}
}

// parseNumber gives the value for a KISS command, or the default.
func parseNumber(str string, deFault int) byte {
	str = strings.TrimSpace(str)

	if len(str) == 0 {
		logger.Warn("Missing number for KISS command.  Using default.", "default", deFault)
		return byte(deFault)
	}

	var n, err = strconv.Atoi(str)
	if err != nil || n < 0 || n > 255 { // must fit in a byte.
		logger.Warn("Number for KISS command is out of range 0-255.  Using default.", "value", str, "default", deFault)
		return byte(deFault)
	}

	return byte(n)
}

/*-------------------------------------------------------------------
 *
 * Name:        ProcessInput
 *
 * Purpose:     Process frames/commands from user, either interactively or from files.
 *
 * Inputs:	stuff		- A frame is in usual format like SOURCE>DEST,DIGI:whatever.
 *				  Commands begin with lower case letter.
 *				  Optional prefix, like "[9]", to specify channel.
 *
 *--------------------------------------------------------------------*/

func (m *Monitor) ProcessInput(stuff string) error {
	stuff = strings.TrimSpace(stuff)
	if stuff == "" {
		return nil
	}

	var channel = 0

	if stuff[0] == '[' {
		var before, after, found = strings.Cut(stuff[1:], "]")
		if !found {
			return errors.New("channel number and ] was expected after [ at beginning of line")
		}

		var n, err = strconv.Atoi(before)
		if err != nil || n < 0 || n > MAX_KISS_CHANNEL {
			return fmt.Errorf("KISS channel number must be in range of 0 thru %d, not %q", MAX_KISS_CHANNEL, before)
		}

		channel = n
		stuff = strings.TrimSpace(after)

		if stuff == "" {
			return ErrBadInput
		}
	}

	/*
	 * If it starts with upper case letter or digit, assume it is an AX.25 frame in monitor format.
	 * Lower case is a command (e.g.  Persistence or set Hardware).
	 */

	var first = rune(stuff[0])

	switch {
	case unicode.IsUpper(first) || unicode.IsDigit(first):
		var f, err = FrameFromText(stuff)
		if err != nil {
			return fmt.Errorf("could not convert to AX.25 frame: %w", err)
		}
		return m.SendFrame(channel, f)

	case unicode.IsLower(first):
		switch first {
		case 'd': // txDelay, 10ms units
			return m.SendCommand(channel, KISS_CMD_TXDELAY, []byte{parseNumber(stuff[1:], DEFAULT_TXDELAY)})
		case 'p': // Persistence
			return m.SendCommand(channel, KISS_CMD_PERSISTENCE, []byte{parseNumber(stuff[1:], DEFAULT_PERSIST)})
		case 's': // Slot time, 10ms units
			return m.SendCommand(channel, KISS_CMD_SLOTTIME, []byte{parseNumber(stuff[1:], DEFAULT_SLOTTIME)})
		case 't': // txTail, 10ms units
			return m.SendCommand(channel, KISS_CMD_TXTAIL, []byte{parseNumber(stuff[1:], DEFAULT_TXTAIL)})
		case 'f': // Full duplex
			return m.SendCommand(channel, KISS_CMD_FULLDUPLEX, []byte{parseNumber(stuff[1:], 0)})
		case 'h': // set Hardware
			return m.SendCommand(channel, KISS_CMD_SET_HARDWARE, []byte(strings.TrimSpace(stuff[1:])))
		default:
			return errors.New("invalid command, must be one of d p s t f h")
		}

	default:
		return ErrBadInput
	}
} /* end ProcessInput */

// SendFrame encodes f in the configured format and sends it to the TNC.
func (m *Monitor) SendFrame(channel int, f *Frame) error {
	if m.tnc == nil {
		return ErrReadOnly
	}

	var out []byte
	var err error

	switch m.cfg.Format {
	case FORMAT_KISS:
		out, err = KISSEncodeFrame(channel, f)
	case FORMAT_HDLC:
		out, err = EncodeHDLC(f)
	default:
		out = []byte(f.EncodeText() + "\n")
	}

	if err != nil {
		return err
	}

	if _, err := m.tnc.Write(out); err != nil {
		return fmt.Errorf("send to TNC: %w", err)
	}

	return nil
}

// SendCommand sends anything other than a data frame.  Only KISS can carry them.
func (m *Monitor) SendCommand(channel int, cmd byte, data []byte) error {
	if m.tnc == nil {
		return ErrReadOnly
	}

	if m.cfg.Format != FORMAT_KISS {
		return fmt.Errorf("KISS commands can't be sent in %s format", m.cfg.Format)
	}

	var out, err = KISSEncodeCommand(channel, cmd, data)
	if err != nil {
		return err
	}

	if _, err := m.tnc.Write(out); err != nil {
		return fmt.Errorf("send to TNC: %w", err)
	}

	return nil
}

func (m *Monitor) reportInputError(err error) {
	fmt.Fprintf(m.out, "ERROR! %s\n", err)
	usage2(m.out)
}

// ReadInput sends each line from r, usually the keyboard.
func (m *Monitor) ReadInput(r io.Reader) {
	var scanner = bufio.NewScanner(r)

	for scanner.Scan() {
		if err := m.ProcessInput(scanner.Text()); err != nil {
			m.reportInputError(err)
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        processTransmitDir
 *
 * Purpose:     Process and delete all files in specified directory.
 *		Each file is one or more lines in the standard
 *		monitoring format.
 *
 * Description:	Files are taken in order of name.
 *		A file which can't be read is left alone.
 *
 *--------------------------------------------------------------------*/

func (m *Monitor) processTransmitDir(dir string) error {
	var entries, err = os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("transmit queue: %w", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		var fname = filepath.Join(dir, entry.Name())

		fmt.Fprintf(m.out, "Processing %s for transmit...\n", entry.Name())

		var data, err = os.ReadFile(fname)
		if err != nil {
			logger.Error("Can't read transmit file", "path", fname, "err", err)
			continue
		}

		for line := range strings.Lines(string(data)) {
			if err := m.ProcessInput(line); err != nil {
				m.reportInputError(err)
			}
		}

		if err := os.Remove(fname); err != nil {
			return fmt.Errorf("transmit queue: %w", err)
		}
	}

	return nil
}

// TransmitFrom watches dir until ctx is done.
func (m *Monitor) TransmitFrom(ctx context.Context, dir string) {
	var ticker = time.NewTicker(TRANSMIT_POLL)
	defer ticker.Stop()

	for {
		if err := m.processTransmitDir(dir); err != nil {
			logger.Error("transmit", "err", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        RunMonitor
 *
 * Purpose:     Parse options, attach to the TNC, and print what comes.
 *
 * Inputs:	args	- Command line, without the program name.
 *		stdin	- Frames and commands to send.  Not used when
 *			  the transport is receive only.
 *		stdout	- Received frames.
 *
 * Returns:	nil at end of input or when ctx is cancelled.
 *
 *--------------------------------------------------------------------*/

func RunMonitor(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	var out = &syncWriter{mu: sync.Mutex{}, w: stdout}

	var cfg, done, err = parseMonitorArgs(args, out)
	if err != nil || done {
		return err
	}

	if err := LogInit(cfg.LogLevel, cfg.LogTimestamps); err != nil {
		return err
	}

	tr, err := OpenTransport(ctx, cfg)
	if err != nil {
		return err
	}
	defer tr.Close()

	var tnc io.Writer
	if cfg.Bidirectional() {
		tnc = tr
	}

	m, err := OpenMonitor(ctx, cfg, out, tnc)
	if err != nil {
		return err
	}
	defer m.Close()

	dec, err := NewDecoder(cfg.Format, cfg.Channel)
	if err != nil {
		return err
	}

	var src io.Reader = tr
	if cfg.Verbose {
		src = io.TeeReader(tr, hexDumpWriter{w: out, label: "<<<"})
	}

	var reader = NewFrameReader(src, dec,
		WithQueueSize[*RecvFrame](cfg.QueueSize),
		WithCallback(func(rf *RecvFrame) {
			m.HandleFrame(ctx, rf)
		}))

	if tnc != nil {
		if cfg.TransmitFrom != "" {
			go m.TransmitFrom(ctx, cfg.TransmitFrom)
		} else if stdin != nil {
			go m.ReadInput(stdin)
		}
	}

	err = reader.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if m.heard != nil && cfg.Verbose {
		if dumpErr := m.heard.Dump(context.WithoutCancel(ctx), out, time.Now()); dumpErr != nil {
			logger.Warn("heard station database", "err", dumpErr)
		}
	}

	return err
}

/*-------------------------------------------------------------------
 *
 * Name:        parseMonitorArgs
 *
 * Purpose:     Configuration file, then command line options on top.
 *
 * Returns:	done is true for --help and --version, which have
 *		already been taken care of.
 *
 *--------------------------------------------------------------------*/

func parseMonitorArgs(args []string, out io.Writer) (*Config, bool, error) {
	var def = DefaultConfig()
	var fs = pflag.NewFlagSet("ax25mon", pflag.ContinueOnError)
	fs.SetOutput(out)

	var configPath = fs.StringP("config", "c", "", "YAML configuration file.")
	var transport = fs.StringP("transport", "t", def.Transport, "tcp, serial, pty, stdin, or file.")
	var hostname = fs.StringP("hostname", "h", def.Host, "Hostname of TCP KISS TNC.")
	var port = fs.IntP("port", "p", def.Port, "TCP port of KISS TNC.")
	var device = fs.StringP("device", "d", "", "Serial port of KISS TNC, e.g. /dev/ttyUSB0.  Implies -t serial.")
	var serialSpeed = fs.IntP("serial-speed", "s", def.Speed, "Serial port speed.  0 leaves it alone.")
	var input = fs.StringP("input", "i", "", "Capture file to decode.  Implies -t file.")
	var format = fs.StringP("format", "F", def.Format, "Stream format: kiss, hdlc, or tnc2.")
	var channel = fs.IntP("channel", "C", def.Channel, "Channel to report for hdlc and tnc2 input.")
	var timestampFormat = fs.StringP("timestamp-format", "T", "", "Precede received frames with 'strftime' format time stamp.")
	var logFile = fs.StringP("log-file", "L", "", "Packet log file name, CSV.")
	var logDir = fs.StringP("log-dir", "l", "", "Directory for daily packet log files, CSV.")
	var heardDB = fs.StringP("heard-db", "H", "", "SQLite database of stations heard.")
	var discover = fs.BoolP("discover", "D", false, "Find the TCP KISS TNC with DNS-SD.")
	var logLevel = fs.String("log-level", def.LogLevel, "debug, info, warn, or error.")
	var receiveOutput = fs.StringP("receive-output", "o", "", "Receive output queue directory.  Store received frames here.")
	var transmitFrom = fs.StringP("transmit-from", "f", "", "Transmit files directory.  Process and delete files here.")
	var verbose = fs.BoolP("verbose", "v", false, "Verbose.  Show the bytes exchanged and frame details.")
	var showVersion = fs.Bool("version", false, "Display version and exit.")
	var help = fs.Bool("help", false, "Display help text.")

	fs.Usage = func() {
		fmt.Fprintf(out, "ax25mon - AX.25 packet monitor.\n")
		fmt.Fprintf(out, "\n")
		fmt.Fprintf(out, "Convert between a TNC's stream and the usual text representation.\n")
		fmt.Fprintf(out, "The TNC can be attached by TCP or a serial port.\n")
		fmt.Fprintf(out, "\n")
		fs.PrintDefaults()
		usage2(out)
	}

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	if *help {
		fs.Usage()
		return nil, true, nil
	}

	if *showVersion {
		printVersion(out, *verbose)
		return nil, true, nil
	}

	if fs.Changed("log-file") && fs.Changed("log-dir") {
		return nil, false, errors.New("use -L or -l but not both")
	}

	var cfg = def
	if *configPath != "" {
		var err error
		cfg, err = LoadConfig(*configPath)
		if err != nil {
			return nil, false, err
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "transport":
			cfg.Transport = *transport
		case "hostname":
			cfg.Host = *hostname
		case "port":
			cfg.Port = *port
		case "device":
			cfg.Device = *device
			if !fs.Changed("transport") {
				cfg.Transport = TRANSPORT_SERIAL
			}
		case "serial-speed":
			cfg.Speed = *serialSpeed
		case "input":
			cfg.Input = *input
			if !fs.Changed("transport") {
				cfg.Transport = TRANSPORT_FILE
			}
		case "format":
			cfg.Format = *format
		case "channel":
			cfg.Channel = *channel
		case "timestamp-format":
			cfg.TimestampFormat = *timestampFormat
		case "log-file":
			cfg.PacketLog = *logFile
			cfg.DailyLog = false
		case "log-dir":
			cfg.PacketLog = *logDir
			cfg.DailyLog = true
		case "heard-db":
			cfg.HeardDB = *heardDB
		case "discover":
			cfg.Discover = *discover
		case "log-level":
			cfg.LogLevel = *logLevel
		case "receive-output":
			cfg.ReceiveOutput = *receiveOutput
		case "transmit-from":
			cfg.TransmitFrom = *transmitFrom
		case "verbose":
			cfg.Verbose = *verbose
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}

	return cfg, false, nil
}

// MonitorMain is the ax25mon program.
func MonitorMain() {
	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var err = RunMonitor(ctx, os.Args[1:], os.Stdin, os.Stdout)

	stop()

	if err != nil {
		logger.Error("ax25mon", "err", err)
		os.Exit(1)
	}
}

// Used as both CLI help message and in-usage error reminder
func usage2(w io.Writer) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Input, starting with upper case letter or digit, is assumed\n")
	fmt.Fprintf(w, "to be an AX.25 frame in the usual TNC2 monitoring format.\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Input, starting with a lower case letter is a command.\n")
	fmt.Fprintf(w, "Whitespace, as shown in examples, is optional.\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "	letter	meaning			example\n")
	fmt.Fprintf(w, "	------	-------			-------\n")
	fmt.Fprintf(w, "	d	txDelay, 10ms units	d 30\n")
	fmt.Fprintf(w, "	p	Persistence		p 63\n")
	fmt.Fprintf(w, "	s	Slot time, 10ms units	s 10\n")
	fmt.Fprintf(w, "	t	txTail, 10ms units	t 5\n")
	fmt.Fprintf(w, "	f	Full duplex		f 0\n")
	fmt.Fprintf(w, "	h	set Hardware 		h TNC:\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "	Lines may be preceded by the form \"[9]\" to indicate a\n")
	fmt.Fprintf(w, "	channel other than the default 0.\n")
	fmt.Fprintf(w, "\n")
}

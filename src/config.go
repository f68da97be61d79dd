package ax25

/*------------------------------------------------------------------
 *
 * Purpose:   	Read configuration for the monitor application.
 *
 * Description:	The configuration file is YAML.  Everything has a usable
 *		default so the file is optional.  Command line options
 *		override what is in the file.
 *
 *		Example:
 *
 *			transport: tcp
 *			host: localhost
 *			port: 8001
 *			format: kiss
 *			timestamp_format: "%H:%M:%S"
 *			packet_log: /var/log/ax25
 *			daily_log: true
 *			heard_db: /var/lib/ax25/heard.db
 *
 *---------------------------------------------------------------*/

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"gopkg.in/yaml.v3"
)

const (
	TRANSPORT_TCP    = "tcp"
	TRANSPORT_SERIAL = "serial"
	TRANSPORT_PTY    = "pty"
	TRANSPORT_STDIN  = "stdin"
	TRANSPORT_FILE   = "file"
)

const (
	FORMAT_KISS = "kiss"
	FORMAT_HDLC = "hdlc"
	FORMAT_TNC2 = "tnc2"
)

const DEFAULT_KISS_PORT = 8001 /* Dire Wolf default KISS TCP port. */

const DEFAULT_DISCOVER_TIMEOUT = 5 * time.Second

var validTransports = []string{TRANSPORT_TCP, TRANSPORT_SERIAL, TRANSPORT_PTY, TRANSPORT_STDIN, TRANSPORT_FILE}

var validFormats = []string{FORMAT_KISS, FORMAT_HDLC, FORMAT_TNC2}

var validSpeeds = []int{0, 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

type Config struct {
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Device    string `yaml:"device"`
	Speed     int    `yaml:"speed"` // 0 leaves the serial port speed alone.
	Input     string `yaml:"input"` // For the file transport.

	Format  string `yaml:"format"`
	Channel int    `yaml:"channel"` // Reported for hdlc and tnc2, which carry no channel.

	TimestampFormat string `yaml:"timestamp_format"` // strftime
	LogLevel        string `yaml:"log_level"`
	LogTimestamps   bool   `yaml:"log_timestamps"`

	PacketLog string `yaml:"packet_log"`
	DailyLog  bool   `yaml:"daily_log"`
	HeardDB   string `yaml:"heard_db"`

	Discover        bool          `yaml:"discover"`
	DiscoverTimeout time.Duration `yaml:"discover_timeout"`

	QueueSize     int    `yaml:"queue_size"`
	ReceiveOutput string `yaml:"receive_output"` // Directory for one file per received frame.
	TransmitFrom  string `yaml:"transmit_from"`  // Directory polled for frames to send.
	Verbose       bool   `yaml:"verbose"`
}

func DefaultConfig() *Config {
	return &Config{
		Transport:       TRANSPORT_TCP,
		Host:            "localhost",
		Port:            DEFAULT_KISS_PORT,
		Device:          "",
		Speed:           0,
		Input:           "",
		Format:          FORMAT_KISS,
		Channel:         0,
		TimestampFormat: "",
		LogLevel:        "info",
		LogTimestamps:   false,
		PacketLog:       "",
		DailyLog:        false,
		HeardDB:         "",
		Discover:        false,
		DiscoverTimeout: DEFAULT_DISCOVER_TIMEOUT,
		QueueSize:       DEFAULT_QUEUE_SIZE,
		ReceiveOutput:   "",
		TransmitFrom:    "",
		Verbose:         false,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        LoadConfig
 *
 * Purpose:     Read the configuration file on top of the defaults.
 *
 * Inputs:	path	- YAML file.  Unknown keys are an error so a
 *			  typo doesn't go unnoticed.
 *
 * Returns:	Configuration which has not been validated yet.
 *		Command line options are usually applied before Validate.
 *
 *--------------------------------------------------------------------*/

func LoadConfig(path string) (*Config, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var cfg = DefaultConfig()

	var dec = yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var err = dec.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) { // Empty file is fine.
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate reports every problem found, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(validTransports, c.Transport) {
		errs = append(errs, fmt.Errorf("transport %q must be one of %v", c.Transport, validTransports))
	}

	if !slices.Contains(validFormats, c.Format) {
		errs = append(errs, fmt.Errorf("format %q must be one of %v", c.Format, validFormats))
	}

	switch c.Transport {
	case TRANSPORT_TCP:
		if !c.Discover && c.Host == "" {
			errs = append(errs, errors.New("host is required for tcp transport"))
		}
		if !c.Discover && (c.Port < 1 || c.Port > 65535) {
			errs = append(errs, fmt.Errorf("port %d must be in range 1 to 65535", c.Port))
		}
	case TRANSPORT_SERIAL:
		if c.Device == "" {
			errs = append(errs, errors.New("device is required for serial transport"))
		}
		if !slices.Contains(validSpeeds, c.Speed) {
			errs = append(errs, fmt.Errorf("unsupported serial speed %d", c.Speed))
		}
	case TRANSPORT_FILE:
		if c.Input == "" {
			errs = append(errs, errors.New("input is required for file transport"))
		}
	}

	if c.Channel < 0 || c.Channel > MAX_KISS_CHANNEL {
		errs = append(errs, fmt.Errorf("channel %d must be in range 0 to %d", c.Channel, MAX_KISS_CHANNEL))
	}

	if c.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queue_size %d must not be negative", c.QueueSize))
	}

	if c.DiscoverTimeout <= 0 {
		errs = append(errs, fmt.Errorf("discover_timeout %s must be positive", c.DiscoverTimeout))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q: %w", c.LogLevel, err))
	}

	if c.TimestampFormat != "" {
		if _, err := compileTimestamp(c.TimestampFormat); err != nil {
			errs = append(errs, fmt.Errorf("timestamp_format %q: %w", c.TimestampFormat, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}

// compileTimestamp accepts the usual strftime conversions plus %L for milliseconds.
func compileTimestamp(format string) (*strftime.Strftime, error) {
	return strftime.New(format, strftime.WithMilliseconds('L'))
}

// Bidirectional is true when frames can be sent back out the transport.
func (c *Config) Bidirectional() bool {
	return c.Transport == TRANSPORT_TCP || c.Transport == TRANSPORT_SERIAL || c.Transport == TRANSPORT_PTY
}

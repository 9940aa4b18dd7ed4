package station

import "time"

// Config holds the station configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger Logger

	// Retries is the number of attempts for wake-up, command handshakes
	// and archive downloads before giving up
	Retries int

	// RetryPause is the pause between retry attempts
	RetryPause time.Duration

	// AckTimeout is the timeout for the wake-up reply and single-byte
	// command acknowledgements
	AckTimeout time.Duration

	// OKTimeout is the timeout for commands that answer with the textual
	// "OK" reply instead of an acknowledgement byte
	OKTimeout time.Duration

	// FrameTimeout is the timeout for reading a complete binary frame
	FrameTimeout time.Duration

	// LogInterval is the archive period in minutes written by Init
	LogInterval int

	// ClearLog makes Init wipe the console's archive memory first
	ClearLog bool

	// Archives enables the archive download during Poll
	Archives bool

	// Start seeds the session watermark. Zero means "now": only records
	// logged after the session opened are reported.
	Start time.Time
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Retries:      3,
		RetryPause:   time.Second,
		AckTimeout:   1200 * time.Millisecond,
		OKTimeout:    5 * time.Second,
		FrameTimeout: 3 * time.Second,
		LogInterval:  5,
		Archives:     true,
	}
}

// Option is a functional option for configuring the Station.
type Option func(*Config)

// WithLogger sets a logger for the station operations.
//
// Example:
//
//	st := station.New(device, station.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRetries sets the number of attempts for handshakes and downloads.
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries > 0 {
			c.Retries = retries
		}
	}
}

// WithRetryPause sets the pause between retry attempts.
func WithRetryPause(pause time.Duration) Option {
	return func(c *Config) {
		if pause >= 0 {
			c.RetryPause = pause
		}
	}
}

// WithAckTimeout sets the timeout for wake-up and acknowledgement reads.
func WithAckTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.AckTimeout = timeout
	}
}

// WithOKTimeout sets the timeout for textual "OK" replies.
func WithOKTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.OKTimeout = timeout
	}
}

// WithFrameTimeout sets the timeout for reading a complete binary frame.
func WithFrameTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.FrameTimeout = timeout
	}
}

// WithLogInterval sets the archive period in minutes written by Init.
// The console accepts 1, 5, 10, 15, 30, 60 and 120.
func WithLogInterval(minutes int) Option {
	return func(c *Config) {
		if minutes > 0 {
			c.LogInterval = minutes
		}
	}
}

// WithClearLog makes Init wipe the console's archive memory.
func WithClearLog(clear bool) Option {
	return func(c *Config) {
		c.ClearLog = clear
	}
}

// WithArchives enables or disables the archive download during Poll.
// Default is enabled.
func WithArchives(enabled bool) Option {
	return func(c *Config) {
		c.Archives = enabled
	}
}

// WithStartTime seeds the session watermark: only archive records logged
// strictly after t are reported. Default is the time the station is created.
func WithStartTime(t time.Time) Option {
	return func(c *Config) {
		c.Start = t
	}
}

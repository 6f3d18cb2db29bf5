package updater

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bigbag/fcboot/internal/console"
)

// Config holds the updater configuration.
type Config struct {
	// ImageName is the resource store entry holding the bootloader
	ImageName string

	// PersistParams carries calibration in the tail of the bootloader sector
	PersistParams bool

	// MaxAttempts bounds the write retries
	MaxAttempts int

	// RetryDelay is the pause after a failed write attempt
	RetryDelay time.Duration

	// UpdateTimeout is declared to the watchdog before the whole update
	UpdateTimeout time.Duration

	// PageTimeout is declared before each erase and write attempt
	PageTimeout time.Duration

	// Codec builds and recovers the persistent parameter block
	Codec ParamCodec

	Sink     console.Sink
	Logger   logrus.FieldLogger
	Progress ProgressCallback
}

func defaultConfig() Config {
	return Config{
		ImageName:     "bootloader.bin",
		MaxAttempts:   10,
		RetryDelay:    100 * time.Millisecond,
		UpdateTimeout: 11 * time.Second,
		PageTimeout:   time.Second,
		Sink:          console.Discard,
		Logger:        logrus.StandardLogger(),
	}
}

// Option is a functional option for configuring the Updater.
type Option func(*Config)

// WithImageName sets the resource store entry to flash.
func WithImageName(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.ImageName = name
		}
	}
}

// WithMaxAttempts sets the number of write attempts.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithRetryDelay sets the pause between failed write attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.RetryDelay = d
		}
	}
}

// WithSink sets where user-visible progress text goes.
func WithSink(s console.Sink) Option {
	return func(c *Config) {
		if s != nil {
			c.Sink = s
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithProgressCallback sets a callback to track erase and write progress.
func WithProgressCallback(cb ProgressCallback) Option {
	return func(c *Config) {
		c.Progress = cb
	}
}

// WithPersistentParams enables carrying calibration in the bootloader sector
// through codec. A nil codec disables it.
func WithPersistentParams(codec ParamCodec) Option {
	return func(c *Config) {
		c.Codec = codec
		c.PersistParams = codec != nil
	}
}

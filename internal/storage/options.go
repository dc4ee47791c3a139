package storage

import (
	"fmt"
	"log/slog"
	"strings"
)

// Durability selects how eagerly appends reach the disk.
type Durability int

const (
	// DurabilityAsync hands appends to a background writer that flushes
	// periodically. Fastest, loses the last moments of writes on a crash.
	DurabilityAsync Durability = iota
	// DurabilityOS flushes every append to the operating system.
	DurabilityOS
	// DurabilityDisk flushes and fsyncs every append.
	DurabilityDisk
)

func (d Durability) String() string {
	switch d {
	case DurabilityAsync:
		return "async"
	case DurabilityOS:
		return "os"
	case DurabilityDisk:
		return "disk"
	default:
		return fmt.Sprintf("durability(%d)", int(d))
	}
}

// ParseDurability accepts the names produced by Durability.String.
func ParseDurability(s string) (Durability, error) {
	switch strings.ToLower(s) {
	case "async":
		return DurabilityAsync, nil
	case "os", "":
		return DurabilityOS, nil
	case "disk":
		return DurabilityDisk, nil
	}
	return 0, fmt.Errorf("unknown durability %q", s)
}

const (
	DefaultMaxSegmentBytes  int64 = 64 << 20
	DefaultWriterBufferSize       = 4096
)

type Options struct {
	Durability       Durability
	MaxSegmentBytes  int64
	WriterBufferSize int
	ReadOnly         bool
	Logger           *slog.Logger
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Durability:       DurabilityOS,
		MaxSegmentBytes:  DefaultMaxSegmentBytes,
		WriterBufferSize: DefaultWriterBufferSize,
		Logger:           slog.New(slog.DiscardHandler),
	}
}

func WithDurability(d Durability) Option {
	return func(o *Options) {
		o.Durability = d
	}
}

// WithMaxSegmentBytes sets the size at which the active segment is rotated.
// Non-positive values keep the default.
func WithMaxSegmentBytes(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxSegmentBytes = n
		}
	}
}

func WithWriterBufferSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.WriterBufferSize = n
		}
	}
}

func WithReadOnly() Option {
	return func(o *Options) {
		o.ReadOnly = true
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

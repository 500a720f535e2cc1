// Package master resolves device size categories from the device masters:
// the local device table, then the legacy inventory, then the remote master.
package master

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeout bounds each source call.
const DefaultTimeout = 3 * time.Second

// Source names reported by GetSize.
const (
	SourceLocal     = "local"
	SourceInventory = "inventory"
	SourceRemote    = "remote"
)

// SizeSource answers the size category of a device. An empty result with a
// nil error means the source does not know the device.
type SizeSource interface {
	DeviceSize(ctx context.Context, brand, device string) (string, error)
}

// SizeSourceFunc adapts a function to SizeSource.
type SizeSourceFunc func(ctx context.Context, brand, device string) (string, error)

// DeviceSize calls f.
func (f SizeSourceFunc) DeviceSize(ctx context.Context, brand, device string) (string, error) {
	return f(ctx, brand, device)
}

type namedSource struct {
	source SizeSource
	name   string
}

// Lookup queries the configured sources in priority order.
type Lookup struct {
	sources []namedSource
	timeout time.Duration
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithInventory adds the legacy inventory after the primary source.
func WithInventory(src SizeSource) Option {
	return func(l *Lookup) {
		l.add(SourceInventory, src)
	}
}

// WithRemote adds the remote master as the last source.
func WithRemote(src SizeSource) Option {
	return func(l *Lookup) {
		l.add(SourceRemote, src)
	}
}

// WithTimeout bounds each source call.
func WithTimeout(d time.Duration) Option {
	return func(l *Lookup) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// New creates a lookup with primary as the first source. primary may be nil.
func New(primary SizeSource, opts ...Option) *Lookup {
	l := &Lookup{timeout: DefaultTimeout}
	l.add(SourceLocal, primary)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lookup) add(name string, src SizeSource) {
	if src == nil {
		return
	}
	l.sources = append(l.sources, namedSource{name: name, source: src})
}

// Sources returns the configured source names in query order.
func (l *Lookup) Sources() []string {
	names := make([]string, len(l.sources))
	for i, s := range l.sources {
		names[i] = s.name
	}
	return names
}

// GetSize returns the first size any source knows for the device, with the
// name of the source that answered. Source failures are logged and skipped.
func (l *Lookup) GetSize(ctx context.Context, brand, device string) (size, source string, ok bool) {
	brand = strings.TrimSpace(brand)
	device = strings.TrimSpace(device)
	if brand == "" || device == "" {
		return "", "", false
	}

	for _, s := range l.sources {
		size, err := l.ask(ctx, s.source, brand, device)
		if err != nil {
			slog.Warn("Device master lookup failed",
				"source", s.name,
				"brand", brand,
				"device", device,
				"error", err)
			continue
		}
		if size != "" {
			slog.Debug("Device size found", "source", s.name, "device", device, "size", size)
			return size, s.name, true
		}
	}
	return "", "", false
}

func (l *Lookup) ask(ctx context.Context, src SizeSource, brand, device string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	size, err := src.DeviceSize(ctx, brand, device)
	return strings.TrimSpace(size), err
}

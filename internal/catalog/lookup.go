// Package catalog resolves product types and device names from design numbers
// using the local design catalog, with the remote design master as fallback.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/storage"
)

// MinPrefixLength is the design-number length an entry must exceed before it
// may match as a prefix of a longer code.
const MinPrefixLength = 3

// DefaultRemoteTimeout bounds every call to the remote searcher.
const DefaultRemoteTimeout = 5 * time.Second

// Reader is read access to the local catalog. storage.SQLiteStorage implements it.
type Reader interface {
	GetActiveCatalogEntry(ctx context.Context, code string) (*model.CatalogEntry, error)
	FindCatalogEntriesPrefixOf(ctx context.Context, code string, minLen int) ([]model.CatalogEntry, error)
	FindCatalogEntriesStartingWith(ctx context.Context, code string) ([]model.CatalogEntry, error)
}

// RemoteSearcher is the remote design master. Empty results mean no answer.
type RemoteSearcher interface {
	FuzzyProductType(ctx context.Context, code string) (string, error)
	DeviceByDesign(ctx context.Context, code string) (string, error)
}

// Lookup applies the exact, prefix and suffix match tiers to the local
// catalog and falls back to the remote searcher on a local miss.
type Lookup struct {
	reader  Reader
	remote  RemoteSearcher
	timeout time.Duration
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithRemote sets the remote searcher used after a local miss.
func WithRemote(remote RemoteSearcher) Option {
	return func(l *Lookup) {
		l.remote = remote
	}
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) Option {
	return func(l *Lookup) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// New creates a catalog lookup over reader.
func New(reader Reader, opts ...Option) *Lookup {
	l := &Lookup{
		reader:  reader,
		timeout: DefaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Hit is a catalog match.
type Hit struct {
	Value  string
	Brand  string
	Design string
	Method model.Method
}

// LocalProductType resolves code against the local catalog only.
func (l *Lookup) LocalProductType(ctx context.Context, code string) (Hit, bool) {
	entry, method, ok := l.match(ctx, code, func(e model.CatalogEntry) bool {
		return strings.TrimSpace(e.ProductType) != ""
	})
	if !ok {
		return Hit{}, false
	}
	return Hit{Value: entry.ProductType, Design: entry.DesignNumber, Method: method}, true
}

// LookupProductType resolves code locally, then through the remote fuzzy search.
func (l *Lookup) LookupProductType(ctx context.Context, code string) (Hit, bool) {
	if hit, ok := l.LocalProductType(ctx, code); ok {
		return hit, true
	}
	return l.RemoteProductType(ctx, code)
}

// RemoteProductType asks only the remote searcher.
func (l *Lookup) RemoteProductType(ctx context.Context, code string) (Hit, bool) {
	value := l.askRemote(ctx, code, "product_type", func(ctx context.Context, r RemoteSearcher) (string, error) {
		return r.FuzzyProductType(ctx, code)
	})
	if value == "" {
		return Hit{}, false
	}
	return Hit{Value: value, Method: model.MethodCatalogRemote}, true
}

// LocalDevice resolves the device name of code against the local catalog.
// The entry's brand is prefixed when the device name does not carry it.
func (l *Lookup) LocalDevice(ctx context.Context, code string) (Hit, bool) {
	entry, method, ok := l.match(ctx, code, func(e model.CatalogEntry) bool {
		return strings.TrimSpace(e.DeviceName) != ""
	})
	if !ok {
		return Hit{}, false
	}
	return Hit{
		Value:  WithBrand(entry.DeviceName, entry.Brand),
		Brand:  entry.Brand,
		Design: entry.DesignNumber,
		Method: method,
	}, true
}

// LookupDevice resolves the device name locally, then through the remote master.
func (l *Lookup) LookupDevice(ctx context.Context, code string) (Hit, bool) {
	if hit, ok := l.LocalDevice(ctx, code); ok {
		return hit, true
	}

	value := l.askRemote(ctx, code, "device", func(ctx context.Context, r RemoteSearcher) (string, error) {
		return r.DeviceByDesign(ctx, code)
	})
	if value == "" {
		return Hit{}, false
	}
	return Hit{Value: value, Method: model.MethodCatalogRemote}, true
}

// WithBrand prefixes brand to device unless it already starts with it.
func WithBrand(device, brand string) string {
	device = strings.TrimSpace(device)
	brand = strings.TrimSpace(brand)
	if brand == "" || strings.HasPrefix(device, brand) {
		return device
	}
	return brand + " " + device
}

func (l *Lookup) match(ctx context.Context, code string, usable func(model.CatalogEntry) bool) (*model.CatalogEntry, model.Method, bool) {
	code = strings.TrimSpace(code)
	if code == "" || l.reader == nil {
		return nil, "", false
	}

	entry, err := l.reader.GetActiveCatalogEntry(ctx, code)
	switch {
	case err == nil && usable(*entry):
		return entry, model.MethodCatalogExact, true
	case err != nil && !errors.Is(err, storage.ErrCatalogEntryNotFound):
		slog.Warn("Catalog exact lookup failed", "code", code, "error", err)
	}

	prefixed, err := l.reader.FindCatalogEntriesPrefixOf(ctx, code, MinPrefixLength)
	if err != nil {
		slog.Warn("Catalog prefix lookup failed", "code", code, "error", err)
	}
	for i := range prefixed {
		if usable(prefixed[i]) {
			return &prefixed[i], model.MethodCatalogPrefix, true
		}
	}

	extended, err := l.reader.FindCatalogEntriesStartingWith(ctx, code)
	if err != nil {
		slog.Warn("Catalog suffix lookup failed", "code", code, "error", err)
	}
	for i := range extended {
		if usable(extended[i]) {
			return &extended[i], model.MethodCatalogSuffix, true
		}
	}

	return nil, "", false
}

func (l *Lookup) askRemote(ctx context.Context, code, what string, ask func(context.Context, RemoteSearcher) (string, error)) string {
	code = strings.TrimSpace(code)
	if l.remote == nil || code == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	value, err := ask(ctx, l.remote)
	if err != nil {
		slog.Warn("Remote catalog search failed", "what", what, "code", code, "error", err)
		return ""
	}
	return strings.TrimSpace(value)
}

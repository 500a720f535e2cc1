// Package storage provides the local persistence layer for accusync.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/accusync/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrInvalidPattern      = errors.New("invalid learned pattern")
	ErrInvalidCatalogEntry = errors.New("invalid catalog entry")
	ErrInvalidDevice       = errors.New("invalid device attribute")
)

// Lookup errors.
var (
	ErrPatternNotFound      = errors.New("learned pattern not found")
	ErrCatalogEntryNotFound = errors.New("catalog entry not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateKind(kind model.PatternKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPattern, kind)
	}
	return nil
}

// validateLearnedPattern validates a pattern before upsert.
func validateLearnedPattern(p *model.LearnedPattern) error {
	if p == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if err := validateKind(p.Kind); err != nil {
		return err
	}
	if strings.TrimSpace(p.Pattern) == "" {
		return fmt.Errorf("%w: missing pattern", ErrInvalidPattern)
	}
	if strings.TrimSpace(p.TargetValue) == "" {
		return fmt.Errorf("%w: missing target value", ErrInvalidPattern)
	}
	if !p.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidPattern, p.Source)
	}
	return nil
}

// validateCatalogEntry validates a catalog entry before upsert.
func validateCatalogEntry(e *model.CatalogEntry) error {
	if e == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if strings.TrimSpace(e.DesignNumber) == "" {
		return fmt.Errorf("%w: missing design number", ErrInvalidCatalogEntry)
	}
	if e.Status != model.CatalogActive && e.Status != model.CatalogInactive {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidCatalogEntry, e.Status)
	}
	return nil
}

// validateDeviceAttribute validates a device attribute before upsert.
func validateDeviceAttribute(d *model.DeviceAttribute) error {
	if d == nil {
		return fmt.Errorf("%w: device attribute", ErrNilParameter)
	}
	if strings.TrimSpace(d.Brand) == "" {
		return fmt.Errorf("%w: missing brand", ErrInvalidDevice)
	}
	if strings.TrimSpace(d.DeviceName) == "" {
		return fmt.Errorf("%w: missing device name", ErrInvalidDevice)
	}
	if strings.TrimSpace(d.SizeCategory) == "" {
		return fmt.Errorf("%w: missing size category", ErrInvalidDevice)
	}
	return nil
}

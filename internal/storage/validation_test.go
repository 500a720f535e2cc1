package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/accusync/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{name: "valid context", ctx: context.Background()},
		{name: "nil context", ctx: nil, wantErr: true},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{name: "valid string", str: "test", paramName: "param"},
		{name: "empty string", str: "", paramName: "param", wantErr: true},
		{name: "whitespace only", str: "   ", paramName: "param", wantErr: true},
		{name: "string with spaces", str: "  test  ", paramName: "param"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateLearnedPattern(t *testing.T) {
	valid := func() *model.LearnedPattern {
		return &model.LearnedPattern{
			Kind:        model.KindSize,
			Pattern:     "iphone15",
			TargetValue: "i15",
			Source:      model.SourceAuto,
		}
	}

	tests := []struct {
		pattern *model.LearnedPattern
		wantErr error
		name    string
		errMsg  string
	}{
		{name: "valid pattern", pattern: valid()},
		{name: "nil pattern", pattern: nil, wantErr: ErrNilParameter},
		{
			name:    "unknown kind",
			pattern: func() *model.LearnedPattern { p := valid(); p.Kind = "color"; return p }(),
			wantErr: ErrInvalidPattern,
			errMsg:  "unknown kind",
		},
		{
			name:    "blank pattern",
			pattern: func() *model.LearnedPattern { p := valid(); p.Pattern = " "; return p }(),
			wantErr: ErrInvalidPattern,
			errMsg:  "missing pattern",
		},
		{
			name:    "missing target",
			pattern: func() *model.LearnedPattern { p := valid(); p.TargetValue = ""; return p }(),
			wantErr: ErrInvalidPattern,
			errMsg:  "missing target value",
		},
		{
			name:    "unknown source",
			pattern: func() *model.LearnedPattern { p := valid(); p.Source = "import"; return p }(),
			wantErr: ErrInvalidPattern,
			errMsg:  "unknown source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLearnedPattern(tt.pattern)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidateCatalogEntry(t *testing.T) {
	tests := []struct {
		entry   *model.CatalogEntry
		name    string
		wantErr bool
	}{
		{name: "active entry", entry: &model.CatalogEntry{DesignNumber: "503-5494699", Status: model.CatalogActive}},
		{name: "inactive entry", entry: &model.CatalogEntry{DesignNumber: "503-5494699", Status: model.CatalogInactive}},
		{name: "nil entry", entry: nil, wantErr: true},
		{name: "missing design number", entry: &model.CatalogEntry{Status: model.CatalogActive}, wantErr: true},
		{name: "unknown status", entry: &model.CatalogEntry{DesignNumber: "503", Status: "deleted"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCatalogEntry(tt.entry)
			assert.Equal(t, tt.wantErr, err != nil, "error = %v", err)
		})
	}
}

func TestValidateDeviceAttribute(t *testing.T) {
	tests := []struct {
		device  *model.DeviceAttribute
		name    string
		errMsg  string
		wantErr bool
	}{
		{name: "valid device", device: &model.DeviceAttribute{Brand: "AQUOS", DeviceName: "AQUOS wish4", SizeCategory: "3L"}},
		{name: "nil device", device: nil, wantErr: true, errMsg: "device attribute"},
		{name: "missing brand", device: &model.DeviceAttribute{DeviceName: "AQUOS wish4", SizeCategory: "3L"}, wantErr: true, errMsg: "missing brand"},
		{name: "missing device", device: &model.DeviceAttribute{Brand: "AQUOS", SizeCategory: "3L"}, wantErr: true, errMsg: "missing device name"},
		{name: "missing size", device: &model.DeviceAttribute{Brand: "AQUOS", DeviceName: "AQUOS wish4"}, wantErr: true, errMsg: "missing size category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDeviceAttribute(tt.device)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateDeviceAttribute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateDeviceAttribute() error should contain %s, got %v", tt.errMsg, err)
			}
		})
	}
}

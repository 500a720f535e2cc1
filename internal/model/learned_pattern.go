package model

import "time"

// PatternKind selects which adaptive pattern store a learned pattern belongs to.
type PatternKind string

const (
	// KindDevice patterns map a text fragment to a device name; auxiliary is the brand.
	KindDevice PatternKind = "device"
	// KindSize patterns map a text fragment to a size code; auxiliary is the device name.
	KindSize PatternKind = "size"
	// KindProductType patterns map a text fragment to a product type.
	KindProductType PatternKind = "product_type"
)

// Valid reports whether k is one of the known kinds.
func (k PatternKind) Valid() bool {
	switch k {
	case KindDevice, KindSize, KindProductType:
		return true
	}
	return false
}

// PatternSource indicates how a learned pattern was created.
type PatternSource string

const (
	// SourceManual indicates an operator correction.
	SourceManual PatternSource = "manual"
	// SourceAuto indicates a pattern recorded from an automatic detection.
	SourceAuto PatternSource = "auto"
)

// Confidence bounds for learned patterns.
const (
	ManualStartConfidence = 0.9
	AutoStartConfidence   = 0.7
	ConfidenceStep        = 0.05
	MaxConfidence         = 1.0
)

// StartConfidence returns the confidence a new pattern from this source starts with.
func (s PatternSource) StartConfidence() float64 {
	if s == SourceManual {
		return ManualStartConfidence
	}
	return AutoStartConfidence
}

// Valid reports whether s is one of the known sources.
func (s PatternSource) Valid() bool {
	return s == SourceManual || s == SourceAuto
}

// Reinforce returns the confidence after one reinforcement, capped at MaxConfidence.
func Reinforce(confidence float64) float64 {
	return min(confidence+ConfidenceStep, MaxConfidence)
}

// LearnedPattern maps a text fragment to a target attribute value.
// (Kind, Pattern, TargetValue, Auxiliary) is unique; an empty Auxiliary means none.
type LearnedPattern struct {
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Kind        PatternKind   `json:"kind"`
	Pattern     string        `json:"pattern"`
	TargetValue string        `json:"target_value"`
	Auxiliary   string        `json:"auxiliary,omitempty"`
	Source      PatternSource `json:"source"`
	ID          int64         `json:"id"`
	Confidence  float64       `json:"confidence"`
	UsageCount  int           `json:"usage_count"`
}

// PatternStats summarizes one pattern store.
type PatternStats struct {
	Kind       PatternKind `json:"kind"`
	Total      int         `json:"total_patterns"`
	Manual     int         `json:"manual_patterns"`
	Auto       int         `json:"auto_patterns"`
	TotalUsage int         `json:"total_usage"`
}

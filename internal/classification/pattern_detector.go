// Package classification extracts device, size and product-type signals from
// free-text order fields.
package classification

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Veraticus/accusync/internal/textnorm"
)

// RuleTier orders device rules from most to least specific.
type RuleTier int

const (
	// TierNamed rules require the brand or series name in the text.
	TierNamed RuleTier = iota + 1
	// TierCarrier rules match carrier model numbers such as SC-51D or F-53E.
	TierCarrier
	// TierSeries rules match bare series names such as A54 or wish4.
	TierSeries
)

// DeviceRule maps a regular expression to a brand.
type DeviceRule struct {
	Name  string
	Regex string
	Brand string
	// RejectNext lists characters that must not directly follow a match.
	RejectNext string
	Tier       RuleTier
}

// CompiledRule holds a compiled device rule.
type CompiledRule struct {
	compiledRegex *regexp.Regexp
	DeviceRule
}

// DeviceMatch is the device and brand found in a text.
type DeviceMatch struct {
	Device string
	Brand  string
	Rule   string
}

// DeviceMatcher finds device names using an ordered rule table.
// The first matching rule wins. The table is fixed at construction, so a
// matcher can be shared between goroutines.
type DeviceMatcher struct {
	rules []CompiledRule
}

// NewDeviceMatcher compiles the rules and orders them by tier, keeping table
// order within a tier.
func NewDeviceMatcher(rules []DeviceRule) (*DeviceMatcher, error) {
	compiled := make([]CompiledRule, 0, len(rules))

	for _, r := range rules {
		regexStr := r.Regex
		if !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr
		}

		regex, err := regexp.Compile(regexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", r.Name, err)
		}

		compiled = append(compiled, CompiledRule{
			DeviceRule:    r,
			compiledRegex: regex,
		})
	}

	slices.SortStableFunc(compiled, func(a, b CompiledRule) int {
		return int(a.Tier) - int(b.Tier)
	})

	return &DeviceMatcher{rules: compiled}, nil
}

// NewDefaultDeviceMatcher builds a matcher over DefaultDeviceRules.
func NewDefaultDeviceMatcher() *DeviceMatcher {
	m, err := NewDeviceMatcher(DefaultDeviceRules())
	if err != nil {
		panic(fmt.Sprintf("default device rules: %v", err))
	}
	return m
}

// ExtractDevice returns the first device found in text, or nil.
func (m *DeviceMatcher) ExtractDevice(text string) *DeviceMatch {
	text = textnorm.Normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, rule := range m.rules {
		raw, ok := rule.find(text)
		if !ok {
			continue
		}
		device := textnorm.NormalizeDeviceName(raw, rule.Brand)
		if device == "" {
			continue
		}
		return &DeviceMatch{
			Device: device,
			Brand:  rule.Brand,
			Rule:   rule.Name,
		}
	}

	return nil
}

func (r CompiledRule) find(text string) (string, bool) {
	if r.RejectNext == "" {
		match := r.compiledRegex.FindString(text)
		return strings.TrimSpace(match), match != ""
	}

	for _, loc := range r.compiledRegex.FindAllStringIndex(text, -1) {
		if loc[1] < len(text) && strings.ContainsAny(text[loc[1]:loc[1]+1], r.RejectNext) {
			continue
		}
		return strings.TrimSpace(text[loc[0]:loc[1]]), true
	}
	return "", false
}

// RuleCount returns the number of loaded rules.
func (m *DeviceMatcher) RuleCount() int {
	return len(m.rules)
}

// Rules returns the rules in evaluation order.
func (m *DeviceMatcher) Rules() []DeviceRule {
	out := make([]DeviceRule, len(m.rules))
	for i, r := range m.rules {
		out[i] = r.DeviceRule
	}
	return out
}

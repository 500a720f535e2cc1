package model

// Method records which cascade stage produced a detection result.
type Method string

// Detection methods.
const (
	MethodOptionsColumn         Method = "options_column"
	MethodDeviceColumn          Method = "device_column"
	MethodProductName           Method = "product_name"
	MethodOtherColumn           Method = "other_column"
	MethodCatalogExact          Method = "catalog_exact"
	MethodCatalogPrefix         Method = "catalog_prefix"
	MethodCatalogSuffix         Method = "catalog_suffix"
	MethodCatalogRemote         Method = "catalog_remote"
	MethodLegacyInventory       Method = "legacy_inventory"
	MethodLearnedManual         Method = "learned_manual"
	MethodLearnedAuto           Method = "learned_auto"
	MethodLearnedManualFiltered Method = "learned_manual_filtered"
	MethodLearnedAutoFiltered   Method = "learned_auto_filtered"
	MethodRegex                 Method = "regex"
	MethodExternalMaster        Method = "external_master"
	MethodNotFound              Method = "not_found"
	MethodNotApplicable         Method = "not_applicable"
)

// LearnedMethod returns the method tag for a learned-pattern hit.
func LearnedMethod(source PatternSource, filtered bool) Method {
	switch {
	case source == SourceManual && filtered:
		return MethodLearnedManualFiltered
	case source == SourceManual:
		return MethodLearnedManual
	case filtered:
		return MethodLearnedAutoFiltered
	default:
		return MethodLearnedAuto
	}
}

const (
	// NotFoundDisplay is shown to operators when no stage produced a value.
	NotFoundDisplay = "未検出"
	// HardCaseKeyword marks product types that have no size dimension.
	HardCaseKeyword = "ハードケース"
)

// DetectionResult is the outcome of one attribute cascade.
// Value is empty when Method is MethodNotFound or MethodNotApplicable.
type DetectionResult struct {
	Confidence *float64 `json:"confidence,omitempty"`
	Value      string   `json:"value,omitempty"`
	Method     Method   `json:"method"`
	Column     string   `json:"column,omitempty"`
}

// Found reports whether the cascade produced a value.
func (r DetectionResult) Found() bool {
	return r.Value != ""
}

// Display returns the value, or the not-found marker.
func (r DetectionResult) Display() string {
	if r.Method == MethodNotApplicable {
		return "-"
	}
	if r.Value == "" {
		return NotFoundDisplay
	}
	return r.Value
}

// NotFound is the terminal result of a cascade with no hit.
func NotFound() DetectionResult {
	return DetectionResult{Method: MethodNotFound}
}

// RowDetection holds the detected attributes of one row.
type RowDetection struct {
	ProductType DetectionResult `json:"product_type"`
	Device      DetectionResult `json:"device"`
	Size        DetectionResult `json:"size"`
	Brand       string          `json:"brand,omitempty"`

	// Structure is the notebook-cover sub-type, such as "mirror".
	Structure string `json:"structure,omitempty"`
}

package classification

import (
	"regexp"
	"strings"

	"github.com/Veraticus/accusync/internal/textnorm"
)

// OptionsSelection is the device and size a customer picked in a storefront
// options field.
type OptionsSelection struct {
	Device string
	Size   string
	Brand  string
}

var (
	// 機種【LABEL】:MODEL[SIZE]
	bracketedOption = regexp.MustCompile(`機種【([^】]+)】[:=]([^▼\[\n\r&]+)\[([^\]▼]+)\]`)
	// 機種...(LABEL)=MODEL[SIZE]
	parenthesizedOption = regexp.MustCompile(`機種[^▼\n\r]*?\(([^)]+)\)=([^▼\[&\n\r]+)\[([^\]▼]+)\]`)
	carrierSuffix       = regexp.MustCompile(`\([^)]*\)`)
)

// unselectedMarker prefixes options the buyer did not pick.
const unselectedMarker = "▼"

// ExtractFromOptions parses a storefront options string.
// It reports false when neither selection syntax is present.
func ExtractFromOptions(raw string) (OptionsSelection, bool) {
	text := textnorm.Normalize(raw)
	if strings.TrimSpace(text) == "" {
		return OptionsSelection{}, false
	}

	for _, re := range []*regexp.Regexp{bracketedOption, parenthesizedOption} {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if unselected(text[:loc[0]]) {
				continue
			}
			sel, ok := buildSelection(text[loc[2]:loc[3]], text[loc[4]:loc[5]], text[loc[6]:loc[7]])
			if ok {
				return sel, true
			}
		}
	}

	return OptionsSelection{}, false
}

func unselected(before string) bool {
	return strings.HasSuffix(strings.TrimRight(before, " \t"), unselectedMarker)
}

func buildSelection(label, model, size string) (OptionsSelection, bool) {
	brand := BrandFromLabel(label)
	model = strings.TrimSpace(carrierSuffix.ReplaceAllString(model, ""))
	size = strings.TrimSpace(size)
	if model == "" {
		return OptionsSelection{}, false
	}

	device := model
	if brand != "" && !strings.HasPrefix(strings.ToLower(model), strings.ToLower(brand)) {
		device = brand + " " + model
	}

	return OptionsSelection{
		Device: textnorm.NormalizeDeviceName(device, brand),
		Size:   size,
		Brand:  brand,
	}, true
}

var labelBrands = []struct {
	token string
	brand string
}{
	{"IPHONE", "iPhone"},
	{"XPERIA", "Xperia"},
	{"GALAXY", "Galaxy"},
	{"AQUOS", "AQUOS"},
	{"ARROWS", "arrows"},
	{"PIXEL", "Pixel"},
	{"GOOGLE", "Pixel"},
	{"OPPO", "OPPO"},
	{"HUAWEI", "HUAWEI"},
}

// BrandFromLabel maps a storefront brand label to a canonical brand.
// Unknown labels such as "Other_1" map to "".
func BrandFromLabel(label string) string {
	upper := strings.ToUpper(label)
	for _, lb := range labelBrands {
		if strings.Contains(upper, lb.token) {
			return lb.brand
		}
	}
	return ""
}

// IsOptionsColumn reports whether a column holds storefront options.
func IsOptionsColumn(name string) bool {
	return strings.Contains(name, "選択肢") || strings.Contains(strings.ToLower(name), "options")
}

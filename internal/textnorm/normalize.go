// Package textnorm canonicalizes product and device text before pattern matching.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// brandSpellings maps hiragana and katakana brand spellings to their Latin form.
var brandSpellings = strings.NewReplacer(
	"いふぉん", "iPhone",
	"あくおす", "AQUOS",
	"えくすぺりあ", "Xperia",
	"ぎゃらくしー", "Galaxy",
	"ぴくせる", "Pixel",
	"アイフォン", "iPhone",
	"ギャラクシー", "Galaxy",
	"エクスペリア", "Xperia",
	"アクオス", "AQUOS",
	"ピクセル", "Pixel",
	"オッポ", "OPPO",
	"アローズ", "arrows",
)

// gluedVowel matches a kana "い" typed in place of the Latin "i" of iPhone.
var gluedVowel = regexp.MustCompile(`(^|\s)い([Pp]hone)`)

// Normalize folds full-width and half-width forms, replaces kana brand
// spellings with their Latin names and repairs "いPhone" style typos.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFKC.String(text)
	text = brandSpellings.Replace(text)
	return gluedVowel.ReplaceAllString(text, "${1}i${2}")
}

var suffixSpellings = strings.NewReplacer(
	"プロ", " Pro",
	"プラス", " Plus",
	"ミニ", " mini",
	"マックス", " Max",
	"ウルトラ", " Ultra",
)

var brandTokens = map[string]string{
	"iphone": "iPhone",
	"aquos":  "AQUOS",
	"xperia": "Xperia",
	"galaxy": "Galaxy",
	"pixel":  "Pixel",
	"oppo":   "OPPO",
	"arrows": "arrows",
	"huawei": "HUAWEI",
	"redmi":  "Redmi",
	"xiaomi": "Xiaomi",
}

var (
	brandTokenRe     = regexp.MustCompile(`(?i)\b(iphone|aquos|xperia|galaxy|pixel|oppo|arrows|huawei|redmi|xiaomi)`)
	tokenDigitRe     = regexp.MustCompile(`\b(iPhone|Xperia|Galaxy|Pixel|Redmi|AQUOS|OPPO)(\d)`)
	tokenLetterRe    = regexp.MustCompile(`\b(Xperia|Galaxy|AQUOS|OPPO)([A-Za-z])`)
	phoneLeadRe      = regexp.MustCompile(`(?i)^[いi]?phone`)
	unprefixedBrands = map[string]bool{"iphone": true, "pixel": true}
)

// NormalizeDeviceName canonicalizes a matched device name and prefixes the
// brand unless the brand is self-evident (iPhone, Pixel) or already present.
func NormalizeDeviceName(device, brand string) string {
	device = Normalize(device)
	if strings.EqualFold(strings.TrimSpace(brand), "iPhone") {
		device = phoneLeadRe.ReplaceAllString(strings.TrimSpace(device), "iPhone")
	}
	device = suffixSpellings.Replace(device)
	device = brandTokenRe.ReplaceAllStringFunc(device, func(tok string) string {
		return brandTokens[strings.ToLower(tok)]
	})
	device = tokenDigitRe.ReplaceAllString(device, "$1 $2")
	device = tokenLetterRe.ReplaceAllString(device, "$1 $2")
	device = strings.Join(strings.Fields(device), " ")
	if device == "" {
		return ""
	}

	brand = strings.TrimSpace(brand)
	if brand == "" || unprefixedBrands[strings.ToLower(brand)] {
		return device
	}
	if strings.HasPrefix(strings.ToLower(device), strings.ToLower(brand)) {
		return device
	}
	return brand + " " + device
}

// Compact lowercases and removes all whitespace, for whitespace-insensitive comparison.
func Compact(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), ""))
}

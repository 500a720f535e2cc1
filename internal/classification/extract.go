package classification

import (
	"regexp"
	"strings"

	"github.com/Veraticus/accusync/internal/textnorm"
)

// sizeSuffix matches "_" followed by a size token at the end of a product name,
// e.g. "_i6", "_3L", "_大", "_特大", "_LL".
var sizeSuffix = regexp.MustCompile(`_([0-9]?[LiM]+\d*|若?特{1,3}大|大|中|小|SS|LL|2L|3L)`)

var parens = regexp.MustCompile(`[()]`)

// ExtractSize returns the size token that follows "_" in a product name.
func ExtractSize(productName string) (string, bool) {
	m := sizeSuffix.FindStringSubmatch(textnorm.Normalize(productName))
	if m == nil {
		return "", false
	}
	size := strings.TrimSpace(parens.ReplaceAllString(m[1], ""))
	return size, size != ""
}

var designNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`betty-\d+-[a-z]+-[a-z]+`),
	regexp.MustCompile(`color_design_\d+-\d+`),
	regexp.MustCompile(`[a-zA-Z]+-\d+(?:-[a-zA-Z]+)?`),
	regexp.MustCompile(`[ぁ-んァ-ヶー一-龠]+-\d+`),
}

// ExtractDesignNumber returns the first design-number-shaped token in a product name.
func ExtractDesignNumber(productName string) (string, bool) {
	text := textnorm.Normalize(productName)
	for _, re := range designNumberPatterns {
		if m := re.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

// productTypeKeywords are checked in order; longer spellings come first.
var productTypeKeywords = []string{
	"手帳型カバー",
	"手帳型ケース",
	"手帳型",
	"ハードケース",
	"ソフトケース",
	"クリアケース",
	"TPUケース",
	"バンパーケース",
	"スマホショルダー",
	"スマホリング",
	"ガラスフィルム",
	"保護フィルム",
}

// keywordVariants are notebook variants spelled right after the product
// type keyword, as in "手帳型カバーmirror".
var keywordVariants = []string{"mirror", "card"}

// ExtractProductKeywords returns the known product-type keyword in a product
// name, with the notebook variant appended when it directly follows the
// keyword ("手帳型カバー / mirror"). Names without a known keyword give "".
func ExtractProductKeywords(productName string) string {
	text := strings.TrimSpace(textnorm.Normalize(productName))
	if text == "" {
		return ""
	}

	for _, kw := range productTypeKeywords {
		i := strings.Index(text, kw)
		if i < 0 {
			continue
		}
		rest := strings.ToLower(strings.TrimSpace(text[i+len(kw):]))
		for _, v := range keywordVariants {
			if strings.HasPrefix(rest, v) {
				return kw + " / " + v
			}
		}
		return kw
	}
	return ""
}

var notebookStructures = []string{
	"両面印刷薄型",
	"両面印刷厚いタイプ",
	"両面印刷厚い",
	"ベルト無し手帳型",
	"ベルト無し",
	"ミラー付き",
	"mirror",
	"card",
}

var notebookMarkers = []string{"手帳", "notebook", "カバー", "cover"}

// ExtractNotebookStructure returns the notebook-cover sub-type named in a
// product name, such as "mirror" or "ベルト無し".
func ExtractNotebookStructure(productName string) (string, bool) {
	text := textnorm.Normalize(productName)
	lower := strings.ToLower(text)

	notebook := false
	for _, m := range notebookMarkers {
		if strings.Contains(lower, m) {
			notebook = true
			break
		}
	}
	if !notebook {
		return "", false
	}

	for _, s := range notebookStructures {
		if strings.Contains(lower, strings.ToLower(s)) {
			return s, true
		}
	}
	return "", false
}

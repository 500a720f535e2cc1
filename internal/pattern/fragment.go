package pattern

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinFragmentRunes is the shortest fragment worth storing.
const MinFragmentRunes = 3

const (
	sizePrefixRunes   = 30
	devicePrefixRunes = 20
	typePrefixRunes   = 20
	contextBefore     = 10
	contextAfter      = 5
)

var (
	noiseChars     = regexp.MustCompile(`[()\[\]\s]`)
	alnumToken     = regexp.MustCompile(`[A-Za-z0-9]{2,}`)
	sizeDelimiters = []string{"_", "-", " ", "/"}
)

// SizeFragment keys a size pattern on the text immediately before the size
// suffix ("..._L"), else on the text up to and including the device name,
// else on a whitespace-free prefix of the source.
func SizeFragment(sourceText, target, auxiliary string) string {
	target = strings.TrimSpace(target)
	if target != "" {
		for _, d := range sizeDelimiters {
			if i := strings.Index(sourceText, d+target); i > 0 {
				if frag := strings.TrimSpace(sourceText[:i]); long(frag) {
					return frag
				}
			}
		}
	}

	if auxiliary = strings.TrimSpace(auxiliary); auxiliary != "" {
		if _, end, ok := findCompact(sourceText, auxiliary); ok {
			if frag := strings.TrimSpace(sourceText[:end]); long(frag) {
				return frag
			}
		}
	}

	return cleanPrefix(sourceText, sizePrefixRunes, strings.Fields)
}

// DeviceFragment keys a device pattern on the device name as written in the
// source (ignoring spaces and case, with or without the brand prefix), else
// on a short window around an alphanumeric token of the device name, else on
// a cleaned prefix of the source.
func DeviceFragment(sourceText, target, auxiliary string) string {
	candidates := []string{target}
	if auxiliary != "" && len(target) > len(auxiliary) && strings.EqualFold(target[:len(auxiliary)], auxiliary) {
		candidates = append(candidates, strings.TrimSpace(target[len(auxiliary):]))
	}
	for _, c := range candidates {
		if start, end, ok := findCompact(sourceText, c); ok {
			if frag := sourceText[start:end]; long(frag) {
				return frag
			}
		}
	}

	lowerSource := strings.ToLower(sourceText)
	for _, tok := range alnumToken.FindAllString(target, -1) {
		i := strings.Index(lowerSource, strings.ToLower(tok))
		if i < 0 || len(lowerSource) != len(sourceText) {
			continue
		}
		frag := window(sourceText, i, i+len(tok))
		frag = strings.TrimSpace(noiseChars.ReplaceAllString(frag, ""))
		if long(frag) {
			return frag
		}
	}

	return cleanPrefix(sourceText, devicePrefixRunes, noiseFields)
}

// ProductTypeFragment keys a product-type pattern on the product type itself
// when the source names it, else on the segment before the first "/", else
// on a cleaned prefix of the source.
func ProductTypeFragment(sourceText, target, _ string) string {
	target = strings.TrimSpace(target)
	if target != "" {
		if start, end, ok := findCompact(sourceText, target); ok {
			return sourceText[start:end]
		}
	}

	if i := strings.Index(sourceText, "/"); i > 0 {
		if frag := strings.TrimSpace(sourceText[:i]); long(frag) && utf8.RuneCountInString(frag) <= sizePrefixRunes {
			return frag
		}
	}

	return cleanPrefix(sourceText, typePrefixRunes, noiseFields)
}

func long(s string) bool {
	return utf8.RuneCountInString(s) >= MinFragmentRunes
}

func noiseFields(s string) []string {
	return []string{noiseChars.ReplaceAllString(s, "")}
}

// cleanPrefix removes noise with split, joins the pieces and keeps at most
// limit runes. It returns "" when the result is too short.
func cleanPrefix(s string, limit int, split func(string) []string) string {
	cleaned := []rune(strings.Join(split(s), ""))
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	if len(cleaned) < MinFragmentRunes {
		return ""
	}
	return string(cleaned)
}

// window returns s[start:end] widened by contextBefore runes to the left and
// contextAfter runes to the right.
func window(s string, start, end int) string {
	for n := 0; n < contextBefore && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(s[:start])
		start -= size
	}
	for n := 0; n < contextAfter && end < len(s); n++ {
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	return s[start:end]
}

// findCompact locates needle in s ignoring whitespace and case, and returns
// the byte span of the match in s.
func findCompact(s, needle string) (start, end int, ok bool) {
	want := compactRunes(needle)
	if len(want) == 0 {
		return 0, 0, false
	}

	type pos struct {
		r      rune
		offset int
		width  int
	}
	var hay []pos
	for i, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		hay = append(hay, pos{r: unicode.ToLower(r), offset: i, width: utf8.RuneLen(r)})
	}

	for i := 0; i+len(want) <= len(hay); i++ {
		matched := true
		for j, r := range want {
			if hay[i+j].r != r {
				matched = false
				break
			}
		}
		if matched {
			last := hay[i+len(want)-1]
			return hay[i].offset, last.offset + last.width, true
		}
	}
	return 0, 0, false
}

func compactRunes(s string) []rune {
	var out []rune
	for _, r := range s {
		if !unicode.IsSpace(r) {
			out = append(out, unicode.ToLower(r))
		}
	}
	return out
}

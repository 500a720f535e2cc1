package common

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so codes such as "color_design" match
// literally. Queries using it must declare ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

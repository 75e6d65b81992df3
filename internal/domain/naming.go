package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// HandlerFilePrefix prefixes every generated handler file name.
const HandlerFilePrefix = "chs_"

// HandlerFileName derives the handler file name of a host.
// Example: "192.168.1.100" -> "chs_192_168_1_100"
func HandlerFileName(hostIP string) string {
	return HandlerFilePrefix + strings.ReplaceAll(hostIP, ".", "_")
}

// CamelCase turns a delimited subdomain into a matcher identifier.
// Examples:
//   - "test-app" -> "testApp"
//   - "my_cool app" -> "myCoolApp"
//   - "Grafana" -> "grafana"
func CamelCase(s string) string {
	words := strings.FieldsFunc(s, isWordDelimiter)

	var b strings.Builder
	b.Grow(len(s))
	for i, word := range words {
		word = strings.ToLower(word)
		if i == 0 {
			b.WriteString(word)
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(word[size:])
	}
	return b.String()
}

func isWordDelimiter(r rune) bool {
	switch r {
	case '-', '_', '.':
		return true
	}
	return unicode.IsSpace(r)
}

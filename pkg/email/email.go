// Package email derives display values from addresses.
package email

import (
	"strings"
	"unicode"
)

// GreetingName guesses a first name from the local part of an address,
// splitting on the usual separators ("jane.doe" -> "Jane"). It returns ""
// when nothing alphabetic is left, letting callers choose their own fallback.
func GreetingName(address string) string {
	local := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		local = address[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for _, p := range parts {
		if strings.IndexFunc(p, unicode.IsLetter) >= 0 && strings.IndexFunc(p, unicode.IsDigit) < 0 {
			return capitalize(strings.ToLower(p))
		}
	}
	return ""
}

// Domain returns the lowercased host part of an address, or "".
func Domain(address string) string {
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

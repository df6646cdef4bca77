package notification

import "strings"

// NormalizePhone coerces Indian numbers to E.164. A bare 10 digit
// number gets +91, a 91-prefixed 12 digit number gets +, anything
// already carrying + is only cleaned of separators.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	s := b.String()

	switch {
	case strings.HasPrefix(s, "+"):
		return s
	case len(s) == 12 && strings.HasPrefix(s, "91"):
		return "+" + s
	case len(s) == 10:
		return "+91" + s
	default:
		return s
	}
}

package validators

import "strings"

// NormalizePhone keeps digits (and a leading +) so "(11) 98888-7777" and
// "11988887777" resolve to the same client. Returns "" when the result is
// not a plausible phone number.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)

	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}

	out := b.String()
	digits := len(strings.TrimPrefix(out, "+"))
	if digits < 8 || digits > 15 {
		return ""
	}
	return out
}

// Package phone normalizes Brazilian mobile numbers across the formats they
// show up in: with or without the 55 country code, and with or without the
// mobile-indicator 9 after the two-digit area code.
package phone

import "strings"

const countryCode = "55"

// Candidates returns the normalized digit strings to probe the user directory
// with, most likely format first: the number as given (minus country code),
// then the 9-inserted variant for 10-digit legacy numbers, then the 9-removed
// variant for 11-digit numbers. The original string goes first because records
// tend to be stored in the same format they were entered in.
func Candidates(raw string) []string {
	number := strings.TrimPrefix(Digits(raw), countryCode)

	out := []string{number}
	switch len(number) {
	case 10:
		// Area code + 8-digit legacy mobile: probe with the 9 inserted.
		out = append(out, number[:2]+"9"+number[2:])
	case 11:
		// Area code + 9-digit mobile: probe with the 9 removed.
		out = append(out, number[:2]+number[3:])
	}
	return out
}

// CanonicalWhatsApp converts a stored local number into the chat address the
// transport expects: country code prefixed, the mobile 9 dropped from
// 11-digit numbers, "@c.us" suffix.
func CanonicalWhatsApp(stored string) string {
	number := Digits(stored)
	if number == "" {
		return ""
	}
	number = strings.TrimPrefix(number, countryCode)
	if len(number) == 11 {
		number = number[:2] + number[3:]
	}
	return countryCode + number + "@c.us"
}

// Digits strips everything but decimal digits.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

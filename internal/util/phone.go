package util

import (
	"regexp"
	"strings"
)

var nonDial = regexp.MustCompile(`[^\d\+]+`)

// NormalizePhone tries to normalize Nigerian user input into E.164 (+234...).
// Anything it does not recognise is returned with separators stripped.
func NormalizePhone(raw string) string {
	s := nonDial.ReplaceAllString(strings.TrimSpace(raw), "")

	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, "+"):
		return s
	case strings.HasPrefix(s, "00"):
		return "+" + s[2:]
	case strings.HasPrefix(s, "0") && len(s) == 11:
		return "+234" + s[1:]
	case strings.HasPrefix(s, "234") && len(s) == 13:
		return "+" + s
	case len(s) == 10 && (s[0] == '7' || s[0] == '8' || s[0] == '9'):
		return "+234" + s
	}

	return s
}

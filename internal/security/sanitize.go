package security

import (
	"regexp"
	"strings"
)

const DefaultInputLength = 200

var (
	mongoOperator = regexp.MustCompile(`\$[a-zA-Z]+`)
	unsafeChars   = regexp.MustCompile("[<>\"'`;\\\\]")
)

// Sanitize trims input, caps it to maxLen runes and removes query operators and markup
// characters.
func Sanitize(input string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultInputLength
	}
	s := strings.TrimSpace(input)
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}
	s = mongoOperator.ReplaceAllString(s, "")
	return unsafeChars.ReplaceAllString(s, "")
}

// Digits keeps the ascii digits of s.
func Digits(s string) string {
	var out strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// ColorIDs reads a comma separated list of ids, ids without digits are dropped.
func ColorIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if id := Digits(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

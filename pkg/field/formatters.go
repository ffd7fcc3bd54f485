package field

import (
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Compose applies formatters left to right.
func Compose(formatters ...Formatter) Formatter {
	filtered := make([]Formatter, 0, len(formatters))
	for _, f := range formatters {
		if f != nil {
			filtered = append(filtered, f)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}
	return func(raw any) any {
		for _, f := range filtered {
			raw = f(raw)
		}
		return raw
	}
}

// Trim strips surrounding whitespace from string input.
func Trim(raw any) any {
	return mapString(raw, strings.TrimSpace)
}

// Upper upper-cases string input.
func Upper(raw any) any {
	return mapString(raw, strings.ToUpper)
}

// Lower lower-cases string input.
func Lower(raw any) any {
	return mapString(raw, strings.ToLower)
}

// Digits drops every non-digit rune.
func Digits(raw any) any {
	return mapString(raw, onlyDigits)
}

// Sanitize removes any markup from free text.
func Sanitize(raw any) any {
	return mapString(raw, func(s string) string {
		return textSanitizer().Sanitize(s)
	})
}

// Mask formats the digits of the input into pattern, where '#' is a digit
// slot and every other rune is a literal, e.g. "(##) #####-####". Output
// stops at the last filled slot so partially typed input stays stable.
func Mask(pattern string) Formatter {
	return func(raw any) any {
		return mapString(raw, func(s string) string {
			digits := []rune(onlyDigits(s))
			if len(digits) == 0 {
				return ""
			}
			var b strings.Builder
			pos := 0
			for _, r := range pattern {
				if pos >= len(digits) {
					break
				}
				if r == '#' {
					b.WriteRune(digits[pos])
					pos++
					continue
				}
				b.WriteRune(r)
			}
			return b.String()
		})
	}
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func mapString(raw any, fn func(string) string) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	return fn(s)
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

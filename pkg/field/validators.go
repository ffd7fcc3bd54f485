package field

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rule kinds understood by the built-in validators. They mirror the canonical
// constraints carried by OpenAPI schemas so definitions can move between the
// two without renaming.
const (
	RuleMin       = "min"
	RuleMax       = "max"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RulePattern   = "pattern"
	RuleEmail     = "email"
	RuleMatches   = "matches"
)

// Chain runs validators in order and returns the first failure.
func Chain(validators ...Validator) Validator {
	filtered := make([]Validator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}
	return func(value any, all Values) error {
		for _, v := range filtered {
			if err := v(value, all); err != nil {
				return err
			}
		}
		return nil
	}
}

// MinLength rejects strings shorter than n runes.
func MinLength(n int, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("must be at least %d characters", n)
	}
	return func(value any, _ Values) error {
		if utf8.RuneCountInString(stringValue(value)) < n {
			return errors.New(message)
		}
		return nil
	}
}

// MaxLength rejects strings longer than n runes.
func MaxLength(n int, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("must be at most %d characters", n)
	}
	return func(value any, _ Values) error {
		if utf8.RuneCountInString(stringValue(value)) > n {
			return errors.New(message)
		}
		return nil
	}
}

// Min rejects numeric input below bound. Non-numeric input is an error.
func Min(bound float64, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("must be greater than or equal to %s", formatFloat(bound))
	}
	return func(value any, _ Values) error {
		n, err := numberValue(value)
		if err != nil {
			return err
		}
		if n < bound {
			return errors.New(message)
		}
		return nil
	}
}

// Max rejects numeric input above bound. Non-numeric input is an error.
func Max(bound float64, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("must be less than or equal to %s", formatFloat(bound))
	}
	return func(value any, _ Values) error {
		n, err := numberValue(value)
		if err != nil {
			return err
		}
		if n > bound {
			return errors.New(message)
		}
		return nil
	}
}

// Pattern requires the whole string to match expr.
func Pattern(expr, message string) (Validator, error) {
	re, err := regexp.Compile(anchor(expr))
	if err != nil {
		return nil, fmt.Errorf("field: invalid pattern %q: %w", expr, err)
	}
	if message == "" {
		message = "has an invalid format"
	}
	return func(value any, _ Values) error {
		if !re.MatchString(stringValue(value)) {
			return errors.New(message)
		}
		return nil
	}, nil
}

// Email requires a bare address such as user@example.com.
func Email(message string) Validator {
	if message == "" {
		message = "must be a valid email address"
	}
	return func(value any, _ Values) error {
		raw := strings.TrimSpace(stringValue(value))
		addr, err := mail.ParseAddress(raw)
		if err != nil || addr.Address != raw || !strings.Contains(addr.Address, ".") {
			return errors.New(message)
		}
		return nil
	}
}

// Matches requires the value to equal the value of another field. Use it
// with Spec.ValidateEmpty so a blank confirmation is still compared.
func Matches(other, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("must match %s", other)
	}
	return func(value any, all Values) error {
		if !Equal(value, all[other]) {
			return errors.New(message)
		}
		return nil
	}
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func numberValue(value any) (float64, error) {
	switch typed := value.(type) {
	case int:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case float64:
		return typed, nil
	case string:
		n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(typed), ",", "."), 64)
		if err != nil {
			return 0, errors.New("must be a number")
		}
		return n, nil
	default:
		return 0, errors.New("must be a number")
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func anchor(expr string) string {
	if !strings.HasPrefix(expr, "^") {
		expr = "^(?:" + expr + ")"
	}
	if !strings.HasSuffix(expr, "$") {
		expr += "$"
	}
	return expr
}

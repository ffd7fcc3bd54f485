package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formwizard/pkg/field"
)

// RuleFactory builds a validator from rule parameters.
type RuleFactory func(params map[string]string, message string) (field.Validator, error)

// FormatterFactory builds a formatter. arg is the text after the first ':'
// in the reference, e.g. "mask:(##) #####-####".
type FormatterFactory func(arg string) (field.Formatter, error)

// Registry resolves rule and formatter names. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	rules      map[string]ruleEntry
	formatters map[string]FormatterFactory
}

type ruleEntry struct {
	factory RuleFactory
	// checksEmpty marks cross-field rules that must also see empty input.
	checksEmpty bool
}

// NewRegistry returns a registry with the built-in rules (min, max,
// minLength, maxLength, pattern, email, matches) and formatters (trim,
// upper, lower, digits, sanitize, mask).
func NewRegistry() *Registry {
	reg := &Registry{
		rules:      make(map[string]ruleEntry),
		formatters: make(map[string]FormatterFactory),
	}
	reg.registerBuiltins()
	return reg
}

// RegisterRule adds or replaces a rule factory.
func (r *Registry) RegisterRule(name string, factory RuleFactory) {
	r.registerRule(name, factory, false)
}

// RegisterFormatter adds or replaces a formatter factory.
func (r *Registry) RegisterFormatter(name string, factory FormatterFactory) {
	trimmed := strings.TrimSpace(name)
	if r == nil || trimmed == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[trimmed] = factory
}

// Rules lists the registered rule names.
func (r *Registry) Rules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rules))
	for name := range r.rules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Formatters lists the registered formatter names.
func (r *Registry) Formatters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) registerRule(name string, factory RuleFactory, checksEmpty bool) {
	trimmed := strings.TrimSpace(name)
	if r == nil || trimmed == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[trimmed] = ruleEntry{factory: factory, checksEmpty: checksEmpty}
}

// validator composes the rules of one field. The bool reports whether any
// rule needs to see empty values.
func (r *Registry) validator(rules []RuleConfig) (field.Validator, bool, error) {
	if len(rules) == 0 {
		return nil, false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	validators := make([]field.Validator, 0, len(rules))
	checksEmpty := false
	for _, rule := range rules {
		entry, ok := r.rules[strings.TrimSpace(rule.Kind)]
		if !ok {
			return nil, false, fmt.Errorf("unknown rule %q", rule.Kind)
		}
		v, err := entry.factory(rule.Params, rule.Message)
		if err != nil {
			return nil, false, fmt.Errorf("rule %q: %w", rule.Kind, err)
		}
		validators = append(validators, v)
		checksEmpty = checksEmpty || entry.checksEmpty
	}
	return field.Chain(validators...), checksEmpty, nil
}

func (r *Registry) formatter(refs []string) (field.Formatter, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	formatters := make([]field.Formatter, 0, len(refs))
	for _, ref := range refs {
		name, arg, _ := strings.Cut(ref, ":")
		factory, ok := r.formatters[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown formatter %q", name)
		}
		f, err := factory(arg)
		if err != nil {
			return nil, fmt.Errorf("formatter %q: %w", name, err)
		}
		formatters = append(formatters, f)
	}
	return field.Compose(formatters...), nil
}

func (r *Registry) registerBuiltins() {
	r.RegisterRule(field.RuleMinLength, func(params map[string]string, msg string) (field.Validator, error) {
		n, err := intParam(params, "value")
		if err != nil {
			return nil, err
		}
		return field.MinLength(n, msg), nil
	})
	r.RegisterRule(field.RuleMaxLength, func(params map[string]string, msg string) (field.Validator, error) {
		n, err := intParam(params, "value")
		if err != nil {
			return nil, err
		}
		return field.MaxLength(n, msg), nil
	})
	r.RegisterRule(field.RuleMin, func(params map[string]string, msg string) (field.Validator, error) {
		n, err := floatParam(params, "value")
		if err != nil {
			return nil, err
		}
		return field.Min(n, msg), nil
	})
	r.RegisterRule(field.RuleMax, func(params map[string]string, msg string) (field.Validator, error) {
		n, err := floatParam(params, "value")
		if err != nil {
			return nil, err
		}
		return field.Max(n, msg), nil
	})
	r.RegisterRule(field.RulePattern, func(params map[string]string, msg string) (field.Validator, error) {
		expr := strings.TrimSpace(params["pattern"])
		if expr == "" {
			return nil, fmt.Errorf("param %q is required", "pattern")
		}
		return field.Pattern(expr, msg)
	})
	r.RegisterRule(field.RuleEmail, func(_ map[string]string, msg string) (field.Validator, error) {
		return field.Email(msg), nil
	})
	r.registerRule(field.RuleMatches, func(params map[string]string, msg string) (field.Validator, error) {
		other := strings.TrimSpace(params["field"])
		if other == "" {
			return nil, fmt.Errorf("param %q is required", "field")
		}
		return field.Matches(other, msg), nil
	}, true)

	plain := func(f field.Formatter) FormatterFactory {
		return func(string) (field.Formatter, error) { return f, nil }
	}
	r.RegisterFormatter("trim", plain(field.Trim))
	r.RegisterFormatter("upper", plain(field.Upper))
	r.RegisterFormatter("lower", plain(field.Lower))
	r.RegisterFormatter("digits", plain(field.Digits))
	r.RegisterFormatter("sanitize", plain(field.Sanitize))
	r.RegisterFormatter("mask", func(arg string) (field.Formatter, error) {
		if !strings.Contains(arg, "#") {
			return nil, fmt.Errorf("mask %q has no digit slots", arg)
		}
		return field.Mask(arg), nil
	})
}

func intParam(params map[string]string, key string) (int, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("param %q is required", key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	return n, nil
}

func floatParam(params map[string]string, key string) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("param %q is required", key)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	return n, nil
}

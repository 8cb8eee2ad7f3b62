// Package placeholder substitutes "{{name}}" tokens with caller-supplied
// values. Names are matched literally and case-sensitively; a token with
// whitespace or braces inside is not a placeholder.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sakif/wapanel/internal/apperror"
)

var tokenPattern = regexp.MustCompile(`\{\{([^{}\s]+)\}\}`)

// Policy decides what happens to a placeholder whose optional variable was
// not supplied.
type Policy string

const (
	KeepMissing  Policy = "keep"  // leave "{{name}}" verbatim
	BlankMissing Policy = "blank" // replace with ""
)

// ParsePolicy accepts "keep", "blank" or "" (keep).
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeepMissing:
		return KeepMissing, nil
	case BlankMissing:
		return BlankMissing, nil
	default:
		return "", fmt.Errorf("placeholder: unknown missing-variable policy %q", s)
	}
}

// Options configures Substitute.
type Options struct {
	OnMissingOptional Policy
}

// MissingVariableError lists every required variable that was absent or
// blank, in the order they were declared.
type MissingVariableError struct {
	Names []string
}

func (e *MissingVariableError) Error() string {
	return "missing required variables: " + strings.Join(e.Names, ", ")
}

func (e *MissingVariableError) Unwrap() error {
	return apperror.ErrMissingVariable
}

// Names returns the distinct placeholder names in text, in order of first use.
func Names(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// CheckRequired fails with *MissingVariableError when any required name is
// absent from vars or maps to a blank value.
func CheckRequired(vars map[string]string, required []string) error {
	var missing []string
	for _, name := range required {
		if strings.TrimSpace(vars[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingVariableError{Names: missing}
	}
	return nil
}

// Replace substitutes every placeholder in text. Supplied values are used
// as-is, even when empty; unsupplied ones follow policy.
func Replace(text string, vars map[string]string, policy Policy) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-2]
		if value, ok := vars[name]; ok {
			return value
		}
		if policy == BlankMissing {
			return ""
		}
		return token
	})
}

// Substitute checks required variables, then replaces placeholders in text.
func Substitute(text string, vars map[string]string, required []string, opts Options) (string, error) {
	if err := CheckRequired(vars, required); err != nil {
		return "", err
	}
	return Replace(text, vars, opts.OnMissingOptional), nil
}

// Package template implements the `${name}` / `${name|filter}` variable
// substituter. It runs after config merging and before spec resolution,
// rewriting every string and string-list field of the merged record.
package template

import (
	"regexp"
	"strings"

	cerrors "github.com/ctenv/ctenv/internal/errors"
)

// exprPattern matches ${name} and ${name|filter}. Names are restricted to
// the identifier-with-dot grammar used by the namespace (plain names like
// "image" and dotted names like "env.HOME").
var exprPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.]*)(\|([A-Za-z_][A-Za-z0-9_]*))?\}`)

// Vars is the flat variable namespace substitution draws from: merged
// ContainerConfig fields by name, RuntimeContext fields by name, and
// env.NAME references, which are not stored here but resolved through
// EnvLookup each time one is looked up.
type Vars struct {
	values    map[string]string
	EnvLookup func(name string) (string, bool)
}

// NewVars creates an empty namespace ready to be populated with Set.
func NewVars() *Vars {
	return &Vars{values: make(map[string]string)}
}

// Set assigns a plain variable (not an env.NAME reference).
func (v *Vars) Set(name, value string) {
	v.values[name] = value
}

// lookup resolves a variable name, including the env.NAME special form.
// An unset host environment variable resolves to the empty string rather
// than failing.
func (v *Vars) lookup(name string) (string, bool) {
	if rest, ok := strings.CutPrefix(name, "env."); ok {
		if v.EnvLookup == nil {
			return "", true
		}
		val, _ := v.EnvLookup(rest)
		return val, true
	}
	val, ok := v.values[name]
	return val, ok
}

var filters = map[string]func(string) string{
	"slug": func(s string) string {
		s = strings.ReplaceAll(s, "/", "-")
		s = strings.ReplaceAll(s, ":", "-")
		return s
	},
}

// ExpandString substitutes every ${name} / ${name|filter} occurrence in s.
// field names the ContainerConfig field s came from, used only for error
// context.
func ExpandString(s string, vars *Vars, field string) (string, error) {
	var firstErr error
	result := exprPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		groups := exprPattern.FindStringSubmatch(match)
		name, filterName := groups[1], groups[3]

		val, ok := vars.lookup(name)
		if !ok {
			firstErr = cerrors.Newf(cerrors.KindTemplate, "unknown variable %q in expression %q", name, match).
				With("field", field).With("value", match)
			return match
		}
		if filterName != "" {
			fn, ok := filters[filterName]
			if !ok {
				firstErr = cerrors.Newf(cerrors.KindTemplate, "unknown filter %q in expression %q", filterName, match).
					With("field", field).With("value", match)
				return match
			}
			val = fn(val)
		}
		return val
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// ExpandList substitutes every element of a string list, stopping at the
// first error.
func ExpandList(list []string, vars *Vars, field string) ([]string, error) {
	out := make([]string, len(list))
	for i, s := range list {
		expanded, err := ExpandString(s, vars, field)
		if err != nil {
			return nil, err
		}
		out[i] = expanded
	}
	return out, nil
}

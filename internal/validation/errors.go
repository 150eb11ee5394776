// Package validation defines the configuration error taxonomy shared by
// every rule loader and scorer.
//
// A ConfigError means a rule definition is corrupt (weights that do not sum
// to one, a gate referencing an unknown dimension, an unrecognised badge
// condition key). These are fatal and are reported at load time, before any
// scoring happens. Bad user input is never a ConfigError.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError describes a single problem in a rule definition.
type ConfigError struct {
	Source string // e.g. "template:diagnostic@v2", "badge:fast-track"
	Field  string // dotted path inside the source, may be empty
	Reason string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " at %s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Newf builds a ConfigError with a formatted reason.
func Newf(source, field, format string, args ...any) *ConfigError {
	return &ConfigError{Source: source, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Errors collects every problem found while validating a rule set so the
// operator sees all of them at once.
type Errors []*ConfigError

func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no configuration errors"
	case 1:
		return es[0].Error()
	}
	lines := make([]string, 0, len(es)+1)
	lines = append(lines, fmt.Sprintf("%d configuration errors:", len(es)))
	for _, e := range es {
		lines = append(lines, "  - "+e.Error())
	}
	return strings.Join(lines, "\n")
}

// Unwrap exposes the individual errors to errors.Is / errors.As.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// Add appends a problem.
func (es *Errors) Add(e *ConfigError) {
	*es = append(*es, e)
}

// Addf appends a formatted problem.
func (es *Errors) Addf(source, field, format string, args ...any) {
	es.Add(Newf(source, field, format, args...))
}

// Merge appends every ConfigError found in err. Non-configuration errors
// are wrapped as a ConfigError against source.
func (es *Errors) Merge(source string, err error) {
	if err == nil {
		return
	}
	var multi Errors
	if errors.As(err, &multi) {
		*es = append(*es, multi...)
		return
	}
	var single *ConfigError
	if errors.As(err, &single) {
		es.Add(single)
		return
	}
	es.Add(&ConfigError{Source: source, Reason: err.Error()})
}

// Err returns nil when no problems were collected.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// IsConfigError reports whether err is, or wraps, a configuration error.
func IsConfigError(err error) bool {
	var single *ConfigError
	if errors.As(err, &single) {
		return true
	}
	var multi Errors
	return errors.As(err, &multi)
}

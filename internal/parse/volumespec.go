// Package parse provides shared parsing for the small string grammars the
// container invocation pipeline accepts: volume specs and ulimit values.
package parse

import (
	"fmt"
	"sort"
	"strings"
)

// knownVolumeOptions is the fixed vocabulary VolumeSpec options are drawn
// from. "chown" is ctenv-specific: it is never passed to the container
// runtime, only consumed by the entrypoint-script generator.
var knownVolumeOptions = map[string]bool{
	"ro": true, "rw": true, "z": true, "Z": true, "chown": true,
}

// VolumeSpec is the parsed HOST[:CONTAINER[:OPTS]] triple described by the
// specification's VolumeSpec grammar. Host and Container may be relative
// or absolute at parse time; the spec resolver is responsible for making
// both absolute before the value reaches the runtime driver.
type VolumeSpec struct {
	Host      string
	Container string
	Options   map[string]bool
}

// HasOption reports whether opt was present on this spec.
func (v VolumeSpec) HasOption(opt string) bool { return v.Options[opt] }

// Chown reports whether this volume should be chowned in-container.
func (v VolumeSpec) Chown() bool { return v.Options["chown"] }

// ParseVolumeSpec parses s per the grammar HOST[:CONTAINER[:OPTS]], where
// OPTS is a comma-separated list drawn from {ro, rw, z, Z, chown} and any
// component may be empty except HOST, which is mandatory.
func ParseVolumeSpec(s string) (*VolumeSpec, error) {
	parts := strings.SplitN(s, ":", 3)

	host := parts[0]
	if host == "" {
		return nil, fmt.Errorf("volume spec %q: empty host path", s)
	}

	v := &VolumeSpec{Host: host, Options: make(map[string]bool)}

	if len(parts) >= 2 {
		v.Container = parts[1]
	}
	if len(parts) == 3 && parts[2] != "" {
		for _, opt := range strings.Split(parts[2], ",") {
			if opt == "" {
				continue
			}
			if !knownVolumeOptions[opt] {
				return nil, fmt.Errorf("volume spec %q: unknown option %q", s, opt)
			}
			v.Options[opt] = true
		}
	}

	return v, nil
}

// String renders the spec back into HOST[:CONTAINER[:OPTS]] form. Options
// are emitted in a fixed, sorted order for deterministic output (dry-run,
// tests).
func (v VolumeSpec) String() string {
	s := v.Host
	if v.Container != "" || len(v.Options) > 0 {
		s += ":" + v.Container
	}
	if len(v.Options) > 0 {
		opts := make([]string, 0, len(v.Options))
		for o := range v.Options {
			opts = append(opts, o)
		}
		sort.Strings(opts)
		s += ":" + strings.Join(opts, ",")
	}
	return s
}

package sweep

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/joint-strength/internal/config"
)

// maxSamples bounds a single sample table so a typo cannot explode the sweep.
const maxSamples = 10000

// ParseSampleSpec parses a secondary DOF sample specification. A spec
// containing colons is a "start:stop:count" linear sweep; anything else is a
// comma-separated list of fixed breakpoints.
func ParseSampleSpec(s string) (config.SampleTable, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return config.SampleTable{}, fmt.Errorf("empty sample spec")
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return config.SampleTable{}, fmt.Errorf("invalid sample spec %q: expected start:stop:count", s)
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return config.SampleTable{}, fmt.Errorf("invalid start value %q: %w", parts[0], err)
		}
		stop, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return config.SampleTable{}, fmt.Errorf("invalid stop value %q: %w", parts[1], err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return config.SampleTable{}, fmt.Errorf("invalid count value %q: %w", parts[2], err)
		}
		if count <= 0 || count > maxSamples {
			return config.SampleTable{}, fmt.Errorf("count must be in [1, %d], got %d", maxSamples, count)
		}
		return config.SampleTable{Linspace: &config.Linspace{Start: start, Stop: stop, Count: count}}, nil
	}

	values, err := ParseCSVFloat64s(s)
	if err != nil {
		return config.SampleTable{}, err
	}
	if len(values) > maxSamples {
		return config.SampleTable{}, fmt.Errorf("too many sample values: %d (max %d)", len(values), maxSamples)
	}
	return config.SampleTable{Values: values}, nil
}

// ParseSampleOverride parses "DOF=spec", the command-line form used to
// replace one secondary DOF sample table.
func ParseSampleOverride(s string) (string, config.SampleTable, error) {
	name, spec, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", config.SampleTable{}, fmt.Errorf("invalid sample override %q: expected DOF=spec", s)
	}
	table, err := ParseSampleSpec(spec)
	if err != nil {
		return "", config.SampleTable{}, fmt.Errorf("sample override for %s: %w", name, err)
	}
	return name, table, nil
}

// ParseCSVFloat64s parses a comma-separated list of float64 values.
// Returns nil, nil for empty input strings.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

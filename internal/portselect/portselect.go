// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package portselect implements the server's port selection policy. A
// [Spec] accepts a single port, an explicit list of three or more
// candidates, or a two-element [min, max] range, and [Spec.Next] walks
// forward through it deterministically given the previously tried port.
//
// The exact error strings below ("Out of list [...]", "Out of range
// [min - max]") are load-bearing for integrators that match on them and
// must not be reworded.
package portselect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the three accepted port-specification shapes.
type Kind int

const (
	Single Kind = iota
	List
	Range
)

// Spec is a parsed port specification.
type Spec struct {
	Kind  Kind
	Ports []int // single: len 1. list: len >= 3. range: len 2 ([min, max]).
}

// NewSingle builds a single-port Spec.
func NewSingle(port int) Spec {
	return Spec{Kind: Single, Ports: []int{port}}
}

// NewList builds a list Spec. The caller must supply at least three ports;
// Next sorts them ascending before searching.
func NewList(ports []int) Spec {
	return Spec{Kind: List, Ports: ports}
}

// NewRange builds a two-element [min, max] range Spec.
func NewRange(min, max int) Spec {
	return Spec{Kind: Range, Ports: []int{min, max}}
}

// Next returns the candidate port to try after prev (prev == 0 means no
// port has been tried yet):
//
//   - Single: always returns that number.
//   - List (length >= 3): sorts ascending and returns the smallest element
//     strictly greater than prev; errors with "Out of list [...]" when none
//     qualifies.
//   - Range (length 2): if prev == 0, returns min; otherwise returns
//     max(prev, min)+1; errors with "Out of range [min - max]" when the
//     result exceeds max.
func (s Spec) Next(prev int) (int, error) {
	switch s.Kind {
	case Single:
		return s.Ports[0], nil

	case List:
		sorted := append([]int(nil), s.Ports...)
		sort.Ints(sorted)
		for _, p := range sorted {
			if p > prev {
				return p, nil
			}
		}
		return 0, fmt.Errorf("Out of list %v", sorted)

	case Range:
		min, max := s.Ports[0], s.Ports[1]
		var next int
		if prev == 0 {
			next = min
		} else {
			next = prev
			if min > next {
				next = min
			}
			next++
		}
		if next > max {
			return 0, fmt.Errorf("Out of range [%d - %d]", min, max)
		}
		return next, nil

	default:
		return 0, fmt.Errorf("portselect: unknown spec kind")
	}
}

// Parse reads a raw AUTH_PORT environment value into a Spec: a bracketed
// two-element "[min,max]" is a Range, a bare comma-separated list of three
// or more numbers is a List, and anything else is parsed as a Single port.
func Parse(raw string) (Spec, error) {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
		parts := splitInts(inner)
		if len(parts) != 2 {
			return Spec{}, fmt.Errorf("portselect: range must have exactly two elements, got %v", parts)
		}
		return NewRange(parts[0], parts[1]), nil
	}

	if strings.Contains(trimmed, ",") {
		parts := splitInts(trimmed)
		if len(parts) < 3 {
			return Spec{}, fmt.Errorf("portselect: list must have at least three elements, got %v", parts)
		}
		return NewList(parts), nil
	}

	port, err := strconv.Atoi(trimmed)
	if err != nil {
		return Spec{}, fmt.Errorf("portselect: invalid port specification %q: %w", raw, err)
	}
	return NewSingle(port), nil
}

func splitInts(s string) []int {
	fields := strings.Split(s, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

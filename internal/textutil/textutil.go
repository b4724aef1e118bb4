// Package textutil holds the string utilities used by the styling and
// configuration layers around the state graph.
package textutil

import (
	"regexp"
	"strings"
)

var varRefPattern = regexp.MustCompile(`\$\{([^\s}]*)\}`)

// ReplaceVarReferences replaces all references of the form "${name}"
// using the given lookup. References the lookup does not know are
// replaced with an empty string. The lookup is explicit (instead of
// reading the process environment directly) so callers stay testable
// without real environment state.
func ReplaceVarReferences(s string, lookup func(name string) (string, bool)) string {
	return varRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := varRefPattern.FindStringSubmatch(ref)[1]
		if v, ok := lookup(name); ok {
			return v
		}
		return ""
	})
}

// Unindent strips the common leading indentation from all lines of
// text, skipping leading empty lines.
func Unindent(text string) string {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return ""
	}

	min := -1
	for _, line := range lines {
		indent := 0
		for indent < len(line) && line[indent] == ' ' {
			indent++
		}
		if min == -1 || indent < min {
			min = indent
		}
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= min {
			out[i] = line[min:]
		}
	}
	return strings.Join(out, "\n")
}

// ListDifference returns the elements of a not in b and the elements
// of b not in a.
func ListDifference[T comparable](a, b []T) (onlyA, onlyB []T) {
	inA := make(map[T]bool, len(a))
	for _, x := range a {
		inA[x] = true
	}
	inB := make(map[T]bool, len(b))
	for _, x := range b {
		inB[x] = true
	}

	for _, x := range a {
		if !inB[x] {
			onlyA = append(onlyA, x)
		}
	}
	for _, x := range b {
		if !inA[x] {
			onlyB = append(onlyB, x)
		}
	}
	return onlyA, onlyB
}

// ExtendSafe copies src into dst and returns the keys that were
// already present in dst (and got overwritten).
func ExtendSafe[K comparable, V any](dst, src map[K]V) []K {
	var dup []K
	for k, v := range src {
		if _, ok := dst[k]; ok {
			dup = append(dup, k)
		}
		dst[k] = v
	}
	return dup
}

// IsBlank reports whether s is empty after removing linebreaks and
// trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", "")) == ""
}

// TrimLines trims leading and trailing whitespace from every line.
func TrimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

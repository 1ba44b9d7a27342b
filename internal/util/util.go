// Package util holds string helpers for raw host arguments.
package util

import "strings"

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArgs trims whitespace and quoting from every argument in place and
// returns the slice.
func CleanArgs(args []string) []string {
	for i, a := range args {
		args[i] = FixEscapeQuotes(TrimQuotes(strings.TrimSpace(a)))
	}
	return args
}

// SplitList splits "[a,b,c]" or "a,b,c" into trimmed elements. An empty
// list ("" or "[]") yields nil.
func SplitList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

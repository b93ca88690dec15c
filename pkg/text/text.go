// Package text provides the small string-handling primitives shared by the
// rest of the preprocessor: case folding, prefix matching, and the
// continuation-aware concatenation used when stitching logical lines back
// together.
package text

import "strings"

// EqualFold reports whether a and b are equal after uppercase folding.
func EqualFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

// HasPrefixFold reports whether s starts with prefix, ignoring case.
func HasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}

// Head returns the leading run of s up to (not including) the first
// occurrence of any byte in cutset, and the remainder starting at that byte.
func Head(s, cutset string) (head, rest string) {
	idx := strings.IndexAny(s, cutset)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx:]
}

// Tail returns s with any trailing run of bytes in cutset removed.
func Tail(s, cutset string) string {
	return strings.TrimRight(s, cutset)
}

// directivePrefixes are Fortran compiler-directive comment markers that must
// survive a continuation join untouched.
var directivePrefixes = []string{"!DIR$", "!$OMP", "!DEC$", "!GCC$", "!ACC$"}

// hasDirectivePrefix reports whether the trimmed line begins with one of the
// directive-comment markers that Concat must preserve verbatim.
func hasDirectivePrefix(s string) bool {
	trimmed := strings.TrimLeft(s, " \t")
	for _, p := range directivePrefixes {
		if HasPrefixFold(trimmed, p) {
			return true
		}
	}
	return false
}

// Concat joins two partial lines at a Fortran `&` continuation point.
//
// It drops a trailing `&` (and any space before it) from the first part,
// drops a leading `&` (and any space after it) from the second part, and
// collapses the duplicate space left at the join, unless the second part
// begins with one of the directive-comment markers (!DIR$, !$OMP, !DEC$,
// !GCC$, !ACC$), which are preserved verbatim instead of having their
// leading `&` stripped.
func Concat(first, second string) string {
	left := strings.TrimRight(first, " \t")
	left = strings.TrimSuffix(left, "&")
	left = strings.TrimRight(left, " \t")

	if hasDirectivePrefix(second) {
		return left + " " + strings.TrimLeft(second, " \t")
	}

	right := strings.TrimLeft(second, " \t")
	right = strings.TrimPrefix(right, "&")
	right = strings.TrimLeft(right, " \t")

	if left == "" {
		return right
	}
	if right == "" {
		return left
	}
	return left + " " + right
}

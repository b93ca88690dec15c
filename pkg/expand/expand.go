// Package expand implements macro substitution: rewriting user-defined
// object-like and function-like macros in a line of text, plus the built-in
// token substitutions (__FILE__, __LINE__, __DATE__, __TIME__, __FILENAME__,
// __TIMESTAMP__) layered on top.
package expand

import (
	"strconv"
	"strings"

	"github.com/minz/fpxpp/pkg/dateutil"
	"github.com/minz/fpxpp/pkg/depgraph"
	"github.com/minz/fpxpp/pkg/macro"
	"github.com/minz/fpxpp/pkg/pathutil"
)

// boundaryChars are the characters that may legally surround a macro name
// occurrence; anything else touching the name means it's part of a larger
// identifier and must not be substituted.
const boundaryChars = " \t()[]<>&;.,^~!/*-+=\"'"

// maxExpansionDepth bounds recursive re-expansion and the repeated passes of
// expandPass. Closing a dependency-graph cycle only skips re-expanding that
// one replacement, so an indirect cycle (A -> B -> C -> A) keeps being
// substituted pass after pass until this depth is reached.
const maxExpansionDepth = 64

func isBoundary(b byte) bool {
	return strings.IndexByte(boundaryChars, b) >= 0
}

// ExpandMacros rewrites every user-defined macro occurrence in line. The
// returned stitch flag is true when the final non-blank character of the
// result is '&', signalling an unterminated Fortran continuation.
func ExpandMacros(line string, macros *macro.Table) (string, bool) {
	g := depgraph.New(macros.Size())
	out := expandPass(line, macros, g, -1, 0)
	out = normalizeInlineComment(out)
	return out, endsWithAmp(out)
}

func endsWithAmp(s string) bool {
	trimmed := strings.TrimRight(s, " \t")
	return strings.HasSuffix(trimmed, "&")
}

// normalizeInlineComment truncates the line just after a lone trailing '&'
// if a '!' comment marker appears at or after that point, so trailing
// comment text doesn't defeat continuation detection.
func normalizeInlineComment(s string) string {
	idx := strings.LastIndexByte(s, '&')
	if idx < 0 {
		return s
	}
	bang := strings.IndexByte(s[idx:], '!')
	if bang < 0 {
		return s
	}
	return s[:idx+1]
}

// expandPass runs one left-to-right scan of the macro table against line,
// substituting every boundary-matched occurrence it finds, then repeats
// against the result until a pass makes no further change or the depth
// guard is hit. ctxIdx is the table index of the macro whose replacement
// text is currently being expanded, or -1 at the top (line) level; it is
// threaded into the shared dependency graph g so indirect expansion cycles
// (A -> B -> C -> A) are caught even though none of A, B, C is flagged
// self-cyclic by the table.
func expandPass(line string, macros *macro.Table, g *depgraph.Graph, ctxIdx, depth int) string {
	if depth >= maxExpansionDepth {
		return line
	}

	changed := false
	for i := 0; i < macros.Size(); i++ {
		entry := macros.Get(i)
		if entry == nil || entry.Name == "" {
			continue
		}
		next, matched := substituteEntry(line, entry, i, macros, g, ctxIdx, depth)
		if matched {
			line = next
			changed = true
		}
	}

	if changed {
		return expandPass(line, macros, g, ctxIdx, depth+1)
	}
	return line
}

// substituteEntry finds the first boundary-matched, unquoted occurrence of
// entry.Name in line and replaces it (and its call arguments, if any),
// returning the new line and whether a match was found.
func substituteEntry(line string, entry *macro.Entry, idx int, macros *macro.Table, g *depgraph.Graph, ctxIdx, depth int) (string, bool) {
	pos := findBoundaryMatch(line, entry.Name)
	if pos < 0 {
		return line, false
	}

	if entry.IsCyclic || entry.Value == entry.Name {
		return line, false
	}

	nameEnd := pos + len(entry.Name)

	if entry.IsFunctionLike() {
		callEnd, args, ok := parseCallArgs(line, nameEnd, len(entry.Params), entry.IsVariadic)
		if !ok {
			return line, false
		}
		replacement := expandFunctionLike(entry, args)
		return spliceExpanded(line, pos, callEnd, replacement, idx, macros, g, ctxIdx, depth), true
	}

	return spliceExpanded(line, pos, nameEnd, entry.Value, idx, macros, g, ctxIdx, depth), true
}

// spliceExpanded adds the ctxIdx -> idx expansion edge, recursively
// re-expands replacement within the context of idx unless that would close
// a cycle, then splices the result into line at [start, end).
func spliceExpanded(line string, start, end int, replacement string, idx int, macros *macro.Table, g *depgraph.Graph, ctxIdx, depth int) string {
	g.AddEdge(ctxIdx, idx)

	final := replacement
	if !g.HasCycleReachableFrom(idx) {
		final = expandPass(replacement, macros, g, idx, depth+1)
	}

	return line[:start] + final + line[end:]
}

// findBoundaryMatch returns the index of the first occurrence of name in
// line that is outside any quoted region and bounded by non-identifier
// characters (or string edges) on both sides, or -1 if none exists.
func findBoundaryMatch(line, name string) int {
	if name == "" {
		return -1
	}
	var quote byte
	for i := 0; i+len(name) <= len(line); i++ {
		c := line[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		if line[i:i+len(name)] != name {
			continue
		}
		leftOK := i == 0 || isBoundary(line[i-1])
		rightOK := i+len(name) == len(line) || isBoundary(line[i+len(name)])
		if leftOK && rightOK {
			return i
		}
	}
	return -1
}

// parseCallArgs parses the parenthesised argument list beginning at or
// after pos (skipping whitespace), honoring nested parens and quoted
// regions when splitting on top-level commas. It returns the index just
// past the closing paren, the raw argument texts, and whether a well-formed
// call (consistent with the formal parameter count) was found.
func parseCallArgs(line string, pos int, nParams int, variadic bool) (int, []string, bool) {
	i := pos
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i >= len(line) || line[i] != '(' {
		return 0, nil, false
	}
	i++

	var args []string
	var cur strings.Builder
	depth := 1
	var quote byte

	for i < len(line) {
		c := line[i]
		if quote != 0 {
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
			i++
			continue
		}
		switch {
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == '(':
			depth++
			cur.WriteByte(c)
		case c == ')':
			depth--
			if depth == 0 {
				args = append(args, cur.String())
				i++
				goto done
			}
			cur.WriteByte(c)
		case c == ',' && depth == 1:
			args = append(args, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
		i++
	}
	return 0, nil, false

done:
	trimmedArgs := make([]string, len(args))
	for j, a := range args {
		trimmedArgs[j] = strings.TrimSpace(a)
	}
	if len(trimmedArgs) == 1 && trimmedArgs[0] == "" && nParams == 0 {
		trimmedArgs = nil
	}

	if variadic {
		if len(trimmedArgs) < nParams {
			return 0, nil, false
		}
	} else if len(trimmedArgs) != nParams {
		return 0, nil, false
	}
	return i, trimmedArgs, true
}

// expandFunctionLike produces the replacement text for a function-like
// macro invocation: parameter substitution (with stringification), token
// pasting, then variadic / __VA_OPT__ substitution, applied in that order
// to a working copy of entry.Value.
func expandFunctionLike(entry *macro.Entry, args []string) string {
	nParams := len(entry.Params)
	variadicTail := ""
	if entry.IsVariadic && len(args) > nParams {
		variadicTail = strings.Join(args[nParams:], ", ")
	}

	work := entry.Value
	for j, param := range entry.Params {
		var value string
		if j < len(args) {
			value = args[j]
		}
		work = substituteParam(work, param, value)
	}

	work = pasteTokens(work)

	if entry.IsVariadic {
		work = substituteVAOpt(work, variadicTail)
		work = replaceBoundary(work, "__VA_ARGS__", variadicTail)
		work = normalizeSpacing(work)
	}

	return work
}

// normalizeSpacing cleans up the whitespace artifacts left behind when a
// __VA_OPT__ group or a trailing __VA_ARGS__ collapses to nothing: runs of
// spaces are collapsed to one, and a space before a comma, after '(' or
// before ')' is dropped (a space after a comma is kept). Only applied on the variadic path, and only
// outside quoted spans, so a string or character literal already present in
// the macro body is never touched.
func normalizeSpacing(s string) string {
	for i := 0; i < 10; i++ {
		next := collapseSpacingOutsideQuotes(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

// collapseSpacingOutsideQuotes runs one pass of the normalizeSpacing rules
// over s, copying quoted spans through unchanged.
func collapseSpacingOutsideQuotes(s string) string {
	var out strings.Builder
	var quote byte
	i := 0
	for i < len(s) {
		c := s[i]
		if quote != 0 {
			out.WriteByte(c)
			if c == quote {
				quote = 0
			}
			i++
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			out.WriteByte(c)
			i++
			continue
		}
		switch {
		case c == ' ' && i+1 < len(s) && s[i+1] == ' ':
			// drop the space; the next one in the run is kept
		case c == ' ' && i+1 < len(s) && s[i+1] == ',':
			// drop the space; the comma is written on the next iteration
		case c == '(' && i+1 < len(s) && s[i+1] == ' ':
			out.WriteByte('(')
			i += 2
			continue
		case c == ' ' && i+1 < len(s) && s[i+1] == ')':
			// drop the space; the ')' is written on the next iteration
		default:
			out.WriteByte(c)
		}
		i++
	}
	return out.String()
}

// substituteParam replaces boundary-matched occurrences of param in work
// with value, honoring stringification: an occurrence preceded by a single
// '#' (not '##') is replaced, together with that '#', by a quoted copy of
// value instead.
func substituteParam(work, param, value string) string {
	var out strings.Builder
	i := 0
	for i < len(work) {
		if !matchesParamAt(work, i, param) {
			out.WriteByte(work[i])
			i++
			continue
		}
		if i >= 1 && work[i-1] == '#' && !(i >= 2 && work[i-2] == '#') {
			s := out.String()
			out.Reset()
			out.WriteString(strings.TrimSuffix(s, "#"))
			out.WriteString(strconv.Quote(value))
		} else {
			out.WriteString(value)
		}
		i += len(param)
	}
	return out.String()
}

func matchesParamAt(s string, i int, param string) bool {
	if i+len(param) > len(s) || s[i:i+len(param)] != param {
		return false
	}
	leftOK := i == 0 || isBoundary(s[i-1]) || s[i-1] == '#'
	rightEnd := i + len(param)
	rightOK := rightEnd == len(s) || isBoundary(s[rightEnd]) || s[rightEnd] == '#'
	return leftOK && rightOK
}

// pasteTokens repeatedly applies the ## token-paste operator: the longest
// non-space run ending just before ## and the longest non-space run
// starting just after it are concatenated directly together, with any
// surrounding whitespace preserved.
func pasteTokens(work string) string {
	for {
		idx := strings.Index(work, "##")
		if idx < 0 {
			return work
		}
		leftStart := idx
		for leftStart > 0 && work[leftStart-1] != ' ' && work[leftStart-1] != '\t' {
			leftStart--
		}
		rightEnd := idx + 2
		for rightEnd < len(work) && work[rightEnd] != ' ' && work[rightEnd] != '\t' {
			rightEnd++
		}
		leftTok := strings.TrimRight(work[leftStart:idx], " \t")
		rightTok := strings.TrimLeft(work[idx+2:rightEnd], " \t")
		pasted := leftTok + rightTok
		work = work[:leftStart] + pasted + work[rightEnd:]
	}
}

// substituteVAOpt replaces every __VA_OPT__(x) group with x when tail is
// non-empty, or with an empty string otherwise.
func substituteVAOpt(work, tail string) string {
	const marker = "__VA_OPT__"
	for {
		idx := strings.Index(work, marker)
		if idx < 0 {
			return work
		}
		parenStart := idx + len(marker)
		if parenStart >= len(work) || work[parenStart] != '(' {
			return work[:idx] + work[idx+len(marker):]
		}
		depth := 1
		j := parenStart + 1
		for j < len(work) && depth > 0 {
			switch work[j] {
			case '(':
				depth++
			case ')':
				depth--
			}
			j++
		}
		inner := work[parenStart+1 : j-1]
		replacement := ""
		if tail != "" {
			replacement = inner
		}
		work = work[:idx] + replacement + work[j:]
	}
}

// replaceBoundary replaces every boundary-matched occurrence of name with
// value.
func replaceBoundary(s, name, value string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if matchesParamAt(s, i, name) {
			out.WriteString(value)
			i += len(name)
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// ExpandAll runs ExpandMacros, then layers the built-in token substitutions
// on top: __FILE__, __LINE__, __DATE__, __TIME__, and (only when hasExtra
// is set) __FILENAME__ / __TIMESTAMP__. Each built-in is a plain
// scan-and-replace with no identifier-boundary check, matching the
// preprocessor's observed behavior for these tokens specifically.
func ExpandAll(line string, macros *macro.Table, filePath string, lineNumber int, hasExtra bool) (string, bool) {
	expanded, stitch := ExpandMacros(line, macros)

	now := dateutil.Now()
	expanded = strings.ReplaceAll(expanded, "__FILE__", strconv.Quote(filePath))
	expanded = strings.ReplaceAll(expanded, "__LINE__", strconv.Itoa(lineNumber))
	expanded = strings.ReplaceAll(expanded, "__DATE__", strconv.Quote(now.Format("MMM-dd-yyyy")))
	expanded = strings.ReplaceAll(expanded, "__TIME__", strconv.Quote(now.Format("HH:mm:ss")))

	if hasExtra {
		expanded = strings.ReplaceAll(expanded, "__FILENAME__", strconv.Quote(pathutil.Basename(filePath, true)))
		expanded = strings.ReplaceAll(expanded, "__TIMESTAMP__", strconv.Quote(now.Format("ddd MM yyyy HH:mm:ss")))
	}

	return expanded, stitch
}

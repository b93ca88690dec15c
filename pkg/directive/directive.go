// Package directive implements the preprocessor directive handlers:
// #define, #undef, #include, the conditional family, #warning, #error, and
// #pragma.
package directive

import (
	"fmt"
	"os"
	"strings"

	"github.com/minz/fpxpp/pkg/cond"
	"github.com/minz/fpxpp/pkg/expr"
	"github.com/minz/fpxpp/pkg/macro"
	"github.com/minz/fpxpp/pkg/pathutil"
)

// keywords lists every recognized directive name, compared case-insensitively.
var keywords = map[string]bool{
	"DEFINE": true, "UNDEF": true, "IF": true, "IFDEF": true, "IFNDEF": true,
	"ELIF": true, "ELIFDEF": true, "ELIFNDEF": true, "ELSE": true, "ENDIF": true,
	"INCLUDE": true, "WARNING": true, "ERROR": true, "PRAGMA": true,
}

// FatalError wraps the message carried by a #error directive. The driver
// must terminate with non-zero status on encountering one.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string {
	return "#error: " + e.Msg
}

// Context bundles everything a directive handler needs: shared state (the
// macro table and conditional stack), configuration (include search path),
// and the I/O hooks that let this package stay independent of the line
// driver: Diagnostic for verbose-only messages, Include for recursively
// preprocessing a resolved file into the current output stream, and Output
// for directives (just #pragma) that must be written to the output stream
// verbatim rather than handled purely as a state change.
type Context struct {
	Macros      *macro.Table
	Cond        *cond.Stack
	IncludeDirs []string
	Verbose     bool
	Diagnostic  func(format string, args ...any)
	Warn        func(msg string)
	Include     func(resolvedPath string) error
	Output      func(line string)
}

func (c *Context) diagf(format string, args ...any) {
	if c.Verbose && c.Diagnostic != nil {
		c.Diagnostic(format, args...)
	}
}

// ParseDirective reports whether the trimmed line is a directive (its first
// non-blank character is '#' followed by a recognized keyword), returning
// the uppercase keyword and the remainder of the line after it.
func ParseDirective(line string) (keyword, rest string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	body := strings.TrimLeft(trimmed[1:], " \t")
	i := 0
	for i < len(body) && isIdentByte(body[i]) {
		i++
	}
	word := strings.ToUpper(body[:i])
	if !keywords[word] {
		return "", "", false
	}
	return word, strings.TrimLeft(body[i:], " \t"), true
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Dispatch routes keyword to its handler. line is the full original
// directive line, needed verbatim by #pragma. It returns a *FatalError for
// #error; every other failure is reported via ctx.Diagnostic (when verbose)
// and otherwise swallowed, per the no-directive-is-fatal-except-error rule.
func Dispatch(ctx *Context, keyword, rest, line, filePath string, lineNumber int) error {
	active := ctx.Cond.IsActive()

	switch keyword {
	case "IF":
		ok, _ := expr.Evaluate(rest, ctx.Macros, macroExpander)
		if err := ctx.Cond.Push(ok); err != nil {
			ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
		}
		return nil
	case "IFDEF":
		_, found := ctx.Macros.Find(strings.TrimSpace(rest))
		if err := ctx.Cond.Push(found); err != nil {
			ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
		}
		return nil
	case "IFNDEF":
		_, found := ctx.Macros.Find(strings.TrimSpace(rest))
		if err := ctx.Cond.Push(!found); err != nil {
			ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
		}
		return nil
	case "ELIF":
		ok, _ := expr.Evaluate(rest, ctx.Macros, macroExpander)
		if err := ctx.Cond.Elif(ok); err != nil {
			ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
		}
		return nil
	case "ELIFDEF":
		_, found := ctx.Macros.Find(strings.TrimSpace(rest))
		if err := ctx.Cond.Elif(found); err != nil {
			ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
		}
		return nil
	case "ELIFNDEF":
		_, found := ctx.Macros.Find(strings.TrimSpace(rest))
		if err := ctx.Cond.Elif(!found); err != nil {
			ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
		}
		return nil
	case "ELSE":
		if err := ctx.Cond.Else(); err != nil {
			ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
		}
		return nil
	case "ENDIF":
		if err := ctx.Cond.Pop(); err != nil {
			ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
		}
		return nil
	}

	if !active {
		return nil
	}

	switch keyword {
	case "DEFINE":
		entry, err := parseDefine(rest)
		if err != nil {
			ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
			return nil
		}
		ctx.Macros.Add(entry)
		return nil
	case "UNDEF":
		ctx.Macros.RemoveByName(strings.TrimSpace(rest))
		return nil
	case "INCLUDE":
		return handleInclude(ctx, rest, filePath, lineNumber)
	case "WARNING":
		if ctx.Warn != nil {
			ctx.Warn(rest)
		}
		return nil
	case "ERROR":
		return &FatalError{Msg: rest}
	case "PRAGMA":
		if ctx.Output != nil {
			ctx.Output(line)
		}
		return nil
	}

	return nil
}

// macroExpander is filled in by package preprocessor (in New), so this
// package does not import the expander itself; expr.Expander is a plain
// function type, so directive just needs something satisfying it to hand
// #if/#elif expressions the same macro-expansion behavior lines get.
var macroExpander expr.Expander = func(line string, macros *macro.Table) (string, bool) {
	return line, false
}

// SetExpander installs the macro expansion function used to expand
// identifiers inside #if / #elif expressions.
func SetExpander(fn expr.Expander) {
	macroExpander = fn
}

func parseDefine(rest string) (*macro.Entry, error) {
	rest = strings.TrimLeft(rest, " \t")
	i := 0
	for i < len(rest) && isIdentByte(rest[i]) {
		i++
	}
	if i == 0 {
		return nil, fmt.Errorf("#define missing macro name")
	}
	name := rest[:i]

	if i < len(rest) && rest[i] == '(' {
		params, variadic, after, err := parseParamList(rest[i:])
		if err != nil {
			return nil, err
		}
		value := strings.TrimLeft(after, " \t")
		return &macro.Entry{Name: name, Value: value, Params: params, IsVariadic: variadic}, nil
	}

	value := strings.TrimLeft(rest[i:], " \t")
	return &macro.Entry{Name: name, Value: value}, nil
}

// parseParamList parses a "(p1, p2, ...)" parameter list starting at s[0]
// == '('. It returns the named parameters, whether a trailing "..." marks
// the macro variadic, and the text following the closing paren.
func parseParamList(s string) (params []string, variadic bool, rest string, err error) {
	depth := 0
	i := 0
	var cur strings.Builder
	for i < len(s) {
		c := s[i]
		switch c {
		case '(':
			depth++
			if depth > 1 {
				cur.WriteByte(c)
			}
		case ')':
			depth--
			if depth == 0 {
				if strings.TrimSpace(cur.String()) != "" {
					params = append(params, strings.TrimSpace(cur.String()))
				}
				i++
				params, variadic = extractVariadicMarker(params)
				return params, variadic, s[i:], nil
			}
			cur.WriteByte(c)
		case ',':
			if depth == 1 {
				params = append(params, strings.TrimSpace(cur.String()))
				cur.Reset()
			} else {
				cur.WriteByte(c)
			}
		default:
			cur.WriteByte(c)
		}
		i++
	}
	return nil, false, "", fmt.Errorf("#define: unterminated parameter list")
}

// extractVariadicMarker detects a trailing "..." parameter (bare, or fused
// onto a name like "args...") and reports the variadic flag plus the
// remaining named parameters.
func extractVariadicMarker(params []string) ([]string, bool) {
	if len(params) == 0 {
		return params, false
	}
	last := params[len(params)-1]
	if last == "..." {
		return params[:len(params)-1], true
	}
	if strings.HasSuffix(last, "...") {
		name := strings.TrimSuffix(last, "...")
		if name == "" {
			return params[:len(params)-1], true
		}
		params[len(params)-1] = name
		return params, true
	}
	return params, false
}

// handleInclude resolves and recursively preprocesses an #include target.
// Resolution order: a rooted path is used as-is; otherwise the directory of
// the current file is tried first, then each configured include directory
// in order, then the current working directory.
func handleInclude(ctx *Context, rest, filePath string, lineNumber int) error {
	target, _, err := parseIncludeTarget(rest)
	if err != nil {
		ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
		return nil
	}

	resolved, ok := resolveInclude(target, filePath, ctx.IncludeDirs)
	if !ok {
		ctx.diagf("%s:%d: cannot find include file %q", filePath, lineNumber, target)
		return nil
	}

	if ctx.Include == nil {
		return nil
	}
	if err := ctx.Include(resolved); err != nil {
		ctx.diagf("%s:%d: %v", filePath, lineNumber, err)
	}
	return nil
}

// parseIncludeTarget extracts the filename from `"f"` or `<f>` and reports
// whether it was angle-bracket (system-style) form.
func parseIncludeTarget(rest string) (target string, angled bool, err error) {
	rest = strings.TrimSpace(rest)
	if len(rest) >= 2 && rest[0] == '"' {
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			return rest[1 : 1+end], false, nil
		}
	}
	if len(rest) >= 2 && rest[0] == '<' {
		if end := strings.IndexByte(rest, '>'); end >= 0 {
			return rest[1:end], true, nil
		}
	}
	return "", false, fmt.Errorf("#include: malformed target %q", rest)
}

func resolveInclude(target, currentFile string, includeDirs []string) (string, bool) {
	if pathutil.IsRooted(target) {
		if fileExists(target) {
			return target, true
		}
		return "", false
	}

	if currentFile != "" {
		candidate := pathutil.Join(pathutil.Dirname(currentFile), target)
		if fileExists(candidate) {
			return candidate, true
		}
	}

	for _, dir := range includeDirs {
		candidate := pathutil.Join(dir, target)
		if fileExists(candidate) {
			return candidate, true
		}
	}

	candidate := pathutil.Join(pathutil.Cwd(), target)
	if fileExists(candidate) {
		return candidate, true
	}

	return "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

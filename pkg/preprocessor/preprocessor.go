// Package preprocessor implements the line assembler / driver: the outer
// loop that reads physical lines, joins continuations, strips comments,
// dispatches directives, and expands macros into an output stream.
package preprocessor

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minz/fpxpp/pkg/cond"
	"github.com/minz/fpxpp/pkg/directive"
	"github.com/minz/fpxpp/pkg/expand"
	"github.com/minz/fpxpp/pkg/macro"
	"github.com/minz/fpxpp/pkg/platform"
	"github.com/minz/fpxpp/pkg/text"
)

// Config is the process-scoped configuration record: predefined macros, the
// undef list, include search path, and the behavior flags that gate
// optional stages of the driver.
type Config struct {
	Predefine     []string // "NAME" or "NAME=value"
	Undef         []string
	IncludeDirs   []string
	ExpandMacros  bool // default true; false disables macro substitution entirely
	StripComments bool // default true; false passes /* ... */ through untouched
	LineBreak     bool // enables \\ hard-line-break continuations
	ExtraMacros   bool // enables __FILENAME__ / __TIMESTAMP__
	Verbose       bool

	// ImplicitContinuation mirrors the global config's continuation flag
	// consulted when expanding an identifier inside an #if/#elif
	// expression. By the time such an expression reaches the evaluator the
	// directive line is already a complete logical line, so this has no
	// observable effect here; kept for parity with the configuration
	// record's documented shape.
	ImplicitContinuation bool
}

// DefaultConfig returns a Config with the documented defaults applied.
func DefaultConfig() Config {
	return Config{ExpandMacros: true, StripComments: true}
}

// Preprocessor is the top-level driver. One instance owns the macro table
// for an entire run, including everything pulled in transitively via
// #include.
type Preprocessor struct {
	cfg    Config
	macros *macro.Table
	out    io.Writer
	warn   io.Writer
	diag   io.Writer
}

// New creates a Preprocessor writing output to out, seeding built-in and
// predefined macros and applying the undef list.
func New(cfg Config, out io.Writer) *Preprocessor {
	p := &Preprocessor{
		cfg:    cfg,
		macros: macro.NewTable(),
		out:    out,
		warn:   os.Stdout,
		diag:   os.Stderr,
	}
	platform.Seed(p.macros)
	for _, def := range cfg.Predefine {
		name, value := splitPredefine(def)
		p.macros.AddSimple(name, value)
	}
	for _, name := range cfg.Undef {
		p.macros.RemoveByName(name)
	}
	directive.SetExpander(expand.ExpandMacros)
	return p
}

func splitPredefine(def string) (name, value string) {
	if idx := strings.IndexByte(def, '='); idx >= 0 {
		return def[:idx], def[idx+1:]
	}
	return def, "1"
}

func (p *Preprocessor) diagnostic(format string, args ...any) {
	if p.cfg.Verbose {
		fmt.Fprintf(p.diag, format+"\n", args...)
	}
}

// ProcessFile reads path and preprocesses it into the configured output. An
// open/read failure is reported as a diagnostic and treated as a no-op
// (matching the non-fatal I/O error policy), except at the top level where
// the caller (cmd/fpxpp) decides the process exit code.
func (p *Preprocessor) ProcessFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		p.diagnostic("cannot open %s: %v", path, err)
		return fmt.Errorf("open %s: %w", path, err)
	}
	return p.run(string(data), path)
}

// accumState carries the output-assembly state across the Fortran `&`
// continuation loop in run: the logical line under construction and
// whether the line being accumulated is a comment line.
type accumState struct {
	buf          string
	accumulating bool
	inComment    bool
}

func (p *Preprocessor) run(content, filePath string) error {
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		// The final newline terminates the last line; it does not start a new one.
		lines = lines[:n-1]
	}

	condStack := cond.New()
	var acc accumState
	var rawBuf strings.Builder
	continuingRaw := false
	inBlockComment := false

	for lineNo := 1; lineNo <= len(lines); lineNo++ {
		raw := strings.TrimRight(lines[lineNo-1], "\r")

		line := raw
		if p.cfg.StripComments {
			stripped, stillInComment := stripBlockComment(raw, inBlockComment)
			inBlockComment = stillInComment
			line = stripped
		}
		if continuingRaw {
			line = rawBuf.String() + line
			rawBuf.Reset()
			continuingRaw = false
		}

		if p.cfg.LineBreak && strings.HasSuffix(line, "\\\\") {
			rawBuf.WriteString(strings.TrimSuffix(line, "\\\\"))
			rawBuf.WriteString("\n")
			continuingRaw = true
			continue
		}
		if strings.HasSuffix(line, "\\") {
			rawBuf.WriteString(strings.TrimSuffix(line, "\\"))
			continuingRaw = true
			continue
		}

		if fatal := p.dispatchLine(line, filePath, lineNo, condStack, &acc); fatal != nil {
			return fatal
		}
	}

	if continuingRaw {
		p.diagnostic("%s: unterminated line continuation at end of file", filePath)
	}
	if acc.accumulating {
		p.flush(&acc, filePath, len(lines))
	}
	if condStack.Depth() != 0 {
		p.diagnostic("%s: unterminated conditional block at end of file", filePath)
	}
	return nil
}

func (p *Preprocessor) dispatchLine(line, filePath string, lineNo int, condStack *cond.Stack, acc *accumState) error {
	keyword, rest, isDirective := directive.ParseDirective(line)
	if isDirective {
		ctx := p.directiveContext(filePath, condStack)
		err := directive.Dispatch(ctx, keyword, rest, line, filePath, lineNo)
		if fe, ok := err.(*directive.FatalError); ok {
			return fe
		}
		return nil
	}

	if !condStack.IsActive() {
		return nil
	}

	expanded, stitch := line, false
	if p.cfg.ExpandMacros {
		expanded, stitch = expand.ExpandAll(line, p.macros, filePath, lineNo, p.cfg.ExtraMacros)
	}

	isCommentLine := strings.HasPrefix(strings.TrimLeft(expanded, " \t"), "!")

	if acc.accumulating {
		if isCommentLine != acc.inComment {
			p.flush(acc, filePath, lineNo)
		} else {
			acc.buf = text.Concat(acc.buf, expanded)
		}
	}
	if !acc.accumulating {
		acc.buf = expanded
		acc.inComment = isCommentLine
	}

	if stitch || strings.HasSuffix(strings.TrimRight(expanded, " \t"), "&") {
		acc.accumulating = true
		return nil
	}

	p.flush(acc, filePath, lineNo)
	return nil
}

func (p *Preprocessor) flush(acc *accumState, filePath string, lineNo int) {
	final := acc.buf
	if acc.accumulating && p.cfg.ExpandMacros {
		final, _ = expand.ExpandAll(final, p.macros, filePath, lineNo, p.cfg.ExtraMacros)
	}
	p.write(final)
	acc.buf = ""
	acc.accumulating = false
	acc.inComment = false
}

func (p *Preprocessor) write(line string) {
	fmt.Fprintln(p.out, line)
}

func (p *Preprocessor) directiveContext(filePath string, condStack *cond.Stack) *directive.Context {
	return &directive.Context{
		Macros:      p.macros,
		Cond:        condStack,
		IncludeDirs: p.cfg.IncludeDirs,
		Verbose:     p.cfg.Verbose,
		Diagnostic:  func(format string, args ...any) { fmt.Fprintf(p.diag, format+"\n", args...) },
		Warn:        func(msg string) { fmt.Fprintln(p.warn, msg) },
		Include: func(resolved string) error {
			return p.ProcessFile(resolved)
		},
		Output: p.write,
	}
}

// ExpandLine runs a single standalone line (no continuation state, no
// directive handling) through macro expansion, for the interactive stdin
// mode where each entry is self-contained.
func (p *Preprocessor) ExpandLine(line string) string {
	if !p.cfg.ExpandMacros {
		return line
	}
	expanded, _ := expand.ExpandAll(line, p.macros, "<stdin>", 0, p.cfg.ExtraMacros)
	return expanded
}

// stripBlockComment removes /* ... */ spans from line, tracking whether a
// block comment is still open at the end of the line (inComment is the
// state carried in from the previous line). A line entirely inside an open
// block comment is suppressed (returned as "").
func stripBlockComment(line string, inComment bool) (string, bool) {
	var out strings.Builder
	i := 0
	for i < len(line) {
		if inComment {
			end := strings.Index(line[i:], "*/")
			if end < 0 {
				return out.String(), true
			}
			i += end + 2
			inComment = false
			continue
		}
		start := strings.Index(line[i:], "/*")
		if start < 0 {
			out.WriteString(line[i:])
			break
		}
		out.WriteString(line[i : i+start])
		i += start + 2
		inComment = true
	}
	return out.String(), inComment
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/minz/fpxpp/pkg/preprocessor"
	"github.com/minz/fpxpp/pkg/version"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	includeDirs  []string
	defines      []string
	undefs       []string
	verbose      bool
	expandMacros bool
	stripComment bool
	lineBreak    bool
	extraMacros  bool
	showVersion  bool
	outputFile   string
)

var rootCmd = &cobra.Command{
	Use:   "fpxpp [input] [output]",
	Short: "fpxpp " + version.GetVersion() + " - Fortran/C-style text preprocessor",
	Long: `fpxpp - a preprocessor for Fortran and C-style source text
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

Expands object-like and function-like macros, evaluates conditional
compilation blocks, and resolves #include directives.

EXAMPLES:
  fpxpp in.f90                     # preprocess to stdout
  fpxpp in.f90 out.f90             # preprocess to a file
  fpxpp -DDEBUG=1 -I include in.f90
  fpxpp                            # read from stdin in interactive mode`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Println(version.GetFullVersion())
			return nil
		}

		cfg := preprocessor.Config{
			Predefine:     defines,
			Undef:         undefs,
			IncludeDirs:   includeDirs,
			ExpandMacros:  expandMacros,
			StripComments: stripComment,
			LineBreak:     lineBreak,
			ExtraMacros:   extraMacros,
			Verbose:       verbose,
		}

		if len(args) == 0 {
			return runInteractive(cfg)
		}

		out := os.Stdout
		if len(args) == 2 {
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("cannot create output file %s: %w", args[1], err)
			}
			defer f.Close()
			out = f
		}

		p := preprocessor.New(cfg, out)
		if err := p.ProcessFile(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringArrayVarP(&includeDirs, "include", "I", nil, "add a directory to the #include search path (repeatable)")
	rootCmd.Flags().StringArrayVarP(&defines, "define", "D", nil, "predefine a macro, NAME or NAME=value (repeatable)")
	rootCmd.Flags().StringArrayVarP(&undefs, "undef", "U", nil, "remove a macro from the predefined set (repeatable)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "emit diagnostics")
	rootCmd.Flags().BoolVar(&expandMacros, "expand-macros", true, "expand macro occurrences")
	rootCmd.Flags().BoolVar(&stripComment, "strip-comments", true, "strip /* ... */ block comments")
	rootCmd.Flags().BoolVar(&lineBreak, "line-break", false, "honor \\\\ as a hard line break in continuations")
	rootCmd.Flags().BoolVar(&extraMacros, "extra-macros", false, "enable __FILENAME__ / __TIMESTAMP__")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version and exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runInteractive drives the stdin REPL mode: a welcome banner, then
// [in]/[out] prompts per line until an empty line or "quit" (any case).
func runInteractive(cfg preprocessor.Config) error {
	isTTY := term.IsTerminal(int(os.Stdin.Fd()))
	p := preprocessor.New(cfg, os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)

	if isTTY {
		fmt.Printf("fpxpp %s - interactive mode (empty line or 'quit' to exit)\n", version.GetVersion())
	}

	for {
		if isTTY {
			fmt.Print("[in] ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" || strings.EqualFold(strings.TrimSpace(line), "quit") {
			break
		}
		result := p.ExpandLine(line)
		if isTTY {
			fmt.Printf("[out] %s\n", result)
		} else {
			fmt.Println(result)
		}
	}
	return scanner.Err()
}

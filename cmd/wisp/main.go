package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dlacey/wisp/internal/diagnostics"
	"github.com/dlacey/wisp/internal/lang"
)

var (
	noColor bool
	trace   bool
)

func main() {
	root := &cobra.Command{
		Use:   "wisp [file]",
		Short: "Run a wisp script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Println("No filepath given!")
				return nil
			}
			return runFile(args[0])
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colorized diagnostics")
	root.PersistentFlags().BoolVar(&trace, "trace", false, "emit a structured trace of the tokenize/parse/eval pipeline")

	root.AddCommand(tokensCmd(), astCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream for a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			for _, tok := range lang.Tokenize(string(source)) {
				fmt.Println(tok.String())
			}
			return nil
		},
	}
}

func astCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast <file>",
		Short: "Print the parsed syntax tree for a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			printer := diagnostics.NewPrinter(os.Stderr, noColor, trace)
			prog, diags := lang.Parse(lang.Tokenize(string(source)))
			for _, d := range diags {
				printer.Diagnostic(d)
			}
			if len(diags) > 0 {
				os.Exit(65)
			}
			fmt.Println(prog.String())
			return nil
		},
	}
}

// runFile tokenizes, parses, and evaluates a script, matching the
// teacher's own exit-code convention: 65 for a lexical/parse failure and
// 70 for a runtime failure (sysexits.h's EX_DATAERR and EX_SOFTWARE).
func runFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	printer := diagnostics.NewPrinter(os.Stderr, noColor, trace)

	tokens := lang.Tokenize(string(source))
	printer.Trace("tokenize", map[string]any{"tokenCount": len(tokens)})
	for _, t := range tokens {
		if t.Kind == lang.Error {
			printer.Diagnostic(&lang.Diagnostic{Kind: lang.KindLexical, Message: t.LiteralValue.String(), Line: t.Line})
		}
	}

	prog, diags := lang.Parse(tokens)
	printer.Trace("parse", map[string]any{"diagnosticCount": len(diags)})
	if len(diags) > 0 {
		for _, d := range diags {
			printer.Diagnostic(d)
		}
		os.Exit(65)
	}

	env := lang.NewGlobalEnvironment(os.Stdout)
	hadError := false
	lang.EvalProgram(prog, env, func(err error) {
		hadError = true
		printer.Diagnostic(err)
	})
	printer.Trace("eval", map[string]any{"hadError": hadError})
	if hadError {
		os.Exit(70)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"obx/internal/diag"
	"obx/internal/diagfmt"
	"obx/internal/lexer"
	"obx/internal/source"
	"obx/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file>",
	Short: "Dump the token stream of one source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func runTokenize(cmd *cobra.Command, args []string) error {
	maxDiags, _ := cmd.Flags().GetInt("max-diagnostics")
	fs := source.NewFileSet()
	id, err := fs.Load(args[0])
	if err != nil {
		return err
	}
	bag := diag.NewBag(maxDiags)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	for _, t := range lx.Tokenize() {
		start, _ := fs.Resolve(t.Span)
		if t.Kind == token.Ident || t.IsLiteral() {
			fmt.Printf("%4d:%-3d %-12s %q\n", start.Line, start.Col, t.Kind, t.Text)
		} else {
			fmt.Printf("%4d:%-3d %s\n", start.Line, start.Col, t.Kind)
		}
	}
	bag.Sort()
	diagfmt.Write(os.Stderr, bag, fs, diagfmt.Options{Color: colorEnabled(cmd)})
	return nil
}

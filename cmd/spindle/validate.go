package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spindlehq/spindle/internal/spintax"
)

var validateCmd = &cobra.Command{
	Use:   "validate [template-file]",
	Short: "Check template syntax",
	Long: `Check the syntax of a variant template.

Reads the template from the given file, or from stdin when no file
(or "-") is given.

Examples:
  spindle validate newsletter.tmpl
  echo '{Hello|Hi} {{FIRST_NAME}}' | spindle validate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := readTemplate(args)
	if err != nil {
		return err
	}

	if err := spintax.Validate(raw); err != nil {
		var synErr *spintax.SyntaxError
		if errors.As(err, &synErr) {
			fmt.Println("Template is invalid")
			fmt.Printf("  Kind:    %s\n", synErr.Kind)
			fmt.Printf("  Offset:  %d\n", synErr.Offset)
			fmt.Printf("  Message: %s\n", synErr.Message)
			return fmt.Errorf("template is invalid")
		}
		return err
	}

	tokens, err := spintax.Tokenize(raw)
	if err != nil {
		return err
	}

	var choices, patterns int
	for _, tok := range tokens {
		switch tok.Kind {
		case spintax.KindChoice:
			choices++
		case spintax.KindPattern:
			patterns++
		}
	}
	macros := uniqueStrings(spintax.MacroNames(tokens))

	fmt.Println("Template is valid")
	fmt.Printf("  Choice groups: %d\n", choices)
	fmt.Printf("  Patterns:      %d\n", patterns)
	fmt.Printf("  Macros:        %d", len(macros))
	if len(macros) > 0 {
		fmt.Printf(" (%s)", strings.Join(macros, ", "))
	}
	fmt.Println()

	return nil
}

// readTemplate loads the template from the file argument or stdin. The
// trailing newline editors append is stripped so it does not end up in
// every generated variant.
func readTemplate(args []string) (string, error) {
	var data []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read template from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
	}

	return strings.TrimRight(string(data), "\r\n"), nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

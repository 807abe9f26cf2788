package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spindlehq/spindle/internal/config"
	"github.com/spindlehq/spindle/internal/lexicon"
	"github.com/spindlehq/spindle/internal/spintax"
	"github.com/spindlehq/spindle/internal/strategy"
	"github.com/spindlehq/spindle/internal/variant"
)

var (
	generateCount    int
	generateSeed     uint64
	generateMode     string
	generateSynonyms bool
	generateTrending bool
	generateGarbage  bool
	generateJSON     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [template-file]",
	Short: "Generate variants from a template",
	Long: `Expand a template into unique text variants.

Reads the template from the given file, or from stdin when no file
(or "-") is given. With -c, strategies use the configured lexicon
database; without it they fall back to the built-in word lists.

Examples:
  spindle generate newsletter.tmpl -n 10
  spindle generate newsletter.tmpl --synonyms --garbage --seed 42
  echo '{Hello|Hi} {{FIRST_NAME}}' | spindle generate -n 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 5, "Number of variants to generate")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0, "RNG seed for reproducible output (0 = random)")
	generateCmd.Flags().StringVar(&generateMode, "mode", variant.ModeDesktop, "Rendering mode: desktop, mobile, html")
	generateCmd.Flags().BoolVar(&generateSynonyms, "synonyms", false, "Apply synonym replacement")
	generateCmd.Flags().BoolVar(&generateTrending, "trending", false, "Append a trending term")
	generateCmd.Flags().BoolVar(&generateGarbage, "garbage", false, "Append a random reference token")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Output JSON instead of plain text")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	raw, err := readTemplate(args)
	if err != nil {
		return err
	}
	if generateCount < 1 {
		return fmt.Errorf("count must be positive")
	}

	tokens, err := spintax.Tokenize(raw)
	if err != nil {
		var synErr *spintax.SyntaxError
		if errors.As(err, &synErr) {
			return fmt.Errorf("invalid template at offset %d: %s", synErr.Offset, synErr.Message)
		}
		return err
	}

	lex, strategyCfg, cleanup, err := getLexicon()
	if err != nil {
		return err
	}
	defer cleanup()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	pipeline := strategy.NewPipeline(lex, strategyCfg, logger)
	generator := variant.NewGenerator(variant.DefaultAttemptMultiplier, pipeline)

	variants, stats := generator.Generate(tokens, variant.Request{
		Count: generateCount,
		Seed:  generateSeed,
		Strategies: strategy.Flags{
			Synonyms: generateSynonyms,
			Trending: generateTrending,
			Garbage:  generateGarbage,
		},
		Mode: generateMode,
	})

	if generateJSON {
		out := struct {
			Variants []variant.Variant `json:"variants"`
			Stats    variant.Stats     `json:"stats"`
		}{variants, stats}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, v := range variants {
		fmt.Println(v.Text)
	}
	fmt.Printf("\nGenerated %d variants (%d unique, %d attempts)\n", len(variants), stats.Unique, stats.Attempts)
	if stats.BudgetExhausted {
		fmt.Println("Attempt budget exhausted: batch contains duplicates")
	}

	return nil
}

// getLexicon returns the word source for offline generation: the configured
// store when -c is given, the built-in lists otherwise.
func getLexicon() (strategy.Lexicon, strategy.Config, func(), error) {
	if cfgFile == "" {
		return lexicon.Builtin{}, strategy.DefaultConfig(), func() {}, nil
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, strategy.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := lexicon.Open(cfg.Lexicon.Path)
	if err != nil {
		return nil, strategy.Config{}, nil, fmt.Errorf("failed to open lexicon: %w", err)
	}

	return store, strategyValues(cfg.Strategies), func() { store.Close() }, nil
}

// strategyValues maps configuration onto strategy tuning values.
func strategyValues(cfg config.StrategiesConfig) strategy.Config {
	return strategy.Config{
		Synonym: strategy.SynonymConfig{
			Probability: cfg.Synonym.Probability,
		},
		Trending: strategy.TrendingConfig{
			Format: cfg.Trending.Format,
		},
		Garbage: strategy.GarbageConfig{
			Format: cfg.Garbage.Format,
			MinLen: cfg.Garbage.MinLen,
			MaxLen: cfg.Garbage.MaxLen,
		},
	}
}

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spindlehq/spindle/internal/config"
	"github.com/spindlehq/spindle/internal/lexicon"
)

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Lexicon management commands",
}

var lexiconSynonymsCmd = &cobra.Command{
	Use:   "synonyms",
	Short: "Synonym table commands",
}

var lexiconSynonymsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all synonym entries",
	RunE:  runLexiconSynonymsList,
}

var lexiconSynonymsPutCmd = &cobra.Command{
	Use:   "put <word> <synonym>...",
	Short: "Store synonyms for a word",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runLexiconSynonymsPut,
}

var lexiconSynonymsDeleteCmd = &cobra.Command{
	Use:   "delete <word>",
	Short: "Delete a word's synonyms",
	Args:  cobra.ExactArgs(1),
	RunE:  runLexiconSynonymsDelete,
}

var lexiconTrendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Trending term commands",
}

var lexiconTrendingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trending terms",
	RunE:  runLexiconTrendingList,
}

var lexiconTrendingAddCmd = &cobra.Command{
	Use:   "add <term>...",
	Short: "Add a trending term",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLexiconTrendingAdd,
}

var lexiconTrendingRemoveCmd = &cobra.Command{
	Use:   "remove <term>...",
	Short: "Remove a trending term",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLexiconTrendingRemove,
}

var lexiconStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lexicon statistics",
	RunE:  runLexiconStats,
}

var lexiconImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML word list",
	Args:  cobra.ExactArgs(1),
	RunE:  runLexiconImport,
}

func init() {
	lexiconSynonymsCmd.AddCommand(
		lexiconSynonymsListCmd,
		lexiconSynonymsPutCmd,
		lexiconSynonymsDeleteCmd,
	)
	lexiconTrendingCmd.AddCommand(
		lexiconTrendingListCmd,
		lexiconTrendingAddCmd,
		lexiconTrendingRemoveCmd,
	)
	lexiconCmd.AddCommand(
		lexiconSynonymsCmd,
		lexiconTrendingCmd,
		lexiconStatsCmd,
		lexiconImportCmd,
	)
	rootCmd.AddCommand(lexiconCmd)
}

func getLexiconStore() (*lexicon.Store, func(), error) {
	if cfgFile == "" {
		return nil, nil, fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := lexicon.Open(cfg.Lexicon.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open lexicon: %w", err)
	}

	cleanup := func() {
		store.Close()
	}

	return store, cleanup, nil
}

func runLexiconSynonymsList(cmd *cobra.Command, args []string) error {
	store, cleanup, err := getLexiconStore()
	if err != nil {
		return err
	}
	defer cleanup()

	table, err := store.Synonyms()
	if err != nil {
		return fmt.Errorf("failed to list synonyms: %w", err)
	}

	if len(table) == 0 {
		fmt.Println("No synonyms found")
		return nil
	}

	words := make([]string, 0, len(table))
	for word := range table {
		words = append(words, word)
	}
	sort.Strings(words)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORD\tSYNONYMS")
	for _, word := range words {
		alts := strings.Join(table[word], ", ")
		if len(alts) > 60 {
			alts = alts[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\n", word, alts)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d words\n", len(words))
	return nil
}

func runLexiconSynonymsPut(cmd *cobra.Command, args []string) error {
	store, cleanup, err := getLexiconStore()
	if err != nil {
		return err
	}
	defer cleanup()

	word := args[0]
	alts := args[1:]

	if err := store.PutSynonyms(word, alts); err != nil {
		return fmt.Errorf("failed to store synonyms: %w", err)
	}

	fmt.Printf("Stored %d synonyms for %s\n", len(alts), strings.ToLower(word))
	return nil
}

func runLexiconSynonymsDelete(cmd *cobra.Command, args []string) error {
	store, cleanup, err := getLexiconStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.DeleteSynonyms(args[0]); err != nil {
		return fmt.Errorf("failed to delete synonyms: %w", err)
	}

	fmt.Printf("Synonyms deleted: %s\n", strings.ToLower(args[0]))
	return nil
}

func runLexiconTrendingList(cmd *cobra.Command, args []string) error {
	store, cleanup, err := getLexiconStore()
	if err != nil {
		return err
	}
	defer cleanup()

	terms, err := store.TrendingTerms()
	if err != nil {
		return fmt.Errorf("failed to list trending terms: %w", err)
	}

	if len(terms) == 0 {
		fmt.Println("No trending terms found")
		return nil
	}

	for _, term := range terms {
		fmt.Println(term)
	}

	fmt.Printf("\nTotal: %d terms\n", len(terms))
	return nil
}

func runLexiconTrendingAdd(cmd *cobra.Command, args []string) error {
	store, cleanup, err := getLexiconStore()
	if err != nil {
		return err
	}
	defer cleanup()

	term := strings.Join(args, " ")
	if err := store.AddTrending(term); err != nil {
		return fmt.Errorf("failed to add trending term: %w", err)
	}

	fmt.Printf("Trending term added: %s\n", term)
	return nil
}

func runLexiconTrendingRemove(cmd *cobra.Command, args []string) error {
	store, cleanup, err := getLexiconStore()
	if err != nil {
		return err
	}
	defer cleanup()

	term := strings.Join(args, " ")
	if err := store.RemoveTrending(term); err != nil {
		return fmt.Errorf("failed to remove trending term: %w", err)
	}

	fmt.Printf("Trending term removed: %s\n", term)
	return nil
}

func runLexiconStats(cmd *cobra.Command, args []string) error {
	store, cleanup, err := getLexiconStore()
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("failed to get lexicon stats: %w", err)
	}

	fmt.Println("Lexicon Statistics")
	fmt.Println("==================")
	fmt.Printf("Synonym words:  %d\n", stats.SynonymWords)
	fmt.Printf("Trending terms: %d\n", stats.TrendingTerms)

	return nil
}

func runLexiconImport(cmd *cobra.Command, args []string) error {
	store, cleanup, err := getLexiconStore()
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := store.ImportFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to import word list: %w", err)
	}

	fmt.Printf("Word list imported from %s\n", args[0])
	fmt.Printf("  Synonym words:  %d\n", stats.SynonymWords)
	fmt.Printf("  Trending terms: %d\n", stats.TrendingTerms)

	return nil
}

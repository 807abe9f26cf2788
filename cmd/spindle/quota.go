package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spindlehq/spindle/internal/config"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Generation quota commands",
}

var quotaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configured generation quotas",
	RunE:  runQuotaShow,
}

func init() {
	quotaCmd.AddCommand(quotaShowCmd)
	rootCmd.AddCommand(quotaCmd)
}

func runQuotaShow(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rl := cfg.RateLimit

	fmt.Println("Generation Quota Configuration")
	fmt.Println("==============================")
	fmt.Printf("Enabled: %v\n\n", rl.Enabled)

	if !rl.Enabled {
		fmt.Println("Quotas are disabled")
		return nil
	}

	// Server-wide limits
	fmt.Println("Global Limits:")
	if rl.Global != nil {
		fmt.Printf("  Variants per hour: %d\n", rl.Global.VariantsPerHour)
		fmt.Printf("  Variants per day:  %d\n", rl.Global.VariantsPerDay)
	} else {
		fmt.Println("  Not configured")
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "API KEY\tVARIANTS/HOUR\tVARIANTS/DAY")
	fmt.Fprintln(w, "-------\t-------------\t------------")

	if rl.DefaultAPIKey != nil {
		fmt.Fprintf(w, "(default)\t%d\t%d\n", rl.DefaultAPIKey.VariantsPerHour, rl.DefaultAPIKey.VariantsPerDay)
	} else {
		fmt.Fprintln(w, "(default)\t-\t-")
	}

	keys := make([]string, 0, len(rl.APIKeys))
	for key := range rl.APIKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		limits := rl.APIKeys[key]
		fmt.Fprintf(w, "%s\t%d\t%d\n", key, limits.VariantsPerHour, limits.VariantsPerDay)
	}

	w.Flush()

	fmt.Println()
	fmt.Println("Note: Live counters are tracked by the running server and persist in the lexicon database")

	return nil
}

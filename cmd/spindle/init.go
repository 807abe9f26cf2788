package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	initOutput  string
	initAPIKey  string
	initDataDir string
	initListen  string
	initMetrics bool
	initQuotas  bool
	initForce   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Spindle configuration",
	Long: `Interactive wizard to create a Spindle configuration file.

Examples:
  # Interactive mode - prompts for missing values
  spindle init

  # Non-interactive with all flags
  spindle init --data-dir /var/lib/spindle --metrics --quotas -o config.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "config.yaml", "Output configuration file path")
	initCmd.Flags().StringVar(&initAPIKey, "api-key", "", "API key (auto-generated if not provided)")
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "/var/lib/spindle", "Data directory for the lexicon database")
	initCmd.Flags().StringVar(&initListen, "listen", ":8080", "API listen address")
	initCmd.Flags().BoolVar(&initMetrics, "metrics", false, "Enable Prometheus metrics")
	initCmd.Flags().BoolVar(&initQuotas, "quotas", false, "Enable generation quotas")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Spindle Configuration Wizard")
	fmt.Println("============================")
	fmt.Println()

	// Get data directory
	initDataDir = prompt(reader, "Data directory", initDataDir)

	// Metrics setup
	if !initMetrics {
		answer := prompt(reader, "Enable Prometheus metrics? [y/N]", "n")
		initMetrics = strings.ToLower(answer) == "y" || strings.ToLower(answer) == "yes"
	}

	// Quota setup
	if !initQuotas {
		answer := prompt(reader, "Enable generation quotas? [y/N]", "n")
		initQuotas = strings.ToLower(answer) == "y" || strings.ToLower(answer) == "yes"
	}

	// API key
	if initAPIKey == "" {
		initAPIKey = generateRandomString(32)
		fmt.Printf("  Generated API key: %s\n", initAPIKey)
	}

	// Check if output file exists
	if !initForce {
		if _, err := os.Stat(initOutput); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", initOutput)
		}
	}

	fmt.Println()
	fmt.Println("Creating configuration...")

	// Create data directory if needed
	if err := os.MkdirAll(initDataDir, 0755); err != nil {
		fmt.Printf("  Warning: Could not create data directory: %v\n", err)
	}

	// Write config file
	if err := os.WriteFile(initOutput, []byte(generateConfig()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("  Configuration saved to: %s\n", initOutput)
	fmt.Println()

	printNextSteps()

	return nil
}

func prompt(reader *bufio.Reader, question, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

func generateRandomString(length int) string {
	bytes := make([]byte, length/2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateConfig() string {
	return fmt.Sprintf(`# Spindle configuration
# Generated by: spindle init

api:
  listen_addr: "%s"
  api_key: "%s"
  max_header_bytes: 1048576  # 1 MB
  read_timeout: 30s
  write_timeout: 30s
  idle_timeout: 60s
  # Restrict API access to these addresses/CIDRs (empty = allow all)
  # allowed_ips:
  #   - "10.0.0.0/8"

generator:
  max_count: 1000
  attempt_multiplier: 10
  max_template_bytes: 65536  # 64 KB

strategies:
  synonym:
    probability: 0.5
  trending:
    format: " | %%s"
  garbage:
    format: " [ref:%%s]"
    min_len: 6
    max_len: 10
  # Uncomment to delegate enhancement to a remote service
  # remote:
  #   enabled: true
  #   url: "https://enhancer.internal/api/v1/strategies/apply"
  #   api_key: ""
  #   timeout: 5s
  #   concurrency: 4

lexicon:
  path: "%s/lexicon.db"
  # seed_file: "%s/wordlist.yaml"

rate_limit:
  enabled: %t
  default_api_key:
    variants_per_hour: 10000
    variants_per_day: 100000

metrics:
  enabled: %t
  listen_addr: ":9090"
  path: "/metrics"
  flush_interval: 10s

logging:
  level: "info"
  format: "json"
`,
		initListen,
		initAPIKey,
		initDataDir,
		initDataDir,
		initQuotas,
		initMetrics,
	)
}

func printNextSteps() {
	fmt.Println("Next Steps")
	fmt.Println("==========")
	fmt.Println()
	fmt.Println("1. Review the configuration:")
	fmt.Printf("   spindle config validate -c %s\n", initOutput)
	fmt.Println()
	fmt.Println("2. Start the server:")
	fmt.Printf("   spindle serve -c %s\n", initOutput)
	fmt.Println()
	fmt.Println("3. Generate variants:")
	fmt.Println("   curl -X POST http://localhost:8080/api/v1/variants \\")
	fmt.Printf("     -H \"Authorization: Bearer %s\" \\\n", initAPIKey)
	fmt.Println("     -H \"Content-Type: application/json\" \\")
	fmt.Println("     -d '{\"template\": \"{Hello|Hi} {{FIRST_NAME}}\", \"count\": 5}'")
	fmt.Println()
}

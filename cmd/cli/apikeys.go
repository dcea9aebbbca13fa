package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/netsweep/internal/auth"
	"github.com/anstrom/netsweep/internal/config"
)

var (
	// API key command flags
	apiKeyName string
	apiKeyRole string
)

// apiKeysCmd represents the apikeys command group
var apiKeysCmd = &cobra.Command{
	Use:     "apikeys",
	Aliases: []string{"apikey", "keys", "key"},
	Short:   "Manage API keys for the daemon",
	Long: `Manage API keys for authenticating against the netsweep daemon API.

Keys are configured, not stored: 'generate' creates a key and prints
it exactly once together with a ready-to-paste configuration snippet
containing its bcrypt hash. The daemon only ever sees the hash.

Examples:
  # Generate an operator key for a CI pipeline
  netsweep apikeys generate --name ci --role operator

  # Generate a read-only key for a dashboard
  netsweep apikeys generate --name dashboard

  # Hash an existing key for the configuration file
  netsweep apikeys hash nsk_abc123...`,
	Run: func(cmd *cobra.Command, _ []string) {
		// Show help if no subcommand is provided
		_ = cmd.Help()
	},
}

// apiKeysGenerateCmd generates a new API key
var apiKeysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new API key",
	Long: `Generate a new API key and print the configuration entry for it.

The key itself is displayed only once; the configuration file carries
its bcrypt hash. Roles: admin (full access), operator (start sweeps),
readonly (view runs and results).

Examples:
  # Generate a read-only key
  netsweep apikeys generate --name dashboard

  # Generate an admin key
  netsweep apikeys generate --name ops --role admin`,
	Args: cobra.NoArgs,
	Run:  runAPIKeysGenerateCommand,
}

// apiKeysHashCmd hashes an existing API key
var apiKeysHashCmd = &cobra.Command{
	Use:   "hash [KEY]",
	Short: "Hash an API key for the configuration file",
	Long: `Compute the bcrypt hash of an API key for use in the daemon
configuration. The key is read from the argument, or from stdin when
no argument is given so it stays out of shell history.

Examples:
  netsweep apikeys hash nsk_abc123...
  echo "$NETSWEEP_API_KEY" | netsweep apikeys hash`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAPIKeysHashCommand,
}

func init() {
	rootCmd.AddCommand(apiKeysCmd)
	apiKeysCmd.AddCommand(apiKeysGenerateCmd)
	apiKeysCmd.AddCommand(apiKeysHashCmd)

	apiKeysGenerateCmd.Flags().StringVar(&apiKeyName, "name", "", "Human-readable name for the key")
	apiKeysGenerateCmd.Flags().StringVar(&apiKeyRole, "role", auth.RoleReadonly, "Role granted to the key (admin, operator, readonly)")
	if err := apiKeysGenerateCmd.MarkFlagRequired("name"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to mark name flag required: %v\n", err)
	}
}

// runAPIKeysGenerateCommand handles the generate subcommand
func runAPIKeysGenerateCommand(_ *cobra.Command, _ []string) {
	if err := executeGenerateAPIKey(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runAPIKeysHashCommand handles the hash subcommand
func runAPIKeysHashCommand(_ *cobra.Command, args []string) {
	if err := executeHashAPIKey(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func executeGenerateAPIKey() error {
	if !auth.ValidRole(apiKeyRole) {
		return fmt.Errorf("invalid role '%s' (valid: %s)", apiKeyRole, strings.Join(auth.Roles(), ", "))
	}

	generated, err := auth.GenerateAPIKey(apiKeyName, apiKeyRole)
	if err != nil {
		return fmt.Errorf("failed to generate API key: %w", err)
	}

	hash, err := auth.HashAPIKey(generated.Key)
	if err != nil {
		return fmt.Errorf("failed to hash API key: %w", err)
	}

	snippet, err := apiKeySnippet(config.APIKeyEntry{
		Name: generated.KeyInfo.Name,
		Hash: hash,
		Role: generated.KeyInfo.Role,
	})
	if err != nil {
		return err
	}

	fmt.Println("🔑 API Key Generated")
	fmt.Println("═══════════════════════════════")
	fmt.Printf("Name: %s\n", generated.KeyInfo.Name)
	fmt.Printf("Role: %s\n", generated.KeyInfo.Role)
	fmt.Printf("Prefix: %s\n", generated.KeyPrefix)
	fmt.Printf("Full Key: %s\n", generated.Key)
	fmt.Printf("Created: %s\n", generated.KeyInfo.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	fmt.Println()
	fmt.Println("⚠️  IMPORTANT: Save this key now - it will not be shown again!")
	fmt.Println("Only its hash goes into the configuration.")
	fmt.Println()
	fmt.Println("Add the key to the daemon configuration:")
	fmt.Println()
	fmt.Println(snippet)
	fmt.Println("To use this key with API requests:")
	fmt.Printf("  curl -H 'X-API-Key: %s' http://127.0.0.1:8080/api/v1/sweeps\n", generated.Key)
	return nil
}

func executeHashAPIKey(args []string) error {
	var key string
	if len(args) > 0 {
		key = args[0]
	} else {
		read, err := readKeyFromStdin()
		if err != nil {
			return err
		}
		key = read
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("no API key given")
	}
	if !auth.IsValidAPIKeyFormat(key) {
		fmt.Fprintf(os.Stderr, "Warning: key does not look like a generated netsweep key (%s_...)\n", auth.APIKeyPrefix)
	}

	hash, err := auth.HashAPIKey(key)
	if err != nil {
		return fmt.Errorf("failed to hash API key: %w", err)
	}

	fmt.Println(hash)
	return nil
}

// apiKeySnippet renders the api.auth configuration block for one key,
// ready to merge into the daemon config file.
func apiKeySnippet(entry config.APIKeyEntry) (string, error) {
	snippet := struct {
		API struct {
			Auth struct {
				Enabled bool                 `yaml:"enabled"`
				Keys    []config.APIKeyEntry `yaml:"keys"`
			} `yaml:"auth"`
		} `yaml:"api"`
	}{}
	snippet.API.Auth.Enabled = true
	snippet.API.Auth.Keys = []config.APIKeyEntry{entry}

	data, err := yaml.Marshal(snippet)
	if err != nil {
		return "", fmt.Errorf("failed to render config snippet: %w", err)
	}
	return string(data), nil
}

// readKeyFromStdin reads a single line, with a prompt when stdin is a
// terminal.
func readKeyFromStdin() (string, error) {
	if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		fmt.Fprint(os.Stderr, "API key: ")
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read key from stdin: %w", err)
	}
	return line, nil
}

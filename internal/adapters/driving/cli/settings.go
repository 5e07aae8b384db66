package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in ~/.lexrag/config.toml.

Environment variables (GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY,
MONGODB_URI, LEXRAG_REDIS_ADDR) fill values left empty in the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting by its dotted key, for example:
  lexrag settings set chunking.max_chunk_size 1500
  lexrag settings set embedding.provider ollama
  lexrag settings set retrieval.mode text`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key [provider] [api-key]",
	Short: "Store an API key for a provider",
	Long: `Store the API key for gemini, openai or anthropic. When the key is not
given as an argument it is read from the terminal without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSetKey,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(heading("Current Settings"))
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	printProviderAccess(cmd, settings.Embedding.Provider, settings.Embedding.BaseURL, settings.Embedding.APIKey)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	printProviderAccess(cmd, settings.LLM.Provider, settings.LLM.BaseURL, settings.LLM.APIKey)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Max chunk size: %d\n", settings.Chunking.MaxChunkSize)
	cmd.Printf("  Min chunk size: %d\n", settings.Chunking.MinChunkSize)
	cmd.Printf("  Fallback chunk size: %d (overlap %d)\n", settings.Chunking.ChunkSize, settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Mode: %s\n", settings.Retrieval.Mode.Description())
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	if settings.Storage.Backend == domain.StorageMongo {
		cmd.Printf("  Database: %s\n", settings.Storage.Database)
		cmd.Printf("  URI: %s\n", configuredStatus(settings.Storage.MongoURI != ""))
	}
	cmd.Println()

	cmd.Println("[Queue]")
	if settings.Queue.IsConfigured() {
		cmd.Printf("  Redis: %s\n", settings.Queue.RedisAddr)
		cmd.Printf("  Concurrency: %d\n", settings.Queue.Concurrency)
	} else {
		cmd.Println("  Redis: (not set)")
	}
	cmd.Println()

	cmd.Println("[Scraper]")
	cmd.Printf("  Base URL: %s\n", settings.Scraper.BaseURL)
	cmd.Printf("  Days: %d, max documents: %d, delay: %s\n",
		settings.Scraper.Days, settings.Scraper.MaxDocuments, settings.Scraper.Delay)
	schedule := settings.Scraper.Schedule
	if schedule == "" {
		schedule = "(manual only)"
	}
	cmd.Printf("  Schedule: %s\n", schedule)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(warnStyle.Render(fmt.Sprintf("Warning: %v", err)))
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProviderAccess(cmd *cobra.Command, p domain.AIProvider, baseURL, apiKey string) {
	if p.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if !p.RequiresAPIKey() {
		return
	}
	if apiKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
	} else {
		cmd.Printf("  API Key: (not set, use %s or 'lexrag settings set-key %s')\n", p.APIKeyEnv(), p)
	}
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	provider := domain.AIProvider(strings.ToLower(args[0]))
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s does not use an API key", domain.ErrInvalidInput, args[0])
	}

	var apiKey string
	if len(args) == 2 {
		apiKey = args[1]
	} else {
		cmd.Printf("Enter %s API key: ", provider)
		apiKey = readPassword(cmd.InOrStdin())
		cmd.Println()
	}

	if err := settingsService.SetAPIKey(provider, apiKey); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	cmd.Printf("API key stored for %s (%s)\n", provider, maskAPIKey(strings.TrimSpace(apiKey)))

	if settings, err := settingsService.Get(); err == nil {
		if settings.Embedding.Provider == provider {
			reportValidation(cmd, "Embedding", settingsService.ValidateEmbeddingConfig())
		}
		if settings.LLM.Provider == provider {
			reportValidation(cmd, "LLM", settingsService.ValidateLLMConfig())
		}
	}
	return nil
}

func reportValidation(cmd *cobra.Command, what string, err error) {
	if err != nil {
		cmd.Println(warnStyle.Render(fmt.Sprintf("%s check failed: %v", what, err)))
		return
	}
	cmd.Printf("%s provider reachable.\n", what)
}

// readPassword reads a line without echo when in is a terminal.
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n') //nolint:errcheck // EOF yields what was read
	return strings.TrimSpace(input)
}

// maskAPIKey masks an API key for display, showing only first 4 and last 4 characters.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

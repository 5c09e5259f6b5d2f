package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/services"
)

// secretKeys are masked on output and read without echo.
var secretKeys = map[string]bool{
	services.KeyGoogleClientSecret: true,
}

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "Show and change settings",
	Long: `View and change pimsearch settings.

Settings are stored in ~/.pimsearch/config.toml.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change a setting",
	Long: `Validates and stores one setting. When value is omitted it is read
from standard input; secrets are read without echo.`,
	Example: `  pimsearch config set search.max_results 100
  pimsearch config set mail.maildir ~/Mail
  pimsearch config set google.client_secret`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Data]")
	cmd.Printf("  Directory: %s\n", orDefault(settings.Data.Dir, "~/.pimsearch/data"))
	cmd.Println()

	cmd.Println("[Search]")
	maxResults := "unbounded"
	if settings.Search.MaxResults > 0 {
		maxResults = fmt.Sprint(settings.Search.MaxResults)
	}
	cmd.Printf("  Max results: %s\n", maxResults)
	cmd.Printf("  Min suggestion count: %d\n", settings.Search.MinSuggestionCount)
	cmd.Printf("  Calendar window: %d months\n", settings.Search.CalendarMonths)
	cmd.Println()

	cmd.Println("[Mail]")
	cmd.Printf("  Indexing: %s\n", enabledString(settings.Mail.IndexEnabled))
	cmd.Printf("  Maildir: %s\n", orDefault(settings.Mail.Maildir, "(not set)"))
	cmd.Printf("  Default folder: %s\n", settings.Mail.DefaultFolder)
	cmd.Println()

	cmd.Println("[Google Calendar]")
	cmd.Printf("  Client ID: %s\n", orDefault(settings.Google.ClientID, "(not set)"))
	if settings.Google.ClientSecret != "" {
		cmd.Printf("  Client secret: %s\n", maskSecret(settings.Google.ClientSecret))
	} else {
		cmd.Printf("  Client secret: (not set)\n")
	}
	cmd.Printf("  Token file: %s\n", orDefault(settings.Google.TokenFile, "(not set)"))
	cmd.Printf("  Calendar: %s\n", settings.Google.CalendarID)
	cmd.Printf("  Status: %s\n", googleStatus(settings.Google))

	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}
	for _, key := range settingsSvc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		cmd.Printf("%s: ", key)
		if secretKeys[key] {
			value = readPassword()
			cmd.Println()
		} else {
			value = readLine(bufio.NewReader(cmd.InOrStdin()))
		}
	}

	if err := settingsSvc.Set(key, value); err != nil {
		return err
	}

	shown := value
	if secretKeys[key] {
		shown = maskSecret(value)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

func googleStatus(g domain.GoogleSettings) string {
	if !g.IsConfigured() {
		return "not configured"
	}
	if _, err := os.Stat(g.TokenFile); err != nil {
		return "not authorized (run 'pimsearch calendar login')"
	}
	return "configured"
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

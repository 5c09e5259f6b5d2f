package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pimsearch/internal/adapters/driving/oauth"
	"github.com/custodia-labs/pimsearch/internal/connectors/google"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/services"
)

var (
	calendarList     string
	calendarFrom     string
	calendarTo       string
	calendarNoBrowse bool
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Import and sync calendar events",
}

var calendarImportCmd = &cobra.Command{
	Use:   "import <file.ics>...",
	Short: "Import events from iCalendar files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCalendarImport,
}

var calendarSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull events from Google Calendar",
	Long: `Fetches events from Google Calendar into the local store.

The range defaults to the calendar search window: the configured number of
months starting with the current one. Run 'pimsearch calendar login' first.`,
	Args: cobra.NoArgs,
	RunE: runCalendarSync,
}

var calendarLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize read-only access to Google Calendar",
	Long: `Opens the Google consent page and stores the issued token.

Set google.client_id and google.client_secret first with 'pimsearch config set'.
The token is written to google.token_file, which defaults to
~/.pimsearch/google-token.json.`,
	Args: cobra.NoArgs,
	RunE: runCalendarLogin,
}

func init() {
	calendarImportCmd.Flags().StringVarP(&calendarList, "list", "l", domain.DefaultCalendarListID, "calendar to import into")
	calendarSyncCmd.Flags().StringVar(&calendarFrom, "from", "", "first day to sync (YYYY-MM-DD)")
	calendarSyncCmd.Flags().StringVar(&calendarTo, "to", "", "last day to sync (YYYY-MM-DD)")
	calendarLoginCmd.Flags().BoolVar(&calendarNoBrowse, "no-browser", false, "print the URL without opening a browser")
	calendarCmd.AddCommand(calendarImportCmd)
	calendarCmd.AddCommand(calendarSyncCmd)
	calendarCmd.AddCommand(calendarLoginCmd)
	rootCmd.AddCommand(calendarCmd)
}

func runCalendarImport(cmd *cobra.Command, args []string) error {
	importer, err := calendarImporter()
	if err != nil {
		return err
	}

	total := 0
	for _, path := range args {
		n, err := importer.ImportFile(cmd.Context(), path, calendarList)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		cmd.Printf("%s: %d events\n", filepath.Base(path), n)
		total += n
	}
	cmd.Printf("Imported %d events into %s.\n", total, calendarList)
	return nil
}

func runCalendarSync(cmd *cobra.Command, _ []string) error {
	importer, err := calendarImporter()
	if err != nil {
		return err
	}

	settings, err := currentSettings()
	if err != nil {
		return err
	}
	from, to := settings.Search.CalendarWindow(now())

	if calendarFrom != "" {
		if from, err = parseDay(calendarFrom); err != nil {
			return err
		}
	}
	if calendarTo != "" {
		day, err := parseDay(calendarTo)
		if err != nil {
			return err
		}
		to = day.AddDate(0, 0, 1)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: --to is before --from", domain.ErrInvalidInput)
	}

	n, err := importer.SyncRange(cmd.Context(), from, to)
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			return fmt.Errorf("%w (run 'pimsearch calendar login')", err)
		}
		return fmt.Errorf("calendar sync failed: %w", err)
	}
	cmd.Printf("Synced %d events.\n", n)
	return nil
}

func runCalendarLogin(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}
	settings, err := currentSettings()
	if err != nil {
		return err
	}

	gs := settings.Google
	if gs.ClientID == "" || gs.ClientSecret == "" {
		return fmt.Errorf("%w: set %s and %s first", domain.ErrAuthRequired,
			services.KeyGoogleClientID, services.KeyGoogleClientSecret)
	}
	if gs.TokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locating home directory: %w", err)
		}
		gs.TokenFile = filepath.Join(home, ".pimsearch", "google-token.json")
		if err := settingsSvc.Set(services.KeyGoogleTokenFile, gs.TokenFile); err != nil {
			return err
		}
	}

	opts := oauth.LoginOptions{Out: cmd.OutOrStdout()}
	if !calendarNoBrowse {
		opts.OpenBrowser = oauth.OpenBrowser
	}

	tok, err := oauth.Authorize(cmd.Context(), google.OAuthConfig(gs, ""), opts)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	if err := google.SaveToken(gs.TokenFile, tok); err != nil {
		return err
	}

	cmd.Printf("Authorized. Token saved to %s.\n", gs.TokenFile)
	return nil
}

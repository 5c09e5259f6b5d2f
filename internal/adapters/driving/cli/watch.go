package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pimsearch/internal/connectors/maildir"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

var watchFolder string

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Index a mail directory and keep watching it",
	Long: `Scans a mail directory, indexes every .eml file in it and then indexes
new or changed files as they appear. The directory defaults to the
mail.maildir setting. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchFolder, "folder", "f", "", "folder for mail outside subdirectories")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	indexer, err := mailIndexer()
	if err != nil {
		return err
	}

	settings, err := currentSettings()
	if err != nil {
		return err
	}

	dir := settings.Mail.Maildir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("no mail directory given and mail.maildir is not set")
	}
	folder := watchFolder
	if folder == "" {
		folder = settings.Mail.DefaultFolder
	}

	ctx := cmd.Context()
	watcher := maildir.New(dir, folder, indexer)

	n, err := watcher.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}
	cmd.Printf("Indexed %d mails from %s. Watching for changes...\n", n, dir)

	if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("Stopped watching %s", dir)
	return nil
}

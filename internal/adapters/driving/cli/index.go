package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pimsearch/internal/connectors/maildir"
)

var indexFolder string

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Index mail from .eml files or directories",
	Long: `Parses .eml files and adds them to the mail index.

Directories are scanned recursively. Mail in a subdirectory is filed under
that subdirectory's name; everything else goes to --folder, which defaults
to the mail.default_folder setting.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

var indexEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn mail indexing on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		indexer, err := mailIndexer()
		if err != nil {
			return err
		}
		if err := indexer.EnableMailIndexing(cmd.Context()); err != nil {
			return fmt.Errorf("enabling mail indexing: %w", err)
		}
		cmd.Println("Mail indexing enabled.")
		return nil
	},
}

var indexDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn mail indexing off and drop the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		indexer, err := mailIndexer()
		if err != nil {
			return err
		}
		if err := indexer.DisableMailIndexing(cmd.Context()); err != nil {
			return fmt.Errorf("disabling mail indexing: %w", err)
		}
		cmd.Println("Mail indexing disabled. Stored mail is kept; the index was removed.")
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVarP(&indexFolder, "folder", "f", "", "folder for imported mail")
	indexCmd.AddCommand(indexEnableCmd)
	indexCmd.AddCommand(indexDisableCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	indexer, err := mailIndexer()
	if err != nil {
		return err
	}

	folder := indexFolder
	if folder == "" {
		settings, err := currentSettings()
		if err != nil {
			return err
		}
		folder = settings.Mail.DefaultFolder
	}

	ctx := cmd.Context()
	var files []string
	total := 0
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		n, err := maildir.New(path, folder, indexer).Scan(ctx)
		total += n
		if err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}
	}

	if len(files) > 0 {
		n, err := indexer.ImportFiles(ctx, files, folder)
		total += n
		if err != nil {
			return fmt.Errorf("indexing files: %w", err)
		}
	}

	cmd.Printf("Indexed %d mails.\n", total)
	return nil
}

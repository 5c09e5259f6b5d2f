package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the mail index state and stored item counts",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	model, err := searchModel()
	if err != nil {
		return err
	}

	state := model.IndexState().Get()
	cmd.Println("Mail index")
	cmd.Printf("  State:    %s\n", describeIndexState(state))
	cmd.Printf("  Indexed:  %d mails\n", state.IndexedMailCount)
	if covered := describeWatermark(state.CurrentMailIndexTimestamp); covered != "" {
		cmd.Printf("  Covers:   %s\n", covered)
	}
	if state.FailedIndexingUpTo != nil {
		cmd.Printf("  Failed:   stopped at %s\n", formatEpochMillis(*state.FailedIndexingUpTo))
	}

	if svc.Entities != nil {
		mails, events, err := svc.Entities.Counts(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting entities: %w", err)
		}
		cmd.Println()
		cmd.Println("Store")
		cmd.Printf("  Mails:    %d\n", mails)
		cmd.Printf("  Events:   %d\n", events)
	}
	return nil
}

func describeIndexState(state domain.IndexStateInfo) string {
	switch {
	case state.Initializing:
		return "starting"
	case !state.MailIndexEnabled:
		return "disabled"
	case state.Progress > 0:
		return fmt.Sprintf("indexing (%.0f%%)", state.Progress)
	case state.FailedIndexingUpTo != nil:
		return "failed"
	default:
		return "ready"
	}
}

func describeWatermark(ts int64) string {
	switch ts {
	case domain.NothingIndexedTimestamp:
		return ""
	case domain.FullIndexedTimestamp:
		return "all mail"
	default:
		return "mail received since " + formatEpochMillis(ts)
	}
}

func formatEpochMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format(time.DateOnly)
}

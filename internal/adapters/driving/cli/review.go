package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regready/internal/core/domain"
)

var (
	reviewDecision string
	reviewGapID    string
	reviewRisk     string
	reviewReviewer string
	reviewNotes    string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Adjudicate flagged evaluation runs",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs awaiting expert review",
	RunE:  runReviewList,
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit [run-id]",
	Short: "Record an expert decision for a flagged run",
	Long: `Records one expert decision and moves the run to the reviewed state.
Decisions: affirm, override-risk (requires --gap and --risk), dismiss
(requires --gap). Every decision is appended to the run's permanent
feedback history.`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewSubmit,
}

func init() {
	reviewSubmitCmd.Flags().StringVarP(&reviewDecision, "decision", "d", "affirm", "affirm, override-risk or dismiss")
	reviewSubmitCmd.Flags().StringVar(&reviewGapID, "gap", "", "gap ID for override-risk and dismiss")
	reviewSubmitCmd.Flags().StringVar(&reviewRisk, "risk", "", "replacement risk level for override-risk")
	reviewSubmitCmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "reviewer identifier")
	reviewSubmitCmd.Flags().StringVar(&reviewNotes, "notes", "", "adjudication rationale")

	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewSubmitCmd)
	rootCmd.AddCommand(reviewCmd)
}

func runReviewList(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	flags, err := reviewService.ListPending(context.Background())
	if err != nil {
		return err
	}

	if len(flags) == 0 {
		cmd.Println("No runs pending review.")
		return nil
	}

	cmd.Printf("Pending review (%d):\n", len(flags))
	for _, flag := range flags {
		cmd.Printf("  %s  flagged %s\n", flag.RunID, flag.CreatedAt.Format("2006-01-02 15:04"))
		cmd.Printf("    %s\n", flag.Reason)
	}
	return nil
}

func runReviewSubmit(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	decision := domain.ReviewDecision{
		Kind:         domain.DecisionKind(reviewDecision),
		GapID:        reviewGapID,
		NewRiskLevel: domain.RiskLevel(reviewRisk),
		Reviewer:     reviewReviewer,
		Notes:        reviewNotes,
	}

	flag, err := reviewService.SubmitReview(context.Background(), args[0], decision)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("run %s has no review flag", args[0])
	}
	if err != nil {
		return err
	}

	cmd.Printf("Run %s reviewed (%d decisions on record).\n", flag.RunID, len(flag.Feedback))
	return nil
}

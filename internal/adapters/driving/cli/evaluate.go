package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regready/internal/core/domain"
)

var evaluateJSON bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [run-id] [files...]",
	Short: "Evaluate business documents against the regulatory corpus",
	Long: `Submits the given documents under the run ID and executes the full
evaluation pipeline. Re-running with unchanged files returns the stored
result. Supported formats: plain text, CSV and markdown.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	runID := args[0]
	ctx := context.Background()

	files, err := readUploads(args[1:])
	if err != nil {
		return err
	}

	receipts, err := evaluationService.SubmitDocuments(ctx, runID, files)
	if err != nil {
		return fmt.Errorf("submitting documents: %w", err)
	}
	for _, receipt := range receipts {
		if !receipt.Accepted {
			cmd.Printf("Rejected %s: %s\n", receipt.Name, receipt.Reason)
		}
	}

	result, err := evaluationService.Evaluate(ctx, runID)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if evaluateJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printResult(cmd, result)
	return nil
}

// readUploads loads the file arguments, inferring MIME types from
// extensions.
func readUploads(paths []string) ([]domain.FileUpload, error) {
	uploads := make([]domain.FileUpload, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		uploads = append(uploads, domain.FileUpload{
			Name:     filepath.Base(path),
			MIMEType: mimeTypeFor(path),
			Content:  content,
		})
	}
	return uploads, nil
}

// mimeTypeFor maps a file extension to its media type, defaulting to
// plain text.
func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".txt", "":
		return "text/plain"
	default:
		if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
			// Strip parameters like "; charset=utf-8".
			return strings.SplitN(t, ";", 2)[0]
		}
		return "application/octet-stream"
	}
}

func printResult(cmd *cobra.Command, result *domain.EvaluationResult) {
	cmd.Printf("Run %s (corpus %s, model %s)\n", result.RunID, result.CorpusRevision, result.ModelVersion)
	cmd.Println()

	cmd.Printf("Overall readiness: %.1f / 100\n", result.Scorecard.OverallScore)
	categories := make([]domain.Category, 0, len(result.Scorecard.PerCategory))
	for category := range result.Scorecard.PerCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, category := range categories {
		cmd.Printf("  %-22s %6.1f  (weight %.2f)\n",
			category, result.Scorecard.PerCategory[category], result.Scorecard.Weights[category])
	}

	if len(result.Gaps) > 0 {
		cmd.Println()
		cmd.Printf("Gaps (%d):\n", len(result.Gaps))
		for _, gap := range result.Gaps {
			cmd.Printf("  [%s] %s (%s)\n", strings.ToUpper(gap.RiskLevel.String()), gap.Title, gap.ArticleRef)
			if gap.ImpactText != "" {
				cmd.Printf("      %s\n", gap.ImpactText)
			}
		}
	}

	if len(result.Advisories) > 0 {
		cmd.Println()
		cmd.Printf("Advisories (%d):\n", len(result.Advisories))
		for _, advisory := range result.Advisories {
			cmd.Printf("  %s (%s)\n", advisory.Description, advisory.ArticleRef)
		}
	}

	if len(result.Recommendations) > 0 {
		cmd.Println()
		cmd.Printf("Recommendations (%d):\n", len(result.Recommendations))
		for _, rec := range result.Recommendations {
			cmd.Printf("  %s -> %s (%s, relevance %.0f)\n",
				rec.GapID, rec.ResourceID, rec.ResourceType, rec.RelevanceScore)
		}
	}

	excluded := 0
	for _, status := range result.Documents {
		if status.State == domain.IngestionExcluded {
			excluded++
			cmd.Printf("\nExcluded %s: %s\n", status.FileName, status.Reason)
		}
	}

	cmd.Println()
	if result.Review != nil {
		cmd.Printf("Status: PENDING REVIEW - %s\n", result.Review.Reason)
	} else {
		cmd.Println("Status: auto-resolved")
	}
}

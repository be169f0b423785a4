package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/services"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the regulatory corpus",
}

var corpusRebuildCmd = &cobra.Command{
	Use:   "rebuild [dir]",
	Short: "Reindex the regulatory corpus from markdown sources",
	Long: `Parses every markdown file of the corpus directory into articles,
embeds them and swaps in the new revision atomically. An unchanged
corpus keeps its revision. The directory defaults to the configured
corpus.dir.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCorpusRebuild,
}

var corpusWatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch the corpus directory and reindex on change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCorpusWatch,
}

var corpusRevisionCmd = &cobra.Command{
	Use:   "revision",
	Short: "Print the current corpus revision",
	RunE:  runCorpusRevision,
}

func init() {
	corpusCmd.AddCommand(corpusRebuildCmd)
	corpusCmd.AddCommand(corpusWatchCmd)
	corpusCmd.AddCommand(corpusRevisionCmd)
	rootCmd.AddCommand(corpusCmd)
}

func corpusDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if appConfig.Corpus.Dir != "" {
		return appConfig.Corpus.Dir, nil
	}
	return "", errors.New("no corpus directory given and corpus.dir not configured")
}

func runCorpusRebuild(cmd *cobra.Command, args []string) error {
	if corpusManager == nil {
		return errors.New("corpus service not configured")
	}

	dir, err := corpusDir(args)
	if err != nil {
		return err
	}

	articles, err := services.LoadCorpusDir(dir)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		return fmt.Errorf("no regulatory articles found in %s", dir)
	}

	revision, err := corpusManager.Rebuild(context.Background(), articles)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Corpus indexed: %d articles at revision %s\n", len(articles), revision)
	return nil
}

func runCorpusWatch(cmd *cobra.Command, args []string) error {
	if corpusManager == nil {
		return errors.New("corpus service not configured")
	}

	dir, err := corpusDir(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (ctrl-c to stop)\n", dir)
	watcher := services.NewCorpusWatcher(dir, corpusManager)
	if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runCorpusRevision(cmd *cobra.Command, _ []string) error {
	if corpusManager == nil {
		return errors.New("corpus service not configured")
	}

	revision, err := corpusManager.Revision(context.Background())
	if errors.Is(err, domain.ErrNoCorpus) {
		cmd.Println("No corpus revision built yet. Run 'regready corpus rebuild' first.")
		return nil
	}
	if err != nil {
		return err
	}

	cmd.Println(revision)
	return nil
}

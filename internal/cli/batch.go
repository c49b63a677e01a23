package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/headrank/internal/embed"
	"github.com/ppiankov/headrank/internal/input"
	"github.com/ppiankov/headrank/internal/model"
	"github.com/ppiankov/headrank/internal/pipeline"
	"github.com/ppiankov/headrank/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	batchTimeout time.Duration
	specName     string
	outputName   string
	pdfSubdir    string
	outlineDir   string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <root>",
	Short: "Rank every collection under a directory in parallel",
	Long: `Batch treats every direct subdirectory of <root> that holds an input spec
as an independent collection:

  <root>/<collection>/challenge1b_input.json
  <root>/<collection>/PDFs/
  <root>/<collection>/outlines/

Collections run concurrently and share one model backend; each writes its
own output file next to its spec.

Example:
  headrank batch ./collections
  headrank batch ./collections --concurrency 4 --output-name result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	defaults := model.DefaultConfig()
	layout := input.DefaultLayout()

	batchCmd.Flags().Int("concurrency", defaults.Concurrency.Collections, "number of collections processed at once")
	batchCmd.Flags().StringVar(&specName, "spec-name", layout.SpecName, "input spec filename inside each collection")
	batchCmd.Flags().StringVar(&outputName, "output-name", layout.OutputName, "output filename written inside each collection")
	batchCmd.Flags().StringVar(&pdfSubdir, "pdf-subdir", layout.PDFDir, "PDF folder inside each collection")
	batchCmd.Flags().StringVar(&outlineDir, "outline-subdir", layout.OutlineDir, "outline folder inside each collection")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	addModelFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	root := args[0]
	cfg, err := configFromCommand(cmd, viper.GetViper())
	if err != nil {
		return err
	}
	log := newLogger(cfg.Output.Verbose)

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	collections, err := input.DiscoverCollections(root, input.Layout{
		SpecName:   specName,
		PDFDir:     pdfSubdir,
		OutlineDir: outlineDir,
		OutputName: outputName,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  headrank Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Root:         %s\n", root)
	fmt.Fprintf(os.Stderr, "  Collections:  %d\n", len(collections))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Collections)
	fmt.Fprintf(os.Stderr, "  Embedding:    %s/%s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	fmt.Fprintf(os.Stderr, "  Rerank:       %s/%s\n", cfg.Rerank.Provider, cfg.Rerank.Model)
	fmt.Fprintf(os.Stderr, "\n")

	backend, err := embed.Open(ctx, cfg, log)
	if err != nil {
		return &model.ScoringError{Stage: "init", Err: err}
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn("close model backend", "error", err)
		}
	}()

	p := pipeline.NewPipeline(cfg, backend, log)
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Collections)
	results := processor.ProcessCollections(ctx, collections)

	var firstErr error
	failureCount := 0
	for _, result := range results {
		name := result.Collection.Name
		if result.Error == nil {
			if err := p.RenderOutput(result.Output, result.Collection.OutputFile, "", cfg.Output.Verbose); err != nil {
				result.Error = err
			}
		}
		if result.Error != nil {
			failureCount++
			if firstErr == nil {
				firstErr = result.Error
			}
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", name, result.Error)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %d sections in %v\n",
			name, len(result.Output.ExtractedSections), result.Duration.Round(time.Millisecond))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d collections\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", len(results)-failureCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")

	if firstErr != nil {
		return fmt.Errorf("%d of %d collections failed: %w", failureCount, len(results), firstErr)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/headrank/internal/embed"
	"github.com/ppiankov/headrank/internal/model"
	"github.com/ppiankov/headrank/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rankTimeout time.Duration

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank headings for a persona and extract their sections",
	Long: `Rank reads an input spec (persona, job to be done, document list), the
outline JSON of every document and the source PDFs, then writes:
- extracted_sections: headings ordered by relevance with a 1-based rank
- subsection_analysis: the body text under each ranked heading

Page numbers are 1-based in both arrays.

Example:
  headrank rank
  headrank rank --pdf-dir input/pdfs --outlines 1A/outputs --input-spec input/challenge1b_input.json
  headrank rank --embed-provider ollama --embed-model all-minilm --rerank-provider tei --md report.md`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)

	defaults := model.DefaultConfig()

	// Input flags
	rankCmd.Flags().String("pdf-dir", defaults.Input.PDFDir, "folder containing the PDFs")
	rankCmd.Flags().String("outlines", defaults.Input.OutlineDir, "folder containing outline JSON files")
	rankCmd.Flags().String("input-spec", defaults.Input.SpecFile, "input spec JSON (persona, job_to_be_done, documents)")

	// Output flags
	rankCmd.Flags().String("output", defaults.Output.File, "output JSON path")
	rankCmd.Flags().String("md", "", "output Markdown path (optional)")
	rankCmd.Flags().DurationVar(&rankTimeout, "timeout", 10*time.Minute, "overall run timeout")

	addModelFlags(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := configFromCommand(cmd, viper.GetViper())
	if err != nil {
		return err
	}
	log := newLogger(cfg.Output.Verbose)

	ctx, cancel := context.WithTimeout(cmd.Context(), rankTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Input spec:  %s\n", cfg.Input.SpecFile)
		fmt.Fprintf(os.Stderr, "Outlines:    %s\n", cfg.Input.OutlineDir)
		fmt.Fprintf(os.Stderr, "PDFs:        %s\n", cfg.Input.PDFDir)
		fmt.Fprintf(os.Stderr, "Embedding:   %s/%s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
		fmt.Fprintf(os.Stderr, "Rerank:      %s/%s (top %d)\n", cfg.Rerank.Provider, cfg.Rerank.Model, cfg.Retrieval.TopK)
		fmt.Fprintf(os.Stderr, "Cache:       %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

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
	out, err := p.Run(ctx, model.Collection{
		SpecFile:   cfg.Input.SpecFile,
		OutlineDir: cfg.Input.OutlineDir,
		PDFDir:     cfg.Input.PDFDir,
		OutputFile: cfg.Output.File,
	})
	if err != nil {
		return fmt.Errorf("rank failed: %w", err)
	}

	if err := p.RenderOutput(out, cfg.Output.File, cfg.Output.Markdown, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote output to %s\n", cfg.Output.File)
	return nil
}

package cli

import (
	"fmt"

	"github.com/ppiankov/headrank/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command flags to configuration keys
var flagKeys = map[string]string{
	"pdf-dir":         "input.pdf_dir",
	"outlines":        "input.outline_dir",
	"input-spec":      "input.spec_file",
	"output":          "output.file",
	"md":              "output.markdown",
	"top-k":           "retrieval.top_k",
	"embed-provider":  "embedding.provider",
	"embed-model":     "embedding.model",
	"embed-url":       "embedding.base_url",
	"rerank-provider": "rerank.provider",
	"rerank-model":    "rerank.model",
	"rerank-url":      "rerank.base_url",
	"concurrency":     "concurrency.collections",
	"http-proxy":      "embedding.http_proxy",
	"https-proxy":     "embedding.https_proxy",
}

// addModelFlags registers the backend flags shared by rank and batch
func addModelFlags(cmd *cobra.Command) {
	defaults := model.DefaultConfig()

	cmd.Flags().Float64("threshold", 0, "optional stage-1 cosine floor (disabled unless set)")
	cmd.Flags().Int("top-k", defaults.Retrieval.TopK, "candidates sent to the reranker across all documents")
	cmd.Flags().String("embed-provider", defaults.Embedding.Provider, "embedding provider (openai, ollama, gemini, tei, local)")
	cmd.Flags().String("embed-model", defaults.Embedding.Model, "embedding model name")
	cmd.Flags().String("embed-url", "", "embedding endpoint base URL")
	cmd.Flags().String("rerank-provider", defaults.Rerank.Provider, "rerank provider (tei, local)")
	cmd.Flags().String("rerank-model", defaults.Rerank.Model, "cross-encoder model name")
	cmd.Flags().String("rerank-url", "", "rerank endpoint base URL")
	cmd.Flags().String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	cmd.Flags().Bool("no-cache", false, "disable the embedding cache")
}

// bindFlags binds the flags of the running command. Binding at run time
// keeps rank and batch from stealing each other's bindings.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// configFromCommand loads the effective configuration for cmd
func configFromCommand(cmd *cobra.Command, v *viper.Viper) (*model.Config, error) {
	if err := bindFlags(cmd, v); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("threshold"); f != nil && f.Changed {
		threshold, err := cmd.Flags().GetFloat64("threshold")
		if err != nil {
			return nil, err
		}
		cfg.Retrieval.Threshold = &threshold
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	// One proxy setting serves both backends
	cfg.Rerank.HTTPProxy = cfg.Embedding.HTTPProxy
	cfg.Rerank.HTTPSProxy = cfg.Embedding.HTTPSProxy

	if cfg.Retrieval.TopK <= 0 {
		return nil, &model.InputError{Field: "top-k", Err: fmt.Errorf("must be positive, got %d", cfg.Retrieval.TopK)}
	}
	return cfg, nil
}

package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/headrank/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "headrank",
	Short: "headrank - rank document headings for a persona and extract their sections",
	Long: `headrank ranks the headings of a document collection by relevance to a
persona and a job to be done, then extracts the body text under each
ranked heading from the source PDFs.

Headings come from an outline extractor (one JSON file per document).
Relevance is scored in two stages: embedding recall over every heading,
then a cross-encoder rerank of the best candidates across all documents.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// Exit codes by error class
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitInput   = 2
	ExitScoring = 3
)

// ExitCode maps an error returned by Execute to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var inputErr *model.InputError
	if errors.As(err, &inputErr) {
		return ExitInput
	}
	var scoringErr *model.ScoringError
	if errors.As(err, &scoringErr) {
		return ExitScoring
	}
	return ExitFailure
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of headrank.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "headrank %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.headrank/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".headrank"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults(viper.GetViper(), model.DefaultConfig())

	// Read in environment variables that match HEADRANK_*; nested keys use underscores
	viper.SetEnvPrefix("HEADRANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("retrieval.threshold")

	// Provider-native variables
	_ = viper.BindEnv("env.openai_api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("env.gemini_api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = viper.BindEnv("env.ollama_base_url", "OLLAMA_BASE_URL")
	_ = viper.BindEnv("env.tei_base_url", "TEI_BASE_URL")

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env variables and Unmarshal see it
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("input.pdf_dir", cfg.Input.PDFDir)
	v.SetDefault("input.outline_dir", cfg.Input.OutlineDir)
	v.SetDefault("input.spec_file", cfg.Input.SpecFile)
	v.SetDefault("retrieval.top_k", cfg.Retrieval.TopK)

	for key, b := range map[string]model.BackendConfig{"embedding": cfg.Embedding, "rerank": cfg.Rerank} {
		v.SetDefault(key+".provider", b.Provider)
		v.SetDefault(key+".model", b.Model)
		v.SetDefault(key+".base_url", b.BaseURL)
		v.SetDefault(key+".api_key", b.APIKey)
		v.SetDefault(key+".timeout", b.Timeout)
		v.SetDefault(key+".http_proxy", b.HTTPProxy)
		v.SetDefault(key+".https_proxy", b.HTTPSProxy)
	}

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	v.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	v.SetDefault("rate_limit.requests_per_second", cfg.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)
	v.SetDefault("concurrency.collections", cfg.Concurrency.Collections)
	v.SetDefault("output.file", cfg.Output.File)
	v.SetDefault("output.markdown", cfg.Output.Markdown)
	v.SetDefault("output.verbose", cfg.Output.Verbose)
}

// loadConfig merges defaults, config file, environment and bound flags
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	applyProviderEnv(v, &cfg.Embedding)
	applyProviderEnv(v, &cfg.Rerank)
	return cfg, nil
}

// applyProviderEnv fills credentials and endpoints from provider-native variables
func applyProviderEnv(v *viper.Viper, b *model.BackendConfig) {
	switch strings.ToLower(b.Provider) {
	case "openai":
		if b.APIKey == "" {
			b.APIKey = v.GetString("env.openai_api_key")
		}
	case "gemini", "google":
		if b.APIKey == "" {
			b.APIKey = v.GetString("env.gemini_api_key")
		}
	case "ollama":
		if b.BaseURL == "" {
			b.BaseURL = v.GetString("env.ollama_base_url")
		}
	case "tei":
		if b.BaseURL == "" {
			b.BaseURL = v.GetString("env.tei_base_url")
		}
	}
}

// newLogger builds the process logger; debug level with --verbose
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/mlip-agent/internal/literature"
	"github.com/pdiddy/mlip-agent/internal/localdocs"
	"github.com/pdiddy/mlip-agent/internal/memory"
	"github.com/pdiddy/mlip-agent/internal/pipeline"
	"github.com/pdiddy/mlip-agent/internal/predict"
	"github.com/pdiddy/mlip-agent/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Run the full pipeline on a simulation request",
	Long: `Run executes the pipeline on a free-text request, for example:

  mlip-agent run "Relax UiO-66 with fmax 0.05, max 500 steps"

Normal mode retrieves arXiv literature and local documents and performs a
novelty check before writing the spec. --fast skips both and trims
retrieval budgets for quick iteration; rejected requests produce no spec.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("empty query")
	}

	cfg, err := agentConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	backend, err := predict.NewGeminiBackend(ctx, cfg.AI)
	if err != nil {
		return err
	}
	store, err := memory.NewStore(cfg.Memory, logger)
	if err != nil {
		return err
	}
	ctrl := pipeline.New(cfg, backend, store,
		literature.NewClient(cfg.Literature, logger),
		localdocs.NewRetriever(cfg.Corpus, logger),
		pipeline.NewFileSink(cfg.OutputDir),
		logger)

	res, err := ctrl.Run(ctx, query)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRunOutput(res, jsonOutput)
}

func formatRunOutput(res *pipeline.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	switch res.Status {
	case pipeline.StatusSpecWritten:
		fmt.Printf("Run %s: spec written to %s\n", res.RunID, res.SpecPath)
		fmt.Printf("  canonical: %s\n", res.Canonical)
		fmt.Printf("  novelty:   %s (%s)\n", res.Verdict.Status, res.Verdict.Rationale)
	case pipeline.StatusRejected:
		fmt.Printf("Run %s: rejected as not novel\n", res.RunID)
		fmt.Printf("  canonical: %s\n", res.Canonical)
		fmt.Printf("  rationale: %s\n", res.Verdict.Rationale)
		refs := res.Verdict.TopRefs
		if len(refs) > 3 {
			refs = refs[:3]
		}
		for _, ref := range refs {
			fmt.Printf("  see: %s (arXiv:%s)\n", ref.Title, ref.ID)
		}
	}
	return nil
}

// agentConfigFromFlags resolves the run configuration. Flags win over
// config-file/environment values, which win over built-in defaults.
func agentConfigFromFlags(cmd *cobra.Command) (types.AgentConfig, error) {
	cfg := types.AgentConfig{
		FastMode:  boolSetting(cmd, "fast", "fast_mode"),
		OutputDir: stringSetting(cmd, "output-dir", "output_dir"),
	}

	cfg.AI = types.AIConfig{
		Model:       stringSetting(cmd, "model", "ai.model"),
		Temperature: viper.GetFloat64("ai.temperature"),
		APIKey:      geminiKey(viper.GetString("ai.api_key")),
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	cfg.Memory = types.MemoryConfig{
		Path:           stringSetting(cmd, "memory-file", "memory.path"),
		MaxItems:       intDefault("memory.max_items", 50),
		RetrieveK:      viper.GetInt("memory.retrieve_k"),
		ContextCharCap: viper.GetInt("memory.context_char_cap"),
	}
	cfg.Literature = types.LiteratureConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("literature.timeout"),
			UserAgent: viper.GetString("literature.user_agent"),
		},
		MaxDocs: intSetting(cmd, "max-docs", "literature.max_docs"),
		CharCap: viper.GetInt("literature.char_cap"),
	}
	cfg.Corpus = types.CorpusConfig{
		Dir:          stringSetting(cmd, "corpus-dir", "corpus.dir"),
		ChunkSize:    viper.GetInt("corpus.chunk_size"),
		ChunkOverlap: viper.GetInt("corpus.chunk_overlap"),
		TopChunks:    viper.GetInt("corpus.top_chunks"),
		CharCap:      viper.GetInt("corpus.char_cap"),
	}
	return cfg, nil
}

// intDefault returns the viper value for key, or fallback when the key
// is unset. Unlike the flag helpers this is for keys with no flag
// counterpart whose zero value would disable the feature.
func intDefault(key string, fallback int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return fallback
}

// stringSetting resolves a string from the flag when set on the command
// line, otherwise the viper key, otherwise the flag default.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) || !viper.IsSet(key) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(key)
}

func intSetting(cmd *cobra.Command, flag, key string) int {
	if cmd.Flags().Changed(flag) || !viper.IsSet(key) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	return viper.GetInt(key)
}

func boolSetting(cmd *cobra.Command, flag, key string) bool {
	if cmd.Flags().Changed(flag) || !viper.IsSet(key) {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}
	return viper.GetBool(key)
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func init() {
	runCmd.Flags().Bool("fast", false, "skip literature retrieval and the novelty check")
	runCmd.Flags().String("output-dir", "outputs", "directory for experiment spec JSON files")
	runCmd.Flags().String("memory-file", "memory/memory.jsonl", "path to the JSONL memory store")
	runCmd.Flags().String("corpus-dir", "corpus", "directory of local PDF/markdown/text documents")
	runCmd.Flags().String("model", "", "Gemini model name (default gemini-2.5-flash)")
	runCmd.Flags().Int("max-docs", 6, "maximum arXiv documents to retrieve")
	runCmd.Flags().Bool("json", false, "output the run result as JSON")
	runCmd.Flags().Bool("verbose", false, "verbose, human-readable logging")

	rootCmd.AddCommand(runCmd)
}

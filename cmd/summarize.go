package main

import (
	"encoding/json"
	"io"
	"os"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/summary-pipeline/internal/cascade"
	"github.com/sells-group/summary-pipeline/internal/generate"
	"github.com/sells-group/summary-pipeline/internal/model"
	"github.com/sells-group/summary-pipeline/internal/notify"
	"github.com/sells-group/summary-pipeline/internal/summarize"
	anthropicpkg "github.com/sells-group/summary-pipeline/pkg/anthropic"
)

var (
	summarizeFile          string
	summarizeLanguage      string
	summarizeCorrelationID string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize content from a file or stdin",
	Long:  "Reads content from --file (or stdin), runs the attempt cascade, and writes the summary document as JSON to stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		content, err := readContent()
		if err != nil {
			return err
		}

		sink, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close()

		if err := sink.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		backend := generate.NewAnthropicBackend(client, cfg.Anthropic.MaxConcurrent)
		presets := cascade.DefaultPresets(cfg.Anthropic.PrimaryModel, cfg.Anthropic.FallbackModel, cfg.Cascade.MaxTokens)
		runner := cascade.New(backend, sink, notify.LogNotifier{}, presets)

		s := summarize.New(runner, nil, sink, summarize.Config{
			BaseChunkChars:  cfg.Chunking.BaseChunkChars,
			ChunkingEnabled: cfg.Chunking.Enabled,
			Model:           cfg.Anthropic.PrimaryModel,
		})

		info := model.RequestInfo{
			RequestID:     uuid.New().String(),
			CorrelationID: summarizeCorrelationID,
			Language:      summarizeLanguage,
		}
		zap.L().Info("summarization request started",
			zap.String("request_id", info.RequestID),
			zap.Int("content_chars", utf8.RuneCountInString(content)),
		)

		res, err := s.Summarize(ctx, info, content)
		if err != nil {
			return eris.Wrap(err, "summarize")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "encode result")
	},
}

func readContent() (string, error) {
	if summarizeFile != "" && summarizeFile != "-" {
		data, err := os.ReadFile(summarizeFile)
		if err != nil {
			return "", eris.Wrapf(err, "read %s", summarizeFile)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", eris.Wrap(err, "read stdin")
	}
	return string(data), nil
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeFile, "file", "f", "", "content file (default: stdin)")
	summarizeCmd.Flags().StringVarP(&summarizeLanguage, "language", "l", "", "output language hint (ISO 639-1; auto-detected when empty)")
	summarizeCmd.Flags().StringVar(&summarizeCorrelationID, "correlation-id", "", "opaque correlation ID threaded through persistence")
	rootCmd.AddCommand(summarizeCmd)
}

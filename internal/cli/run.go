package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/config"
	"github.com/vibecut/api/internal/engine"
	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/workflow"
)

type app struct {
	load func() (*config.Config, error)
}

// engine loads the configuration and composes the engine. Logs go to
// stderr so stdout stays valid JSON.
func (a *app) engine(cmd *cobra.Command) (*engine.Engine, *config.Config, *zap.Logger, error) {
	cfg, err := a.load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: %w", err)
	}
	level := cfg.Server.LogLevel
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		level = l
	}
	logger := logging.NewLogger(level)
	return engine.New(cfg, logger), cfg, logger, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseKind(s string) (model.IndexKind, error) {
	switch k := model.IndexKind(strings.ToLower(s)); k {
	case model.IndexSpokenWords, model.IndexScenes, model.IndexBoth:
		return k, nil
	default:
		return "", fmt.Errorf("unknown index kind %q (want spoken_words, scenes or both)", s)
	}
}

type indexOutput struct {
	Results   map[string]bool `json:"results"`
	Succeeded []string        `json:"succeeded"`
	Failed    []string        `json:"failed"`
}

func (a *app) indexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <videoId...>",
		Short: "Index uploaded videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kindFlag, _ := cmd.Flags().GetString("kind")
			prompt, _ := cmd.Flags().GetString("prompt")
			concurrency, _ := cmd.Flags().GetInt("concurrency")

			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}
			eng, cfg, logger, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if concurrency <= 0 {
				concurrency = cfg.Indexing.MaxConcurrency
			}
			res := eng.Batch.IndexBatch(cmd.Context(), args, kind, prompt, concurrency)
			return printJSON(cmd.OutOrStdout(), indexOutput{
				Results:   res,
				Succeeded: res.Succeeded(),
				Failed:    res.Failed(),
			})
		},
	}
	cmd.Flags().String("kind", string(model.IndexBoth), "Index kind: spoken_words, scenes or both")
	cmd.Flags().String("prompt", "", "Scene extraction prompt")
	cmd.Flags().Int("concurrency", 0, "Maximum concurrent index calls (default from config)")
	return cmd
}

func (a *app) collectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection <url...>",
		Short: "Upload videos by URL and index them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kindFlag, _ := cmd.Flags().GetString("kind")
			prompt, _ := cmd.Flags().GetString("prompt")

			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}
			eng, _, logger, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return printJSON(cmd.OutOrStdout(), eng.Collections.Create(cmd.Context(), args, kind, prompt, nil))
		},
	}
	cmd.Flags().String("kind", string(model.IndexBoth), "Index kind: spoken_words, scenes or both")
	cmd.Flags().String("prompt", "", "Scene extraction prompt")
	return cmd
}

func (a *app) searchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Run an aggregated search and print the ranked clips",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, _ := cmd.Flags().GetString("video")
			limit, _ := cmd.Flags().GetInt("limit")
			target, _ := cmd.Flags().GetFloat64("target")

			eng, cfg, logger, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			req := &model.SearchRequest{Queries: args, VideoID: video, Limit: limit}
			if target > 0 {
				req.TargetDuration = &target
			}
			resp, err := eng.Search(cfg, logger).Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().String("video", "", "Search a single video instead of the collection")
	cmd.Flags().Int("limit", 0, "Results per query (default from config)")
	cmd.Flags().Float64("target", 0, "Also select clips for this many seconds")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <query>",
		Short: "Plan, retrieve and assemble an edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clips, _ := cmd.Flags().GetStringSlice("clips")
			preset, _ := cmd.Flags().GetString("preset")

			var custom model.CustomSettings
			if cmd.Flags().Changed("duration") {
				d, _ := cmd.Flags().GetFloat64("duration")
				custom.Duration = &d
			}
			if cmd.Flags().Changed("theme") {
				t, _ := cmd.Flags().GetString("theme")
				custom.Theme = &t
			}

			eng, _, logger, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			initial := workflow.NewState(args[0], clips, model.ParsePresetType(preset), custom)
			res := eng.Workflow.Run(cmd.Context(), initial, func(stage model.Stage, _ model.WorkflowState) {
				fmt.Fprintf(cmd.ErrOrStderr(), "stage: %s\n", stage)
			})
			if !res.OK() {
				return res.Err
			}
			return printJSON(cmd.OutOrStdout(), model.NewEditResult("", res.State))
		},
	}
	cmd.Flags().StringSlice("clips", nil, "Uploaded video ids (comma separated)")
	cmd.Flags().String("preset", string(model.PresetHighlights), "Preset: highlights, reel or custom")
	cmd.Flags().Float64("duration", 0, "Target duration in seconds")
	cmd.Flags().String("theme", "", "Theme override")
	return cmd
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the edit presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), model.AllPresets())
		},
	}
}

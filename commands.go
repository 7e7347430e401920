package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"mindmap_backend/api"
	"mindmap_backend/core"
	"mindmap_backend/core/validation"
	"mindmap_backend/db"
	"mindmap_backend/mcptools"
	"mindmap_backend/pipeline"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// withRunner loads the configuration, opens run history when enabled and
// calls fn with a runner. History failures only disable recording. Stage
// progress goes to the command's stderr unless --quiet is set.
func withRunner(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app, runner *pipeline.Runner) error) error {
	a, err := loadApp(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	var recorder pipeline.Recorder
	database, err := a.openHistory()
	if err != nil {
		a.logger.Warn("Run history unavailable", zap.Error(err))
	}
	if database != nil {
		defer database.Close()
		recorder = db.NewHistoryRecorder(db.NewRepository(database))
	}

	runner := a.newRunner(recorder)
	if !opts.quiet {
		runner.SetProgressCallback(progressPrinter(cmd.ErrOrStderr()))
	}

	ctx := pipeline.WithCorrelationID(cmd.Context(), uuid.NewString())
	return fn(ctx, a, runner)
}

// progressPrinter reports stage transitions as colored status lines.
func progressPrinter(w io.Writer) pipeline.ProgressCallback {
	done := color.New(color.FgGreen)
	aborted := color.New(color.FgYellow)
	return func(name string, stage pipeline.Stage, message string) {
		switch stage {
		case pipeline.StageStart:
			fmt.Fprintf(w, "◌ %s\n", name)
		case pipeline.StageAborted:
			aborted.Fprintf(w, "  ! %s\n", message)
		default:
			done.Fprintf(w, "  ✓ %s\n", message)
		}
	}
}

func newTopicsCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "topics <file.pdf>",
		Short: "List the main topics of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatJSON, formatYAML, formatText); err != nil {
				return err
			}
			return withRunner(cmd, opts, func(ctx context.Context, a *app, runner *pipeline.Runner) error {
				if err := api.ValidateFile(args[0], a.cfg.MaxFileSize); err != nil {
					return err
				}
				result, err := runner.PDFToTopics(ctx, args[0])
				if err != nil {
					return err
				}
				return writeTopics(cmd.OutOrStdout(), result, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatJSON, "Output format: json, yaml or text")
	return cmd
}

func newMindmapCmd(opts *rootOptions) *cobra.Command {
	var (
		topic   string
		output  string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "mindmap <file.pdf>",
		Short: "Build a mind map of one topic of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatJSON, formatYAML, formatTree); err != nil {
				return err
			}
			return withRunner(cmd, opts, func(ctx context.Context, a *app, runner *pipeline.Runner) error {
				cleanTopic, err := api.ValidateTopic(topic, a.cfg.MaxTopicLength)
				if err != nil {
					return err
				}
				if err := api.ValidateFile(args[0], a.cfg.MaxFileSize); err != nil {
					return err
				}
				result, err := runner.TopicToMindmap(ctx, args[0], cleanTopic)
				if err != nil {
					return err
				}
				return writeMindMap(cmd.OutOrStdout(), result, output, !noColor && !color.NoColor)
			})
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to build the mind map for")
	cmd.Flags().StringVarP(&output, "output", "o", formatJSON, "Output format: json, yaml or tree")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable level colors in tree output")
	cmd.MarkFlagRequired("topic")
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var (
		quick    bool
		failFast bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and backend connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnv(opts.envFile)
			suite := validation.NewValidationSuite(core.ConfigFromEnv()).
				WithOutput(cmd.OutOrStdout()).
				WithEnvPath(opts.envFile).
				WithTimeout(timeout).
				WithFailFast(failFast)

			var result validation.SuiteResult
			if quick {
				result = suite.ValidateQuick(cmd.Context())
			} else {
				result = suite.Validate(cmd.Context())
			}
			if result.Success {
				return nil
			}
			if err := result.FirstError(); err != nil {
				return err
			}
			return errors.New(result.Summary())
		},
	}
	cmd.Flags().BoolVar(&quick, "quick", false, "Skip the backend request")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first failed check")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Backend request timeout")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		stats  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			if limit <= 0 {
				return core.ErrInvalidValue("--limit", "must be positive")
			}

			loadEnv(opts.envFile)
			cfg := core.ConfigFromEnv()
			if !cfg.RecordHistory {
				return errors.New("run history is disabled (RECORD_HISTORY=false)")
			}
			database, err := db.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer database.Close()
			repo := db.NewRepository(database)

			if stats {
				s, err := repo.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return writeStats(cmd.OutOrStdout(), s, output)
			}
			runs, err := repo.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeRuns(cmd.OutOrStdout(), runs, output)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&stats, "stats", false, "Show aggregate statistics instead of runs")
	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Output format: text, json or yaml")
	return cmd
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipelines as MCP tools on stdin/stdout",
		Long: `Runs a Model Context Protocol server over stdio exposing the tools
pdf_to_topics and topic_to_mindmap. Logs go to stderr and the log file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol.
			opts.quiet = true
			return withRunner(cmd, opts, func(ctx context.Context, a *app, runner *pipeline.Runner) error {
				tools := mcptools.New(runner, mcptools.Config{
					MaxFileSize:    a.cfg.MaxFileSize,
					MaxTopicLength: a.cfg.MaxTopicLength,
					Version:        core.GetVersion(),
				}, a.logger.Zap().Named("mcp"))
				a.logger.Info("Serving MCP tools on stdio")
				return tools.ServeStdio()
			})
		},
	}
}

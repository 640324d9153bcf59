package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/photo-grouper/internal/adjudicate"
	"github.com/kozaktomas/photo-grouper/internal/ai"
	"github.com/kozaktomas/photo-grouper/internal/cluster"
	"github.com/kozaktomas/photo-grouper/internal/config"
	"github.com/kozaktomas/photo-grouper/internal/constants"
	"github.com/kozaktomas/photo-grouper/internal/export"
	"github.com/kozaktomas/photo-grouper/internal/fingerprint"
	"github.com/kozaktomas/photo-grouper/internal/oracle"
	"github.com/kozaktomas/photo-grouper/internal/progress"
	"github.com/kozaktomas/photo-grouper/internal/scan"
	"github.com/kozaktomas/photo-grouper/internal/web"
)

var groupCmd = &cobra.Command{
	Use:   "group <directory>",
	Short: "Group the photos of a directory by person",
	Long: `Group the photos of a directory by the person they show.

Photos are processed in file name order. Each photo is compared with the
first photo of every group found so far. Close matches join the group,
distant ones start a new group and uncertain ones are confirmed by the
selected adjudicator. Photos that cannot be decoded are copied to the
failure folder. Originals are never moved or modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)

	groupCmd.Flags().String("adjudicator", "terminal", "Who confirms uncertain matches: terminal, web, openai, gemini, never, always")
	groupCmd.Flags().String("web-host", "127.0.0.1", "Host for the web adjudicator")
	groupCmd.Flags().Int("web-port", 8080, "Port for the web adjudicator")
	groupCmd.Flags().Float64("accept", constants.DefaultAcceptThreshold, "Distances below this join a group without asking")
	groupCmd.Flags().Float64("reject", constants.DefaultRejectThreshold, "Distances at or above this never join a group")
	groupCmd.Flags().String("report", "", "Write a YAML run report to this path")
	groupCmd.Flags().Bool("dry-run", false, "Group photos and print the summary without copying anything")
}

// groupOptions is the resolved configuration of one run.
type groupOptions struct {
	inputDir    string
	adjudicator string
	webHost     string
	webPort     int
	thresholds  cluster.Thresholds
	layout      export.Layout
	reportPath  string
	dryRun      bool
}

func runGroup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	// Flags win over the environment only when set explicitly
	thresholds := cfg.Thresholds
	if cmd.Flags().Changed("accept") {
		thresholds.Accept = mustGetFloat64(cmd, "accept")
	}
	if cmd.Flags().Changed("reject") {
		thresholds.Reject = mustGetFloat64(cmd, "reject")
	}
	if err := thresholds.Validate(); err != nil {
		return err
	}

	opts := groupOptions{
		inputDir:    args[0],
		adjudicator: mustGetString(cmd, "adjudicator"),
		webHost:     mustGetString(cmd, "web-host"),
		webPort:     mustGetInt(cmd, "web-port"),
		thresholds:  cluster.Thresholds{Accept: thresholds.Accept, Reject: thresholds.Reject},
		layout: export.Layout{
			Dir:         cfg.Output.Dir,
			FailureDir:  cfg.Output.FailureDir,
			GroupPrefix: cfg.Output.GroupPrefix,
		},
		reportPath: mustGetString(cmd, "report"),
		dryRun:     mustGetBool(cmd, "dry-run"),
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Set up context with signal handling for graceful cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nReceived interrupt signal...")
			cancel()
		case <-ctx.Done():
		}
	}()

	embedder := fingerprint.NewEmbeddingClient(cfg.Embedding.URL, "")
	return groupPhotos(ctx, opts, cfg, embedder, os.Stdout, logger)
}

// groupPhotos runs the whole pipeline: scan, cluster, export, summary.
func groupPhotos(ctx context.Context, opts groupOptions, cfg *config.Config, embedder oracle.Embedder, out io.Writer, logger *zap.Logger) error {
	started := time.Now()
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	refs, err := scan.ListImages(opts.inputDir)
	if errors.Is(err, scan.ErrNoImages) {
		fmt.Fprintln(out, "No images found.")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("starting run",
		zap.String("dir", opts.inputDir),
		zap.Int("images", len(refs)),
		zap.String("adjudicator", opts.adjudicator),
		zap.Float64("accept", opts.thresholds.Accept),
		zap.Float64("reject", opts.thresholds.Reject),
	)

	decider, err := newAdjudicator(opts, cfg, out, logger)
	if err != nil {
		return err
	}
	defer decider.close()

	bar := progress.NewBar(out, len(refs))
	reporters := progress.Multi{bar, progress.NewLog(logger)}
	if decider.reporter != nil {
		reporters = append(reporters, decider.reporter)
	}

	faces := oracle.NewFace(embedder, opts.thresholds.Reject, logger)
	assigner := cluster.NewAssigner(faces, decider.adjudicator, cluster.Options{
		Thresholds: &opts.thresholds,
		Decoder: cluster.DecoderFunc(func(ref cluster.Ref) error {
			return fingerprint.DecodeCheck(string(ref))
		}),
		Reporter: reporters,
		Logger:   logger,
	})

	result := assigner.Run(ctx, refs)
	bar.Finish()
	fmt.Fprintln(out)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("grouping interrupted, nothing was copied: %w", err)
	}

	materializer := export.NewMaterializer(opts.layout, logger)
	var summary *export.Summary
	if opts.dryRun {
		summary = materializer.Plan(opts.inputDir, result)
	} else {
		summary, err = materializer.Export(ctx, opts.inputDir, result)
		if err != nil {
			return fmt.Errorf("failed to export groups: %w", err)
		}
	}

	stats := assigner.Stats()
	if decider.usage != nil {
		usage := decider.usage()
		logger.Info("vision model usage",
			zap.Int("requests", usage.Requests),
			zap.Int("input_tokens", usage.InputTokens),
			zap.Int("output_tokens", usage.OutputTokens),
		)
	}
	logger.Info("run finished",
		zap.Int("groups", summary.Groups),
		zap.Int("failures", summary.Failures),
		zap.Int("copied", summary.Copied),
		zap.Int("copy_errors", len(summary.CopyErrors)),
		zap.Duration("took", time.Since(started)),
	)

	printSummary(out, summary, stats, opts.dryRun)

	if opts.reportPath != "" {
		report := newRunReport(runID, started, opts, result, stats, summary)
		if err := writeReport(opts.reportPath, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", opts.reportPath)
	}

	return nil
}

// judge bundles the adjudicator with what the run needs around it.
type judge struct {
	adjudicator cluster.Adjudicator
	reporter    progress.Reporter // receives progress, web only
	usage       func() ai.Usage   // token usage, vision models only
	close       func()
}

func newAdjudicator(opts groupOptions, cfg *config.Config, out io.Writer, logger *zap.Logger) (*judge, error) {
	j := &judge{close: func() {}}

	switch opts.adjudicator {
	case "terminal":
		term, err := adjudicate.NewTerminal(logger)
		if err != nil {
			return nil, err
		}
		j.adjudicator = term
		j.close = func() { term.Close() }
	case "web":
		reviewer := adjudicate.NewWeb(logger)
		server := web.NewServer(reviewer, opts.webHost, opts.webPort, constants.ThumbnailSize, logger)
		if err := server.Start(); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "Review uncertain matches at %s\n", color.CyanString(server.URL()))
		j.adjudicator = reviewer
		j.reporter = reviewer
		j.close = func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to stop review server", zap.Error(err))
			}
		}
	case "openai":
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN environment variable is required")
		}
		assisted := adjudicate.NewAssisted(ai.NewOpenAIProvider(cfg.OpenAI.Token), logger)
		j.adjudicator = assisted
		j.usage = assisted.Usage
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required")
		}
		provider, err := ai.NewGeminiProvider(context.Background(), cfg.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		assisted := adjudicate.NewAssisted(provider, logger)
		j.adjudicator = assisted
		j.usage = assisted.Usage
	case "never":
		j.adjudicator = adjudicate.Fixed(false)
	case "always":
		j.adjudicator = adjudicate.Fixed(true)
	default:
		return nil, fmt.Errorf("unknown adjudicator: %s (supported: terminal, web, openai, gemini, never, always)", opts.adjudicator)
	}

	return j, nil
}

func printSummary(out io.Writer, summary *export.Summary, stats cluster.Stats, dryRun bool) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(out, green("Grouping finished!"))
	fmt.Fprintf(out, "Total photos processed: %d\n", summary.Total)
	fmt.Fprintf(out, "  People found:        %d\n", summary.Groups)
	fmt.Fprintf(out, "  Not identified:      %d\n", summary.Failures)
	fmt.Fprintf(out, "  Confirmed by judge:  %d of %d asked\n", stats.Confirmed, stats.Adjudications)

	if dryRun {
		fmt.Fprintln(out, yellow("Dry run, nothing was copied."))
		return
	}

	fmt.Fprintf(out, "  Copied:              %d\n", summary.Copied)
	if len(summary.CopyErrors) > 0 {
		fmt.Fprintf(out, "  %s %d\n", red("Copy errors:        "), len(summary.CopyErrors))
		for _, ce := range summary.CopyErrors {
			fmt.Fprintf(out, "    %s: %v\n", filepath.Base(ce.Source), ce.Err)
		}
	}
	fmt.Fprintf(out, "Output: %s\n", summary.OutputDir)
}

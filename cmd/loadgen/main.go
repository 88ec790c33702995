// Command loadgen exercises a diploma service and evaluates transcripts offline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/loadgen"
	"github.com/okian/diploma/pkg/logger"
)

// Default run settings.
const (
	defaultStudents = 10000
	defaultTopN     = 50
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 30 * time.Second
	defaultWait     = 2 * time.Minute
	defaultSample   = 100
	defaultTop      = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "loadgen",
		Short:        "Load and offline tooling for the diploma credit service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
	}
	cmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(progressCmd())
	cmd.AddCommand(catalogCmd())
	return cmd
}

func runCmd() *cobra.Command {
	cfg := &loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit generated transcripts and verify the resulting cohort",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
			stats, err := loadgen.Run(cmd.Context(), cfg)
			if stats != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "submitted=%d accepted=%d duplicate=%d failed=%d verified=%d mismatched=%d\n",
					stats.Submitted, stats.Accepted, stats.Duplicate, stats.Failed, stats.Verified, stats.Mismatched)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.Students, "students", defaultStudents, "Number of transcripts to generate and submit")
	f.IntVar(&cfg.TopN, "top", defaultTopN, "Number of cohort entries to fetch and verify")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.Wait, "wait", defaultWait, "How long to wait for queued transcripts to be processed")
	f.IntVar(&cfg.Sample, "sample", defaultSample, "Number of students re-evaluated locally")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Generator seed (0 uses the clock)")
	return cmd
}

func progressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Evaluate a YAML transcript with the built-in catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			top, _ := cmd.Flags().GetInt("top")

			catalog := credits.DefaultCatalog()
			t, err := loadgen.LoadTranscript(path, catalog)
			if err != nil {
				return err
			}
			report, err := catalog.Evaluate(t.Verified, t.Pending, top)
			if err != nil {
				return err
			}
			if t.StudentID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Student: %s\n\n", t.StudentID)
			}
			return loadgen.WriteReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().String("file", "", "Path to the transcript YAML file")
	cmd.Flags().Int("top", defaultTop, "Number of top subjects to list")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the built-in subject catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return loadgen.WriteCatalog(cmd.OutOrStdout(), credits.DefaultCatalog())
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/deonto/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	ID       string // optional - specific compilation only
}

// ReplaySummary holds the overall replay result.
type ReplaySummary struct {
	Runs             []store.ReplayResult `json:"runs"`
	TotalRuns        int                  `json:"total_runs"`
	AllDeterministic bool                 `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Recompile recorded runs and verify determinism",
		Long: `Recompile every run recorded with "deonto compile --db" from its stored
source and configuration, and verify the rule-set digest is unchanged.

Exit codes:
  0 - All runs reproduce their digest
  1 - Determinism verification failed (a digest differs or a source no longer compiles)
  2 - Command error (database not found, unknown run id, etc.)

Examples:
  deonto replay --db ./runs.db
  deonto replay --db ./runs.db --id 0190f1d2-...
  deonto replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ID, "id", "", "replay one compilation only")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Opening a missing file would create an empty database.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return formatter.fail(&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", opts.Database), Err: err})
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(&LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("opening database: %v", err), Err: err})
	}
	defer st.Close()

	var runs []store.ReplayResult
	if opts.ID != "" {
		r, err := st.Replay(ctx, opts.ID)
		if err != nil {
			return formatter.fail(&LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("replaying %s: %v", opts.ID, err), Err: err})
		}
		runs = []store.ReplayResult{r}
	} else {
		runs, err = st.ReplayAll(ctx)
		if err != nil {
			return formatter.fail(&LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("replaying: %v", err), Err: err})
		}
	}

	summary := ReplaySummary{
		Runs:             runs,
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, r := range runs {
		formatter.VerboseLog("%s %s stored=%s replayed=%s", r.ID, r.SourceName, r.StoredDigest, r.ReplayDigest)
		if !r.Deterministic {
			summary.AllDeterministic = false
		}
	}

	if formatter.IsJSON() {
		return outputReplayJSON(formatter, summary)
	}
	return outputReplayText(formatter, summary)
}

func outputReplayJSON(formatter *OutputFormatter, summary ReplaySummary) error {
	if summary.AllDeterministic {
		return formatter.Success(summary)
	}
	if err := formatter.Fail(ErrCodeDeterminism, "determinism verification failed", summary); err != nil {
		return err
	}
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}

func outputReplayText(formatter *OutputFormatter, summary ReplaySummary) error {
	w := formatter.Writer

	if summary.TotalRuns == 0 {
		fmt.Fprintln(w, "No compilations found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", summary.TotalRuns)
	fmt.Fprintln(w)

	for _, r := range summary.Runs {
		status := "✓"
		if !r.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", status, r.ID, r.SourceName)
		fmt.Fprintf(w, "  digest: %s\n", r.StoredDigest)

		switch {
		case r.Error != "":
			fmt.Fprintf(w, "  Warning: source no longer compiles: %s\n", r.Error)
		case !r.Deterministic:
			fmt.Fprintf(w, "  Warning: replay digest differs: %s\n", r.ReplayDigest)
		}
	}
	fmt.Fprintln(w)

	if summary.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}

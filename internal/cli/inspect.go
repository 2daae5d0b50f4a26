package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/deonto/internal/bpmn"
	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/export"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Config  string
	NoPaths bool
}

// InspectResult is the JSON payload of the inspect command.
type InspectResult struct {
	Nodes         []bpmn.Node              `json:"nodes"`
	Edges         []compiler.ReducedEdge   `json:"edges"`
	Paths         [][]compiler.ReducedEdge `json:"paths,omitempty"`
	ScenarioCount int                      `json:"scenario_count"`
	Rules         []string                 `json:"rules"`
	Superiority   []string                 `json:"superiority"`
	Diagnostics   []compiler.Diagnostic    `json:"diagnostics"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <diagram.bpmn>",
		Short: "Show the reduced graph, paths and rules of a diagram",
		Long: `Show every intermediate stage of a compilation: the kept nodes, the
reduced edges with their obligations and traversed flows, each enumerated
path, the diagnostics, and the resulting rules with their superiority chain.

Examples:
  deonto inspect process.bpmn
  deonto inspect process.bpmn --no-paths
  deonto inspect process.bpmn --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file (.cue, .yaml)")
	cmd.Flags().BoolVar(&opts.NoPaths, "no-paths", false, "omit the per-path listing")

	return cmd
}

func runInspect(ctx context.Context, opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := LoadDiagram(path, opts.Config)
	if err != nil {
		return formatter.fail(err)
	}
	if opts.NoPaths {
		loaded.Config.CollectPaths = false
	}

	res, err := loaded.Compile(ctx, slog.Default())
	if err != nil {
		return formatter.fail(err)
	}

	if !formatter.IsJSON() {
		fmt.Fprint(formatter.Writer, export.Report(res))
		return nil
	}

	result := InspectResult{
		Nodes:         make([]bpmn.Node, 0, len(res.Graph.NodeIDs)),
		Edges:         res.Graph.Edges,
		Paths:         res.Paths,
		ScenarioCount: res.ScenarioCount,
		Rules:         make([]string, 0, len(res.RuleSet.Rules)),
		Superiority:   make([]string, 0, len(res.RuleSet.Precedence)),
		Diagnostics:   res.Diagnostics,
	}
	for _, id := range res.Graph.NodeIDs {
		result.Nodes = append(result.Nodes, res.Graph.Nodes[id])
	}
	for _, r := range res.RuleSet.Rules {
		result.Rules = append(result.Rules, export.DDL(r))
	}
	for _, p := range res.RuleSet.Precedence {
		result.Superiority = append(result.Superiority, export.Superiority(p))
	}
	return formatter.Success(result)
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/export"
	"github.com/roach88/deonto/internal/ir"
	"github.com/roach88/deonto/internal/store"
	"github.com/roach88/deonto/internal/tracing"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Config    string // config file (.cue, .yaml, .yml)
	Emit      string // ddl | owl | lrml | json | all
	OutputDir string // write <stem>.<ext> files here instead of stdout
	Database  string // record the run in this SQLite store
	TraceFile string // write OpenTelemetry spans here
}

// ValidEmits defines the allowed --emit values.
var ValidEmits = []string{"ddl", "owl", "lrml", "json", "all"}

// artifact is one rendered export.
type artifact struct {
	Kind    string `json:"kind"`
	File    string `json:"file,omitempty"`
	Content string `json:"content,omitempty"`
}

var artifactExt = map[string]string{
	"ddl":  ".ddl",
	"owl":  ".owl",
	"lrml": ".lrml",
	"json": ".json",
}

// CompileSummary is the JSON payload of a successful compile.
type CompileSummary struct {
	Source        string                `json:"source"`
	SourceHash    string                `json:"source_hash"`
	Digest        string                `json:"digest"`
	RuleCount     int                   `json:"rule_count"`
	ScenarioCount int                   `json:"scenario_count"`
	EdgeCount     int                   `json:"edge_count"`
	Suppressed    []int                 `json:"suppressed"`
	Diagnostics   []compiler.Diagnostic `json:"diagnostics"`
	Artifacts     []artifact            `json:"artifacts"`
	CompilationID string                `json:"compilation_id,omitempty"`

	// PriorRuns counts earlier recorded runs of the same source and config.
	PriorRuns int `json:"prior_runs,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <diagram.bpmn>",
		Short: "Compile a BPMN diagram to deontic rules",
		Long: `Compile a BPMN diagram into defeasible deontic rules.

Without --output-dir the selected exports are printed to stdout. With
--output-dir each export is written as <diagram>.<ext>. With --db the run
(source, configuration, rules and digest) is recorded for later replay.

Examples:
  deonto compile process.bpmn
  deonto compile process.bpmn --emit all --output-dir out/
  deonto compile process.bpmn --config strict.cue --db runs.db
  deonto compile process.bpmn --trace-file spans.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file (.cue, .yaml)")
	cmd.Flags().StringVarP(&opts.Emit, "emit", "e", "ddl", "exports to produce (ddl|owl|lrml|json|all)")
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "write exports to this directory")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.TraceFile, "trace-file", "", "write pipeline spans as JSON to this file")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) (err error) {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	kinds, err := emitKinds(opts.Emit)
	if err != nil {
		return formatter.fail(err)
	}

	if opts.TraceFile != "" {
		stop, traceErr := startTracing(opts.TraceFile)
		if traceErr != nil {
			return formatter.fail(traceErr)
		}
		defer func() {
			if stopErr := stop(); err == nil && stopErr != nil {
				err = formatter.fail(stopErr)
			}
		}()
	}

	loaded, err := LoadDiagram(path, opts.Config)
	if err != nil {
		return formatter.fail(err)
	}
	formatter.VerboseLog("Compiling %s (process %s, %d nodes)", loaded.Name(), loaded.Diagram.ProcessID, len(loaded.Diagram.Nodes))

	res, err := loaded.Compile(ctx, slog.Default())
	if err != nil {
		return formatter.fail(err)
	}

	digest, err := res.RuleSet.Digest()
	if err != nil {
		return formatter.fail(err)
	}
	summary := CompileSummary{
		Source:        loaded.Name(),
		SourceHash:    ir.SourceHash(loaded.Source),
		Digest:        digest,
		RuleCount:     len(res.RuleSet.Rules),
		ScenarioCount: res.ScenarioCount,
		EdgeCount:     len(res.Graph.Edges),
		Suppressed:    res.Suppressed,
		Diagnostics:   res.Diagnostics,
	}

	summary.Artifacts, err = renderArtifacts(loaded, res, kinds)
	if err != nil {
		return formatter.fail(err)
	}

	if opts.OutputDir != "" {
		if err := writeArtifacts(opts.OutputDir, loaded.Stem(), summary.Artifacts); err != nil {
			return formatter.fail(err)
		}
	}

	if opts.Database != "" {
		summary.CompilationID, summary.PriorRuns, err = recordCompilation(ctx, opts.Database, loaded, res, digest)
		if err != nil {
			return formatter.fail(err)
		}
		formatter.VerboseLog("Recorded compilation %s in %s", summary.CompilationID, opts.Database)
	}

	return outputCompileSuccess(formatter, summary, opts.OutputDir != "")
}

func emitKinds(emit string) ([]string, error) {
	if !slices.Contains(ValidEmits, emit) {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("invalid emit %q: must be one of %v", emit, ValidEmits)}
	}
	if emit == "all" {
		return []string{"ddl", "owl", "lrml", "json"}, nil
	}
	return []string{emit}, nil
}

// renderArtifacts renders the requested exports in a fixed order.
func renderArtifacts(loaded *LoadedDiagram, res *compiler.Result, kinds []string) ([]artifact, error) {
	exportOpts := loaded.Config.ExportOptions()
	out := make([]artifact, 0, len(kinds))
	for _, kind := range kinds {
		var content string
		switch kind {
		case "ddl":
			content = export.DDLDocument(res.RuleSet)
		case "owl":
			content = export.OWL(res.RuleSet, exportOpts)
		case "lrml":
			content = export.LegalRuleML(res.RuleSet, exportOpts)
		case "json":
			data, err := ruleSetDocument(loaded, res)
			if err != nil {
				return nil, err
			}
			content = string(data)
		}
		out = append(out, artifact{Kind: kind, Content: content})
	}
	return out, nil
}

// ruleSetDocument renders the JSON rule-set document and checks it against
// the published schema before anything is written.
func ruleSetDocument(loaded *LoadedDiagram, res *compiler.Result) ([]byte, error) {
	doc, err := export.NewDocument(res.RuleSet)
	if err != nil {
		return nil, err
	}
	doc.SourceHash = ir.SourceHash(loaded.Source)
	if len(res.Suppressed) > 0 {
		doc.Suppressed = res.Suppressed
	}
	data, err := export.MarshalDocument(doc)
	if err != nil {
		return nil, err
	}
	if err := export.ValidateJSON(data); err != nil {
		return nil, &LoadError{Code: ErrCodeRuleSet, Message: err.Error(), Err: err}
	}
	return data, nil
}

// writeArtifacts writes each artifact to dir/<stem><ext> and records the
// file path in place of the content.
func writeArtifacts(dir, stem string, artifacts []artifact) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("creating output directory: %v", err), Err: err}
	}
	for i := range artifacts {
		a := &artifacts[i]
		a.File = filepath.Join(dir, stem+artifactExt[a.Kind])
		if err := os.WriteFile(a.File, []byte(a.Content), 0644); err != nil {
			return &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing %s: %v", a.File, err), Err: err}
		}
		a.Content = ""
	}
	return nil
}

func recordCompilation(ctx context.Context, dbPath string, loaded *LoadedDiagram, res *compiler.Result, digest string) (string, int, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", 0, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("opening database: %v", err), Err: err}
	}
	defer st.Close()

	earlier, err := st.FindBySource(ctx, ir.SourceHash(loaded.Source))
	if err != nil {
		return "", 0, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("reading earlier runs: %v", err), Err: err}
	}
	prior := 0
	for _, c := range earlier {
		if c.Config != loaded.Config {
			continue
		}
		prior++
		if c.Digest != digest {
			slog.Warn("digest differs from an earlier run of the same source and config",
				"source", loaded.Name(), "run", c.ID, "recorded", c.Digest, "digest", digest)
		}
	}

	id, err := st.WriteCompilation(ctx, store.Compilation{
		SourceName:    loaded.Name(),
		Source:        loaded.Source,
		Config:        loaded.Config,
		RuleSet:       res.RuleSet,
		Digest:        digest,
		ScenarioCount: res.ScenarioCount,
	})
	if err != nil {
		return "", 0, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("recording compilation: %v", err), Err: err}
	}
	return id, prior, nil
}

// startTracing installs a tracer provider writing to path. The returned
// function flushes the spans and closes the file.
func startTracing(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("creating trace file: %v", err), Err: err}
	}
	shutdown, err := tracing.Init(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return func() error {
		if err := shutdown(context.Background()); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}

// outputCompileSuccess prints the exports (stdout mode) or a summary of the
// written files, with diagnostics on stderr.
func outputCompileSuccess(formatter *OutputFormatter, summary CompileSummary, wroteFiles bool) error {
	if formatter.IsJSON() {
		return formatter.Success(summary)
	}

	w := formatter.Writer
	for _, d := range summary.Diagnostics {
		fmt.Fprintln(formatter.GetErrWriter(), d.String())
	}

	if !wroteFiles {
		contents := make([]string, len(summary.Artifacts))
		for i, a := range summary.Artifacts {
			contents[i] = a.Content
		}
		fmt.Fprint(w, strings.Join(contents, "\n"))
	} else {
		fmt.Fprintf(w, "✓ Compiled %s: %d rule(s) from %d scenario(s)\n", summary.Source, summary.RuleCount, summary.ScenarioCount)
		for _, a := range summary.Artifacts {
			fmt.Fprintf(w, "  wrote %s\n", a.File)
		}
	}

	if summary.CompilationID != "" {
		fmt.Fprintf(formatter.GetErrWriter(), "Recorded compilation %s\n", summary.CompilationID)
	}
	return nil
}

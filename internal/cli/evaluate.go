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

	"github.com/roach88/deonto/internal/evaluate"
	"github.com/roach88/deonto/internal/export"
	"github.com/roach88/deonto/internal/ir"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions
	Config    string
	Facts     []string // "actor.predicate=true|false"
	FactsFile string   // YAML mapping of the same keys
}

// EvaluateResult is the payload of the evaluate command.
type EvaluateResult struct {
	Source string         `json:"source"`
	Facts  evaluate.Facts `json:"facts"`
	Rules  []string       `json:"rules"`
	evaluate.Outcome
	Expressions map[string]string `json:"expressions,omitempty"`
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "evaluate <diagram.bpmn | rules.json>",
		Short: "Apply compiled rules to a fact assignment",
		Long: `Apply the rules of a diagram, or of a JSON rule-set document written by
"deonto compile --emit json", to a set of facts.

Facts are keyed "actor.predicate" as in the diagram's decision labels. A
condition holds only when its fact is given with the required value. Of the
applicable rules the first in the superiority chain prevails; its
obligations are reported and every other applicable rule is defeated.

Examples:
  deonto evaluate process.bpmn --fact AIsystem.generatesContent=true
  deonto evaluate rules.json --facts facts.yaml
  deonto evaluate process.bpmn --fact user.givesConsent=false --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file (.cue, .yaml); diagrams only")
	cmd.Flags().StringArrayVarP(&opts.Facts, "fact", "f", nil, "fact as actor.predicate=true|false (repeatable)")
	cmd.Flags().StringVar(&opts.FactsFile, "facts", "", "YAML file of facts; --fact entries override it")

	return cmd
}

func runEvaluate(ctx context.Context, opts *EvaluateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	facts, err := collectFacts(opts.FactsFile, opts.Facts)
	if err != nil {
		return formatter.fail(err)
	}

	rs, err := loadRuleSet(ctx, path, opts.Config)
	if err != nil {
		return formatter.fail(err)
	}

	ev, err := evaluate.New(rs)
	if err != nil {
		return formatter.fail(err)
	}
	out, err := ev.Evaluate(ctx, facts)
	if err != nil {
		return formatter.fail(err)
	}

	result := EvaluateResult{
		Source:  filepath.Base(path),
		Facts:   facts,
		Rules:   make([]string, 0, len(rs.Rules)),
		Outcome: out,
	}
	for _, r := range rs.Rules {
		result.Rules = append(result.Rules, export.DDL(r))
	}
	if opts.Verbose {
		result.Expressions = ev.Expressions()
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return outputEvaluateText(formatter, result)
}

// collectFacts merges the facts file and the --fact flags, flags last.
func collectFacts(file string, flags []string) (evaluate.Facts, error) {
	facts := evaluate.Facts{}
	if file != "" {
		loaded, err := evaluate.LoadFacts(file)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeFacts, Message: err.Error(), Err: err}
		}
		facts = loaded
	}
	parsed, err := evaluate.ParseFacts(flags)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeFacts, Message: err.Error(), Err: err}
	}
	for k, v := range parsed {
		facts[k] = v
	}
	return facts, nil
}

// loadRuleSet reads a JSON rule-set document or compiles a diagram,
// depending on the file extension.
func loadRuleSet(ctx context.Context, path, configPath string) (ir.RuleSet, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		loaded, err := LoadDiagram(path, configPath)
		if err != nil {
			return ir.RuleSet{}, err
		}
		res, err := loaded.Compile(ctx, slog.Default())
		if err != nil {
			return ir.RuleSet{}, err
		}
		return res.RuleSet, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ir.RuleSet{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rule set not found: %s", path), Err: err}
	}
	if err != nil {
		return ir.RuleSet{}, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading rule set: %v", err), Err: err}
	}
	doc, err := export.ParseJSON(data)
	if err != nil {
		return ir.RuleSet{}, &LoadError{Code: ErrCodeRuleSet, Message: err.Error(), Err: err}
	}
	rs := doc.RuleSet()
	if digest, err := rs.Digest(); err == nil && digest != doc.Digest {
		slog.Warn("rule set digest does not match its rules", "path", path, "recorded", doc.Digest, "computed", digest)
	}
	return rs, nil
}

func outputEvaluateText(formatter *OutputFormatter, result EvaluateResult) error {
	w := formatter.Writer

	keys := make([]string, 0, len(result.Facts))
	for k := range result.Facts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		formatter.VerboseLog("fact %s = %t", k, result.Facts[k])
	}
	for _, r := range result.Rules {
		id, _, _ := strings.Cut(r, ":")
		formatter.VerboseLog("%s  when  %s", r, result.Expressions[id])
	}

	if result.Prevailing == "" {
		fmt.Fprintln(w, "No rule applies.")
		return nil
	}

	fmt.Fprintf(w, "Applicable: %s\n", strings.Join(result.Applicable, ", "))
	fmt.Fprintf(w, "Prevailing: %s\n", result.Prevailing)
	if len(result.Defeated) > 0 {
		fmt.Fprintf(w, "Defeated:   %s\n", strings.Join(result.Defeated, ", "))
	}
	if len(result.Obligations) == 0 {
		fmt.Fprintf(w, "Obligations: %s\n", export.NoObligation)
		return nil
	}
	fmt.Fprintln(w, "Obligations:")
	for _, a := range result.Obligations {
		fmt.Fprintf(w, "  %s\n", a.Key())
	}
	return nil
}

package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/deonto/internal/bpmn"
	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/config"
	"github.com/roach88/deonto/internal/evaluate"
	"github.com/roach88/deonto/internal/export"
	"github.com/roach88/deonto/internal/store"
	"github.com/roach88/deonto/internal/testutil"
)

// Harness is the scenario execution engine. Each run gets a fresh
// in-memory store with sequential run ids.
type Harness struct {
	store  *store.Store
	cfg    config.Config
	logger *slog.Logger
}

// Run compiles the scenario's diagram and evaluates its assertions.
//
// Execution flow:
// 1. Load the configuration (defaults when none is given)
// 2. Run the static diagram checks and compile
// 3. Record the run in an in-memory store and replay it
// 4. Apply evaluate steps
// 5. Compare the golden DDL document, if any
// 6. Evaluate assertions
//
// Assertion failures are reported in the result. The returned error is
// reserved for scenarios that cannot run at all.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := config.Load(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	source, err := os.ReadFile(scenario.Diagram)
	if err != nil {
		return nil, fmt.Errorf("failed to read diagram: %w", err)
	}

	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequentialIDGenerator("run")))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	res, err := h.compile(ctx, source, result)
	if err != nil {
		return nil, err
	}

	if res != nil {
		if err := h.replay(ctx, scenario, source, res, result); err != nil {
			return nil, err
		}
		if err := h.evaluate(ctx, scenario.Evaluate, result); err != nil {
			return nil, err
		}
		if scenario.Golden != "" {
			if err := CheckGolden(scenario.Golden, result); err != nil {
				result.AddError(err.Error())
			}
		}
	}

	for _, a := range scenario.Assertions {
		if err := checkAssertion(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

// compile fills result from a compilation of source. A fatal compilation
// error is recorded in the result and yields a nil compiler result.
func (h *Harness) compile(ctx context.Context, source []byte, result *Result) (*compiler.Result, error) {
	opts := h.cfg.CompilerOptions()
	opts.Logger = h.logger

	if d, err := bpmn.Parse(source); err == nil {
		if checks, err := compiler.Check(d, opts); err == nil {
			result.Diagnostics = append(result.Diagnostics, checks...)
		}
	}

	res, err := compiler.Compile(ctx, source, opts)
	if err != nil {
		code := compiler.CodeOf(err)
		if code == "" {
			return nil, fmt.Errorf("compile: %w", err)
		}
		result.ErrorCode = code
		return nil, nil
	}

	result.RuleSet = res.RuleSet
	result.ScenarioCount = res.ScenarioCount
	result.EdgeCount = len(res.Graph.Edges)
	result.Diagnostics = append(result.Diagnostics, res.Diagnostics...)
	result.DDL = export.DDLDocument(res.RuleSet)
	return res, nil
}

// replay records the run and recompiles it from the store. A digest
// mismatch fails the scenario.
func (h *Harness) replay(ctx context.Context, scenario *Scenario, source []byte, res *compiler.Result, result *Result) error {
	id, err := h.store.WriteCompilation(ctx, store.Compilation{
		SourceName:    filepath.Base(scenario.Diagram),
		Source:        source,
		Config:        h.cfg,
		RuleSet:       res.RuleSet,
		ScenarioCount: res.ScenarioCount,
	})
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	rr, err := h.store.Replay(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to replay run: %w", err)
	}
	result.Digest = rr.StoredDigest
	if !rr.Deterministic {
		result.AddError(fmt.Sprintf("replay of %s is not deterministic: stored %s, replayed %s %s",
			id, rr.StoredDigest, rr.ReplayDigest, rr.Error))
	}
	return nil
}

func (h *Harness) evaluate(ctx context.Context, steps []EvaluateStep, result *Result) error {
	if len(steps) == 0 {
		return nil
	}
	ev, err := evaluate.New(result.RuleSet)
	if err != nil {
		return fmt.Errorf("failed to compile rule antecedents: %w", err)
	}

	for i, step := range steps {
		out, err := ev.Evaluate(ctx, evaluate.Facts(step.Facts))
		if err != nil {
			return fmt.Errorf("evaluate[%d]: %w", i, err)
		}
		if out.Prevailing != step.Prevailing {
			result.AddError((&AssertionError{
				Type:     "evaluate",
				Expected: fmt.Sprintf("evaluate[%d] prevailing %q", i, step.Prevailing),
				Actual:   fmt.Sprintf("prevailing %q (applicable %s)", out.Prevailing, strings.Join(out.Applicable, ", ")),
				DDL:      result.DDL,
			}).Error())
			continue
		}
		if step.Obligations != nil {
			got := actionKeys(out.Obligations)
			if strings.Join(got, ",") != strings.Join(step.Obligations, ",") {
				result.AddError((&AssertionError{
					Type:     "evaluate",
					Expected: fmt.Sprintf("evaluate[%d] obligations %v", i, step.Obligations),
					Actual:   fmt.Sprintf("%v", got),
					DDL:      result.DDL,
				}).Error())
			}
		}
	}
	return nil
}

package compiler

import (
	"context"

	"github.com/roach88/deonto/internal/bpmn"
	"github.com/roach88/deonto/internal/tracing"
)

// Compile runs the whole pipeline on BPMN markup: front-end, reduction and
// rule synthesis. A fatal error aborts before any rule is produced.
func Compile(ctx context.Context, data []byte, opts Options) (res *Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "compile")
	defer func() { tracing.EndSpan(span, err) }()

	_, parseSpan := tracing.StartSpan(ctx, "parse")
	d, err := bpmn.Parse(data)
	tracing.EndSpan(parseSpan, err)
	if err != nil {
		return nil, &Error{Code: CodeMalformedInput, Message: err.Error(), Err: err}
	}
	span.SetString("process", d.ProcessID)

	return CompileDiagram(ctx, d, opts)
}

// CompileDiagram reduces and synthesizes an already parsed diagram.
func CompileDiagram(ctx context.Context, d *bpmn.Diagram, opts Options) (res *Result, err error) {
	opts = opts.withDefaults()
	log := opts.logger()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, reduceSpan := tracing.StartSpan(ctx, "reduce")
	g, err := Reduce(d)
	if err == nil {
		reduceSpan.SetInt("kept_nodes", len(g.NodeIDs)).SetInt("edges", len(g.Edges))
	}
	tracing.EndSpan(reduceSpan, err)
	if err != nil {
		return nil, err
	}
	log.Debug("reduced graph",
		"process", d.ProcessID,
		"nodes", len(d.Nodes),
		"kept_nodes", len(g.NodeIDs),
		"edges", len(g.Edges))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, synthSpan := tracing.StartSpan(ctx, "synthesize")
	res, err = Synthesize(g, opts)
	if err == nil {
		synthSpan.SetInt("scenarios", res.ScenarioCount).SetInt("rules", len(res.RuleSet.Rules))
	}
	tracing.EndSpan(synthSpan, err)
	return res, err
}

package harness

import (
	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/ir"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true if every assertion and evaluation step held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors"`

	// ErrorCode is the code of the fatal compilation error, if any.
	ErrorCode compiler.ErrorCode `json:"error_code,omitempty"`

	RuleSet       ir.RuleSet            `json:"rule_set"`
	ScenarioCount int                   `json:"scenario_count"`
	EdgeCount     int                   `json:"edge_count"`
	Diagnostics   []compiler.Diagnostic `json:"diagnostics"`
	Digest        string                `json:"digest,omitempty"`

	// DDL is the rendered rule document, empty when compilation failed.
	DDL string `json:"ddl,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Errors:      []string{},
		RuleSet:     ir.RuleSet{Rules: []ir.Rule{}, Precedence: []ir.Precedence{}},
		Diagnostics: []compiler.Diagnostic{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

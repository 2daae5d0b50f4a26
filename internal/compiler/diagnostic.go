package compiler

import "fmt"

// Level is the severity of a non-fatal diagnostic.
type Level string

const (
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// DiagnosticCode identifies a non-fatal finding.
type DiagnosticCode string

const (
	DiagLabelFormat        DiagnosticCode = "LABEL_FORMAT"
	DiagUnrecognizedBranch DiagnosticCode = "UNRECOGNIZED_BRANCH"
	DiagConditionConflict  DiagnosticCode = "CONDITION_CONFLICT"
	DiagCycle              DiagnosticCode = "CYCLE"
	DiagUnreachable        DiagnosticCode = "UNREACHABLE"
	DiagMissingBranchOrder DiagnosticCode = "MISSING_BRANCH_ORDER"
	DiagNoObligation       DiagnosticCode = "NO_OBLIGATION"
)

// Diagnostic is a non-fatal finding. Diagnostics never abort compilation.
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Level   Level          `json:"level"`
	NodeID  string         `json:"node_id,omitempty"`
	Path    []string       `json:"path,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.NodeID != "" {
		return fmt.Sprintf("%s [%s] %s: %s", d.Level, d.Code, d.NodeID, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Level, d.Code, d.Message)
}

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a diagram and a scenario file into dir and returns
// the scenario path.
func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	diagram, err := os.ReadFile("testdata/diagrams/ai_content.bpmn")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "diagram.bpmn"), diagram, 0644))

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: test_scenario
description: "Test scenario for validation"
diagram: diagram.bpmn
evaluate:
  - facts: { AIsystem.generatesContent: true }
    prevailing: r1
assertions:
  - type: rule_count
    count: 2
  - type: rule
    rule: r1
    conditions: [AIsystem.generatesContent=true]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "diagram.bpmn"), scenario.Diagram)
	assert.Empty(t, scenario.Config)
	require.Len(t, scenario.Evaluate, 1)
	assert.True(t, scenario.Evaluate[0].Facts["AIsystem.generatesContent"])
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, 2, scenario.Assertions[0].Count)
	assert.Equal(t, []string{"AIsystem.generatesContent=true"}, scenario.Assertions[1].Conditions)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "Missing name"
diagram: diagram.bpmn
assertions:
  - type: rule_count
    count: 1
`,
			wantErr: "name is required",
		},
		{
			name: "missing diagram file",
			content: `
name: x
description: "Diagram does not exist"
diagram: nowhere.bpmn
assertions:
  - type: rule_count
    count: 1
`,
			wantErr: "diagram file not found",
		},
		{
			name: "unknown field",
			content: `
name: x
description: "Typo in assertions"
diagram: diagram.bpmn
assertion:
  - type: rule_count
`,
			wantErr: "failed to parse YAML",
		},
		{
			name: "nothing to check",
			content: `
name: x
description: "No assertions"
diagram: diagram.bpmn
`,
			wantErr: "assertions, evaluate steps or a golden file are required",
		},
		{
			name: "unknown assertion type",
			content: `
name: x
description: "Bad type"
diagram: diagram.bpmn
assertions:
  - type: trace_contains
`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name: "rule without id",
			content: `
name: x
description: "Rule assertion needs an id"
diagram: diagram.bpmn
assertions:
  - type: rule
    actions: [a.b]
`,
			wantErr: "rule is required",
		},
		{
			name: "bad condition value",
			content: `
name: x
description: "Condition values are booleans"
diagram: diagram.bpmn
assertions:
  - type: rule
    rule: r1
    conditions: [a.b=maybe]
`,
			wantErr: "value must be true or false",
		},
		{
			name: "bad precedence pair",
			content: `
name: x
description: "Pairs need a superior and an inferior"
diagram: diagram.bpmn
assertions:
  - type: precedence
    pairs: ["r1"]
`,
			wantErr: "precedence pair",
		},
		{
			name: "diagnostic without code",
			content: `
name: x
description: "Diagnostic assertions need a code"
diagram: diagram.bpmn
assertions:
  - type: diagnostic
`,
			wantErr: "code is required for diagnostic",
		},
		{
			name: "evaluate without facts",
			content: `
name: x
description: "Facts are required"
diagram: diagram.bpmn
evaluate:
  - prevailing: r1
`,
			wantErr: "facts is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, filepath.Base(path), scenario.Name+".yaml")
		})
	}
}

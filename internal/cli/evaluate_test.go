package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Diagram(t *testing.T) {
	out, _, err := execute(t, "evaluate", diagram("ai_content"), "--fact", "AIsystem.generatesContent=true")
	require.NoError(t, err)

	assert.Equal(t, "Applicable: r1\nPrevailing: r1\nObligations:\n  AIprovider.markContent\n", out)
}

func TestEvaluate_NoRuleApplies(t *testing.T) {
	out, _, err := execute(t, "evaluate", diagram("ai_content"))
	require.NoError(t, err)
	assert.Equal(t, "No rule applies.\n", out)
}

func TestEvaluate_NoObligation(t *testing.T) {
	out, _, err := execute(t, "evaluate", diagram("consent"), "-f", "user.givesConsent=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Prevailing: r2")
	assert.Contains(t, out, "Obligations: O(none)")
}

func TestEvaluate_FactsFileAndOverride(t *testing.T) {
	dir := t.TempDir()
	factsPath := writeFile(t, dir, "facts.yaml", "AIsystem.generatesContent: true\nAIsystem.isDeepfake: false\n")

	out, _, err := execute(t, "evaluate", diagram("deepfake"),
		"--facts", factsPath, "--fact", "AIsystem.isDeepfake=true", "--format", "json")
	require.NoError(t, err)

	var result EvaluateResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Facts["AIsystem.isDeepfake"])
	assert.Equal(t, "r2", result.Prevailing)
	assert.Equal(t, []string{"r2"}, result.Applicable)
	require.Len(t, result.Obligations, 2)
	assert.Equal(t, "deployer.discloseDeepfake", result.Obligations[1].Key())
	assert.Nil(t, result.Expressions)
}

func TestEvaluate_RuleSetDocument(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "compile", diagram("eligibility"), "--emit", "json", "--output-dir", dir)
	require.NoError(t, err)

	out, _, err := execute(t, "evaluate", filepath.Join(dir, "eligibility.json"),
		"--fact", "applicant.isEligible=true", "--format", "json", "--verbose")
	require.NoError(t, err)

	var result EvaluateResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "eligibility.json", result.Source)
	// r2 has no conditions, so it always applies and is defeated by r1.
	assert.Equal(t, []string{"r1", "r2"}, result.Applicable)
	assert.Equal(t, "r1", result.Prevailing)
	assert.Equal(t, []string{"r2"}, result.Defeated)
	assert.Equal(t, "true", result.Expressions["r2"])
}

func TestEvaluate_Errors(t *testing.T) {
	dir := t.TempDir()
	badDoc := writeFile(t, dir, "rules.json", `{"rules": []}`)
	badFacts := writeFile(t, dir, "facts.yaml", "- not a mapping\n")

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"bad fact value", []string{diagram("ai_content"), "--fact", "AIsystem.generatesContent=maybe"}, ErrCodeFacts},
		{"bad facts file", []string{diagram("ai_content"), "--facts", badFacts}, ErrCodeFacts},
		{"invalid rule set document", []string{badDoc}, ErrCodeRuleSet},
		{"missing rule set document", []string{filepath.Join(dir, "none.json")}, ErrCodeNotFound},
		{"missing diagram", []string{diagram("nowhere")}, ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"evaluate"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.True(t, strings.HasPrefix(out, "Error ["+tt.wantCode+"]"), "output: %s", out)
		})
	}
}

package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deonto/internal/testutil"
)

func TestAnalyzeCycles_DAG(t *testing.T) {
	diags := AnalyzeCycles(mustParse(t, testutil.AIContentDiagram()))
	assert.Empty(t, diags, "DAG should produce no cycle warnings")
}

func TestAnalyzeCycles_TaskLoop(t *testing.T) {
	diags := AnalyzeCycles(mustParse(t, cyclicDiagram()))

	require.Len(t, diags, 1)
	assert.Equal(t, DiagCycle, diags[0].Code)
	assert.Equal(t, []string{"T1", "T2", "T1"}, diags[0].Path)
	assert.Equal(t, "cycle detected: T1 → T2 → T1", diags[0].Message)
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	diags := AnalyzeCycles(mustParse(t, testutil.NewDiagram("P").
		Start("S").
		Task("T", "clerk retries").
		End("E").
		Flow("F0", "S", "T", "").
		Flow("F1", "T", "T", "").
		Flow("F2", "T", "E", "").
		XML()))

	require.Len(t, diags, 1)
	assert.Equal(t, []string{"T", "T"}, diags[0].Path)
}

func TestAnalyzeCycles_KeptNodeLoop(t *testing.T) {
	diags := AnalyzeCycles(mustParse(t, loopDiagram()))

	require.Len(t, diags, 1)
	assert.ElementsMatch(t, []string{"G1", "G2"}, diags[0].Path[:2])
	assert.Equal(t, diags[0].Path[0], diags[0].Path[2])
}

func TestAnalyzeCycles_PathClosesPastDeadEnd(t *testing.T) {
	// Following A → B → C first reaches C, whose only edge leads back to B.
	diags := AnalyzeCycles(mustParse(t, testutil.NewDiagram("P").
		Start("S").
		Task("A", "clerk drafts").
		Task("B", "clerk reviews").
		Task("C", "clerk annotates").
		End("E").
		Flow("F0", "S", "A", "").
		Flow("F1", "A", "B", "").
		Flow("F2", "B", "C", "").
		Flow("F3", "B", "A", "").
		Flow("F4", "C", "B", "").
		Flow("F5", "B", "E", "").
		XML()))

	require.Len(t, diags, 1)
	path := diags[0].Path
	assert.Equal(t, path[0], path[len(path)-1], "cycle path must close")
	assert.Equal(t, []string{"A", "B", "A"}, path)
}

func TestCheck_CleanDiagram(t *testing.T) {
	diags, err := Check(mustParse(t, testutil.AIContentDiagram()), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestCheck_Findings(t *testing.T) {
	d := mustParse(t, testutil.NewDiagram("P").
		Start("S").
		Gateway("G", "approved?").
		BranchOrder("G").
		Task("T", "archive").
		Task("Orphan", "clerk idles").
		End("E1").
		End("E2").
		Flow("F0", "S", "G", "").
		Flow("F1", "G", "T", "Yes").
		Flow("F2", "G", "E2", "No").
		Flow("F3", "T", "E1", "").
		XML())

	diags, err := Check(d, DefaultOptions())
	require.NoError(t, err)

	type finding struct {
		code DiagnosticCode
		node string
	}
	var got []finding
	for _, dg := range diags {
		got = append(got, finding{dg.Code, dg.NodeID})
	}
	assert.Equal(t, []finding{
		{DiagUnreachable, "Orphan"},
		{DiagMissingBranchOrder, "G"},
		{DiagLabelFormat, "G"},
		{DiagLabelFormat, "T"},
	}, got)
	assert.Equal(t, "decision declares no outgoing order; scenarios follow target id, then branch label order", diags[1].Message)
}

func TestCheck_StructuralError(t *testing.T) {
	_, err := Check(mustParse(t, testutil.NewDiagram("P").Start("S").XML()), DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsStructuralError(err))
}

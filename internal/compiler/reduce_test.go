package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deonto/internal/bpmn"
	"github.com/roach88/deonto/internal/testutil"
)

func mustParse(t *testing.T, data []byte) *bpmn.Diagram {
	t.Helper()
	d, err := bpmn.Parse(data)
	require.NoError(t, err)
	return d
}

func mustReduce(t *testing.T, data []byte) *ReducedGraph {
	t.Helper()
	g, err := Reduce(mustParse(t, data))
	require.NoError(t, err)
	return g
}

func TestReduce_AIContentDiagram(t *testing.T) {
	g := mustReduce(t, testutil.AIContentDiagram())

	assert.Equal(t, "Start", g.Entry)
	assert.Equal(t, []string{"End_Marked", "End_Unmarked"}, g.Exits)
	assert.Equal(t, []string{"Start", "Gateway_Gen", "End_Marked", "End_Unmarked"}, g.NodeIDs)
	assert.Equal(t, 2, g.Branches["Gateway_Gen"])

	expected := []ReducedEdge{
		{
			Src: "Gateway_Gen", Dst: "End_Marked", Guard: "Yes", Guarded: true,
			Obligations:     []string{"AIprovider markContent"},
			ObligationNodes: []string{"Task_Mark"},
			ViaFlows:        []string{"Flow_Yes", "Flow_M"},
		},
		{
			Src: "Gateway_Gen", Dst: "End_Unmarked", Guard: "No", Guarded: true,
			Obligations:     []string{"AIprovider none"},
			ObligationNodes: []string{"Task_None"},
			ViaFlows:        []string{"Flow_No", "Flow_N"},
		},
		{
			Src: "Start", Dst: "Gateway_Gen",
			Obligations:     []string{},
			ObligationNodes: []string{},
			ViaFlows:        []string{"Flow_0"},
		},
	}
	assert.Equal(t, expected, g.Edges)
}

func TestReduce_GuardOnlyOnDecisionSources(t *testing.T) {
	g := mustReduce(t, testutil.NewDiagram("P").
		Start("S").
		End("E").
		Flow("F", "S", "E", "labelled start flow").
		XML())

	require.Len(t, g.Edges, 1)
	assert.False(t, g.Edges[0].Guarded)
	assert.Empty(t, g.Edges[0].Guard)
}

func TestReduce_DeduplicatesEquivalentPaths(t *testing.T) {
	g := mustReduce(t, testutil.NewDiagram("P").
		Start("S").
		Element("parallelGateway", "PG", "").
		Task("T1", "clerk files").
		Task("T2", "clerk files").
		End("E").
		Flow("F0", "S", "PG", "").
		Flow("Fa", "PG", "T1", "").
		Flow("Fb", "PG", "T2", "").
		Flow("Fc", "T1", "E", "").
		Flow("Fd", "T2", "E", "").
		XML())

	require.Len(t, g.Edges, 1)
	assert.Equal(t, []string{"clerk files"}, g.Edges[0].Obligations)
	assert.Equal(t, []string{"F0", "Fa", "Fc"}, g.Edges[0].ViaFlows, "first discovered path is kept")
	assert.Equal(t, []string{"T1"}, g.Edges[0].ObligationNodes)
}

func TestReduce_DistinctObligationsStayDistinct(t *testing.T) {
	g := mustReduce(t, testutil.NewDiagram("P").
		Start("S").
		Element("parallelGateway", "PG", "").
		Task("T1", "clerk files").
		Task("T2", "clerk stamps").
		End("E").
		Flow("F0", "S", "PG", "").
		Flow("Fa", "PG", "T1", "").
		Flow("Fb", "PG", "T2", "").
		Flow("Fc", "T1", "E", "").
		Flow("Fd", "T2", "E", "").
		XML())

	require.Len(t, g.Edges, 2)
	assert.Equal(t, []string{"clerk files"}, g.Edges[0].Obligations)
	assert.Equal(t, []string{"clerk stamps"}, g.Edges[1].Obligations)
}

func TestReduce_TerminatesOnCycleThroughCollapsedNodes(t *testing.T) {
	g := mustReduce(t, cyclicDiagram())

	assert.Len(t, g.Edges, 3)
	var yes ReducedEdge
	for _, e := range g.Edges {
		if e.Guard == "Yes" {
			yes = e
		}
	}
	assert.Equal(t, "End", yes.Dst)
	assert.Equal(t, []string{"clerk revise", "clerk check"}, yes.Obligations)
	assert.Len(t, yes.ObligationNodes, 2)
	assert.Equal(t, []string{"F1", "F2", "F4"}, yes.ViaFlows)
}

func TestReduce_WalkPassesThroughOwnSource(t *testing.T) {
	g := mustReduce(t, retryDiagram())

	require.Len(t, g.Edges, 3)
	assert.Equal(t, ReducedEdge{
		Src: "G", Dst: "End", Guard: "No", Guarded: true,
		Obligations:     []string{"user fix"},
		ObligationNodes: []string{"T"},
		ViaFlows:        []string{"F_no", "F_back", "F_yes"},
	}, g.Edges[0])
	assert.Equal(t, ReducedEdge{
		Src: "G", Dst: "End", Guard: "Yes", Guarded: true,
		Obligations:     []string{},
		ObligationNodes: []string{},
		ViaFlows:        []string{"F_yes"},
	}, g.Edges[1])
}

func TestReduce_StructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  []byte
		msg  string
	}{
		{
			name: "no entry",
			xml:  testutil.NewDiagram("P").End("E").XML(),
			msg:  "expected exactly 1 entry node; got 0",
		},
		{
			name: "two entries",
			xml:  testutil.NewDiagram("P").Start("S1").Start("S2").End("E").XML(),
			msg:  "expected exactly 1 entry node; got 2",
		},
		{
			name: "no exit",
			xml:  testutil.NewDiagram("P").Start("S").Task("T", "a b").Flow("F", "S", "T", "").XML(),
			msg:  "expected at least 1 exit node; got 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reduce(mustParse(t, tt.xml))
			require.Error(t, err)
			assert.True(t, IsStructuralError(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

// cyclicDiagram loops between two tasks on the Yes branch.
func cyclicDiagram() []byte {
	return testutil.NewDiagram("P").
		Start("S").
		Gateway("G", "user approves?").
		Task("T1", "clerk revise").
		Task("T2", "clerk check").
		End("End").
		End("End2").
		Flow("F0", "S", "G", "").
		Flow("F1", "G", "T1", "Yes").
		Flow("F5", "G", "End2", "No").
		Flow("F2", "T1", "T2", "").
		Flow("F3", "T2", "T1", "").
		Flow("F4", "T2", "End", "").
		XML()
}

// retryDiagram sends the No branch through a task back to its own gateway.
func retryDiagram() []byte {
	return testutil.NewDiagram("P").
		Start("S").
		Gateway("G", "user valid?").
		Task("T", "user fix").
		End("End").
		Flow("F0", "S", "G", "").
		Flow("F_yes", "G", "End", "Yes").
		Flow("F_no", "G", "T", "No").
		Flow("F_back", "T", "G", "").
		XML()
}

package bpmn

import (
	"errors"
	"testing"

	"github.com/roach88/deonto/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AIContentDiagram(t *testing.T) {
	d, err := Parse(testutil.AIContentDiagram())
	require.NoError(t, err)

	assert.Equal(t, "Process_AI", d.ProcessID)
	assert.Len(t, d.Nodes, 6)
	assert.Len(t, d.Flows, 5)

	gw := d.Nodes["Gateway_Gen"]
	assert.Equal(t, KindDecision, gw.Kind)
	assert.Equal(t, "AIsystem generatesContent?", gw.Label)

	assert.Equal(t, []string{"Flow_Yes", "Flow_No"}, d.Outgoing["Gateway_Gen"])
	assert.Equal(t, []string{"Flow_0"}, d.Incoming["Gateway_Gen"])
	assert.Equal(t, []string{}, d.Outgoing["End_Marked"])
	assert.Equal(t, []string{}, d.Incoming["Start"])

	idx, ok := d.BranchOrder["Gateway_Gen"]["Flow_No"]
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	assert.Equal(t, []string{"Start"}, d.NodesOfKind(KindEntry))
	assert.Equal(t, []string{"End_Marked", "End_Unmarked"}, d.NodesOfKind(KindExit))
}

func TestParse_Kinds(t *testing.T) {
	xml := testutil.NewDiagram("P").
		Element("userTask", "U", "clerk files").
		Element("serviceTask", "S", "").
		Element("parallelGateway", "PG", "").
		Element("intermediateCatchEvent", "IC", "wait").
		Element("textAnnotation", "TA", "ignored").
		XML()

	d, err := Parse(xml)
	require.NoError(t, err)

	assert.Equal(t, KindObligation, d.Nodes["U"].Kind)
	assert.Equal(t, "userTask", d.Nodes["U"].Element)
	assert.Equal(t, "S", d.Nodes["S"].Label, "unnamed obligation falls back to id")
	assert.Equal(t, KindOther, d.Nodes["PG"].Kind)
	assert.Equal(t, KindOther, d.Nodes["IC"].Kind)
	assert.NotContains(t, d.Nodes, "TA")
	assert.Equal(t, []string{"U", "S", "PG", "IC"}, d.NodeIDs())
}

func TestParse_BranchOrderIsAuthoredNotDocumentOrder(t *testing.T) {
	xml := testutil.NewDiagram("P").
		Gateway("G", "a b").
		BranchOrder("G", "F_late", "F_early").
		Flow("F_early", "G", "X", "No").
		Flow("F_late", "G", "Y", "Yes").
		XML()

	d, err := Parse(xml)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"F_late": 0, "F_early": 1}, d.BranchOrder["G"])
	assert.Equal(t, []string{"F_early", "F_late"}, d.Outgoing["G"])
}

func TestParse_GatewayWithoutDeclaredOrder(t *testing.T) {
	xml := testutil.NewDiagram("P").Gateway("G", "a b").BranchOrder("G").XML()

	d, err := Parse(xml)
	require.NoError(t, err)
	assert.NotContains(t, d.BranchOrder, "G")
	_, ok := d.BranchOrder["G"]["F"]
	assert.False(t, ok)
}

func TestParse_SkipsIncompleteElements(t *testing.T) {
	xml := []byte(`<definitions><process id="P">
		<startEvent name="no id"/>
		<task id="T" name="a b"/>
		<sequenceFlow id="F1" sourceRef="T"/>
		<sequenceFlow sourceRef="T" targetRef="T"/>
		<sequenceFlow id="F2" sourceRef="T" targetRef="Z"/>
	</process></definitions>`)

	d, err := Parse(xml)
	require.NoError(t, err)

	assert.Len(t, d.Nodes, 1)
	assert.Equal(t, []string{"F2"}, d.FlowIDs())
	assert.Equal(t, []string{"F2"}, d.Outgoing["T"])
	assert.Equal(t, []string{"F2"}, d.Incoming["Z"], "dangling target still gets adjacency")
}

func TestParse_FlowsBeforeNodes(t *testing.T) {
	xml := []byte(`<definitions><process id="P">
		<sequenceFlow id="F2" sourceRef="G" targetRef="E" name="Yes"/>
		<sequenceFlow id="F1" sourceRef="S" targetRef="G"/>
		<startEvent id="S"/>
		<exclusiveGateway id="G" name="a p?"><outgoing>F2</outgoing></exclusiveGateway>
		<endEvent id="E"/>
	</process></definitions>`)

	d, err := Parse(xml)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "G", "E"}, d.NodeIDs())
	assert.Equal(t, []string{"F2", "F1"}, d.FlowIDs())
	assert.Equal(t, []string{"F1"}, d.Outgoing["S"])
	assert.Equal(t, []string{"F2"}, d.Outgoing["G"])
	assert.Equal(t, []string{"F2"}, d.Incoming["E"])
	assert.Equal(t, map[string]int{"F2": 0}, d.BranchOrder["G"])
}

func TestParse_FirstProcessOnly(t *testing.T) {
	xml := []byte(`<definitions>
		<collaboration id="C"><participant id="x" processRef="P1"/></collaboration>
		<process id="P1"><startEvent id="S1"/></process>
		<process id="P2"><startEvent id="S2"/></process>
	</definitions>`)

	d, err := Parse(xml)
	require.NoError(t, err)
	assert.Equal(t, "P1", d.ProcessID)
	assert.Contains(t, d.Nodes, "S1")
	assert.NotContains(t, d.Nodes, "S2")
}

func TestParse_NoProcess(t *testing.T) {
	_, err := Parse([]byte(`<definitions><collaboration id="C"/></definitions>`))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.True(t, errors.Is(err, ErrNoProcess))
}

func TestParse_InvalidXML(t *testing.T) {
	_, err := Parse([]byte("<definitions>\n<process id=\"P\">\n</definitions>"))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
	assert.Contains(t, err.Error(), "line 3")
}

package testutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// BPMNNamespace is the BPMN 2.0 model namespace used by generated fixtures.
const BPMNNamespace = "http://www.omg.org/spec/BPMN/20100524/MODEL"

type builderItem struct {
	element string
	id      string
	name    string
	source  string
	target  string
	isFlow  bool
}

// DiagramBuilder authors BPMN XML fixtures in code.
//
// Elements are written in the order they are added. Exclusive gateways list
// their outgoing flows in the order those flows were added unless
// BranchOrder overrides it.
//
// Example:
//
//	xml := testutil.NewDiagram("P").
//		Start("S").
//		Gateway("G", "AIsystem generatesContent?").
//		End("E").
//		Flow("F1", "S", "G", "").
//		Flow("F2", "G", "E", "Yes").
//		XML()
type DiagramBuilder struct {
	processID string
	items     []builderItem
	order     map[string][]string
	explicit  map[string]bool
}

// NewDiagram starts a diagram with one process.
func NewDiagram(processID string) *DiagramBuilder {
	return &DiagramBuilder{
		processID: processID,
		order:     make(map[string][]string),
		explicit:  make(map[string]bool),
	}
}

// Start adds a startEvent.
func (b *DiagramBuilder) Start(id string) *DiagramBuilder {
	return b.Element("startEvent", id, "")
}

// End adds an endEvent.
func (b *DiagramBuilder) End(id string) *DiagramBuilder {
	return b.Element("endEvent", id, "")
}

// Gateway adds an exclusiveGateway.
func (b *DiagramBuilder) Gateway(id, name string) *DiagramBuilder {
	return b.Element("exclusiveGateway", id, name)
}

// Task adds a plain task.
func (b *DiagramBuilder) Task(id, name string) *DiagramBuilder {
	return b.Element("task", id, name)
}

// Element adds a flow node with any BPMN element name.
func (b *DiagramBuilder) Element(element, id, name string) *DiagramBuilder {
	b.items = append(b.items, builderItem{element: element, id: id, name: name})
	return b
}

// Flow adds a sequenceFlow. An empty name omits the attribute.
func (b *DiagramBuilder) Flow(id, source, target, name string) *DiagramBuilder {
	b.items = append(b.items, builderItem{
		element: "sequenceFlow", id: id, name: name,
		source: source, target: target, isFlow: true,
	})
	if !b.explicit[source] {
		b.order[source] = append(b.order[source], id)
	}
	return b
}

// BranchOrder sets the declared outgoing flow list of a gateway. Calling it
// with no flows declares none.
func (b *DiagramBuilder) BranchOrder(gateway string, flows ...string) *DiagramBuilder {
	b.explicit[gateway] = true
	b.order[gateway] = flows
	return b
}

// XML renders the diagram.
func (b *DiagramBuilder) XML() []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&buf, `<bpmn:definitions xmlns:bpmn=%q id="Definitions_1">`+"\n", BPMNNamespace)
	fmt.Fprintf(&buf, `  <bpmn:process id=%s isExecutable="false">`+"\n", quoteAttr(b.processID))
	for _, it := range b.items {
		if it.isFlow {
			fmt.Fprintf(&buf, `    <bpmn:sequenceFlow id=%s sourceRef=%s targetRef=%s`,
				quoteAttr(it.id), quoteAttr(it.source), quoteAttr(it.target))
			if it.name != "" {
				fmt.Fprintf(&buf, ` name=%s`, quoteAttr(it.name))
			}
			buf.WriteString(" />\n")
			continue
		}
		fmt.Fprintf(&buf, `    <bpmn:%s id=%s`, it.element, quoteAttr(it.id))
		if it.name != "" {
			fmt.Fprintf(&buf, ` name=%s`, quoteAttr(it.name))
		}
		outs := b.order[it.id]
		if it.element != "exclusiveGateway" || len(outs) == 0 {
			buf.WriteString(" />\n")
			continue
		}
		buf.WriteString(">\n")
		for _, f := range outs {
			buf.WriteString("      <bpmn:outgoing>")
			xml.EscapeText(&buf, []byte(f))
			buf.WriteString("</bpmn:outgoing>\n")
		}
		fmt.Fprintf(&buf, "    </bpmn:%s>\n", it.element)
	}
	buf.WriteString("  </bpmn:process>\n")
	buf.WriteString("</bpmn:definitions>\n")
	return buf.Bytes()
}

func quoteAttr(s string) string {
	var buf bytes.Buffer
	buf.WriteByte('"')
	xml.EscapeText(&buf, []byte(s))
	buf.WriteByte('"')
	return buf.String()
}

// AIContentDiagram returns the two-branch content-marking diagram: one
// decision "AIsystem generatesContent?" whose Yes and No branches each pass
// one obligation before reaching their own end event.
func AIContentDiagram() []byte {
	return NewDiagram("Process_AI").
		Start("Start").
		Gateway("Gateway_Gen", "AIsystem generatesContent?").
		Task("Task_Mark", "AIprovider markContent").
		Task("Task_None", "AIprovider none").
		End("End_Marked").
		End("End_Unmarked").
		Flow("Flow_0", "Start", "Gateway_Gen", "").
		Flow("Flow_Yes", "Gateway_Gen", "Task_Mark", "Yes").
		Flow("Flow_No", "Gateway_Gen", "Task_None", "No").
		Flow("Flow_M", "Task_Mark", "End_Marked", "").
		Flow("Flow_N", "Task_None", "End_Unmarked", "").
		XML()
}

package bpmn

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// ParseError reports markup that cannot yield a diagram.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("bpmn: line %d: %s", e.Line, e.Message)
	}
	return "bpmn: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrNoProcess is returned (wrapped in a ParseError) when the document has
// no process element.
var ErrNoProcess = errors.New("no process element found")

// element is a namespace-agnostic XML tree node.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
	Text     string     `xml:",chardata"`
}

// attr returns the value of an unqualified attribute.
func (e *element) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// findProcess returns the first element named "process" in pre-order.
func (e *element) findProcess() *element {
	if e.XMLName.Local == "process" {
		return e
	}
	for i := range e.Children {
		if p := e.Children[i].findProcess(); p != nil {
			return p
		}
	}
	return nil
}

// Parse reads BPMN 2.0 XML and returns the front-end artifacts of its first
// process.
func Parse(data []byte) (*Diagram, error) {
	var root element
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		pe := &ParseError{Message: "invalid XML", Err: err}
		var se *xml.SyntaxError
		if errors.As(err, &se) {
			pe.Line = se.Line
			pe.Message = se.Msg
		}
		return nil, pe
	}

	process := root.findProcess()
	if process == nil {
		return nil, &ParseError{Message: ErrNoProcess.Error(), Err: ErrNoProcess}
	}

	d := &Diagram{
		ProcessID:   process.attr("id"),
		Nodes:       make(map[string]Node),
		Flows:       make(map[string]Flow),
		Outgoing:    make(map[string][]string),
		Incoming:    make(map[string][]string),
		BranchOrder: make(map[string]map[string]int),
	}

	// One scan: flows refer to nodes by id only, so document order between
	// nodes and flows does not matter.
	for i := range process.Children {
		el := &process.Children[i]
		if local := el.XMLName.Local; local == "sequenceFlow" {
			d.addFlow(el)
		} else {
			d.addNode(el, local)
		}
	}

	for _, id := range d.nodeOrder {
		if d.Outgoing[id] == nil {
			d.Outgoing[id] = []string{}
		}
		if d.Incoming[id] == nil {
			d.Incoming[id] = []string{}
		}
	}

	return d, nil
}

// addNode records a recognized element with an id; later duplicates are
// ignored.
func (d *Diagram) addNode(el *element, local string) {
	id := el.attr("id")
	kind, ok := KindOf(local)
	if id == "" || !ok {
		return
	}
	if _, dup := d.Nodes[id]; dup {
		return
	}

	label := el.attr("name")
	if kind == KindObligation && label == "" {
		label = id
	}
	d.Nodes[id] = Node{ID: id, Kind: kind, Element: local, Label: label}
	d.nodeOrder = append(d.nodeOrder, id)

	if kind == KindDecision {
		if order := declaredOutgoing(el); len(order) > 0 {
			d.BranchOrder[id] = order
		}
	}
}

// addFlow records a sequence flow with an id and both endpoints; later
// duplicates are ignored.
func (d *Diagram) addFlow(el *element) {
	f := Flow{
		ID:     el.attr("id"),
		Source: el.attr("sourceRef"),
		Target: el.attr("targetRef"),
		Label:  el.attr("name"),
	}
	if f.ID == "" || f.Source == "" || f.Target == "" {
		return
	}
	if _, dup := d.Flows[f.ID]; dup {
		return
	}
	d.Flows[f.ID] = f
	d.flowOrder = append(d.flowOrder, f.ID)
	d.Outgoing[f.Source] = append(d.Outgoing[f.Source], f.ID)
	d.Incoming[f.Target] = append(d.Incoming[f.Target], f.ID)
}

// declaredOutgoing indexes the <outgoing> children of a gateway in authored
// order. A flow listed twice keeps its first position.
func declaredOutgoing(el *element) map[string]int {
	order := make(map[string]int)
	for i := range el.Children {
		c := &el.Children[i]
		if c.XMLName.Local != "outgoing" {
			continue
		}
		fid := strings.TrimSpace(c.Text)
		if fid == "" {
			continue
		}
		if _, seen := order[fid]; !seen {
			order[fid] = len(order)
		}
	}
	return order
}

package bpmn

// Node is a flow node of the full diagram graph.
type Node struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Element string `json:"element"` // BPMN local name, e.g. "userTask"
	Label   string `json:"label"`   // name attribute; obligations fall back to ID
}

// Flow is a sequenceFlow of the full diagram graph.
type Flow struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Diagram holds the front-end artifacts of one process.
//
// Outgoing and Incoming have an entry for every node, possibly empty.
// They may also carry entries for flow endpoints that are not nodes.
type Diagram struct {
	ProcessID string
	Nodes     map[string]Node
	Flows     map[string]Flow
	Outgoing  map[string][]string
	Incoming  map[string][]string

	// BranchOrder maps a decision node to the position of each of its
	// declared outgoing flows, in authored order.
	BranchOrder map[string]map[string]int

	nodeOrder []string
	flowOrder []string
}

// NodeIDs returns node ids in document order.
func (d *Diagram) NodeIDs() []string {
	return d.nodeOrder
}

// FlowIDs returns flow ids in document order.
func (d *Diagram) FlowIDs() []string {
	return d.flowOrder
}

// NodesOfKind returns the ids of all nodes of kind k in document order.
func (d *Diagram) NodesOfKind(k Kind) []string {
	ids := []string{}
	for _, id := range d.nodeOrder {
		if d.Nodes[id].Kind == k {
			ids = append(ids, id)
		}
	}
	return ids
}


package bpmn

// Kind classifies a diagram node by its normative role.
type Kind string

const (
	KindEntry      Kind = "entry"
	KindExit       Kind = "exit"
	KindDecision   Kind = "decision"
	KindObligation Kind = "obligation"
	KindOther      Kind = "other"
)

// Kept reports whether nodes of this kind survive graph reduction.
func (k Kind) Kept() bool {
	return k == KindEntry || k == KindExit || k == KindDecision
}

// elementKinds maps BPMN element local names to node kinds.
// Elements absent from this table are not flow nodes and are skipped.
var elementKinds = map[string]Kind{
	"startEvent":       KindEntry,
	"endEvent":         KindExit,
	"exclusiveGateway": KindDecision,

	"task":             KindObligation,
	"userTask":         KindObligation,
	"serviceTask":      KindObligation,
	"manualTask":       KindObligation,
	"scriptTask":       KindObligation,
	"businessRuleTask": KindObligation,
	"sendTask":         KindObligation,
	"receiveTask":      KindObligation,

	"parallelGateway":        KindOther,
	"inclusiveGateway":       KindOther,
	"eventBasedGateway":      KindOther,
	"complexGateway":         KindOther,
	"intermediateCatchEvent": KindOther,
	"intermediateThrowEvent": KindOther,
	"boundaryEvent":          KindOther,
	"subProcess":             KindOther,
	"adHocSubProcess":        KindOther,
	"transaction":            KindOther,
	"callActivity":           KindOther,
}

// KindOf returns the kind of a BPMN element by local name.
func KindOf(element string) (Kind, bool) {
	k, ok := elementKinds[element]
	return k, ok
}

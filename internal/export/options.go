package export

// Options controls the ontology and LegalRuleML renderers.
type Options struct {
	// BaseIRI prefixes every property, variable and rule IRI.
	BaseIRI string

	// TaskPredicate is the data property that relates an actor to the name
	// of an obligatory action.
	TaskPredicate string
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		BaseIRI:       "http://example.org/bpmn2rules",
		TaskPredicate: "task",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.BaseIRI == "" {
		o.BaseIRI = def.BaseIRI
	}
	if o.TaskPredicate == "" {
		o.TaskPredicate = def.TaskPredicate
	}
	return o
}

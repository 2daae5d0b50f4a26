package compiler

import (
	"io"
	"log/slog"
)

// BranchPolicy decides how decision branches whose label is neither the
// affirmative nor the negative label are treated.
type BranchPolicy string

const (
	// BranchLenient drops the condition and records a warning.
	BranchLenient BranchPolicy = "lenient"
	// BranchStrict fails compilation.
	BranchStrict BranchPolicy = "strict"
)

// ObligationFreePolicy decides what happens to scenarios without actions.
type ObligationFreePolicy string

const (
	// ObligationFreeEmit emits a vacuous rule ("no obligation").
	ObligationFreeEmit ObligationFreePolicy = "emit"
	// ObligationFreeSuppress emits no rule and records the scenario index.
	ObligationFreeSuppress ObligationFreePolicy = "suppress"
)

// Options controls rule synthesis.
type Options struct {
	AffirmativeLabel string
	NegativeLabel    string
	PlaceholderActor string
	BranchLabels     BranchPolicy
	ObligationFree   ObligationFreePolicy

	// CollectPaths keeps the edge list of every scenario in Result.Paths.
	// Disable it on diagrams with very many scenarios; rules and precedence
	// are identical either way.
	CollectPaths bool

	Logger *slog.Logger
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		AffirmativeLabel: "Yes",
		NegativeLabel:    "No",
		PlaceholderActor: "x",
		BranchLabels:     BranchLenient,
		ObligationFree:   ObligationFreeEmit,
		CollectPaths:     true,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withDefaults fills zero-valued fields.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.AffirmativeLabel == "" {
		o.AffirmativeLabel = d.AffirmativeLabel
	}
	if o.NegativeLabel == "" {
		o.NegativeLabel = d.NegativeLabel
	}
	if o.PlaceholderActor == "" {
		o.PlaceholderActor = d.PlaceholderActor
	}
	if o.BranchLabels == "" {
		o.BranchLabels = d.BranchLabels
	}
	if o.ObligationFree == "" {
		o.ObligationFree = d.ObligationFree
	}
	return o
}

// Package config loads compilation and export options from YAML or CUE.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/export"
)

//go:embed schema.cue
var schemaSource string

// Config holds every user-tunable option.
type Config struct {
	AffirmativeLabel string `json:"affirmative_label" yaml:"affirmative_label"`
	NegativeLabel    string `json:"negative_label" yaml:"negative_label"`
	PlaceholderActor string `json:"placeholder_actor" yaml:"placeholder_actor"`
	BranchLabels     string `json:"branch_labels" yaml:"branch_labels"`
	ObligationFree   string `json:"obligation_free" yaml:"obligation_free"`
	CollectPaths     bool   `json:"collect_paths" yaml:"collect_paths"`
	BaseIRI          string `json:"base_iri" yaml:"base_iri"`
	TaskPredicate    string `json:"task_predicate" yaml:"task_predicate"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AffirmativeLabel: "Yes",
		NegativeLabel:    "No",
		PlaceholderActor: "x",
		BranchLabels:     string(compiler.BranchLenient),
		ObligationFree:   string(compiler.ObligationFreeEmit),
		CollectPaths:     true,
		BaseIRI:          "http://example.org/bpmn2rules",
		TaskPredicate:    "task",
	}
}

// Error reports an invalid configuration value.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var symbolPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the same constraints the CUE schema states.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, field, msg string) {
		if !ok {
			errs = append(errs, &Error{Field: field, Message: msg})
		}
	}
	check(c.AffirmativeLabel != "", "affirmative_label", "must be non-empty")
	check(c.NegativeLabel != "", "negative_label", "must be non-empty")
	check(c.AffirmativeLabel != c.NegativeLabel, "negative_label", "must differ from affirmative_label")
	check(symbolPattern.MatchString(c.PlaceholderActor), "placeholder_actor", "must be a symbol")
	check(c.BranchLabels == string(compiler.BranchLenient) || c.BranchLabels == string(compiler.BranchStrict),
		"branch_labels", `must be "lenient" or "strict"`)
	check(c.ObligationFree == string(compiler.ObligationFreeEmit) || c.ObligationFree == string(compiler.ObligationFreeSuppress),
		"obligation_free", `must be "emit" or "suppress"`)
	check(c.BaseIRI != "", "base_iri", "must be non-empty")
	check(symbolPattern.MatchString(c.TaskPredicate), "task_predicate", "must be a symbol")
	return errors.Join(errs...)
}

// CompilerOptions converts the configuration to compiler options.
func (c Config) CompilerOptions() compiler.Options {
	return compiler.Options{
		AffirmativeLabel: c.AffirmativeLabel,
		NegativeLabel:    c.NegativeLabel,
		PlaceholderActor: c.PlaceholderActor,
		BranchLabels:     compiler.BranchPolicy(c.BranchLabels),
		ObligationFree:   compiler.ObligationFreePolicy(c.ObligationFree),
		CollectPaths:     c.CollectPaths,
	}
}

// ExportOptions converts the configuration to ontology and LegalRuleML
// renderer options.
func (c Config) ExportOptions() export.Options {
	return export.Options{BaseIRI: c.BaseIRI, TaskPredicate: c.TaskPredicate}
}

// Load reads a configuration file. Files ending in .cue are unified with
// the embedded schema; .yaml and .yml files are decoded strictly over the
// defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	switch filepath.Ext(path) {
	case ".cue":
		return ParseCUE(path, data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config format %q (want .cue, .yaml or .yml)", filepath.Ext(path))
	}
}

// ParseYAML decodes YAML over the defaults, rejecting unknown fields.
func ParseYAML(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseCUE unifies CUE source with the #Config schema and decodes the
// concrete result. filename is used in error positions only.
func ParseCUE(filename string, data []byte) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("config schema: %w", err)
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// formatCUEError keeps the first CUE error with its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	e := &Error{Field: "cue", Message: first.Error()}
	if path := first.Path(); len(path) > 0 {
		e.Field = path[len(path)-1]
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}

package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roach88/deonto/internal/ir"
)

//go:embed ruleset.schema.json
var ruleSetSchema string

const ruleSetSchemaURL = "https://deonto.local/schemas/ruleset.schema.json"

// Document is the JSON form of a compiled rule set.
type Document struct {
	IRVersion       string          `json:"ir_version"`
	CompilerVersion string          `json:"compiler_version"`
	SourceHash      string          `json:"source_hash,omitempty"`
	Digest          string          `json:"digest"`
	Rules           []ir.Rule       `json:"rules"`
	Precedence      []ir.Precedence `json:"precedence"`
	Suppressed      []int           `json:"suppressed,omitempty"`
}

// NewDocument wraps a rule set with its digest and versions. Nil slices
// become empty arrays.
func NewDocument(rs ir.RuleSet) (Document, error) {
	digest, err := rs.Digest()
	if err != nil {
		return Document{}, err
	}
	doc := Document{
		IRVersion:       ir.IRVersion,
		CompilerVersion: ir.CompilerVersion,
		Digest:          digest,
		Rules:           make([]ir.Rule, len(rs.Rules)),
		Precedence:      rs.Precedence,
	}
	for i, r := range rs.Rules {
		if r.Conditions == nil {
			r.Conditions = []ir.Condition{}
		}
		if r.Actions == nil {
			r.Actions = []ir.Action{}
		}
		doc.Rules[i] = r
	}
	if doc.Precedence == nil {
		doc.Precedence = []ir.Precedence{}
	}
	return doc, nil
}

// JSON renders the rule set document with two-space indentation and a
// trailing newline.
func JSON(rs ir.RuleSet) ([]byte, error) {
	doc, err := NewDocument(rs)
	if err != nil {
		return nil, err
	}
	return MarshalDocument(doc)
}

// MarshalDocument renders doc without HTML escaping.
func MarshalDocument(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode rule set document: %w", err)
	}
	return buf.Bytes(), nil
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(ruleSetSchemaURL, bytes.NewReader([]byte(ruleSetSchema))); err != nil {
		return nil, fmt.Errorf("rule set schema load failed: %w", err)
	}
	return c.Compile(ruleSetSchemaURL)
})

// ValidateJSON checks a rule set document against the embedded schema.
func ValidateJSON(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("rule set document is not JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("rule set document invalid: %w", err)
	}
	return nil
}

// ParseJSON validates data and decodes it into a Document.
func ParseJSON(data []byte) (Document, error) {
	if err := ValidateJSON(data); err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode rule set document: %w", err)
	}
	return doc, nil
}

// RuleSet returns the rule set carried by the document.
func (d Document) RuleSet() ir.RuleSet {
	return ir.RuleSet{Rules: d.Rules, Precedence: d.Precedence}
}

package export

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/ir"
	"github.com/roach88/deonto/internal/testutil"
)

func aiContentRuleSet() ir.RuleSet {
	return ir.RuleSet{
		Rules: []ir.Rule{
			{
				ID:         "r1",
				Conditions: []ir.Condition{{Actor: "AIsystem", Predicate: "generatesContent", Value: true}},
				Actions:    []ir.Action{{Actor: "AIprovider", Name: "markContent"}},
			},
			{
				ID:         "r2",
				Conditions: []ir.Condition{{Actor: "AIsystem", Predicate: "generatesContent", Value: false}},
				Actions:    []ir.Action{{Actor: "AIprovider", Name: "none"}},
			},
		},
		Precedence: []ir.Precedence{{Superior: "r1", Inferior: "r2"}},
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestGolden_AIContent(t *testing.T) {
	rs := aiContentRuleSet()
	g := newGoldie(t)

	g.Assert(t, "ai_content.ddl", []byte(DDLDocument(rs)))
	g.Assert(t, "ai_content.owl", []byte(OWL(rs, DefaultOptions())))
	g.Assert(t, "ai_content.lrml", []byte(LegalRuleML(rs, DefaultOptions())))
}

func TestGolden_CompiledMatchesHandBuilt(t *testing.T) {
	res, err := compiler.Compile(context.Background(), testutil.AIContentDiagram(), compiler.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.RuleSet.Equal(aiContentRuleSet()))
}

func TestDDL(t *testing.T) {
	tests := []struct {
		name string
		rule ir.Rule
		want string
	}{
		{
			name: "no conditions",
			rule: ir.Rule{ID: "r1", Actions: []ir.Action{{Actor: "AIprovider", Name: "markContent"}}},
			want: "r1: true => O(AIprovider_markContent).",
		},
		{
			name: "no actions",
			rule: ir.Rule{ID: "r2", Conditions: []ir.Condition{{Actor: "user", Predicate: "consents", Value: true}}},
			want: "r2: user_consents => " + NoObligation + ".",
		},
		{
			name: "several of each",
			rule: ir.Rule{
				ID: "r3",
				Conditions: []ir.Condition{
					{Actor: "a", Predicate: "p", Value: true},
					{Actor: "b", Predicate: "q", Value: false},
				},
				Actions: []ir.Action{
					{Actor: "c", Name: "doX"},
					{Actor: "d", Name: "doY"},
				},
			},
			want: "r3: a_p, not b_q => O(c_doX) & O(d_doY).",
		},
		{
			name: "punctuation is stripped from atoms",
			rule: ir.Rule{
				ID:         "r4",
				Conditions: []ir.Condition{{Actor: "x", Predicate: "high-risk", Value: true}},
				Actions:    []ir.Action{{Actor: "x", Name: "report!"}},
			},
			want: "r4: x_highrisk => O(x_report).",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DDL(tt.rule))
		})
	}
}

func TestDDLDocument_Empty(t *testing.T) {
	assert.Equal(t, "% RULES\n\n% SUPERIORITY\n", DDLDocument(ir.RuleSet{}))
}

func TestOWL_EmptyListsAreNil(t *testing.T) {
	rs := ir.RuleSet{Rules: []ir.Rule{{ID: "r1"}}}
	out := OWL(rs, Options{})

	assert.Equal(t, 2, strings.Count(out, `<rdf:Description rdf:about="`+rdfNil+`"/>`))
	assert.Contains(t, out, `<owl:DatatypeProperty rdf:about="http://example.org/bpmn2rules#task"/>`)
	assert.NotContains(t, out, "swrl:Variable")
}

func TestOWL_LongListsNest(t *testing.T) {
	rs := ir.RuleSet{Rules: []ir.Rule{{
		ID: "r1",
		Conditions: []ir.Condition{
			{Actor: "a", Predicate: "p", Value: true},
			{Actor: "b", Predicate: "q", Value: false},
			{Actor: "c", Predicate: "r", Value: true},
		},
	}}}
	out := OWL(rs, Options{BaseIRI: "urn:test", TaskPredicate: "mustDo"})

	assert.Equal(t, 3, strings.Count(out, "<swrl:AtomList>"))
	assert.Equal(t, 2, strings.Count(out, "<rdf:rest>"))
	assert.Equal(t, 1, strings.Count(out, `<rdf:rest rdf:resource="`+rdfNil+`"/>`))
	assert.Contains(t, out, `<owl:DatatypeProperty rdf:about="urn:test#mustDo"/>`)
	assert.Contains(t, out, `<swrl:Variable rdf:about="urn:test#var_c"/>`)
}

func TestOWL_EscapesMarkup(t *testing.T) {
	rs := ir.RuleSet{Rules: []ir.Rule{{
		ID:      "r1",
		Actions: []ir.Action{{Actor: "x", Name: `a<b&"c"`}},
	}}}
	out := OWL(rs, DefaultOptions())
	assert.Contains(t, out, ">a&lt;b&amp;&#34;c&#34;</swrl:argument2>")
}

func TestLegalRuleML_VacuousRule(t *testing.T) {
	rs := ir.RuleSet{
		Rules:      []ir.Rule{{ID: "r1"}, {ID: "r2"}},
		Precedence: []ir.Precedence{{Superior: "r1", Inferior: "r2"}},
	}
	out := LegalRuleML(rs, DefaultOptions())

	assert.NotContains(t, out, "<ruleml:if>")
	assert.NotContains(t, out, "<ruleml:then>")
	assert.Equal(t, 2, strings.Count(out, "<lrml:PrescriptiveStatement"))
	assert.Contains(t, out, `<lrml:Override over="#r1" under="#r2"/>`)
}

func TestLegalRuleML_Conjunction(t *testing.T) {
	rs := ir.RuleSet{Rules: []ir.Rule{{
		ID: "r1",
		Conditions: []ir.Condition{
			{Actor: "a", Predicate: "p", Value: true},
			{Actor: "b", Predicate: "q", Value: false},
		},
		Actions: []ir.Action{{Actor: "c", Name: "doX"}},
	}}}
	out := LegalRuleML(rs, DefaultOptions())

	assert.Equal(t, 1, strings.Count(out, "<ruleml:And>"))
	assert.Equal(t, 3, strings.Count(out, "<ruleml:Atom>"))
}

func TestStatementKey(t *testing.T) {
	assert.Equal(t, "r1", statementKey("r1"))
	assert.Equal(t, "rule_1", statementKey("rule 1"))
	assert.Equal(t, "unnamed", statementKey(""))
}

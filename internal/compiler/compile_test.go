package compiler

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deonto/internal/testutil"
)

func TestCompile_AIContentDiagram(t *testing.T) {
	res, err := Compile(context.Background(), testutil.AIContentDiagram(), DefaultOptions())
	require.NoError(t, err)

	assert.Len(t, res.Graph.Edges, 3)
	assert.Equal(t, 2, res.ScenarioCount)
	require.Len(t, res.RuleSet.Rules, 2)
	assert.Len(t, res.RuleSet.Precedence, 1)
}

func TestCompile_MalformedInput(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"no process", `<definitions><collaboration id="C"/></definitions>`},
		{"not xml", `this is not a diagram`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(context.Background(), []byte(tt.xml), DefaultOptions())
			require.Error(t, err)
			assert.True(t, IsMalformedInput(err))
			assert.False(t, IsStructuralError(err))
			assert.Equal(t, CodeMalformedInput, CodeOf(err))
		})
	}
}

func TestCompile_StructuralErrorBeforeAnyRule(t *testing.T) {
	res, err := Compile(context.Background(),
		testutil.NewDiagram("P").Start("A").Start("B").End("E").XML(),
		DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsStructuralError(err))
	assert.Equal(t, CodeStructuralError, CodeOf(err))
}

func TestCodeOf_OtherErrors(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, CodeUnrecognizedBranch, CodeOf(fmt.Errorf("wrapped: %w", &Error{Code: CodeUnrecognizedBranch})))
}

func TestCompile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compile(ctx, testutil.AIContentDiagram(), DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompile_Deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("same diagram compiles to the same digest", prop.ForAll(
		func(gateways int, label string) bool {
			data := chainDiagram(gateways, label)
			a, errA := Compile(context.Background(), data, DefaultOptions())
			b, errB := Compile(context.Background(), data, DefaultOptions())
			if errA != nil || errB != nil {
				return false
			}
			return a.RuleSet.MustDigest() == b.RuleSet.MustDigest() &&
				len(a.RuleSet.Rules) == gateways+1
		},
		gen.IntRange(1, 6),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// chainDiagram builds n gateways in a chain; each No branch exits through
// its own task, the last Yes branch exits directly. It has n+1 scenarios.
func chainDiagram(n int, label string) []byte {
	b := testutil.NewDiagram("Chain").Start("S")
	prev := "S"
	for i := 1; i <= n; i++ {
		gw := fmt.Sprintf("G%d", i)
		task := fmt.Sprintf("T%d", i)
		end := fmt.Sprintf("E%d", i)
		in := ""
		if i > 1 {
			in = "Yes"
		}
		b.Gateway(gw, fmt.Sprintf("actor%d %s%d?", i, label, i)).
			Task(task, fmt.Sprintf("actor%d handle%d", i, i)).
			End(end).
			Flow(fmt.Sprintf("F%d_in", i), prev, gw, in)
		b.Flow(fmt.Sprintf("F%d_no", i), gw, task, "No").
			Flow(fmt.Sprintf("F%d_done", i), task, end, "")
		prev = gw
	}
	b.End("E_final").Flow("F_final", prev, "E_final", "Yes")
	return b.XML()
}

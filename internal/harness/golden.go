package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario and compares its DDL document with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check assertions too. A scenario whose
// compilation fails has no DDL and is not compared.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if result.ErrorCode == "" {
		AssertGolden(t, scenario.Name, result)
	}
	return result, nil
}

// AssertGolden compares a result's DDL document with a golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.DDL))
}

// CheckGolden compares a result's DDL document with the file at path.
func CheckGolden(path string, result *Result) error {
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, []byte(result.DDL)) {
		return &AssertionError{
			Type:     "golden",
			Expected: fmt.Sprintf("DDL document of %s", path),
			Actual:   "a different document",
			DDL:      result.DDL,
		}
	}
	return nil
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/config"
	"github.com/roach88/deonto/internal/testutil"
)

// createTestStore creates a new store in a temp directory with sequential ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDGenerator("run")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// compileTestRun compiles source under cfg into a storable run.
func compileTestRun(t *testing.T, name string, source []byte, cfg config.Config) Compilation {
	t.Helper()
	res, err := compiler.Compile(context.Background(), source, cfg.CompilerOptions())
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	return Compilation{
		SourceName:    name,
		Source:        source,
		Config:        cfg,
		RuleSet:       res.RuleSet,
		ScenarioCount: res.ScenarioCount,
	}
}

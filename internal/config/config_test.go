package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/export"
)

func TestDefaultMatchesCompilerDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	opts := cfg.CompilerOptions()
	want := compiler.DefaultOptions()
	assert.Equal(t, want.AffirmativeLabel, opts.AffirmativeLabel)
	assert.Equal(t, want.NegativeLabel, opts.NegativeLabel)
	assert.Equal(t, want.PlaceholderActor, opts.PlaceholderActor)
	assert.Equal(t, want.BranchLabels, opts.BranchLabels)
	assert.Equal(t, want.ObligationFree, opts.ObligationFree)
	assert.Equal(t, want.CollectPaths, opts.CollectPaths)
}

func TestDefaultMatchesExportDefaults(t *testing.T) {
	assert.Equal(t, export.DefaultOptions(), Default().ExportOptions())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_CUEAndYAMLAgree(t *testing.T) {
	fromCUE, err := Load("testdata/strict.cue")
	require.NoError(t, err)
	fromYAML, err := Load("testdata/strict.yaml")
	require.NoError(t, err)

	assert.Equal(t, fromCUE, fromYAML)
	assert.Equal(t, "Ja", fromCUE.AffirmativeLabel)
	assert.Equal(t, "strict", fromCUE.BranchLabels)
	assert.Equal(t, "suppress", fromCUE.ObligationFree)
	assert.True(t, fromCUE.CollectPaths, "unset fields keep defaults")
	assert.Equal(t, "http://example.org/bpmn2rules", fromCUE.BaseIRI)
}

func TestParseCUE_Defaults(t *testing.T) {
	cfg, err := ParseCUE("empty.cue", []byte(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseCUE_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"unknown field", `colour: "red"`, "colour"},
		{"bad enum", `branch_labels: "loose"`, "branch_labels"},
		{"bad symbol", `placeholder_actor: "two words"`, "placeholder_actor"},
		{"wrong type", `collect_paths: "yes"`, "collect_paths"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE("bad.cue", []byte(tt.src))
			require.Error(t, err)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestParseCUE_SyntaxErrorHasPosition(t *testing.T) {
	_, err := ParseCUE("broken.cue", []byte("branch_labels: \n  : :"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.cue:")
}

func TestParseYAML_RejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte("colour: red\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestParseYAML_Validates(t *testing.T) {
	_, err := ParseYAML([]byte("affirmative_label: Yes\nnegative_label: Yes\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")

	_, err = ParseYAML([]byte("task_predicate: has task\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task_predicate")
}

func TestParseYAML_CollectPathsCanBeDisabled(t *testing.T) {
	cfg, err := ParseYAML([]byte("collect_paths: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.CollectPaths)
	assert.False(t, cfg.CompilerOptions().CollectPaths)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

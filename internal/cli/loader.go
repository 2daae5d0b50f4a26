package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/deonto/internal/bpmn"
	"github.com/roach88/deonto/internal/compiler"
	"github.com/roach88/deonto/internal/config"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Invalid configuration file
	ErrCodeMalformed   = "E003" // Diagram has no readable process
	ErrCodeReadFailed  = "E004" // File read error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStructural  = "E006" // Entry/exit structure violated
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBranch      = "E008" // Unrecognized branch label (strict policy)
	ErrCodeStore       = "E009" // Compilation store error
	ErrCodeRuleSet     = "E010" // JSON rule-set document invalid
	ErrCodeFacts       = "E011" // Invalid fact assignment

	ErrCodeDeterminism = "E_DETERMINISM" // Replay produced a different digest
	ErrCodeDiagnostics = "E_DIAGNOSTICS" // validate --strict found warnings
	ErrCodeScenarios   = "E_SCENARIOS"   // Harness scenarios failed
)

// LoadError represents an error that occurred while reading inputs.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadedDiagram is a parsed diagram together with the configuration it is
// compiled under.
type LoadedDiagram struct {
	Path    string
	Source  []byte
	Diagram *bpmn.Diagram
	Config  config.Config
}

// Name is the file name of the diagram.
func (l *LoadedDiagram) Name() string {
	return filepath.Base(l.Path)
}

// Stem is the file name without its extension, used to name exported files.
func (l *LoadedDiagram) Stem() string {
	name := l.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// CompilerOptions returns the configured compiler options with logger set.
func (l *LoadedDiagram) CompilerOptions(logger *slog.Logger) compiler.Options {
	opts := l.Config.CompilerOptions()
	opts.Logger = logger
	return opts
}

// Compile runs the full pipeline over the loaded source.
func (l *LoadedDiagram) Compile(ctx context.Context, logger *slog.Logger) (*compiler.Result, error) {
	return compiler.Compile(ctx, l.Source, l.CompilerOptions(logger))
}

// LoadConfig loads a configuration file; an empty path yields defaults.
func LoadConfig(path string) (config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Config{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path), Err: err}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, &LoadError{Code: ErrCodeConfig, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// LoadDiagram reads and parses a diagram and loads its configuration.
func LoadDiagram(path, configPath string) (*LoadedDiagram, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("diagram not found: %s", path), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("error accessing diagram: %v", err), Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("not a file: %s", path)}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading diagram: %v", err), Err: err}
	}

	d, err := bpmn.Parse(source)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeMalformed, Message: err.Error(), Err: err}
	}

	return &LoadedDiagram{Path: path, Source: source, Diagram: d, Config: cfg}, nil
}

// errorCode maps an error to a CLI error code and message.
func errorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	switch {
	case compiler.IsMalformedInput(err):
		return ErrCodeMalformed, err.Error()
	case compiler.IsStructuralError(err):
		return ErrCodeStructural, err.Error()
	case compiler.IsUnrecognizedBranch(err):
		return ErrCodeBranch, err.Error()
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return ErrCodeConfig, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/deonto/internal/config"
	"github.com/roach88/deonto/internal/ir"
)

// Compilation is one recorded compiler run.
type Compilation struct {
	ID              string        `json:"id"`
	Seq             int64         `json:"seq"`
	SourceName      string        `json:"source_name"`
	SourceHash      string        `json:"source_hash"`
	Source          []byte        `json:"-"`
	Config          config.Config `json:"config"`
	RuleSet         ir.RuleSet    `json:"rule_set"`
	Digest          string        `json:"digest"`
	ScenarioCount   int           `json:"scenario_count"`
	CompilerVersion string        `json:"compiler_version"`
	IRVersion       string        `json:"ir_version"`
}

// WriteCompilation records a run and returns its id.
//
// ID, SourceHash, Digest and the version fields are filled in when empty.
// The run, its rules and its precedence chain are written in one
// transaction; a failure leaves no partial run behind.
func (s *Store) WriteCompilation(ctx context.Context, c Compilation) (string, error) {
	if c.ID == "" {
		c.ID = s.idGen.Generate()
	}
	if c.SourceHash == "" {
		c.SourceHash = ir.SourceHash(c.Source)
	}
	if c.Digest == "" {
		d, err := c.RuleSet.Digest()
		if err != nil {
			return "", fmt.Errorf("digest rule set: %w", err)
		}
		c.Digest = d
	}
	if c.CompilerVersion == "" {
		c.CompilerVersion = ir.CompilerVersion
	}
	if c.IRVersion == "" {
		c.IRVersion = ir.IRVersion
	}
	if c.Source == nil {
		c.Source = []byte{}
	}

	cfg, err := json.Marshal(c.Config)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compilations (
			id, source_name, source_hash, source, config,
			digest, scenario_count, compiler_version, ir_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.SourceName, c.SourceHash, c.Source, string(cfg),
		c.Digest, c.ScenarioCount, c.CompilerVersion, c.IRVersion)
	if err != nil {
		return "", fmt.Errorf("insert compilation %s: %w", c.ID, err)
	}

	for i, r := range c.RuleSet.Rules {
		if err := insertRule(ctx, tx, c.ID, i, r); err != nil {
			return "", err
		}
	}

	for i, p := range c.RuleSet.Precedence {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO precedence (compilation_id, position, superior, inferior)
			VALUES (?, ?, ?, ?)
		`, c.ID, i, p.Superior, p.Inferior)
		if err != nil {
			return "", fmt.Errorf("insert precedence %s > %s: %w", p.Superior, p.Inferior, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit compilation %s: %w", c.ID, err)
	}
	return c.ID, nil
}

func insertRule(ctx context.Context, tx *sql.Tx, compilationID string, position int, r ir.Rule) error {
	conds := make([]any, len(r.Conditions))
	for i, cond := range r.Conditions {
		conds[i] = cond
	}
	condJSON, err := ir.MarshalCanonical(conds)
	if err != nil {
		return fmt.Errorf("marshal conditions of %s: %w", r.ID, err)
	}

	acts := make([]any, len(r.Actions))
	for i, a := range r.Actions {
		acts[i] = a
	}
	actJSON, err := ir.MarshalCanonical(acts)
	if err != nil {
		return fmt.Errorf("marshal actions of %s: %w", r.ID, err)
	}

	digest, err := r.Digest()
	if err != nil {
		return fmt.Errorf("digest %s: %w", r.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rules (compilation_id, position, rule_id, conditions, actions, digest)
		VALUES (?, ?, ?, ?, ?, ?)
	`, compilationID, position, r.ID, string(condJSON), string(actJSON), digest)
	if err != nil {
		return fmt.Errorf("insert rule %s: %w", r.ID, err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/deonto/internal/ir"
)

// ListCompilations returns every recorded run in insertion order.
// Rule sets are not loaded; use ReadCompilation for the full record.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListCompilations(ctx context.Context) ([]Compilation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, source_name, source_hash, config, digest,
		       scenario_count, compiler_version, ir_version
		FROM compilations
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	out := []Compilation{}
	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return out, nil
}

// ReadCompilation loads one run with its source and full rule set.
// Returns ErrNotFound if the id is unknown.
func (s *Store) ReadCompilation(ctx context.Context, id string) (Compilation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, source_name, source_hash, config, digest,
		       scenario_count, compiler_version, ir_version
		FROM compilations
		WHERE id = ?
	`, id)
	c, err := scanCompilation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Compilation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Compilation{}, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT source FROM compilations WHERE id = ?`, id,
	).Scan(&c.Source); err != nil {
		return Compilation{}, fmt.Errorf("read source of %s: %w", id, err)
	}

	rules, err := s.readRules(ctx, id)
	if err != nil {
		return Compilation{}, err
	}
	prec, err := s.readPrecedence(ctx, id)
	if err != nil {
		return Compilation{}, err
	}
	c.RuleSet = ir.RuleSet{Rules: rules, Precedence: prec}
	return c, nil
}

// FindBySource returns every run of the diagram with the given source hash,
// in insertion order.
func (s *Store) FindBySource(ctx context.Context, sourceHash string) ([]Compilation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, source_name, source_hash, config, digest,
		       scenario_count, compiler_version, ir_version
		FROM compilations
		WHERE source_hash = ?
		ORDER BY seq ASC
	`, sourceHash)
	if err != nil {
		return nil, fmt.Errorf("query compilations by source: %w", err)
	}
	defer rows.Close()

	out := []Compilation{}
	for rows.Next() {
		c, err := scanCompilation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompilation(row scanner) (Compilation, error) {
	var (
		c   Compilation
		cfg string
	)
	err := row.Scan(&c.Seq, &c.ID, &c.SourceName, &c.SourceHash, &cfg,
		&c.Digest, &c.ScenarioCount, &c.CompilerVersion, &c.IRVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Compilation{}, err
		}
		return Compilation{}, fmt.Errorf("scan compilation: %w", err)
	}
	if err := json.Unmarshal([]byte(cfg), &c.Config); err != nil {
		return Compilation{}, fmt.Errorf("unmarshal config of %s: %w", c.ID, err)
	}
	return c, nil
}

func (s *Store) readRules(ctx context.Context, id string) ([]ir.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, conditions, actions
		FROM rules
		WHERE compilation_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query rules of %s: %w", id, err)
	}
	defer rows.Close()

	rules := []ir.Rule{}
	for rows.Next() {
		var (
			r           ir.Rule
			conds, acts string
		)
		if err := rows.Scan(&r.ID, &conds, &acts); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.Conditions = []ir.Condition{}
		if err := json.Unmarshal([]byte(conds), &r.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshal conditions of %s: %w", r.ID, err)
		}
		r.Actions = []ir.Action{}
		if err := json.Unmarshal([]byte(acts), &r.Actions); err != nil {
			return nil, fmt.Errorf("unmarshal actions of %s: %w", r.ID, err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

func (s *Store) readPrecedence(ctx context.Context, id string) ([]ir.Precedence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT superior, inferior
		FROM precedence
		WHERE compilation_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query precedence of %s: %w", id, err)
	}
	defer rows.Close()

	prec := []ir.Precedence{}
	for rows.Next() {
		var p ir.Precedence
		if err := rows.Scan(&p.Superior, &p.Inferior); err != nil {
			return nil, fmt.Errorf("scan precedence: %w", err)
		}
		prec = append(prec, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate precedence: %w", err)
	}
	return prec, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/roach88/deonto/internal/compiler"
)

// ReplayResult reports whether recompiling a stored run reproduced its digest.
type ReplayResult struct {
	ID            string `json:"id"`
	SourceName    string `json:"source_name"`
	StoredDigest  string `json:"stored_digest"`
	ReplayDigest  string `json:"replay_digest"`
	Deterministic bool   `json:"deterministic"`
	Error         string `json:"error,omitempty"`
}

// Replay recompiles the stored source of run id under its stored
// configuration and compares the rule-set digests.
//
// A compile failure is reported in the result, not returned: a source that
// compiled once and now fails is a determinism violation like any other.
func (s *Store) Replay(ctx context.Context, id string) (ReplayResult, error) {
	c, err := s.ReadCompilation(ctx, id)
	if err != nil {
		return ReplayResult{}, err
	}

	res := ReplayResult{
		ID:           c.ID,
		SourceName:   c.SourceName,
		StoredDigest: c.Digest,
	}

	out, err := compiler.Compile(ctx, c.Source, c.Config.CompilerOptions())
	if err != nil {
		if ctx.Err() != nil {
			return ReplayResult{}, ctx.Err()
		}
		res.Error = err.Error()
		return res, nil
	}

	digest, err := out.RuleSet.Digest()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("digest replayed rule set: %w", err)
	}
	res.ReplayDigest = digest
	res.Deterministic = digest == c.Digest
	return res, nil
}

// ReplayAll replays every stored run in insertion order.
func (s *Store) ReplayAll(ctx context.Context) ([]ReplayResult, error) {
	runs, err := s.ListCompilations(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]ReplayResult, 0, len(runs))
	for _, c := range runs {
		r, err := s.Replay(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", c.ID, err)
		}
		results = append(results, r)
	}
	return results, nil
}

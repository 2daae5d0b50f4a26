package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainRuleSet = "deonto/ruleset/v1"
	DomainRule    = "deonto/rule/v1"
	DomainSource  = "deonto/source/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the content-addressed identity of the rule set.
// Two compilations of the same diagram under the same config produce the
// same digest; the store uses it to detect drift on replay.
func (rs RuleSet) Digest() (string, error) {
	canonical, err := MarshalCanonical(rs)
	if err != nil {
		return "", fmt.Errorf("RuleSet.Digest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// Digest returns the content-addressed identity of a single rule.
func (r Rule) Digest() (string, error) {
	canonical, err := MarshalCanonical(r)
	if err != nil {
		return "", fmt.Errorf("Rule.Digest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRule, canonical), nil
}

// SourceHash identifies diagram markup by content.
func SourceHash(data []byte) string {
	return hashWithDomain(DomainSource, data)
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when the rule set is known to be valid.
func (rs RuleSet) MustDigest() string {
	d, err := rs.Digest()
	if err != nil {
		panic(err)
	}
	return d
}

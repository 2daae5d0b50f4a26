package ir

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing.
// This is the only serialization used for content-addressed identity.
//
// Accepted values: string, bool, int, int64, []any, map[string]any,
// and the ir types (Condition, Action, Rule, Precedence, RuleSet).
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are literal)
//  3. Strings are NFC normalized
//  4. Floats and null are rejected
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		writeCanonicalString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range SortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case Condition, Action, Rule, Precedence, RuleSet:
		return writeCanonical(buf, toValue(val))
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// toValue lowers ir types to the plain value model. Empty slices stay
// empty arrays so an obligation-free rule hashes as "actions":[].
func toValue(v any) any {
	switch val := v.(type) {
	case Condition:
		return map[string]any{"actor": val.Actor, "predicate": val.Predicate, "value": val.Value}
	case Action:
		return map[string]any{"actor": val.Actor, "name": val.Name}
	case Precedence:
		return map[string]any{"superior": val.Superior, "inferior": val.Inferior}
	case Rule:
		conds := make([]any, len(val.Conditions))
		for i, c := range val.Conditions {
			conds[i] = toValue(c)
		}
		acts := make([]any, len(val.Actions))
		for i, a := range val.Actions {
			acts[i] = toValue(a)
		}
		return map[string]any{"id": val.ID, "conditions": conds, "actions": acts}
	case RuleSet:
		rules := make([]any, len(val.Rules))
		for i, r := range val.Rules {
			rules[i] = toValue(r)
		}
		prec := make([]any, len(val.Precedence))
		for i, p := range val.Precedence {
			prec[i] = toValue(p)
		}
		return map[string]any{"rules": rules, "precedence": prec}
	}
	return v
}

// writeCanonicalString writes a JSON string per RFC 8785 section 3.2.2.2:
// only quote, backslash and C0 controls are escaped; U+2028/U+2029 and
// HTML-significant characters are literal.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// SortedKeys returns map keys in RFC 8785 order (UTF-16 code units).
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// NormalizationPolicy decides which edits count as real content changes.
// What Appian considers semantically insignificant is not pinned down
// anywhere, so this stays a configurable policy instead of a hard-coded
// guess. The default treats trailing whitespace as noise and everything else
// as signal.
type NormalizationPolicy struct {
	TrimTrailingWhitespace  bool
	CollapseInnerWhitespace bool
	FoldCase                bool
}

func DefaultNormalizationPolicy() NormalizationPolicy {
	return NormalizationPolicy{TrimTrailingWhitespace: true}
}

// Normalize applies the policy to one serialized content body.
func (p NormalizationPolicy) Normalize(content string) string {
	if p.FoldCase {
		content = strings.ToLower(content)
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if p.TrimTrailingWhitespace {
			line = strings.TrimRight(line, " \t\r")
		}
		if p.CollapseInnerWhitespace {
			line = strings.Join(strings.Fields(line), " ")
		}
		lines[i] = line
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// ContentHash fingerprints normalized serialized content together with the
// canonicalized structured fields. Equal hashes mean "no detectable change"
// even when the version token moved.
func (p NormalizationPolicy) ContentHash(serialized string, structured map[string]any) string {
	h := sha256.New()
	h.Write([]byte(p.Normalize(serialized)))
	h.Write([]byte{0})
	h.Write(canonicalJSON(structured))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON renders a map with sorted keys so hashing is stable across
// marshal orderings.
func canonicalJSON(v any) []byte {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			b.Write(kb)
			b.WriteByte(':')
			b.Write(canonicalJSON(t[k]))
		}
		b.WriteByte('}')
		return []byte(b.String())
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			b.Write(canonicalJSON(e))
		}
		b.WriteByte(']')
		return []byte(b.String())
	default:
		raw, _ := json.Marshal(t)
		return raw
	}
}

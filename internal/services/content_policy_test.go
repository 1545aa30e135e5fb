package services

import "testing"

func TestContentHashIgnoresTrailingWhitespace(t *testing.T) {
	p := DefaultNormalizationPolicy()

	a := p.ContentHash("a!save(local!x, 1)\nrule!format(local!x)", nil)
	b := p.ContentHash("a!save(local!x, 1)   \nrule!format(local!x)\t\r\n", nil)
	if a != b {
		t.Fatal("trailing whitespace changed the hash")
	}

	c := p.ContentHash("a!save(local!x, 2)\nrule!format(local!x)", nil)
	if a == c {
		t.Fatal("a real edit did not change the hash")
	}
}

func TestContentHashStructuredFieldOrder(t *testing.T) {
	p := DefaultNormalizationPolicy()

	a := p.ContentHash("body", map[string]any{"name": "x", "type": "int", "nested": map[string]any{"a": 1, "b": 2}})
	b := p.ContentHash("body", map[string]any{"type": "int", "nested": map[string]any{"b": 2, "a": 1}, "name": "x"})
	if a != b {
		t.Fatal("map iteration order changed the hash")
	}

	c := p.ContentHash("body", map[string]any{"name": "x", "type": "text"})
	if a == c {
		t.Fatal("structured field change did not change the hash")
	}
}

func TestNormalizePolicyKnobs(t *testing.T) {
	aggressive := NormalizationPolicy{
		TrimTrailingWhitespace:  true,
		CollapseInnerWhitespace: true,
		FoldCase:                true,
	}
	if aggressive.Normalize("A   B \nC") != "a b\nc" {
		t.Fatalf("aggressive normalize = %q", aggressive.Normalize("A   B \nC"))
	}

	strict := NormalizationPolicy{}
	if strict.ContentHash("a ", nil) == strict.ContentHash("a", nil) {
		t.Fatal("strict policy should see trailing whitespace")
	}
}

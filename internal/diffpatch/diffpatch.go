// Package diffpatch produces unified patches (---/+++ headers, @@ hunks) for
// serialized object content, with a size guardrail for pathological inputs.
package diffpatch

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// MaxBytes caps old+new input size. Above it the patch is replaced with a
// placeholder rather than burning memory on a diff nobody will read inline.
const MaxBytes = 2 << 20

// Unified renders a classic unified patch for before -> after.
func Unified(beforeName, afterName, before, after string) string {
	if len(before)+len(after) > MaxBytes {
		return omitted(beforeName, afterName)
	}
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + beforeName,
		ToFile:   "b/" + afterName,
		Context:  4,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted(beforeName, afterName)
	}
	return s
}

func omitted(beforeName, afterName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", beforeName)
	fmt.Fprintf(&b, "+++ b/%s\n", afterName)
	b.WriteString("@@ patch omitted: content too large @@\n")
	return b.String()
}

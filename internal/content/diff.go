package content

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Equal reports whether two trees hold the same content. Empty and absent
// containers compare equal.
func Equal(a, b any) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// Diff renders a human-readable diff from before to after ("-" removed,
// "+" added). It returns "" when the trees are equal.
func Diff(before, after any) string {
	return cmp.Diff(before, after, cmpopts.EquateEmpty())
}

package writeback

import (
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// FormatPage renders a content tree as indented JSON with sorted object
// keys, so exports of the same tree are byte-identical.
func FormatPage(content any) []byte {
	out := oj.JSON(content, &ojg.Options{Indent: 2, Sort: true})
	return []byte(out + "\n")
}

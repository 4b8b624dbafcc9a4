// Package slug derives URL-safe identifiers from display names and resolves
// collisions against an external existence check.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxAttempts bounds collision resolution when the store keeps
// reporting every candidate as taken.
const DefaultMaxAttempts = 1000

var (
	ErrExhausted = errors.New("slug: exhausted attempts")
	ErrEmpty     = errors.New("slug: no slug-safe characters in title")
)

// Slugify lowercases s, folds accents, turns whitespace runs into single
// hyphens, spells "&" as "and", drops anything that is not a letter, digit or
// hyphen and collapses repeated hyphens. Latin letters with no decomposition
// (ø, ß, ł) are transliterated; letters of other scripts are kept as is.
//
//	Slugify("Amara & Co.  Studio") == "amara-and-co-studio"
func Slugify(s string) string {
	s = strings.TrimSpace(strings.ToLower(fold(s)))

	var b strings.Builder
	b.Grow(len(s))
	hyphen := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
			b.WriteByte('-')
		}
	}
	for _, r := range s {
		if t, ok := latin[r]; ok {
			b.WriteString(t)
			continue
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '&':
			hyphen()
			b.WriteString("and")
			hyphen()
		case r == '-' || unicode.IsSpace(r):
			hyphen()
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// latin spells lowercase Latin letters that NFD leaves intact.
var latin = map[rune]string{
	'ø': "o",
	'ß': "ss",
	'ł': "l",
	'đ': "d",
	'ð': "d",
	'þ': "th",
	'æ': "ae",
	'œ': "oe",
	'ı': "i",
	'ŋ': "ng",
	'ɛ': "e",
	'ɔ': "o",
	'ɓ': "b",
	'ɗ': "d",
	'ƙ': "k",
	'ƴ': "y",
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ExistsFunc reports whether slug is already used. It is typically a store
// lookup and may fail; failures are never read as "free".
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Generator resolves unique slugs against an ExistsFunc.
type Generator struct {
	exists      ExistsFunc
	maxAttempts int
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxAttempts caps the number of candidates checked. n <= 0 keeps the
// default.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func New(exists ExistsFunc, opts ...Option) *Generator {
	g := &Generator{exists: exists, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the first free candidate among base, base-1, base-2, ...
// where base is Slugify(title). Candidates are checked one at a time.
// Errors from the existence check and context cancellation are returned as
// is, with an empty slug.
func (g *Generator) Generate(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		return "", fmt.Errorf("%w: %q", ErrEmpty, title)
	}
	return g.Resolve(ctx, base)
}

// Resolve is Generate for an already normalized base slug.
func (g *Generator) Resolve(ctx context.Context, base string) (string, error) {
	candidate := base
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := g.exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt+1)
	}
	return "", fmt.Errorf("%w: %q after %d candidates", ErrExhausted, base, g.maxAttempts)
}

package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Segment is one step of a Path: either a Key or an Index.
type Segment interface {
	segment()
	String() string
}

// Key addresses an object member.
type Key string

// Index addresses an array element.
type Index int

func (Key) segment()   {}
func (Index) segment() {}

func (k Key) String() string   { return string(k) }
func (i Index) String() string { return strconv.Itoa(int(i)) }

// Path is an ordered address into a content tree.
type Path []Segment

// P builds a Path from strings and ints. Other types panic.
func P(parts ...any) Path {
	path := make(Path, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			path = append(path, Key(v))
		case int:
			path = append(path, Index(v))
		case Segment:
			path = append(path, v)
		default:
			panic(fmt.Sprintf("content: invalid path part %T", p))
		}
	}
	return path
}

// ParsePath parses a dotted or bracketed path such as "hero.items[2].title"
// or "$['hero']['title']". An empty string or "$" yields the root path.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "$" {
		return Path{}, nil
	}
	x, err := jp.ParseString(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPath, s, err)
	}
	path := make(Path, 0, len(x))
	for _, frag := range x {
		switch f := frag.(type) {
		case jp.Root, jp.At, jp.Bracket:
			// Anchors carry no address.
		case jp.Child:
			path = append(path, Key(string(f)))
		case jp.Nth:
			if f < 0 {
				return nil, fmt.Errorf("%w %q: negative index %d", ErrInvalidPath, s, int(f))
			}
			path = append(path, Index(int(f)))
		default:
			return nil, fmt.Errorf("%w %q: unsupported %T segment", ErrInvalidPath, s, frag)
		}
	}
	return path, nil
}

// String renders p as "a.b[2].c". The root path renders as "$".
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	for i, seg := range p {
		switch s := seg.(type) {
		case Index:
			b.WriteByte('[')
			b.WriteString(s.String())
			b.WriteByte(']')
		case Key:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(string(s))
		}
	}
	return b.String()
}

// numeric reports whether seg can address an array element, and at which index.
func numeric(seg Segment) (int, bool) {
	switch s := seg.(type) {
	case Index:
		return int(s), s >= 0
	case Key:
		if s == "" {
			return 0, false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		n, err := strconv.Atoi(string(s))
		return n, err == nil
	}
	return 0, false
}

// Package content edits schema-free JSON content trees by path.
//
// Trees are the values produced by a JSON decoder: map[string]any for
// objects, []any for arrays, and scalars. Every mutating operation works on a
// deep copy, so the caller's tree is never modified and before/after
// snapshots stay independent.
package content

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/alt"
)

// MaxGrowth is the most elements a single Set may add to an array when the
// index lands past its end.
const MaxGrowth = 1024

// Get returns the value at path, or def when any step along the path is
// missing or is not a container.
func Get(tree any, path Path, def any) any {
	v, err := Lookup(tree, path)
	if err != nil {
		return def
	}
	return v
}

// Lookup returns the value at path. It fails with ErrNotFound for a missing
// key, ErrIndexOutOfRange for an index past the end of an array, and a
// *TypeMismatchError when a step lands on a scalar.
func Lookup(tree any, path Path) (any, error) {
	node := tree
	for i, seg := range path {
		switch n := node.(type) {
		case map[string]any:
			v, ok := n[seg.String()]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, path[:i+1])
			}
			node = v
		case []any:
			idx, err := arrayIndex(path, i, n)
			if err != nil {
				return nil, err
			}
			if idx >= len(n) {
				return nil, fmt.Errorf("%w: %s (length %d)", ErrIndexOutOfRange, path[:i+1], len(n))
			}
			node = n[idx]
		default:
			return nil, mismatch(path[:i], "container", n)
		}
	}
	return node, nil
}

// Set returns a copy of tree with value stored at path. Missing
// intermediates are created: an array when the next segment is numeric, an
// object otherwise. Arrays grow with nulls when the index is past the end,
// by at most MaxGrowth elements; further out is ErrIndexOutOfRange.
func Set(tree any, path Path, value any) (any, error) {
	if len(path) == 0 {
		return tree, ErrEmptyPath
	}
	out, err := setIn(Clone(tree), path, 0, Clone(value))
	if err != nil {
		return tree, err
	}
	return out, nil
}

func setIn(node any, path Path, depth int, value any) (any, error) {
	seg := path[depth]
	if node == nil {
		node = container(seg)
	}
	last := depth == len(path)-1

	switch n := node.(type) {
	case map[string]any:
		key := seg.String()
		if last {
			n[key] = value
			return n, nil
		}
		child, err := setIn(n[key], path, depth+1, value)
		if err != nil {
			return nil, err
		}
		n[key] = child
		return n, nil
	case []any:
		idx, err := arrayIndex(path, depth, n)
		if err != nil {
			return nil, err
		}
		if idx >= len(n) {
			if idx-len(n) >= MaxGrowth {
				return nil, fmt.Errorf("%w: %s (length %d, max growth %d)",
					ErrIndexOutOfRange, path[:depth+1], len(n), MaxGrowth)
			}
			n = append(n, make([]any, idx+1-len(n))...)
		}
		if last {
			n[idx] = value
			return n, nil
		}
		child, err := setIn(n[idx], path, depth+1, value)
		if err != nil {
			return nil, err
		}
		n[idx] = child
		return n, nil
	default:
		return nil, mismatch(path[:depth], "container", n)
	}
}

// arrayIndex resolves path[depth] against the array n. A negative Index is
// out of range; a non-numeric key is a type mismatch.
func arrayIndex(path Path, depth int, n []any) (int, error) {
	seg := path[depth]
	if i, ok := seg.(Index); ok && i < 0 {
		return 0, fmt.Errorf("%w: %s (length %d)", ErrIndexOutOfRange, path[:depth+1], len(n))
	}
	idx, ok := numeric(seg)
	if !ok {
		return 0, mismatch(path[:depth], "object", n)
	}
	return idx, nil
}

func container(seg Segment) any {
	if _, ok := numeric(seg); ok {
		return []any{}
	}
	return map[string]any{}
}

// AppendToArray returns a copy of tree with item appended to the array at
// path. An absent array is created. Any other value at path is a type
// mismatch and leaves the tree unchanged.
func AppendToArray(tree any, path Path, item any) (any, error) {
	if len(path) == 0 {
		return tree, ErrEmptyPath
	}
	arr, err := arrayAt(tree, path, true)
	if err != nil {
		return tree, err
	}
	next := make([]any, len(arr), len(arr)+1)
	copy(next, arr)
	return Set(tree, path, append(next, item))
}

// RemoveFromArray returns a copy of tree without the element at index of the
// array at path. An index outside the array, or an absent array, reports
// ErrIndexOutOfRange; a non-array reports a type mismatch. On error the
// original tree is returned unchanged.
func RemoveFromArray(tree any, path Path, index int) (any, error) {
	if len(path) == 0 {
		return tree, ErrEmptyPath
	}
	arr, err := arrayAt(tree, path, false)
	if err != nil {
		return tree, err
	}
	if index < 0 || index >= len(arr) {
		return tree, fmt.Errorf("%w: %s[%d] (length %d)", ErrIndexOutOfRange, path, index, len(arr))
	}
	next := make([]any, 0, len(arr)-1)
	next = append(next, arr[:index]...)
	next = append(next, arr[index+1:]...)
	return Set(tree, path, next)
}

// Delete returns a copy of tree without the object member or array element
// addressed by path.
func Delete(tree any, path Path) (any, error) {
	if len(path) == 0 {
		return tree, ErrEmptyPath
	}
	parentPath, last := path[:len(path)-1], path[len(path)-1]
	parent, err := Lookup(tree, parentPath)
	if err != nil {
		return tree, err
	}
	switch n := parent.(type) {
	case []any:
		idx, err := arrayIndex(path, len(parentPath), n)
		if err != nil {
			return tree, err
		}
		if len(parentPath) == 0 {
			if idx >= len(n) {
				return tree, fmt.Errorf("%w: %s (length %d)", ErrIndexOutOfRange, path, len(n))
			}
			out := make([]any, 0, len(n)-1)
			out = append(out, Clone(n[:idx]).([]any)...)
			return append(out, Clone(n[idx+1:]).([]any)...), nil
		}
		return RemoveFromArray(tree, parentPath, idx)
	case map[string]any:
		key := last.String()
		if _, ok := n[key]; !ok {
			return tree, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		out := Clone(tree)
		target, _ := Lookup(out, parentPath)
		delete(target.(map[string]any), key)
		return out, nil
	default:
		return tree, mismatch(parentPath, "container", n)
	}
}

// arrayAt returns the array at path. Absent locations yield nil when
// allowAbsent is set and ErrIndexOutOfRange otherwise.
func arrayAt(tree any, path Path, allowAbsent bool) ([]any, error) {
	cur, err := Lookup(tree, path)
	switch {
	case errors.Is(err, ErrTypeMismatch):
		return nil, err
	case err != nil || cur == nil:
		if allowAbsent {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: no array at %s", ErrIndexOutOfRange, path)
	}
	arr, ok := cur.([]any)
	if !ok {
		return nil, mismatch(path, "array", cur)
	}
	return arr, nil
}

// cloneOptions keeps null members; alt.DefaultOptions drops them.
var cloneOptions = ojg.DefaultOptions

// Clone returns a deep copy of v. Integers are normalised to int64, the same
// shape oj.Parse produces.
func Clone(v any) any {
	return alt.Dup(v, &cloneOptions)
}

// Keys returns the member names of an object, or element indexes of an array,
// at path.
func Keys(tree any, path Path) ([]string, error) {
	v, err := Lookup(tree, path)
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, nil
	case []any:
		keys := make([]string, len(n))
		for i := range n {
			keys[i] = strconv.Itoa(i)
		}
		return keys, nil
	}
	return nil, mismatch(path, "container", v)
}

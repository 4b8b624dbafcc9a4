package content

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPath       = errors.New("content: empty path")
	ErrInvalidPath     = errors.New("content: invalid path")
	ErrNotFound        = errors.New("content: path not found")
	ErrTypeMismatch    = errors.New("content: type mismatch")
	ErrIndexOutOfRange = errors.New("content: index out of range")
)

// TypeMismatchError reports a container of the wrong shape at Path.
// It matches ErrTypeMismatch with errors.Is.
type TypeMismatchError struct {
	Path Path
	Want string // "object", "array" or "container"
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("content: type mismatch at %s: want %s, got %s", e.Path, e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

func mismatch(path Path, want string, got any) error {
	return &TypeMismatchError{
		Path: append(Path(nil), path...),
		Want: want,
		Got:  KindOf(got),
	}
}

// KindOf names the JSON type of v.
func KindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

package writeback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/tailscale/hujson"
)

// ValidationError reports a page file that is not valid JSONC.
type ValidationError struct {
	FilePath string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.FilePath, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ParsePage decodes a JSONC document (comments and trailing commas allowed)
// into a content tree. filePath is only used in errors.
func ParsePage(data []byte, filePath string) (any, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, &ValidationError{FilePath: filePath, Err: err}
	}
	content, err := oj.Parse(standardized)
	if err != nil {
		return nil, &ValidationError{FilePath: filePath, Err: err}
	}
	return content, nil
}

// ReadPage loads a page file. The page name is the file name without its
// extension.
func ReadPage(path string) (string, any, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := CheckName(name); err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return "", nil, fmt.Errorf("read page %s: %w", path, err)
	}
	content, err := ParsePage(data, path)
	if err != nil {
		return "", nil, err
	}
	return name, content, nil
}

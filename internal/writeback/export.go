// Package writeback exports page content to JSON files and imports it back.
package writeback

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/natefinch/atomic"
)

// Ext is the extension of exported page files.
const Ext = ".json"

var ErrPageName = errors.New("invalid page name")

var pageName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// CheckName rejects page names that cannot be used as file names.
func CheckName(name string) error {
	if !pageName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrPageName, name)
	}
	return nil
}

// PagePath returns the export path of page name inside dir.
func PagePath(dir, name string) string {
	return filepath.Join(dir, name+Ext)
}

// WritePage exports a content tree to dir/<name>.json. The write is atomic:
// readers see either the previous file or the complete new one.
func WritePage(dir, name string, content any) (string, error) {
	if err := CheckName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir %s: %w", dir, err)
	}
	path := PagePath(dir, name)
	if err := atomic.WriteFile(path, bytes.NewReader(FormatPage(content))); err != nil {
		return "", fmt.Errorf("write page %s: %w", path, err)
	}
	return path, nil
}

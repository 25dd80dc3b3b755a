package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

type writeInput struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Overwrite bool   `json:"overwrite"`
}

func (f *FS) writeTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "write_file",
		Description: "Write content to a file, creating parent directories as needed. An existing file is only replaced when overwrite is true; the result then includes a unified diff of the change.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Path of the file to write"},"content":{"type":"string","description":"Full file content"},"overwrite":{"type":"boolean","description":"Replace the file if it already exists"}},"required":["path","content"]}`),
		Handler:     f.handleWrite,
	}
}

func (f *FS) handleWrite(_ context.Context, input json.RawMessage) (string, error) {
	in, err := decode[writeInput]("write_file", input)
	if err != nil {
		return "", err
	}
	abs, err := f.target("write_file", in.Path)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	old, readErr := os.ReadFile(abs) //nolint:gosec // agents write inside the project they generate
	exists := readErr == nil

	if exists && !in.Overwrite {
		return "", fmt.Errorf("write_file: %s already exists; set overwrite to true to replace it", in.Path)
	}

	if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return "", fmt.Errorf("write_file: %s is a directory", in.Path)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil { //nolint:gosec // generated projects are meant to be readable
		return "", fmt.Errorf("write_file: create dirs: %w", err)
	}

	if err := os.WriteFile(abs, []byte(in.Content), fileMode(abs)); err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}

	summary := fmt.Sprintf("Wrote %d bytes to %s", len(in.Content), in.Path)
	if !exists {
		return summary, nil
	}

	diff := computeDiff(in.Path, string(old), in.Content)
	if diff == "" {
		return summary + " (content unchanged)", nil
	}

	return summary + "\n\n" + diff, nil
}

// computeDiff returns a unified diff between two versions of a file, or ""
// when they are identical.
func computeDiff(name, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
	if err != nil {
		return ""
	}

	return diff
}

package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

// dirEntry is one element of list_dir's JSON result.
type dirEntry struct {
	Name string `json:"name"`
	Type string `json:"type"` // "dir" or "file"
	Size int64  `json:"size"`
}

func (f *FS) listTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "list_dir",
		Description: "List the entries of one directory without recursing. The result is a JSON array of {name, type, size}; type is \"dir\" or \"file\".",
		InputSchema: pathSchema("Path of the directory to list"),
		Handler:     f.handleList,
	}
}

func (f *FS) handleList(_ context.Context, input json.RawMessage) (string, error) {
	in, err := decode[pathInput]("list_dir", input)
	if err != nil {
		return "", err
	}
	dir, err := f.target("list_dir", in.Path)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list_dir: %w", err)
	}

	listing := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		entry := dirEntry{Name: e.Name(), Type: "file"}
		if e.IsDir() {
			entry.Type = "dir"
		} else if info, err := e.Info(); err == nil {
			entry.Size = info.Size()
		}
		listing = append(listing, entry)
	}

	out, err := json.Marshal(listing)
	if err != nil {
		return "", fmt.Errorf("list_dir: %w", err)
	}
	return string(out), nil
}

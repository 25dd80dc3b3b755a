package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

func (f *FS) mkdirTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "create_folder",
		Description: "Create a directory at the given path, including any missing parent directories. Succeeds if the directory already exists.",
		InputSchema: pathSchema("Path of the directory to create, e.g. ./output/todo_api/app"),
		Handler:     f.handleMkdir,
	}
}

// handleMkdir never returns an error. Failures are reported in the result
// text so the calling agent can read them and adjust.
func (f *FS) handleMkdir(_ context.Context, input json.RawMessage) (string, error) {
	var in pathInput
	if err := json.Unmarshal(input, &in); err != nil {
		return fmt.Sprintf("Failed to create directory: invalid input: %v", err), nil
	}

	return f.CreateFolder(in.Path), nil
}

// CreateFolder creates path and its parents and returns a human-readable
// outcome. It is idempotent.
func (f *FS) CreateFolder(path string) string {
	if path == "" {
		return "Failed to create directory: path is required"
	}

	abs, err := f.resolve(path)
	if err != nil {
		return fmt.Sprintf("Failed to create directory: %v", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil { //nolint:gosec // generated projects are meant to be readable
		return fmt.Sprintf("Failed to create directory: %v", err)
	}

	return "Successfully created directory: " + path
}

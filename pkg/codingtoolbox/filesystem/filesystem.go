// Package filesystem provides the tools agents use to lay out and fill a
// generated project on disk: create_folder, write_file, read_file and
// list_dir.
//
// Relative paths resolve against the FS base directory, which defaults to
// the process working directory, so a path such as "./output/app" lands where
// the user ran the command.
package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

// ToolBoxName is the name crew definitions use to request these tools.
const ToolBoxName = "filesystem"

const maxReadSize = 10 << 20 // 10 MB

// FS provides filesystem tools rooted at a base directory.
type FS struct {
	base string
	mu   sync.Mutex // serialises writes
}

// New creates an FS. An empty base resolves relative paths against the
// working directory at call time.
func New(base string) *FS {
	return &FS{base: base}
}

// Base returns the directory relative paths resolve against.
func (f *FS) Base() string {
	if f.base != "" {
		return f.base
	}

	wd, err := os.Getwd()
	if err != nil {
		return "."
	}

	return wd
}

// Tools returns a ToolBox containing the filesystem tools.
func (f *FS) Tools() *toolbox.ToolBox {
	tb := toolbox.New(ToolBoxName)
	tb.MustRegister(f.mkdirTool(), f.writeTool(), f.readTool(), f.listTool())

	return tb
}

// resolve returns the absolute path for p.
func (f *FS) resolve(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}

	abs, err := filepath.Abs(filepath.Join(f.Base(), p))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	return abs, nil
}

// fileMode returns the existing file's permission bits, or 0o644 for new files.
func fileMode(path string) os.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return 0o644
	}

	return info.Mode().Perm()
}

type pathInput struct {
	Path string `json:"path"`
}

// decode unmarshals a tool's JSON input into T.
func decode[T any](tool string, input json.RawMessage) (T, error) {
	var in T
	if err := json.Unmarshal(input, &in); err != nil {
		return in, fmt.Errorf("%s: invalid input: %w", tool, err)
	}
	return in, nil
}

// target checks that a path argument was given and resolves it.
func (f *FS) target(tool, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s: path is required", tool)
	}
	abs, err := f.resolve(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", tool, err)
	}
	return abs, nil
}

func pathSchema(desc string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type":"object","properties":{"path":{"type":"string","description":%q}},"required":["path"]}`, desc))
}

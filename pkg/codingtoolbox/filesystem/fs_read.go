package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

func (f *FS) readTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "read_file",
		Description: "Return the full text of a file. Use it to review what earlier tasks wrote before changing it.",
		InputSchema: pathSchema("Path of the file to read"),
		Handler:     f.handleRead,
	}
}

func (f *FS) handleRead(_ context.Context, input json.RawMessage) (string, error) {
	in, err := decode[pathInput]("read_file", input)
	if err != nil {
		return "", err
	}
	path, err := f.target("read_file", in.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "", fmt.Errorf("read_file: %w", err)
	case info.IsDir():
		return "", fmt.Errorf("read_file: %s is a directory; use list_dir", in.Path)
	case info.Size() > maxReadSize:
		return "", fmt.Errorf("read_file: %s is %d bytes, over the %d byte limit", in.Path, info.Size(), maxReadSize)
	}

	data, err := os.ReadFile(path) //nolint:gosec // agents read inside the project they generate
	if err != nil {
		return "", fmt.Errorf("read_file: %w", err)
	}
	return string(data), nil
}
